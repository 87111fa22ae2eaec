package controller

import (
	"smart-schedule/core/controller"
	"smart-schedule/core/errors"
	"smart-schedule/modules/availability/dto"
	"smart-schedule/modules/availability/service"

	"github.com/labstack/echo/v4"
)

type AvailabilityController struct {
	controller.BaseController
	AvailabilityService service.AvailabilityService
}

func NewAvailabilityController(svc service.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		BaseController:      controller.NewBaseController(),
		AvailabilityService: svc,
	}
}

// GetAvailableSlots returns the bookable slots of an event type
func (controller *AvailabilityController) GetAvailableSlots(c echo.Context) error {
	ctx := c.Request().Context()

	requestData := new(dto.AvailabilityRequest)
	if err := c.Bind(requestData); err != nil {
		return controller.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	slots, errGet := controller.AvailabilityService.GetAvailableSlots(ctx, requestData)
	if errGet != nil {
		return controller.ErrorResponse(c, errGet)
	}

	return controller.SuccessResponse(c, slots, "get available slots success")
}
