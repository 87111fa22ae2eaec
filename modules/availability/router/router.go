package router

import (
	"smart-schedule/modules/availability/controller"

	"github.com/labstack/echo/v4"
)

// AvailabilityRouter handles availability routes
type AvailabilityRouter struct {
	AvailabilityController *controller.AvailabilityController
}

func NewAvailabilityRouter(availabilityController *controller.AvailabilityController) *AvailabilityRouter {
	return &AvailabilityRouter{
		AvailabilityController: availabilityController,
	}
}

// Setup registers availability routes
func (r *AvailabilityRouter) Setup(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	v1 := e.Group("/api/v1")
	availabilityRoutes := v1.Group("/availability", mw...)

	availabilityRoutes.POST("/slots", r.AvailabilityController.GetAvailableSlots)
}
