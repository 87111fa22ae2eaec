package availability

import (
	"smart-schedule/core/cache"
	"smart-schedule/core/config"
	"smart-schedule/core/database"
	"smart-schedule/modules/availability/controller"
	"smart-schedule/modules/availability/repository"
	"smart-schedule/modules/availability/router"
	"smart-schedule/modules/availability/service"
	bookingRepository "smart-schedule/modules/booking/repository"
	"smart-schedule/modules/calendar"
	hostRepository "smart-schedule/modules/host/repository"
	notificationService "smart-schedule/modules/notification/service"
	scheduleEntity "smart-schedule/modules/schedule/entity"
	scheduleRepository "smart-schedule/modules/schedule/repository"
	scheduleService "smart-schedule/modules/schedule/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewService wires the availability engine and its collaborators.
func NewService(cfg *config.Config, db database.Database, redisClient cache.Cache, notifier notificationService.NoSlotsNotifier) (service.AvailabilityService, error) {
	busy, err := calendar.Init(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}

	policy := scheduleEntity.NewDefaultPolicy(cfg.Availability.DefaultDays, cfg.Availability.DefaultStart, cfg.Availability.DefaultEnd)
	schedules := scheduleService.NewScheduleService(scheduleRepository.NewScheduleRepository(db), policy)

	return service.NewAvailabilityService(
		repository.NewEventTypeRepository(db),
		hostRepository.NewHostRepository(db),
		schedules,
		busy,
		bookingRepository.NewBookingRepository(db),
		bookingRepository.NewBookingCountRepository(db),
		notifier,
		service.Options{FairnessSeed: cfg.Availability.FairnessSeed},
	), nil
}

// Init initializes the availability module and registers routes
func Init(e *echo.Echo, cfg *config.Config, db database.Database, redisClient cache.Cache, notifier notificationService.NoSlotsNotifier) error {
	svc, err := NewService(cfg, db, redisClient, notifier)
	if err != nil {
		return err
	}
	ctrl := controller.NewAvailabilityController(svc)
	rtr := router.NewAvailabilityRouter(ctrl)

	rtr.Setup(e, middleware.ContextTimeout(cfg.Server.RequestTimeout))
	return nil
}
