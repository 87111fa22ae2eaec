package service

import (
	"context"
	"time"

	"smart-schedule/core/errors"
	"smart-schedule/core/interval"
	"smart-schedule/core/logger"
	"smart-schedule/modules/schedule/entity"
	"smart-schedule/modules/schedule/repository"

	"github.com/google/uuid"
)

type ScheduleService interface {
	// WorkingWindows resolves the host's working hours inside rng. A host
	// without a stored schedule gets the default policy in hostTimezone.
	WorkingWindows(ctx context.Context, hostID uuid.UUID, hostTimezone string, rng interval.Interval, booker *time.Location, duration time.Duration) ([]entity.DayWindows, *errors.AppError)
}

type scheduleService struct {
	repo     repository.ScheduleRepository
	fallback entity.DefaultPolicy
}

func NewScheduleService(repo repository.ScheduleRepository, fallback entity.DefaultPolicy) ScheduleService {
	return &scheduleService{repo: repo, fallback: fallback}
}

func (s *scheduleService) WorkingWindows(ctx context.Context, hostID uuid.UUID, hostTimezone string, rng interval.Interval, booker *time.Location, duration time.Duration) ([]entity.DayWindows, *errors.AppError) {
	schedule, err := s.repo.GetByHostID(ctx, hostID)
	if err != nil {
		logger.Error("ScheduleService:WorkingWindows:GetByHostID:Error", "host_id", hostID, "error", err)
		return nil, errors.NewAppError(errors.ErrDependency, "failed to load schedule", err)
	}
	if schedule == nil {
		logger.Info("ScheduleService:WorkingWindows:DefaultSchedule", "host_id", hostID, "timezone", hostTimezone)
		schedule = s.fallback.Schedule(hostID, hostTimezone)
	}

	days, err := Resolve(schedule, rng, booker, duration)
	if err != nil {
		logger.Error("ScheduleService:WorkingWindows:Resolve:Error", "host_id", hostID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to resolve schedule", err)
	}
	return days, nil
}
