package service

import (
	"context"
	stderrors "errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"smart-schedule/core/errors"
	"smart-schedule/core/interval"
	"smart-schedule/core/logger"
	"smart-schedule/core/metrics"
	"smart-schedule/core/utils"
	"smart-schedule/modules/availability/dto"
	"smart-schedule/modules/availability/entity"
	"smart-schedule/modules/availability/repository"
	bookingEntity "smart-schedule/modules/booking/entity"
	bookingRepo "smart-schedule/modules/booking/repository"
	calendarService "smart-schedule/modules/calendar/service"
	hostEntity "smart-schedule/modules/host/entity"
	hostRepo "smart-schedule/modules/host/repository"
	hostService "smart-schedule/modules/host/service"
	notificationEntity "smart-schedule/modules/notification/entity"
	notificationService "smart-schedule/modules/notification/service"
	scheduleService "smart-schedule/modules/schedule/service"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, *errors.AppError)
}

// Options tune an AvailabilityService.
type Options struct {
	// FairnessSeed is mixed into the per-request round-robin seed.
	FairnessSeed uint64
	// Now defaults to time.Now.
	Now func() time.Time
}

type availabilityService struct {
	eventTypes repository.EventTypeRepository
	hosts      hostRepo.HostRepository
	schedules  scheduleService.ScheduleService
	busy       calendarService.BusyTimeService
	bookings   bookingRepo.BookingRepository
	counts     bookingRepo.BookingCountRepository
	notifier   notificationService.NoSlotsNotifier
	opts       Options
}

func NewAvailabilityService(
	eventTypes repository.EventTypeRepository,
	hosts hostRepo.HostRepository,
	schedules scheduleService.ScheduleService,
	busy calendarService.BusyTimeService,
	bookings bookingRepo.BookingRepository,
	counts bookingRepo.BookingCountRepository,
	notifier notificationService.NoSlotsNotifier,
	opts Options,
) AvailabilityService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &availabilityService{
		eventTypes: eventTypes,
		hosts:      hosts,
		schedules:  schedules,
		busy:       busy,
		bookings:   bookings,
		counts:     counts,
		notifier:   notifier,
		opts:       opts,
	}
}

// query is a validated AvailabilityRequest.
type query struct {
	eventTypeID    uuid.UUID
	hostIDs        []uuid.UUID
	rng            interval.Interval
	booker         *time.Location
	previousHostID *uuid.UUID
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, *errors.AppError) {
	started := time.Now()
	computationID := utils.GenerateID()

	response, appErr := s.compute(ctx, computationID, req)
	switch {
	case appErr != nil:
		metrics.RequestDuration.WithLabelValues(strings.ToLower(string(appErr.Code))).Observe(time.Since(started).Seconds())
	case response.Count() == 0:
		metrics.RequestDuration.WithLabelValues("empty").Observe(time.Since(started).Seconds())
	default:
		metrics.RequestDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
	}
	return response, appErr
}

func (s *availabilityService) compute(ctx context.Context, computationID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, *errors.AppError) {
	q, err := parseQuery(req)
	if err != nil {
		logger.Warn("AvailabilityService:GetAvailableSlots:InvalidRequest", "computation_id", computationID, "error", err)
		return nil, errors.NewAppError(errors.ErrValidation, err.Error(), err)
	}

	eventType, err := s.eventTypes.GetByID(ctx, q.eventTypeID)
	if err != nil {
		logger.Error("AvailabilityService:GetAvailableSlots:GetEventType:Error", "computation_id", computationID, "event_type_id", q.eventTypeID, "error", err)
		return nil, dependencyError(ctx, "failed to load event type", err)
	}
	if eventType == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "event type not found", nil)
	}

	constraints, err := eventType.Constraints()
	if err != nil {
		logger.Error("AvailabilityService:GetAvailableSlots:Constraints:Error", "computation_id", computationID, "event_type_id", q.eventTypeID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "invalid stored event type", err)
	}
	constraints = applyOverrides(constraints, req)
	if err := constraints.Validate(); err != nil {
		return nil, errors.NewAppError(errors.ErrValidation, err.Error(), err)
	}

	schedulingType, err := hostEntity.ParseSchedulingType(eventType.SchedulingType)
	if err != nil {
		logger.Error("AvailabilityService:GetAvailableSlots:SchedulingType:Error", "computation_id", computationID, "event_type_id", q.eventTypeID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "invalid stored event type", err)
	}

	hosts, appErr := s.resolveHosts(ctx, eventType, constraints, q)
	if appErr != nil {
		return nil, appErr
	}
	if len(hosts) == 1 {
		schedulingType = hostEntity.SchedulingCollective
	}

	logger.Info("AvailabilityService:GetAvailableSlots:Start",
		"computation_id", computationID,
		"event_type_id", q.eventTypeID,
		"scheduling_type", schedulingType,
		"hosts", len(hosts),
		"from", q.rng.Start,
		"to", q.rng.End,
		"timezone", q.booker.String(),
	)

	availability, appErr := s.loadHosts(ctx, hosts, q, constraints, eventType.ID)
	if appErr != nil {
		return nil, appErr
	}

	generator := NewSlotGenerator(constraints, q.booker)
	slots := generator.Candidates(schedulingType, availability, s.opts.Now())

	if buckets := generator.LimitBuckets(slots); len(buckets) > 0 {
		counts, appErr := s.countBuckets(ctx, eventType.ID, buckets)
		if appErr != nil {
			return nil, appErr
		}
		slots = generator.ApplyLimits(slots, counts)
	}

	if constraints.SeatsPerSlot != nil && len(slots) > 0 {
		taken, err := s.bookings.SeatCounts(ctx, eventType.ID, q.rng)
		if err != nil {
			logger.Error("AvailabilityService:GetAvailableSlots:SeatCounts:Error", "computation_id", computationID, "event_type_id", eventType.ID, "error", err)
			return nil, dependencyError(ctx, "failed to load seat counts", err)
		}
		slots = generator.ApplySeats(slots, taken)
	}

	qualifier := hostService.NewQualifier(s.seed(q))
	slots = generator.Qualify(slots, qualifier, schedulingType, hosts, q.previousHostID)

	response := dto.ToAvailabilityResponse(slots, q.booker)
	metrics.SlotsGenerated.Observe(float64(len(slots)))
	logger.Info("AvailabilityService:GetAvailableSlots:Done",
		"computation_id", computationID,
		"event_type_id", eventType.ID,
		"slots", len(slots),
		"dates", len(response.SlotsByDate),
	)

	if len(slots) == 0 {
		metrics.NoSlotsTotal.Inc()
		s.notifyNoSlots(ctx, computationID, eventType, hosts, q)
	}
	return response, nil
}

// resolveHosts returns the team of the event type, narrowed to the requested
// hosts. An event type without a team is hosted by its owner.
func (s *availabilityService) resolveHosts(ctx context.Context, eventType *entity.EventType, constraints entity.EventTypeConstraints, q query) ([]hostEntity.Host, *errors.AppError) {
	members, err := s.hosts.ListByEventType(ctx, eventType.ID)
	if err != nil {
		logger.Error("AvailabilityService:ResolveHosts:ListByEventType:Error", "event_type_id", eventType.ID, "error", err)
		return nil, dependencyError(ctx, "failed to load event type hosts", err)
	}
	if len(members) == 0 && eventType.OwnerID.Valid {
		members = []hostEntity.Host{{
			ID:       eventType.OwnerID.UUID,
			IsFixed:  true,
			Weight:   1,
			Timezone: constraints.Location.String(),
		}}
	}

	if len(q.hostIDs) > 0 {
		byID := make(map[uuid.UUID]hostEntity.Host, len(members))
		for _, m := range members {
			byID[m.ID] = m
		}
		selected := make([]hostEntity.Host, 0, len(q.hostIDs))
		for _, id := range q.hostIDs {
			m, ok := byID[id]
			if !ok {
				return nil, errors.NewAppError(errors.ErrValidation, "host "+id.String()+" is not a member of the event type", nil)
			}
			selected = append(selected, m)
		}
		members = selected
	}

	if len(members) == 0 {
		return nil, errors.NewAppError(errors.ErrValidation, "event type has no hosts", nil)
	}
	hostEntity.SortHosts(members)
	return members, nil
}

// loadHosts resolves working windows and busy times of every host concurrently.
func (s *availabilityService) loadHosts(ctx context.Context, hosts []hostEntity.Host, q query, constraints entity.EventTypeConstraints, eventTypeID uuid.UUID) ([]HostAvailability, *errors.AppError) {
	// Busy time just outside the range still blocks slots through buffers.
	pad := max(constraints.BufferBefore, constraints.BufferAfter)
	busyRange := interval.New(q.rng.Start.Add(-pad), q.rng.End.Add(pad))

	var seated uuid.UUID
	if constraints.SeatsPerSlot != nil {
		seated = eventTypeID
	}

	out := make([]HostAvailability, len(hosts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(hosts) * 2)

	for k := range hosts {
		host := hosts[k]
		out[k].Host = host

		g.Go(func() error {
			days, appErr := s.schedules.WorkingWindows(gctx, host.ID, host.Timezone, q.rng, q.booker, constraints.Duration)
			if appErr != nil {
				return appErr
			}
			for _, d := range days {
				out[k].Windows = append(out[k].Windows, d.Windows...)
			}
			return nil
		})

		g.Go(func() error {
			result, appErr := s.busy.HostBusy(gctx, calendarService.BusyRequest{
				HostID:            host.ID,
				Range:             busyRange,
				SeatedEventTypeID: seated,
			})
			if appErr != nil {
				return appErr
			}
			out[k].Busy = result.Busy
			out[k].Seated = result.Seated
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			if appErr.Code == errors.ErrDependency && ctx.Err() != nil {
				return nil, errors.NewAppError(errors.ErrTimeout, appErr.Message, appErr.Err)
			}
			return nil, appErr
		}
		return nil, dependencyError(ctx, "failed to load host availability", err)
	}
	if ctx.Err() != nil {
		return nil, dependencyError(ctx, "deadline exceeded while loading host availability", ctx.Err())
	}
	return out, nil
}

// countBuckets reads the booking count of every bucket concurrently. Any
// failure aborts the request.
func (s *availabilityService) countBuckets(ctx context.Context, eventTypeID uuid.UUID, buckets []bookingEntity.Bucket) (map[bookingEntity.Bucket]int, *errors.AppError) {
	counts := make(map[bookingEntity.Bucket]int, len(buckets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(buckets))
	for _, bucket := range buckets {
		g.Go(func() error {
			n, err := s.counts.CountInBucket(gctx, eventTypeID, bucket)
			if err != nil {
				return err
			}
			mu.Lock()
			counts[bucket] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("AvailabilityService:CountBuckets:Error", "event_type_id", eventTypeID, "buckets", len(buckets), "error", err)
		return nil, dependencyError(ctx, "failed to read booking counts", err)
	}
	return counts, nil
}

func (s *availabilityService) notifyNoSlots(ctx context.Context, computationID string, eventType *entity.EventType, hosts []hostEntity.Host, q query) {
	if s.notifier == nil {
		return
	}
	ids := make([]uuid.UUID, len(hosts))
	for k, h := range hosts {
		ids[k] = h.ID
	}
	event := notificationEntity.NoSlotsEvent{
		ComputationID:  computationID,
		EventTypeID:    eventType.ID,
		EventTypeTitle: eventType.Title,
		EventTypeSlug:  eventType.Slug,
		HostIDs:        ids,
		From:           q.rng.Start,
		To:             q.rng.End,
		Timezone:       q.booker.String(),
		OccurredAt:     s.opts.Now().UTC(),
	}
	if err := s.notifier.NotifyNoSlots(ctx, event); err != nil {
		logger.Warn("AvailabilityService:NotifyNoSlots:Error", "computation_id", computationID, "event_type_id", eventType.ID, "error", err)
	}
}

// seed derives the round-robin seed of a request so identical requests
// produce identical host picks.
func (s *availabilityService) seed(q query) uint64 {
	h := fnv.New64a()
	h.Write(q.eventTypeID[:])
	h.Write([]byte(q.rng.Start.UTC().Format(time.RFC3339)))
	h.Write([]byte(q.rng.End.UTC().Format(time.RFC3339)))
	h.Write([]byte(q.booker.String()))
	return s.opts.FairnessSeed ^ h.Sum64()
}

// dependencyError reports a TimeoutError when the caller's deadline caused err.
func dependencyError(ctx context.Context, message string, err error) *errors.AppError {
	if ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAppError(errors.ErrTimeout, message, err)
	}
	return errors.NewAppError(errors.ErrDependency, message, err)
}
