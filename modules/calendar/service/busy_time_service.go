package service

import (
	"context"
	"errors"
	"time"

	"smart-schedule/core/constants"
	appErrors "smart-schedule/core/errors"
	"smart-schedule/core/interval"
	"smart-schedule/core/logger"
	"smart-schedule/core/metrics"
	bookingRepo "smart-schedule/modules/booking/repository"
	"smart-schedule/modules/calendar/cache"
	"smart-schedule/modules/calendar/entity"
	"smart-schedule/modules/calendar/provider"
	"smart-schedule/modules/calendar/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BusyRequest asks for the busy time of one host.
type BusyRequest struct {
	HostID uuid.UUID
	Range  interval.Interval
	// SeatedEventTypeID moves bookings of a seated event type out of Busy
	// and into Seated.
	SeatedEventTypeID uuid.UUID
}

// BusyResult is the merged, unbuffered busy set of a host.
type BusyResult struct {
	Busy []entity.BusyInterval
	// Seated holds the bookings of the seated event type, sorted by start.
	// They share seats with a slot starting at the same instant and block
	// every other slot they overlap.
	Seated []interval.Interval
	// Degraded lists the credentials whose data was excluded.
	Degraded []uuid.UUID
}

type BusyTimeService interface {
	HostBusy(ctx context.Context, req BusyRequest) (*BusyResult, *appErrors.AppError)
}

type busyTimeService struct {
	credentials repository.CredentialRepository
	bookings    bookingRepo.BookingRepository
	providers   *provider.Registry
	cache       cache.BusyCache
	timeout     time.Duration
}

func NewBusyTimeService(
	credentials repository.CredentialRepository,
	bookings bookingRepo.BookingRepository,
	providers *provider.Registry,
	busyCache cache.BusyCache,
	timeout time.Duration,
) BusyTimeService {
	if busyCache == nil {
		busyCache = cache.Noop{}
	}
	if timeout <= 0 {
		timeout = constants.DefaultProviderTimeout
	}
	return &busyTimeService{
		credentials: credentials,
		bookings:    bookings,
		providers:   providers,
		cache:       busyCache,
		timeout:     timeout,
	}
}

// HostBusy fetches every credential of the host concurrently, each under its
// own timeout. A failing credential is dropped with a warning. Existing
// bookings are mandatory: failing to read them fails the call.
func (s *busyTimeService) HostBusy(ctx context.Context, req BusyRequest) (*BusyResult, *appErrors.AppError) {
	creds, err := s.credentials.ListByHostID(ctx, req.HostID)
	if err != nil {
		logger.Error("BusyTimeService:HostBusy:ListCredentials:Error", "host_id", req.HostID, "error", err)
		return nil, dependencyError(ctx, "failed to load calendar credentials", err)
	}

	fromCalendars := make([][]interval.Interval, len(creds))
	failed := make([]bool, len(creds))
	var fromBookings []entity.BusyInterval
	var seated []interval.Interval

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(creds) + 1)

	g.Go(func() error {
		bookings, err := s.bookings.ListBusy(gctx, req.HostID, req.Range)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if req.SeatedEventTypeID != uuid.Nil && b.EventTypeID == req.SeatedEventTypeID {
				seated = append(seated, interval.New(b.StartTime, b.EndTime))
				continue
			}
			fromBookings = append(fromBookings, entity.BusyInterval{
				Interval: interval.New(b.StartTime, b.EndTime),
				Source:   entity.SourceExistingBooking,
			})
		}
		return nil
	})

	for k := range creds {
		cred := creds[k]
		g.Go(func() error {
			busy, err := s.credentialBusy(gctx, cred, req.Range)
			if err != nil {
				logger.Warn("BusyTimeService:HostBusy:ProviderDegraded",
					"host_id", req.HostID,
					"credential_id", cred.ID,
					"provider", cred.Provider,
					"error", err,
				)
				metrics.DegradedCredentials.WithLabelValues(string(cred.Provider)).Inc()
				failed[k] = true
				return nil
			}
			fromCalendars[k] = busy
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("BusyTimeService:HostBusy:ListBookings:Error", "host_id", req.HostID, "error", err)
		return nil, dependencyError(ctx, "failed to load existing bookings", err)
	}

	interval.Sort(seated)
	result := &BusyResult{Seated: seated}
	all := fromBookings
	for k, busy := range fromCalendars {
		if failed[k] {
			result.Degraded = append(result.Degraded, creds[k].ID)
			continue
		}
		all = append(all, entity.Tag(busy, entity.SourceCalendar)...)
	}
	result.Busy = entity.MergeBusy(all)
	return result, nil
}

// credentialBusy serves a credential from the day-bucket cache when every
// bucket is present, otherwise fetches the whole span and rewrites all buckets.
func (s *busyTimeService) credentialBusy(ctx context.Context, cred entity.Credential, rng interval.Interval) ([]interval.Interval, error) {
	keys := cache.DayKeys(cred.HostID, cred.ID, rng)

	var cached []interval.Interval
	hit := true
	for _, key := range keys {
		busy, ok := s.cache.Get(ctx, key)
		if !ok {
			hit = false
			break
		}
		cached = append(cached, busy...)
	}
	if hit {
		metrics.BusyCacheLookups.WithLabelValues("hit").Inc()
		return interval.Merge(cached), nil
	}
	metrics.BusyCacheLookups.WithLabelValues("miss").Inc()

	p, err := s.providers.Get(cred.Provider)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	busy, err := p.FetchBusy(fetchCtx, cred, cache.Span(keys))
	metrics.ProviderFetchDuration.WithLabelValues(string(cred.Provider), fetchResult(err)).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		s.cache.Set(ctx, key, cache.Bucket(key, busy))
	}
	return interval.Merge(busy), nil
}

func fetchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// dependencyError reports a TimeoutError when the caller's deadline caused err.
func dependencyError(ctx context.Context, message string, err error) *appErrors.AppError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.NewAppError(appErrors.ErrTimeout, message, err)
	}
	return appErrors.NewAppError(appErrors.ErrDependency, message, err)
}
