package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	appErrors "smart-schedule/core/errors"
	"smart-schedule/core/interval"
	bookingEntity "smart-schedule/modules/booking/entity"
	"smart-schedule/modules/calendar/cache"
	"smart-schedule/modules/calendar/entity"
	"smart-schedule/modules/calendar/provider"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fakeCredentials struct {
	creds []entity.Credential
	err   error
}

func (f *fakeCredentials) ListByHostID(context.Context, uuid.UUID) ([]entity.Credential, error) {
	return f.creds, f.err
}

type fakeBookings struct {
	bookings []bookingEntity.Booking
	err      error
}

func (f *fakeBookings) ListBusy(ctx context.Context, _ uuid.UUID, _ interval.Interval) ([]bookingEntity.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.bookings, nil
}

func (f *fakeBookings) SeatCounts(context.Context, uuid.UUID, interval.Interval) (bookingEntity.SeatCounts, error) {
	return bookingEntity.SeatCounts{}, nil
}

type fakeProvider struct {
	busy  []interval.Interval
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeProvider) FetchBusy(ctx context.Context, _ entity.Credential, _ interval.Interval) ([]interval.Interval, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.busy, f.err
}

func newService(t *testing.T, creds []entity.Credential, bookings *fakeBookings, providers map[entity.Provider]*fakeProvider, c cache.BusyCache) BusyTimeService {
	t.Helper()
	registry := provider.NewRegistry()
	for kind, p := range providers {
		registry.Register(kind, p)
	}
	return NewBusyTimeService(&fakeCredentials{creds: creds}, bookings, registry, c, 50*time.Millisecond)
}

func credential(hostID uuid.UUID, kind entity.Provider) entity.Credential {
	c := entity.Credential{HostID: hostID, Provider: kind, IsActive: true}
	c.ID = uuid.New()
	return c
}

func TestHostBusyMergesCalendarsAndBookings(t *testing.T) {
	hostID := uuid.New()
	google := &fakeProvider{busy: []interval.Interval{interval.New(at(10, 0), at(10, 30))}}
	outlook := &fakeProvider{busy: []interval.Interval{interval.New(at(10, 30), at(11, 0)), interval.New(at(15, 0), at(16, 0))}}
	bookings := &fakeBookings{bookings: []bookingEntity.Booking{{HostID: hostID, StartTime: at(13, 0), EndTime: at(13, 30)}}}

	svc := newService(t,
		[]entity.Credential{credential(hostID, entity.ProviderGoogle), credential(hostID, entity.ProviderOutlook)},
		bookings,
		map[entity.Provider]*fakeProvider{entity.ProviderGoogle: google, entity.ProviderOutlook: outlook},
		nil,
	)

	res, appErr := svc.HostBusy(context.Background(), BusyRequest{HostID: hostID, Range: interval.New(monday, monday.AddDate(0, 0, 1))})
	require.Nil(t, appErr)
	assert.Empty(t, res.Degraded)
	assert.Equal(t, []interval.Interval{
		interval.New(at(10, 0), at(11, 0)),
		interval.New(at(13, 0), at(13, 30)),
		interval.New(at(15, 0), at(16, 0)),
	}, entity.Intervals(res.Busy))
	assert.Equal(t, entity.SourceExistingBooking, res.Busy[1].Source)
	assert.Equal(t, entity.SourceCalendar, res.Busy[0].Source)
}

func TestHostBusyDegradesFailingAndSlowProviders(t *testing.T) {
	hostID := uuid.New()
	ok := &fakeProvider{busy: []interval.Interval{interval.New(at(9, 0), at(9, 30))}}
	broken := &fakeProvider{err: assert.AnError}
	slow := &fakeProvider{block: true}

	creds := []entity.Credential{
		credential(hostID, entity.ProviderGoogle),
		credential(hostID, entity.ProviderOutlook),
		credential(hostID, entity.ProviderCalDAV),
	}
	svc := newService(t, creds, &fakeBookings{},
		map[entity.Provider]*fakeProvider{entity.ProviderGoogle: ok, entity.ProviderOutlook: broken, entity.ProviderCalDAV: slow},
		nil,
	)

	res, appErr := svc.HostBusy(context.Background(), BusyRequest{HostID: hostID, Range: interval.New(monday, monday.AddDate(0, 0, 1))})
	require.Nil(t, appErr)
	assert.Equal(t, []uuid.UUID{creds[1].ID, creds[2].ID}, res.Degraded)
	assert.Equal(t, []interval.Interval{interval.New(at(9, 0), at(9, 30))}, entity.Intervals(res.Busy))
}

func TestHostBusyUnregisteredProviderIsDegraded(t *testing.T) {
	hostID := uuid.New()
	creds := []entity.Credential{credential(hostID, entity.Provider("exchange"))}
	svc := newService(t, creds, &fakeBookings{}, nil, nil)

	res, appErr := svc.HostBusy(context.Background(), BusyRequest{HostID: hostID, Range: interval.New(monday, monday.AddDate(0, 0, 1))})
	require.Nil(t, appErr)
	assert.Len(t, res.Degraded, 1)
}

func TestHostBusyBookingFailureIsHardError(t *testing.T) {
	hostID := uuid.New()
	svc := newService(t, nil, &fakeBookings{err: assert.AnError}, nil, nil)

	_, appErr := svc.HostBusy(context.Background(), BusyRequest{HostID: hostID, Range: interval.New(monday, monday.AddDate(0, 0, 1))})
	require.NotNil(t, appErr)
	assert.True(t, appErrors.Is(appErr, appErrors.Dependency))
}

func TestHostBusyCallerDeadlineIsTimeout(t *testing.T) {
	hostID := uuid.New()
	svc := newService(t, nil, &fakeBookings{}, nil, nil)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, appErr := svc.HostBusy(ctx, BusyRequest{HostID: hostID, Range: interval.New(monday, monday.AddDate(0, 0, 1))})
	require.NotNil(t, appErr)
	assert.True(t, appErrors.Is(appErr, appErrors.Timeout))
}

func TestHostBusySeparatesSeatedEventTypeBookings(t *testing.T) {
	hostID, seated, other := uuid.New(), uuid.New(), uuid.New()
	bookings := &fakeBookings{bookings: []bookingEntity.Booking{
		{EventTypeID: seated, HostID: hostID, StartTime: at(14, 15), EndTime: at(14, 45)},
		{EventTypeID: seated, HostID: hostID, StartTime: at(9, 0), EndTime: at(10, 0)},
		{EventTypeID: other, HostID: hostID, StartTime: at(11, 0), EndTime: at(12, 0)},
	}}
	svc := newService(t, nil, bookings, nil, nil)

	res, appErr := svc.HostBusy(context.Background(), BusyRequest{HostID: hostID, Range: interval.New(monday, monday.AddDate(0, 0, 1)), SeatedEventTypeID: seated})
	require.Nil(t, appErr)
	assert.Equal(t, []interval.Interval{interval.New(at(11, 0), at(12, 0))}, entity.Intervals(res.Busy))
	assert.Equal(t, []interval.Interval{
		interval.New(at(9, 0), at(10, 0)),
		interval.New(at(14, 15), at(14, 45)),
	}, res.Seated)
}

func TestHostBusyUsesCache(t *testing.T) {
	hostID := uuid.New()
	google := &fakeProvider{busy: []interval.Interval{interval.New(at(10, 0), at(10, 30))}}
	memory := cache.NewMemoryCache(100, time.Minute)
	svc := newService(t, []entity.Credential{credential(hostID, entity.ProviderGoogle)}, &fakeBookings{},
		map[entity.Provider]*fakeProvider{entity.ProviderGoogle: google}, memory)

	req := BusyRequest{HostID: hostID, Range: interval.New(at(8, 0), at(18, 0))}
	first, appErr := svc.HostBusy(context.Background(), req)
	require.Nil(t, appErr)
	second, appErr := svc.HostBusy(context.Background(), req)
	require.Nil(t, appErr)

	assert.Equal(t, int32(1), google.calls.Load())
	assert.Equal(t, first.Busy, second.Busy)

	// A range reaching an uncached day refetches.
	_, appErr = svc.HostBusy(context.Background(), BusyRequest{HostID: hostID, Range: interval.New(at(8, 0), at(40, 0))})
	require.Nil(t, appErr)
	assert.Equal(t, int32(2), google.calls.Load())
}
