package service

import (
	"fmt"
	"strings"
	"time"

	"smart-schedule/core/interval"
	"smart-schedule/modules/availability/dto"
	"smart-schedule/modules/availability/entity"
	bookingEntity "smart-schedule/modules/booking/entity"

	"github.com/google/uuid"
)

// parseQuery validates the request once, before any computation starts.
func parseQuery(req *dto.AvailabilityRequest) (query, error) {
	var q query
	if req == nil {
		return q, fmt.Errorf("empty request")
	}

	id, err := uuid.Parse(req.EventTypeID)
	if err != nil {
		return q, fmt.Errorf("invalid event_type_id: %w", err)
	}
	q.eventTypeID = id

	if strings.TrimSpace(req.BookerTimezone) == "" {
		return q, fmt.Errorf("booker_timezone is required")
	}
	loc, err := time.LoadLocation(req.BookerTimezone)
	if err != nil {
		return q, fmt.Errorf("invalid booker_timezone %q", req.BookerTimezone)
	}
	q.booker = loc

	from, err := parseBoundary(req.DateFrom, loc, false)
	if err != nil {
		return q, fmt.Errorf("invalid date_from: %w", err)
	}
	to, err := parseBoundary(req.DateTo, loc, true)
	if err != nil {
		return q, fmt.Errorf("invalid date_to: %w", err)
	}
	if !from.Before(to) {
		return q, fmt.Errorf("date_from must be before date_to")
	}
	q.rng = interval.New(from, to)

	seen := make(map[uuid.UUID]bool, len(req.HostIDs))
	for _, raw := range req.HostIDs {
		hostID, err := uuid.Parse(raw)
		if err != nil {
			return q, fmt.Errorf("invalid host id %q", raw)
		}
		if !seen[hostID] {
			seen[hostID] = true
			q.hostIDs = append(q.hostIDs, hostID)
		}
	}

	if req.PreviousHostID != "" {
		prev, err := uuid.Parse(req.PreviousHostID)
		if err != nil {
			return q, fmt.Errorf("invalid previous_host_id %q", req.PreviousHostID)
		}
		q.previousHostID = &prev
	}

	if req.DurationMinutes < 0 {
		return q, fmt.Errorf("duration_minutes must be positive")
	}
	return q, nil
}

// parseBoundary accepts a date or an RFC3339 instant. A date is the start of
// that day in loc; an end date is inclusive.
func parseBoundary(value string, loc *time.Location, end bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("value is required")
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		if end {
			return t.AddDate(0, 0, 1), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", value)
	}
	return t, nil
}

// applyOverrides lets request fields replace stored constraints.
func applyOverrides(c entity.EventTypeConstraints, req *dto.AvailabilityRequest) entity.EventTypeConstraints {
	if req.DurationMinutes > 0 {
		c.Duration = time.Duration(req.DurationMinutes) * time.Minute
	}
	if req.SeatsPerSlot != nil {
		seats := *req.SeatsPerSlot
		c.SeatsPerSlot = &seats
	}
	if req.BookingLimits != nil {
		c.BookingLimits = make(entity.Limits, len(req.BookingLimits))
		for k, v := range req.BookingLimits {
			c.BookingLimits[bookingEntity.Granularity(k)] = v
		}
	}
	if req.PeriodType != "" {
		c.Period = entity.Period{Type: entity.PeriodType(req.PeriodType)}
		if req.PeriodBound != nil {
			c.Period.Days = req.PeriodBound.Days
			c.Period.StartDate = req.PeriodBound.StartDate
			c.Period.EndDate = req.PeriodBound.EndDate
		}
	}
	return c
}
