package entity

import (
	"fmt"
	"sort"
	"time"

	bookingEntity "smart-schedule/modules/booking/entity"
)

type PeriodType string

const (
	PeriodRolling   PeriodType = "rolling"
	PeriodRange     PeriodType = "range"
	PeriodUnlimited PeriodType = "unlimited"
)

// Period bounds how far ahead slots are offered. Rolling counts Days from
// the start of today; Range covers StartDate through EndDate inclusive.
type Period struct {
	Type      PeriodType
	Days      int
	StartDate string
	EndDate   string
}

// Limits caps the number of bookings per granularity bucket.
type Limits map[bookingEntity.Granularity]int

// Granularities returns the configured granularities, finest first.
func (l Limits) Granularities() []bookingEntity.Granularity {
	out := make([]bookingEntity.Granularity, 0, len(l))
	for _, g := range bookingEntity.Granularities {
		if _, ok := l[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

// EventTypeConstraints are the validated scheduling rules of one request.
type EventTypeConstraints struct {
	Duration      time.Duration
	BufferBefore  time.Duration
	BufferAfter   time.Duration
	MinimumNotice time.Duration
	// SlotInterval is the step between slot starts; zero means Duration.
	SlotInterval  time.Duration
	Period        Period
	BookingLimits Limits
	// SeatsPerSlot is nil for events that take the whole slot.
	SeatsPerSlot *int
	// Location anchors period bounds and limit buckets.
	Location *time.Location
}

func (c EventTypeConstraints) Step() time.Duration {
	if c.SlotInterval > 0 {
		return c.SlotInterval
	}
	return c.Duration
}

func (c EventTypeConstraints) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.BufferBefore < 0 || c.BufferAfter < 0 {
		return fmt.Errorf("buffers must not be negative")
	}
	if c.MinimumNotice < 0 {
		return fmt.Errorf("minimum notice must not be negative")
	}
	if c.SlotInterval < 0 {
		return fmt.Errorf("slot interval must not be negative")
	}
	if c.SeatsPerSlot != nil && *c.SeatsPerSlot < 1 {
		return fmt.Errorf("seats per slot must be at least 1")
	}

	granularities := make([]string, 0, len(c.BookingLimits))
	for g := range c.BookingLimits {
		granularities = append(granularities, string(g))
	}
	sort.Strings(granularities)
	for _, g := range granularities {
		if !bookingEntity.Granularity(g).Valid() {
			return fmt.Errorf("unknown booking limit granularity %q", g)
		}
		if c.BookingLimits[bookingEntity.Granularity(g)] < 1 {
			return fmt.Errorf("booking limit for %s must be at least 1", g)
		}
	}

	switch c.Period.Type {
	case PeriodUnlimited, "":
	case PeriodRolling:
		if c.Period.Days < 1 {
			return fmt.Errorf("rolling period needs at least one day")
		}
	case PeriodRange:
		start, err := time.Parse(time.DateOnly, c.Period.StartDate)
		if err != nil {
			return fmt.Errorf("range period start date: %w", err)
		}
		end, err := time.Parse(time.DateOnly, c.Period.EndDate)
		if err != nil {
			return fmt.Errorf("range period end date: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("range period ends before it starts")
		}
	default:
		return fmt.Errorf("unknown period type %q", c.Period.Type)
	}
	return nil
}

// PeriodBound returns the window inside which slot starts are allowed.
// ok is false for unlimited periods.
func (c EventTypeConstraints) PeriodBound(now time.Time) (start, end time.Time, ok bool) {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	switch c.Period.Type {
	case PeriodRolling:
		local := now.In(loc)
		today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		return today, today.AddDate(0, 0, c.Period.Days), true
	case PeriodRange:
		s, err := time.ParseInLocation(time.DateOnly, c.Period.StartDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		e, err := time.ParseInLocation(time.DateOnly, c.Period.EndDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return s, e.AddDate(0, 0, 1), true
	}
	return time.Time{}, time.Time{}, false
}
