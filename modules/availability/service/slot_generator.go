package service

import (
	"slices"
	"time"

	"smart-schedule/core/interval"
	"smart-schedule/modules/availability/entity"
	bookingEntity "smart-schedule/modules/booking/entity"
	calendarEntity "smart-schedule/modules/calendar/entity"
	hostEntity "smart-schedule/modules/host/entity"
	hostService "smart-schedule/modules/host/service"

	"github.com/google/uuid"
)

// HostAvailability is everything known about one host for a request.
type HostAvailability struct {
	Host hostEntity.Host
	// Windows are the resolved working windows, already split at booker midnight.
	Windows []interval.Interval
	// Busy is the merged, unbuffered busy set.
	Busy []calendarEntity.BusyInterval
	// Seated are existing bookings of the seated event type. A slot starting
	// with one of them shares its seats; any other overlap blocks the host.
	Seated []interval.Interval
}

// SlotGenerator turns working windows and busy times into bookable slots.
// It does no I/O; limit counts and seat counts are handed in by the caller.
type SlotGenerator struct {
	constraints entity.EventTypeConstraints
	booker      *time.Location
}

func NewSlotGenerator(constraints entity.EventTypeConstraints, booker *time.Location) *SlotGenerator {
	if constraints.Location == nil {
		constraints.Location = time.UTC
	}
	return &SlotGenerator{constraints: constraints, booker: booker}
}

// FreeWindows returns the host's working windows minus its buffered busy time.
func (g *SlotGenerator) FreeWindows(h HostAvailability) []interval.Interval {
	busy := calendarEntity.ApplyBuffers(h.Busy, g.constraints.BufferBefore, g.constraints.BufferAfter)
	return interval.Subtract(h.Windows, calendarEntity.Intervals(busy))
}

// Candidates produces the slots that fit the combined free time of the
// hosts and pass the notice and period filters. Each slot carries the set of
// hosts that are free over its whole duration.
func (g *SlotGenerator) Candidates(schedulingType hostEntity.SchedulingType, hosts []HostAvailability, now time.Time) []entity.CandidateSlot {
	if len(hosts) == 0 {
		return nil
	}

	// 1. Free windows per host
	free := make([][]interval.Interval, len(hosts))
	for k, h := range hosts {
		free[k] = g.FreeWindows(h)
	}

	// 2. Effective free set for the event type
	var effective []interval.Interval
	if schedulingType == hostEntity.SchedulingRoundRobin {
		var all []interval.Interval
		for _, f := range free {
			all = append(all, f...)
		}
		effective = interval.Merge(all)
	} else {
		effective = free[0]
		for _, f := range free[1:] {
			effective = interval.Intersect(effective, f)
		}
	}

	earliest := now.Add(g.constraints.MinimumNotice)
	periodStart, periodEnd, bounded := g.constraints.PeriodBound(now)

	var slots []entity.CandidateSlot
	for _, w := range effective {
		for _, part := range interval.SplitAtMidnight(w, g.booker) {
			// 3. Discretize, full fit only
			for _, iv := range g.discretize(part) {
				// 4. Minimum notice
				if iv.Start.Before(earliest) {
					continue
				}
				// 5. Period bound
				if bounded && (iv.Start.Before(periodStart) || !iv.Start.Before(periodEnd)) {
					continue
				}

				slot := entity.CandidateSlot{Interval: iv, Free: make(map[uuid.UUID]bool, len(hosts))}
				for k, h := range hosts {
					if covers(free[k], iv) && !g.collidesWithSeated(h.Seated, iv) {
						slot.Free[h.Host.ID] = true
					}
				}
				if len(slot.Free) == 0 {
					continue
				}
				slots = append(slots, slot)
			}
		}
	}
	sortSlots(slots)
	return slots
}

func (g *SlotGenerator) discretize(window interval.Interval) []interval.Interval {
	duration := g.constraints.Duration
	step := g.constraints.Step()
	var out []interval.Interval
	for start := window.Start; !start.Add(duration).After(window.End); start = start.Add(step) {
		out = append(out, interval.New(start, start.Add(duration)))
	}
	return out
}

// LimitBuckets returns the distinct limit buckets touched by slots, in
// first-seen order.
func (g *SlotGenerator) LimitBuckets(slots []entity.CandidateSlot) []bookingEntity.Bucket {
	granularities := g.constraints.BookingLimits.Granularities()
	if len(granularities) == 0 {
		return nil
	}
	seen := make(map[bookingEntity.Bucket]bool)
	var out []bookingEntity.Bucket
	for _, slot := range slots {
		for _, gr := range granularities {
			b := bookingEntity.BucketOf(gr, slot.Start, g.constraints.Location)
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// ApplyLimits drops every slot that falls in a bucket whose booking count
// already reached its maximum.
func (g *SlotGenerator) ApplyLimits(slots []entity.CandidateSlot, counts map[bookingEntity.Bucket]int) []entity.CandidateSlot {
	granularities := g.constraints.BookingLimits.Granularities()
	if len(granularities) == 0 {
		return slots
	}
	out := slots[:0:0]
	for _, slot := range slots {
		full := false
		for _, gr := range granularities {
			b := bookingEntity.BucketOf(gr, slot.Start, g.constraints.Location)
			if counts[b] >= g.constraints.BookingLimits[gr] {
				full = true
				break
			}
		}
		if !full {
			out = append(out, slot)
		}
	}
	return out
}

// ApplySeats sets the remaining seats of each slot and drops full ones. It
// is a no-op for event types without seats.
func (g *SlotGenerator) ApplySeats(slots []entity.CandidateSlot, taken bookingEntity.SeatCounts) []entity.CandidateSlot {
	if g.constraints.SeatsPerSlot == nil {
		return slots
	}
	out := slots[:0:0]
	for _, slot := range slots {
		remaining := *g.constraints.SeatsPerSlot - taken.At(slot.Start)
		if remaining <= 0 {
			continue
		}
		slot.RemainingSeats = &remaining
		out = append(out, slot)
	}
	return out
}

// Qualify attaches the qualifying hosts to each slot in order and drops the
// slots nobody qualifies for. slots must already be sorted.
func (g *SlotGenerator) Qualify(slots []entity.CandidateSlot, q *hostService.Qualifier, schedulingType hostEntity.SchedulingType, hosts []hostEntity.Host, previousHostID *uuid.UUID) []entity.CandidateSlot {
	out := slots[:0:0]
	for _, slot := range slots {
		ids := q.Qualify(hostService.QualifyRequest{
			Type:           schedulingType,
			Hosts:          hosts,
			Free:           slot.Free,
			PreviousHostID: previousHostID,
		})
		if len(ids) == 0 {
			continue
		}
		slot.QualifiedHosts = ids
		out = append(out, slot)
	}
	sortSlots(out)
	return out
}

// collidesWithSeated reports whether iv overlaps a buffered seated booking
// that does not start at iv's own start.
func (g *SlotGenerator) collidesWithSeated(seated []interval.Interval, iv interval.Interval) bool {
	for _, s := range seated {
		if s.Start.Equal(iv.Start) {
			continue
		}
		padded := interval.New(s.Start.Add(-g.constraints.BufferBefore), s.End.Add(g.constraints.BufferAfter))
		if padded.Overlaps(iv) {
			return true
		}
	}
	return false
}

func covers(windows []interval.Interval, iv interval.Interval) bool {
	for _, w := range windows {
		if w.Contains(iv) {
			return true
		}
		if w.Start.After(iv.Start) {
			return false
		}
	}
	return false
}

// sortSlots orders by start, then by the lowest qualifying host id.
func sortSlots(slots []entity.CandidateSlot) {
	slices.SortStableFunc(slots, func(a, b entity.CandidateSlot) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return hostEntity.CompareIDs(lowestHost(a), lowestHost(b))
	})
}

func lowestHost(slot entity.CandidateSlot) uuid.UUID {
	if len(slot.QualifiedHosts) > 0 {
		return slot.QualifiedHosts[0]
	}
	return uuid.Nil
}
