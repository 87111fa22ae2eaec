package service

import (
	"testing"
	"time"

	"smart-schedule/core/interval"
	"smart-schedule/modules/availability/entity"
	bookingEntity "smart-schedule/modules/booking/entity"
	calendarEntity "smart-schedule/modules/calendar/entity"
	hostEntity "smart-schedule/modules/host/entity"
	hostService "smart-schedule/modules/host/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-08 is a Monday.
var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func halfHour() entity.EventTypeConstraints {
	return entity.EventTypeConstraints{Duration: 30 * time.Minute, Location: time.UTC}
}

func workingHost(id uuid.UUID, busy ...interval.Interval) HostAvailability {
	return HostAvailability{
		Host:    hostEntity.Host{ID: id, Weight: 1, Timezone: "UTC"},
		Windows: []interval.Interval{interval.New(at(9, 0), at(17, 0))},
		Busy:    calendarEntity.Tag(busy, calendarEntity.SourceExistingBooking),
	}
}

func starts(slots []entity.CandidateSlot) []string {
	out := make([]string, len(slots))
	for k, s := range slots {
		out[k] = s.Start.Format("15:04")
	}
	return out
}

func TestCandidatesSkipBusyInterval(t *testing.T) {
	host := workingHost(uuid.New(), interval.New(at(10, 0), at(10, 30)))
	g := NewSlotGenerator(halfHour(), time.UTC)

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday.AddDate(0, 0, -7))

	// 09:30 ends when the busy interval starts, so it stays.
	assert.Equal(t, []string{
		"09:00", "09:30", "10:30", "11:00", "11:30", "12:00", "12:30", "13:00",
		"13:30", "14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
	}, starts(slots))
}

func TestCandidatesMinimumNotice(t *testing.T) {
	host := workingHost(uuid.New(), interval.New(at(10, 0), at(10, 30)))
	c := halfHour()
	c.MinimumNotice = time.Hour
	g := NewSlotGenerator(c, time.UTC)

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, at(9, 15))
	require.NotEmpty(t, slots)
	assert.Equal(t, "10:30", starts(slots)[0])
}

func TestCandidatesFullFit(t *testing.T) {
	host := workingHost(uuid.New())
	host.Windows = []interval.Interval{interval.New(at(9, 0), at(10, 15))}
	c := halfHour()
	c.SlotInterval = 15 * time.Minute
	g := NewSlotGenerator(c, time.UTC)

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday)
	assert.Equal(t, []string{"09:00", "09:15", "09:30", "09:45"}, starts(slots))
	for _, s := range slots {
		assert.True(t, host.Windows[0].Contains(s.Interval))
		assert.Equal(t, 30*time.Minute, s.Duration())
	}
}

func TestCandidatesNeverOverlapBufferedBusy(t *testing.T) {
	busy := []interval.Interval{
		interval.New(at(10, 0), at(10, 30)),
		interval.New(at(13, 10), at(14, 0)),
	}
	host := workingHost(uuid.New(), busy...)
	c := halfHour()
	c.BufferBefore = 15 * time.Minute
	c.BufferAfter = 15 * time.Minute
	c.SlotInterval = 15 * time.Minute
	g := NewSlotGenerator(c, time.UTC)

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday)
	require.NotEmpty(t, slots)

	padded := interval.Pad(busy, c.BufferBefore, c.BufferAfter)
	for _, s := range slots {
		for _, b := range padded {
			assert.False(t, s.Overlaps(b), "slot %s overlaps %s", s.Start, b.Start)
		}
	}
	assert.Contains(t, starts(slots), "09:00")
	assert.NotContains(t, starts(slots), "09:30")
	assert.Contains(t, starts(slots), "10:45")
}

func TestCandidatesCollectiveAndRoundRobin(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	hostA := workingHost(a)
	hostA.Windows = []interval.Interval{interval.New(at(9, 0), at(12, 0))}
	hostB := workingHost(b)
	hostB.Windows = []interval.Interval{interval.New(at(10, 0), at(13, 0))}
	g := NewSlotGenerator(halfHour(), time.UTC)
	hosts := []HostAvailability{hostA, hostB}

	collective := g.Candidates(hostEntity.SchedulingCollective, hosts, monday)
	assert.Equal(t, "10:00", starts(collective)[0])
	assert.Equal(t, "11:30", starts(collective)[len(collective)-1])
	for _, s := range collective {
		assert.True(t, s.Free[a] && s.Free[b])
	}

	roundRobin := g.Candidates(hostEntity.SchedulingRoundRobin, hosts, monday)
	assert.Equal(t, "09:00", starts(roundRobin)[0])
	assert.Equal(t, "12:30", starts(roundRobin)[len(roundRobin)-1])
	assert.Equal(t, map[uuid.UUID]bool{a: true}, roundRobin[0].Free)
	assert.Equal(t, map[uuid.UUID]bool{b: true}, roundRobin[len(roundRobin)-1].Free)
}

func TestCandidatesPeriod(t *testing.T) {
	host := workingHost(uuid.New())
	host.Windows = append(host.Windows, interval.New(at(33, 0), at(41, 0)))

	tests := []struct {
		name   string
		period entity.Period
		first  time.Time
		last   time.Time
	}{
		{
			name:   "rolling one day",
			period: entity.Period{Type: entity.PeriodRolling, Days: 1},
			first:  at(9, 0),
			last:   at(16, 30),
		},
		{
			name:   "fixed range on tuesday",
			period: entity.Period{Type: entity.PeriodRange, StartDate: "2024-01-09", EndDate: "2024-01-09"},
			first:  at(33, 0),
			last:   at(40, 30),
		},
		{
			name:   "unlimited",
			period: entity.Period{Type: entity.PeriodUnlimited},
			first:  at(9, 0),
			last:   at(40, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := halfHour()
			c.Period = tt.period
			slots := NewSlotGenerator(c, time.UTC).Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, at(8, 0))
			require.NotEmpty(t, slots)
			assert.True(t, slots[0].Start.Equal(tt.first))
			assert.True(t, slots[len(slots)-1].Start.Equal(tt.last))
		})
	}
}

func TestCandidatesSplitAtBookerMidnight(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 14:00-16:00 UTC is 23:00-01:00 in Tokyo.
	host := workingHost(uuid.New())
	host.Windows = []interval.Interval{interval.New(at(14, 0), at(16, 0))}
	c := halfHour()
	c.Duration = time.Hour
	slots := NewSlotGenerator(c, tokyo).Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday)

	require.Len(t, slots, 2)
	for _, s := range slots {
		assert.Equal(t, s.Start.In(tokyo).Format(time.DateOnly), s.End.Add(-time.Nanosecond).In(tokyo).Format(time.DateOnly))
	}
}

func TestApplyLimits(t *testing.T) {
	host := workingHost(uuid.New())
	host.Windows = append(host.Windows, interval.New(at(33, 0), at(41, 0)))
	c := halfHour()
	c.BookingLimits = entity.Limits{bookingEntity.GranularityDay: 1}
	g := NewSlotGenerator(c, time.UTC)

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday)
	buckets := g.LimitBuckets(slots)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01-08", buckets[0].Key)
	assert.Equal(t, "2024-01-09", buckets[1].Key)

	kept := g.ApplyLimits(slots, map[bookingEntity.Bucket]int{buckets[0]: 1})
	require.NotEmpty(t, kept)
	for _, s := range kept {
		assert.Equal(t, "2024-01-09", s.Start.Format(time.DateOnly))
	}
}

func TestApplySeatsMonotonic(t *testing.T) {
	seats := 3
	c := halfHour()
	c.SeatsPerSlot = &seats
	g := NewSlotGenerator(c, time.UTC)
	slot := entity.CandidateSlot{Interval: interval.New(at(9, 0), at(9, 30))}

	previous := seats + 1
	for booked := 0; booked < seats; booked++ {
		taken := bookingEntity.SeatCounts{}
		taken.Add(slot.Start, booked)

		out := g.ApplySeats([]entity.CandidateSlot{slot}, taken)
		require.Len(t, out, 1)
		require.NotNil(t, out[0].RemainingSeats)
		remaining := *out[0].RemainingSeats
		assert.Less(t, remaining, previous)
		assert.Positive(t, remaining)
		previous = remaining
	}

	taken := bookingEntity.SeatCounts{}
	taken.Add(slot.Start, seats)
	assert.Empty(t, g.ApplySeats([]entity.CandidateSlot{slot}, taken))
}

func TestCandidatesSeatedBookings(t *testing.T) {
	seats := 3
	c := halfHour()
	c.SeatsPerSlot = &seats
	g := NewSlotGenerator(c, time.UTC)

	host := workingHost(uuid.New())
	host.Windows = []interval.Interval{interval.New(at(9, 0), at(12, 0))}
	host.Seated = []interval.Interval{
		interval.New(at(9, 0), at(9, 30)),
		interval.New(at(10, 15), at(10, 45)),
	}

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday.AddDate(0, 0, -7))
	taken := bookingEntity.SeatCounts{}
	taken.Add(at(9, 0), 1)
	taken.Add(at(10, 15), 1)
	slots = g.ApplySeats(slots, taken)

	// 09:00 shares seats with the aligned booking; 10:00 and 10:30 overlap
	// the off-grid one.
	assert.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, starts(slots))
	require.NotNil(t, slots[0].RemainingSeats)
	assert.Equal(t, 2, *slots[0].RemainingSeats)
	assert.Equal(t, 3, *slots[1].RemainingSeats)
}

func TestCandidatesSeatedBookingBuffers(t *testing.T) {
	seats := 2
	c := halfHour()
	c.SeatsPerSlot = &seats
	c.BufferAfter = 15 * time.Minute
	g := NewSlotGenerator(c, time.UTC)

	host := workingHost(uuid.New())
	host.Windows = []interval.Interval{interval.New(at(9, 0), at(11, 0))}
	host.Seated = []interval.Interval{interval.New(at(9, 0), at(9, 30))}

	slots := g.Candidates(hostEntity.SchedulingCollective, []HostAvailability{host}, monday.AddDate(0, 0, -7))
	assert.Equal(t, []string{"09:00", "10:00", "10:30"}, starts(slots))
}

func TestApplySeatsUnseated(t *testing.T) {
	g := NewSlotGenerator(halfHour(), time.UTC)
	slot := entity.CandidateSlot{Interval: interval.New(at(9, 0), at(9, 30))}

	out := g.ApplySeats([]entity.CandidateSlot{slot}, bookingEntity.SeatCounts{})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].RemainingSeats)
}

func TestQualifyDropsSlotsWithoutHosts(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	hosts := []hostEntity.Host{{ID: a, Weight: 1}, {ID: b, Weight: 1}}
	slots := []entity.CandidateSlot{
		{Interval: interval.New(at(9, 0), at(9, 30)), Free: map[uuid.UUID]bool{a: true, b: true}},
		{Interval: interval.New(at(9, 30), at(10, 0)), Free: map[uuid.UUID]bool{a: true}},
	}
	g := NewSlotGenerator(halfHour(), time.UTC)

	collective := g.Qualify(append([]entity.CandidateSlot(nil), slots...), hostService.NewQualifier(1), hostEntity.SchedulingCollective, hosts, nil)
	require.Len(t, collective, 1)
	assert.Len(t, collective[0].QualifiedHosts, 2)

	roundRobin := g.Qualify(append([]entity.CandidateSlot(nil), slots...), hostService.NewQualifier(1), hostEntity.SchedulingRoundRobin, hosts, nil)
	require.Len(t, roundRobin, 2)
	assert.Len(t, roundRobin[0].QualifiedHosts, 1)
	assert.Equal(t, []uuid.UUID{a}, roundRobin[1].QualifiedHosts)
}

func TestCandidatesDeterministic(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	hosts := []HostAvailability{
		workingHost(a, interval.New(at(11, 0), at(12, 0))),
		workingHost(b, interval.New(at(14, 0), at(15, 0))),
	}
	team := []hostEntity.Host{hosts[0].Host, hosts[1].Host}
	g := NewSlotGenerator(halfHour(), time.UTC)

	run := func() []entity.CandidateSlot {
		slots := g.Candidates(hostEntity.SchedulingRoundRobin, hosts, monday)
		return g.Qualify(slots, hostService.NewQualifier(42), hostEntity.SchedulingRoundRobin, team, nil)
	}
	first, second := run(), run()
	require.Equal(t, len(first), len(second))
	for k := range first {
		assert.True(t, first[k].Start.Equal(second[k].Start))
		assert.Equal(t, first[k].QualifiedHosts, second[k].QualifiedHosts)
	}
}
