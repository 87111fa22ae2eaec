package entity

import (
	"testing"
	"time"

	bookingEntity "smart-schedule/modules/booking/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	seats := 0
	tests := []struct {
		name    string
		mutate  func(c *EventTypeConstraints)
		wantErr bool
	}{
		{name: "valid", mutate: func(*EventTypeConstraints) {}},
		{name: "zero duration", mutate: func(c *EventTypeConstraints) { c.Duration = 0 }, wantErr: true},
		{name: "negative buffer", mutate: func(c *EventTypeConstraints) { c.BufferAfter = -time.Minute }, wantErr: true},
		{name: "no seats", mutate: func(c *EventTypeConstraints) { c.SeatsPerSlot = &seats }, wantErr: true},
		{name: "zero limit", mutate: func(c *EventTypeConstraints) { c.BookingLimits = Limits{bookingEntity.GranularityDay: 0} }, wantErr: true},
		{name: "unknown granularity", mutate: func(c *EventTypeConstraints) { c.BookingLimits = Limits{"quarter": 1} }, wantErr: true},
		{name: "rolling without days", mutate: func(c *EventTypeConstraints) { c.Period = Period{Type: PeriodRolling} }, wantErr: true},
		{name: "inverted range", mutate: func(c *EventTypeConstraints) {
			c.Period = Period{Type: PeriodRange, StartDate: "2024-02-01", EndDate: "2024-01-01"}
		}, wantErr: true},
		{name: "unknown period", mutate: func(c *EventTypeConstraints) { c.Period = Period{Type: "forever"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := EventTypeConstraints{Duration: 30 * time.Minute, Period: Period{Type: PeriodUnlimited}}
			tt.mutate(&c)
			if tt.wantErr {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

func TestPeriodBound(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	// 23:30 UTC on Jan 8 is already Jan 9 in Berlin.
	now := time.Date(2024, time.January, 8, 23, 30, 0, 0, time.UTC)

	c := EventTypeConstraints{Location: berlin, Period: Period{Type: PeriodRolling, Days: 2}}
	start, end, ok := c.PeriodBound(now)
	require.True(t, ok)
	assert.True(t, start.Equal(time.Date(2024, time.January, 9, 0, 0, 0, 0, berlin)))
	assert.True(t, end.Equal(time.Date(2024, time.January, 11, 0, 0, 0, 0, berlin)))

	c.Period = Period{Type: PeriodRange, StartDate: "2024-03-01", EndDate: "2024-03-31"}
	start, end, ok = c.PeriodBound(now)
	require.True(t, ok)
	assert.True(t, start.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, berlin)))
	assert.True(t, end.Equal(time.Date(2024, time.April, 1, 0, 0, 0, 0, berlin)))

	c.Period = Period{Type: PeriodUnlimited}
	_, _, ok = c.PeriodBound(now)
	assert.False(t, ok)
}

func TestLimitsGranularitiesFinestFirst(t *testing.T) {
	limits := Limits{bookingEntity.GranularityYear: 100, bookingEntity.GranularityDay: 2, bookingEntity.GranularityWeek: 5}
	assert.Equal(t, []bookingEntity.Granularity{
		bookingEntity.GranularityDay, bookingEntity.GranularityWeek, bookingEntity.GranularityYear,
	}, limits.Granularities())
}
