package entity

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"smart-schedule/core/entity"
	"smart-schedule/core/interval"

	"github.com/google/uuid"
)

// MinutesPerDay is the value of the "24:00" clock.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time in "HH:MM" form. "24:00" is accepted as end of day.
// A trailing ":SS", as Postgres renders TIME columns, is accepted.
type Clock string

// Minutes returns the number of minutes since midnight. Seconds are truncated.
func (c Clock) Minutes() (int, error) {
	parts := strings.Split(string(c), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock %q", c)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock hour %q: %w", c, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock minute %q: %w", c, err)
	}
	sec := 0
	if len(parts) == 3 {
		if sec, err = strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("invalid clock second %q: %w", c, err)
		}
	}
	total := h*60 + m
	if h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 || total > MinutesPerDay || (total == MinutesPerDay && sec > 0) {
		return 0, fmt.Errorf("clock out of range %q", c)
	}
	return total, nil
}

type TimeWindow struct {
	Start Clock `db:"start_time" json:"start"`
	End   Clock `db:"end_time" json:"end"`
}

// On returns the instants of the window on the given date in loc. An end of
// 00:00 or 24:00 means the following midnight.
func (w TimeWindow) On(year int, month time.Month, day int, loc *time.Location) (interval.Interval, error) {
	start, err := w.Start.Minutes()
	if err != nil {
		return interval.Interval{}, err
	}
	end, err := w.End.Minutes()
	if err != nil {
		return interval.Interval{}, err
	}
	if end == 0 {
		end = MinutesPerDay
	}

	from := time.Date(year, month, day, start/60, start%60, 0, 0, loc)
	var to time.Time
	if end == MinutesPerDay {
		to = time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	} else {
		to = time.Date(year, month, day, end/60, end%60, 0, 0, loc)
	}
	return interval.New(from, to), nil
}

type WeeklyRule struct {
	Days []time.Weekday `json:"days"`
	TimeWindow
}

func (r WeeklyRule) Matches(day time.Weekday) bool {
	return slices.Contains(r.Days, day)
}

// DateOverride replaces the weekly rules for one calendar date.
type DateOverride struct {
	Date        string       `json:"date"`
	Unavailable bool         `json:"unavailable"`
	Windows     []TimeWindow `json:"windows"`
}

type Schedule struct {
	entity.BaseEntity
	HostID    uuid.UUID      `db:"host_id" json:"host_id"`
	Name      string         `db:"name" json:"name"`
	Timezone  string         `db:"timezone" json:"timezone"`
	Rules     []WeeklyRule   `db:"-" json:"rules"`
	Overrides []DateOverride `db:"-" json:"overrides"`
}

func (Schedule) TableName() string {
	return "schedules"
}

// DefaultPolicy describes the working hours assumed for a host without a schedule.
type DefaultPolicy struct {
	Days  []time.Weekday
	Start Clock
	End   Clock
}

// NewDefaultPolicy builds a policy from config values; days use 0 for Sunday.
func NewDefaultPolicy(days []int, start, end string) DefaultPolicy {
	policy := DefaultPolicy{Start: Clock(start), End: Clock(end)}
	for _, d := range days {
		if d >= 0 && d <= 6 {
			policy.Days = append(policy.Days, time.Weekday(d))
		}
	}
	return policy
}

// Schedule builds the fallback schedule for a host in its own timezone.
func (p DefaultPolicy) Schedule(hostID uuid.UUID, timezone string) *Schedule {
	if timezone == "" {
		timezone = "UTC"
	}
	return &Schedule{
		HostID:   hostID,
		Name:     "default",
		Timezone: timezone,
		Rules: []WeeklyRule{{
			Days:       p.Days,
			TimeWindow: TimeWindow{Start: p.Start, End: p.End},
		}},
	}
}

// DayWindows holds the working windows that start on one booker-local date.
type DayWindows struct {
	Date    string              `json:"date"`
	Windows []interval.Interval `json:"windows"`
}
