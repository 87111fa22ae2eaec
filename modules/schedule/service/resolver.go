package service

import (
	"fmt"
	"time"

	"smart-schedule/core/constants"
	"smart-schedule/core/interval"
	"smart-schedule/modules/schedule/entity"
)

// Resolve expands a schedule into concrete working windows inside rng,
// grouped by the booker-local date they start on. Rules and overrides are
// evaluated on the schedule's own calendar dates; windows shorter than
// duration are dropped, the rest are clipped to rng and split at booker midnight.
func Resolve(schedule *entity.Schedule, rng interval.Interval, booker *time.Location, duration time.Duration) ([]entity.DayWindows, error) {
	if schedule == nil {
		return nil, fmt.Errorf("nil schedule")
	}
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule %s has invalid timezone %q: %w", schedule.ID, schedule.Timezone, err)
	}

	overrides := make(map[string]entity.DateOverride, len(schedule.Overrides))
	for _, o := range schedule.Overrides {
		overrides[o.Date] = o
	}

	// One extra day on each side covers windows that shift across the range
	// edges after timezone conversion.
	first := rng.Start.In(loc)
	last := rng.End.In(loc)
	cursor := time.Date(first.Year(), first.Month(), first.Day()-1, 0, 0, 0, 0, loc)
	stop := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, loc)

	var windows []interval.Interval
	for ; !cursor.After(stop); cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day()+1, 0, 0, 0, 0, loc) {
		dayWindows, err := windowsOn(schedule, overrides, cursor, loc)
		if err != nil {
			return nil, err
		}
		windows = append(windows, dayWindows...)
	}

	byDate := make(map[string][]interval.Interval)
	var dates []string
	for _, w := range interval.Merge(windows) {
		if w.Duration() < duration {
			continue
		}
		clipped, ok := w.Clip(rng)
		if !ok {
			continue
		}
		for _, part := range interval.SplitAtMidnight(clipped, booker) {
			date := part.Start.In(booker).Format(constants.DateLayout)
			if _, seen := byDate[date]; !seen {
				dates = append(dates, date)
			}
			byDate[date] = append(byDate[date], part)
		}
	}

	out := make([]entity.DayWindows, 0, len(dates))
	for _, date := range dates {
		out = append(out, entity.DayWindows{Date: date, Windows: byDate[date]})
	}
	return out, nil
}

func windowsOn(schedule *entity.Schedule, overrides map[string]entity.DateOverride, day time.Time, loc *time.Location) ([]interval.Interval, error) {
	var source []entity.TimeWindow
	if o, ok := overrides[day.Format(constants.DateLayout)]; ok {
		if o.Unavailable {
			return nil, nil
		}
		source = o.Windows
	} else {
		for _, rule := range schedule.Rules {
			if rule.Matches(day.Weekday()) {
				source = append(source, rule.TimeWindow)
			}
		}
	}

	out := make([]interval.Interval, 0, len(source))
	for _, w := range source {
		iv, err := w.On(day.Year(), day.Month(), day.Day(), loc)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", schedule.ID, err)
		}
		if !iv.Empty() {
			out = append(out, iv)
		}
	}
	return out, nil
}

// Flatten returns all windows of days as one merged list.
func Flatten(days []entity.DayWindows) []interval.Interval {
	var all []interval.Interval
	for _, d := range days {
		all = append(all, d.Windows...)
	}
	return interval.Merge(all)
}
