// Package interval implements half-open time interval algebra used by the
// availability engine. All operations treat [Start, End) as the covered range.
package interval

import (
	"sort"
	"time"
)

type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}

// Overlaps reports whether the two intervals share any instant. Touching
// intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Clip returns the part of i inside bound and false when nothing remains.
func (i Interval) Clip(bound Interval) (Interval, bool) {
	out := i
	if out.Start.Before(bound.Start) {
		out.Start = bound.Start
	}
	if out.End.After(bound.End) {
		out.End = bound.End
	}
	if out.Empty() {
		return Interval{}, false
	}
	return out, true
}

// Sort orders intervals by start, then by end.
func Sort(list []Interval) {
	sort.Slice(list, func(a, b int) bool {
		if list[a].Start.Equal(list[b].Start) {
			return list[a].End.Before(list[b].End)
		}
		return list[a].Start.Before(list[b].Start)
	})
}

// Merge returns a sorted copy of list with overlapping and touching intervals
// coalesced. Empty intervals are dropped.
func Merge(list []Interval) []Interval {
	if len(list) == 0 {
		return nil
	}

	sorted := make([]Interval, 0, len(list))
	for _, iv := range list {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	Sort(sorted)

	merged := make([]Interval, 0, len(sorted))
	for _, iv := range sorted {
		if n := len(merged); n > 0 && !iv.Start.After(merged[n-1].End) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes every busy interval from every window. Both inputs may be
// unsorted; the result is merged.
func Subtract(windows, busy []Interval) []Interval {
	busy = Merge(busy)
	var out []Interval
	for _, w := range Merge(windows) {
		cur := w
		remaining := true
		for _, b := range busy {
			if !b.End.After(cur.Start) {
				continue
			}
			if !b.Start.Before(cur.End) {
				break
			}
			if b.Start.After(cur.Start) {
				out = append(out, Interval{Start: cur.Start, End: b.Start})
			}
			if !b.End.Before(cur.End) {
				remaining = false
				break
			}
			cur.Start = b.End
		}
		if remaining && !cur.Empty() {
			out = append(out, cur)
		}
	}
	return out
}

// Intersect returns the instants covered by both a and b.
func Intersect(a, b []Interval) []Interval {
	a, b = Merge(a), Merge(b)
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if start.Before(end) {
			out = append(out, Interval{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// Pad widens every interval by before and after and re-merges the result.
func Pad(list []Interval, before, after time.Duration) []Interval {
	if before == 0 && after == 0 {
		return Merge(list)
	}
	padded := make([]Interval, len(list))
	for k, iv := range list {
		padded[k] = Interval{Start: iv.Start.Add(-before), End: iv.End.Add(after)}
	}
	return Merge(padded)
}

// SplitAtMidnight cuts an interval at every midnight of loc it crosses.
func SplitAtMidnight(iv Interval, loc *time.Location) []Interval {
	var out []Interval
	cur := iv
	for !cur.Empty() {
		local := cur.Start.In(loc)
		next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
		if !next.Before(cur.End) {
			out = append(out, cur)
			break
		}
		out = append(out, Interval{Start: cur.Start, End: next})
		cur.Start = next
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
