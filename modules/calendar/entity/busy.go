package entity

import (
	"sort"
	"time"

	"smart-schedule/core/interval"
)

type BusySource string

const (
	SourceCalendar        BusySource = "calendar"
	SourceExistingBooking BusySource = "existing-booking"
	SourceBuffer          BusySource = "buffer"
)

type BusyInterval struct {
	interval.Interval
	Source BusySource `json:"source"`
}

// MergeBusy sorts the list and coalesces overlapping and touching intervals.
// A merged interval keeps the source of its earliest member, unless that
// member is only buffer padding.
func MergeBusy(list []BusyInterval) []BusyInterval {
	if len(list) == 0 {
		return nil
	}

	sorted := make([]BusyInterval, 0, len(list))
	for _, b := range list {
		if !b.Empty() {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Start.Equal(sorted[b].Start) {
			return sorted[a].End.Before(sorted[b].End)
		}
		return sorted[a].Start.Before(sorted[b].Start)
	})

	merged := make([]BusyInterval, 0, len(sorted))
	for _, b := range sorted {
		n := len(merged)
		if n == 0 || b.Start.After(merged[n-1].End) {
			merged = append(merged, b)
			continue
		}
		if b.End.After(merged[n-1].End) {
			merged[n-1].End = b.End
		}
		if merged[n-1].Source == SourceBuffer && b.Source != SourceBuffer {
			merged[n-1].Source = b.Source
		}
	}
	return merged
}

// ApplyBuffers pads every busy interval with buffer time before and after and
// re-merges the result.
func ApplyBuffers(list []BusyInterval, before, after time.Duration) []BusyInterval {
	if before <= 0 && after <= 0 {
		return MergeBusy(list)
	}
	padded := make([]BusyInterval, 0, len(list)*3)
	for _, b := range list {
		if before > 0 {
			padded = append(padded, BusyInterval{Interval: interval.New(b.Start.Add(-before), b.Start), Source: SourceBuffer})
		}
		padded = append(padded, b)
		if after > 0 {
			padded = append(padded, BusyInterval{Interval: interval.New(b.End, b.End.Add(after)), Source: SourceBuffer})
		}
	}
	return MergeBusy(padded)
}

// Intervals strips the sources.
func Intervals(list []BusyInterval) []interval.Interval {
	out := make([]interval.Interval, len(list))
	for k, b := range list {
		out[k] = b.Interval
	}
	return out
}

func Tag(list []interval.Interval, source BusySource) []BusyInterval {
	out := make([]BusyInterval, len(list))
	for k, iv := range list {
		out[k] = BusyInterval{Interval: iv, Source: source}
	}
	return out
}
