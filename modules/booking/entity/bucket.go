package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity is the period a booking limit applies to.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Granularities lists every granularity from finest to coarsest.
var Granularities = []Granularity{GranularityDay, GranularityWeek, GranularityMonth, GranularityYear}

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// Bucket identifies one limit period, e.g. week 2024-W02 in Europe/Berlin.
type Bucket struct {
	Granularity Granularity
	Key         string
	Location    *time.Location
}

// BucketOf returns the bucket containing t in loc.
func BucketOf(g Granularity, t time.Time, loc *time.Location) Bucket {
	return Bucket{Granularity: g, Key: BucketKey(g, t, loc), Location: loc}
}

// BucketKey formats the bucket of t: day 2006-01-02, ISO week 2006-W01,
// month 2006-01, year 2006.
func BucketKey(g Granularity, t time.Time, loc *time.Location) string {
	local := t.In(loc)
	switch g {
	case GranularityWeek:
		year, week := local.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GranularityMonth:
		return local.Format("2006-01")
	case GranularityYear:
		return local.Format("2006")
	default:
		return local.Format("2006-01-02")
	}
}

// Range returns the half-open instants [start, end) of the bucket.
func (b Bucket) Range() (time.Time, time.Time, error) {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	switch b.Granularity {
	case GranularityDay:
		day, err := time.ParseInLocation("2006-01-02", b.Key, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad day bucket %q: %w", b.Key, err)
		}
		return day, day.AddDate(0, 0, 1), nil
	case GranularityWeek:
		year, week, err := parseISOWeek(b.Key)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// ISO week 1 contains January 4th.
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
		offset := (int(jan4.Weekday()) + 6) % 7
		start := time.Date(year, time.January, 4-offset+(week-1)*7, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 7), nil
	case GranularityMonth:
		month, err := time.ParseInLocation("2006-01", b.Key, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad month bucket %q: %w", b.Key, err)
		}
		return month, month.AddDate(0, 1, 0), nil
	case GranularityYear:
		year, err := time.ParseInLocation("2006", b.Key, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad year bucket %q: %w", b.Key, err)
		}
		return year, year.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown granularity %q", b.Granularity)
}

func parseISOWeek(key string) (int, int, error) {
	yearPart, weekPart, ok := strings.Cut(key, "-W")
	if !ok {
		return 0, 0, fmt.Errorf("bad week bucket %q", key)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("bad week bucket %q: %w", key, err)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil || week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("bad week bucket %q", key)
	}
	return year, week, nil
}
