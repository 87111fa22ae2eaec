// Package cache stores raw, unbuffered provider busy intervals per
// (host, credential, UTC day). Entries expire after the configured TTL;
// writes overwrite whole buckets and are safe to repeat.
package cache

import (
	"context"
	"fmt"
	"time"

	"smart-schedule/core/constants"
	"smart-schedule/core/interval"

	"github.com/google/uuid"
)

type Key struct {
	HostID       uuid.UUID
	CredentialID uuid.UUID
	Day          time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", constants.RedisKeyBusyTime, k.HostID, k.CredentialID, k.Day.UTC().Format(constants.DateLayout))
}

type BusyCache interface {
	// Get returns the bucket and true on a hit. An empty bucket is a hit.
	Get(ctx context.Context, key Key) ([]interval.Interval, bool)
	Set(ctx context.Context, key Key, busy []interval.Interval)
}

// DayKeys lists the UTC day buckets covering rng.
func DayKeys(hostID, credentialID uuid.UUID, rng interval.Interval) []Key {
	var keys []Key
	start := rng.Start.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for day.Before(rng.End) {
		keys = append(keys, Key{HostID: hostID, CredentialID: credentialID, Day: day})
		day = day.AddDate(0, 0, 1)
	}
	return keys
}

// Span is the range covered by a list of day keys.
func Span(keys []Key) interval.Interval {
	if len(keys) == 0 {
		return interval.Interval{}
	}
	return interval.New(keys[0].Day, keys[len(keys)-1].Day.AddDate(0, 0, 1))
}

// Bucket returns the intervals of busy that touch the key's day.
func Bucket(key Key, busy []interval.Interval) []interval.Interval {
	day := interval.New(key.Day, key.Day.AddDate(0, 0, 1))
	out := make([]interval.Interval, 0)
	for _, iv := range busy {
		if iv.Overlaps(day) {
			out = append(out, iv)
		}
	}
	return out
}

// Noop never hits.
type Noop struct{}

func (Noop) Get(context.Context, Key) ([]interval.Interval, bool) { return nil, false }
func (Noop) Set(context.Context, Key, []interval.Interval)        {}
