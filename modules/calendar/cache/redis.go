package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"smart-schedule/core/cache"
	"smart-schedule/core/interval"
	"smart-schedule/core/logger"
)

// RedisCache stores buckets as JSON with a TTL. Redis failures are logged
// and reported as misses.
type RedisCache struct {
	client cache.Cache
	ttl    time.Duration
}

func NewRedisCache(client cache.Cache, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]interval.Interval, bool) {
	raw, err := c.client.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("BusyCache:Redis:Get:Error", "key", key.String(), "error", err)
		}
		return nil, false
	}

	var busy []interval.Interval
	if err := json.Unmarshal([]byte(raw), &busy); err != nil {
		logger.Warn("BusyCache:Redis:Decode:Error", "key", key.String(), "error", err)
		return nil, false
	}
	return busy, true
}

func (c *RedisCache) Set(ctx context.Context, key Key, busy []interval.Interval) {
	if busy == nil {
		busy = []interval.Interval{}
	}
	raw, err := json.Marshal(busy)
	if err != nil {
		logger.Warn("BusyCache:Redis:Encode:Error", "key", key.String(), "error", err)
		return
	}
	if err := c.client.Set(ctx, key.String(), string(raw), c.ttl); err != nil {
		logger.Warn("BusyCache:Redis:Set:Error", "key", key.String(), "error", err)
	}
}
