package cache

import (
	"context"
	"time"

	"smart-schedule/core/interval"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is a size-bounded LRU whose entries expire after ttl.
type MemoryCache struct {
	lru *expirable.LRU[string, []interval.Interval]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, []interval.Interval](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]interval.Interval, bool) {
	busy, ok := c.lru.Get(key.String())
	if !ok {
		return nil, false
	}
	out := make([]interval.Interval, len(busy))
	copy(out, busy)
	return out, true
}

func (c *MemoryCache) Set(_ context.Context, key Key, busy []interval.Interval) {
	stored := make([]interval.Interval, len(busy))
	copy(stored, busy)
	c.lru.Add(key.String(), stored)
}

func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
