// Package provider holds the calendar integrations that report busy time.
package provider

import (
	"context"
	"fmt"
	"sync"

	"smart-schedule/core/interval"
	"smart-schedule/modules/calendar/entity"
)

// BusyTimeProvider reports the raw busy intervals of one credential inside
// rng. Deadlines are carried by ctx.
type BusyTimeProvider interface {
	FetchBusy(ctx context.Context, cred entity.Credential, rng interval.Interval) ([]interval.Interval, error)
}

// Registry selects a provider implementation by provider kind.
type Registry struct {
	mu        sync.RWMutex
	providers map[entity.Provider]BusyTimeProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[entity.Provider]BusyTimeProvider)}
}

func (r *Registry) Register(kind entity.Provider, p BusyTimeProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[kind] = p
}

func (r *Registry) Get(kind entity.Provider) (BusyTimeProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("no busy time provider registered for %q", kind)
	}
	return p, nil
}

// Options configures the default registry.
type Options struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleBaseURL      string
	OutlookGraphURL    string
}

// NewDefaultRegistry registers Google, Outlook and CalDAV.
func NewDefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	r.Register(entity.ProviderGoogle, NewGoogleProvider(opts.GoogleClientID, opts.GoogleClientSecret, opts.GoogleBaseURL))
	r.Register(entity.ProviderOutlook, NewOutlookProvider(opts.OutlookGraphURL, nil))
	r.Register(entity.ProviderCalDAV, NewCalDAVProvider(nil))
	return r
}

// overlapping keeps the intervals that intersect rng.
func overlapping(list []interval.Interval, rng interval.Interval) []interval.Interval {
	out := make([]interval.Interval, 0, len(list))
	for _, iv := range list {
		if !iv.Empty() && iv.Overlaps(rng) {
			out = append(out, iv)
		}
	}
	return out
}
