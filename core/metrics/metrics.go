// Package metrics holds the Prometheus collectors of the availability engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// ProviderFetchDuration tracks calendar provider latency by provider and result (ok|error|timeout).
var ProviderFetchDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "availability",
	Name:      "provider_fetch_duration_seconds",
	Help:      "Time taken by a calendar provider to return busy times",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
}, []string{"provider", "result"})

// DegradedCredentials counts credentials excluded from a result after an error or timeout.
var DegradedCredentials = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "availability",
	Name:      "degraded_credentials_total",
	Help:      "Credentials whose busy times were excluded because the provider failed",
}, []string{"provider"})

// BusyCacheLookups counts busy-time cache lookups by result (hit|miss).
var BusyCacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "availability",
	Name:      "busy_cache_lookups_total",
	Help:      "Busy-time cache lookups by result",
}, []string{"result"})

// SlotsGenerated tracks the number of slots returned per request.
var SlotsGenerated = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "availability",
	Name:      "slots_generated",
	Help:      "Number of slots returned per availability request",
	Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000, 5000},
})

// NoSlotsTotal counts requests that produced no slot at all.
var NoSlotsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "availability",
	Name:      "no_slots_total",
	Help:      "Availability requests that yielded zero slots",
})

// RequestDuration tracks end-to-end engine latency by outcome.
var RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "availability",
	Name:      "request_duration_seconds",
	Help:      "Time taken to compute availability",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"outcome"})
