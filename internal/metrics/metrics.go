// Package metrics registers the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncItemsTotal counts per-item batch sync outcomes
	// (accepted, merged, rejected, failed).
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skylog",
			Name:      "sync_items_total",
			Help:      "Batch sync items processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// SyncBatchesTotal counts whole batches, split by acceptance.
	SyncBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skylog",
			Name:      "sync_batches_total",
			Help:      "Batch sync requests, by result (ok, size_rejected).",
		},
		[]string{"result"},
	)

	// RecomputeDuration observes statistics recomputation latency.
	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "skylog",
			Name:      "stats_recompute_duration_seconds",
			Help:      "Time spent rebuilding a user's derived statistics.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RateLimitedTotal counts requests dropped by the per-user limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skylog",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-user rate limiter.",
		},
	)

	// WeatherCacheHits counts TTL cache hits on the weather proxy.
	WeatherCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skylog",
			Name:      "weather_cache_requests_total",
			Help:      "Weather proxy lookups, by cache result (hit, miss).",
		},
		[]string{"result"},
	)
)
