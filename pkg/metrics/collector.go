// Package metrics exposes Prometheus collectors for the geocoding pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geogate_requests_total",
			Help: "Total number of geocoding requests labeled by provider, operation and status",
		},
		[]string{"provider", "operation", "status"},
	)
	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geogate_request_duration_seconds",
			Help:    "Duration of geocoding requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geogate_retries_total",
			Help: "Total number of retry attempts labeled by provider and error kind",
		},
		[]string{"provider", "kind"},
	)
	swallowedErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geogate_swallowed_errors_total",
			Help: "Total number of errors absorbed into sentinel results",
		},
		[]string{"provider", "kind"},
	)
	cacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geogate_cache_events_total",
			Help: "Result cache lookups labeled by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)
	batchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geogate_batch_items_total",
			Help: "Bulk geocoding items processed labeled by status",
		},
		[]string{"status"},
	)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geogate_http_requests_total",
			Help: "HTTP API requests labeled by method, path and status code",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geogate_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordRequest increments request counters and records duration.
func RecordRequest(provider, operation, status string, duration time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	requestsTotal.WithLabelValues(provider, operation, status).Inc()
	requestDurationSeconds.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordRetry counts a retry attempt for the given error kind.
func RecordRetry(provider, kind string) {
	if kind == "" {
		kind = "unknown"
	}

	retriesTotal.WithLabelValues(provider, kind).Inc()
}

// RecordSwallowed counts an error converted into a sentinel result.
func RecordSwallowed(provider, kind string) {
	if kind == "" {
		kind = "unknown"
	}

	swallowedErrorsTotal.WithLabelValues(provider, kind).Inc()
}

// RecordCacheEvent counts a result cache lookup outcome.
func RecordCacheEvent(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	cacheEventsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest counts an API request and records its duration.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBatchItem counts one processed bulk geocoding item.
func RecordBatchItem(status string) {
	if status == "" {
		status = "unknown"
	}

	batchItemsTotal.WithLabelValues(status).Inc()
}
