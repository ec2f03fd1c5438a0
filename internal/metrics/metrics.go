// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"result"}, // found, unknown_title
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "End-to-end recommendation latency including enrichment",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	RecommendDegradedItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_degraded_items_total",
			Help: "Recommended items served with default enrichment data",
		},
	)

	SnapshotEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshot_entries",
			Help: "Number of entries in loaded snapshots",
		},
		[]string{"snapshot"}, // catalog, affinity
	)

	// Enrichment Metrics
	EnrichmentFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_fetches_total",
			Help: "Enrichment lookups by outcome",
		},
		[]string{"outcome"}, // success, fallback, cached, circuit_open
	)

	EnrichmentAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_attempt_duration_seconds",
			Help:    "Duration of individual HTTP attempts against the metadata API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status_code"},
	)

	EnrichmentRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrichment_retries_total",
			Help: "Retried HTTP attempts against the metadata API",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected, canceled
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures seen by the circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records one orchestrator call.
func RecordRecommendation(found bool, degraded int, duration time.Duration) {
	result := "found"
	if !found {
		result = "unknown_title"
	}
	RecommendRequests.WithLabelValues(result).Inc()
	RecommendDuration.Observe(duration.Seconds())
	if degraded > 0 {
		RecommendDegradedItems.Add(float64(degraded))
	}
}

// RecordEnrichment records the outcome of one enrichment lookup.
func RecordEnrichment(outcome string) {
	EnrichmentFetches.WithLabelValues(outcome).Inc()
}

// RecordEnrichmentAttempt records one HTTP attempt. statusCode 0 means the
// request never got a response.
func RecordEnrichmentAttempt(statusCode int, duration time.Duration, retry bool) {
	label := "error"
	if statusCode > 0 {
		label = strconv.Itoa(statusCode)
	}
	EnrichmentAttemptDuration.WithLabelValues(label).Observe(duration.Seconds())
	if retry {
		EnrichmentRetries.Inc()
	}
}

// RecordCacheLookup records a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// SetSnapshotEntries publishes the size of a loaded snapshot.
func SetSnapshotEntries(snapshot string, n int) {
	SnapshotEntries.WithLabelValues(snapshot).Set(float64(n))
}
