// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Remote Service Metrics
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_remote_requests_total",
			Help: "Total number of requests issued to the remote service",
		},
		[]string{"operation", "outcome"}, // outcome: success, unauthenticated, transient, precondition, validation, skipped
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_remote_request_duration_seconds",
			Help:    "Duration of remote service requests in seconds, including 429 retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RemoteRateLimitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_remote_rate_limit_retries_total",
			Help: "Total number of retries after HTTP 429 from the remote service",
		},
		[]string{"operation"},
	)

	// Watchlist Cache Metrics
	WatchlistCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsync_watchlist_cache_hits_total",
			Help: "Non-forced watchlist reads served from cache within TTL",
		},
	)

	WatchlistCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsync_watchlist_cache_misses_total",
			Help: "Watchlist reads that required a remote fetch",
		},
	)

	WatchlistFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_watchlist_fetches_total",
			Help: "Watchlist fetch results",
		},
		[]string{"result"}, // applied, stale, failed, reset
	)

	WatchlistMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_watchlist_mutations_total",
			Help: "Watchlist mutations by operation and result",
		},
		[]string{"operation", "result"}, // operation: add, remove, update
	)

	WatchlistEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelsync_watchlist_entries",
			Help: "Current number of cached watchlist entries",
		},
	)

	// Recommendation Poller Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_recommend_requests_total",
			Help: "Recommendation requests by response outcome",
		},
		[]string{"outcome"}, // ready, generating, failed, unauthenticated, discarded
	)

	RecommendDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelsync_recommend_deduplicated_total",
			Help: "Recommendation fetches dropped because one was already in flight",
		},
	)

	RecommendState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelsync_recommend_state",
			Help: "Current recommendation job state (1 for the active state)",
		},
		[]string{"state"},
	)

	// Feedback Metrics
	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_feedback_submissions_total",
			Help: "Feedback submissions by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: aggregate, item, rating, clear; outcome: primary, fallback, failed
	)

	// Consumer API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_api_requests_total",
			Help: "Total number of consumer API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelsync_api_request_duration_seconds",
			Help:    "Duration of consumer API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelsync_websocket_connections",
			Help: "Current number of consumer event stream connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_websocket_messages_sent_total",
			Help: "Total number of events pushed to consumers",
		},
		[]string{"topic"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_events_published_total",
			Help: "State-change events published on the in-process bus",
		},
		[]string{"topic"},
	)

	// Session Metrics
	SessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelsync_session_active",
			Help: "1 while an authenticated session is open",
		},
	)

	// Remote breaker. name is the gobreaker name ("remote").
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelsync_remote_breaker_state",
			Help: "Remote breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_remote_breaker_requests_total",
			Help: "Remote calls through the breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelsync_remote_breaker_consecutive_failures",
			Help: "Consecutive transient failures seen by the remote breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelsync_remote_breaker_transitions_total",
			Help: "Remote breaker state changes",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// jobStates lists every recommendation job state for the state gauge.
var jobStates = []string{"idle", "requesting", "generating", "ready", "failed"}

// RecordRemoteRequest records one logical remote call.
func RecordRemoteRequest(operation, outcome string, duration time.Duration) {
	RemoteRequestsTotal.WithLabelValues(operation, outcome).Inc()
	RemoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records a consumer API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetRecommendState sets the gauge for state to 1 and all others to 0.
func SetRecommendState(state string) {
	for _, s := range jobStates {
		v := 0.0
		if s == state {
			v = 1
		}
		RecommendState.WithLabelValues(s).Set(v)
	}
}

// RecordFeedback records a feedback submission outcome.
func RecordFeedback(kind, outcome string) {
	FeedbackSubmissions.WithLabelValues(kind, outcome).Inc()
}
