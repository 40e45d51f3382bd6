// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package metrics provides Prometheus instrumentation for ReelSync.

Metrics are package-level promauto collectors registered with the default
registry and exposed by the consumer API at /metrics.

Metric Families:
  - reelsync_remote_*: remote service calls, latency and 429 retries
  - reelsync_watchlist_*: cache hits/misses, fetch results, mutations, size
  - reelsync_recommend_*: poller request outcomes, dedup drops, current state
  - reelsync_feedback_*: feedback submissions (primary, fallback, failed)
  - reelsync_api_*, reelsync_websocket_*: consumer surface
  - circuit_breaker_*: gobreaker state around the remote client
*/
package metrics
