// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package recommend implements the recommendation poller: the client side of
the server's slow, asynchronous recommendation job.

# State Machine

	idle ──Fetch──▶ requesting ──ready──────▶ ready
	                   │  ▲  └──error───────▶ failed
	         generating│  │retry fires
	                   ▼  │
	               generating (retry armed)

	any state ──Stop──▶ idle

The poller owns a single slot that holds either the in-flight request or the
armed retry, never both. Fetch while the slot is occupied is a no-op, so any
number of consumers may trigger a fetch and exactly one request goes out. A
"generating" response surfaces its interim results and arms one retry after
RetryDelay (5s, no backoff, no attempt cap); the slot moves from retry
straight to request when it fires, so at most one request is issued per
window.

Errors are terminal until the user asks again: Transient and Precondition
failures move to failed with a human-readable reason and keep the previous
results. Unauthenticated moves to idle with no results.

Stop bumps a generation counter; a response or timer belonging to an older
generation is discarded when it completes.

Refresh first invalidates the server-side cache, then requests again. It
replaces an armed retry but is rejected while a request is in flight.
*/
package recommend
