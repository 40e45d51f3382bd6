// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package remote is the HTTP client for the movie recommendation service.

Every call carries the session's bearer token. When no token is available the
call short-circuits locally with an Unauthenticated error and nothing is sent.

Failures are classified into four kinds (see Kind):

  - Unauthenticated: 401/403, or no local credential
  - Validation: 400/422, or a payload rejected before sending
  - Precondition: 404/409/412/428, e.g. recommendations before the questionnaire
  - Transient: 5xx, network and decode errors, and 429 once retries are spent

Only HTTP 429 is retried here, honoring Retry-After and otherwise backing off
exponentially from the configured base delay. Outgoing requests share a token
bucket limiter. BreakerClient adds a circuit breaker on top; an open circuit
surfaces as Transient.

Example:

	client := remote.NewClient(cfg.Remote.BaseURL, store,
	    remote.WithTimeout(cfg.Remote.Timeout),
	    remote.WithRateLimit(cfg.Remote.RateLimitRPS, cfg.Remote.RateLimitBurst))
	api := remote.NewBreakerClient(client, cfg.Remote.Breaker)
	entries, err := api.ListWatchlist(ctx)
*/
package remote
