// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package middleware provides the chi middleware shared by the consumer API.

  - RequestID: accepts or mints an X-Request-ID and seeds the logging context
    with a request id and a fresh correlation id. The remote client forwards
    the request id upstream, so one consumer action can be traced across both
    services.
  - Metrics: records request count and latency per route pattern.

Both wrap http.Handler so they compose with r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
*/
package middleware
