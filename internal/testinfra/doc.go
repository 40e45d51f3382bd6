// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package testinfra provides an in-memory fake of the remote movie service
// for tests.
//
// FakeService is a chi-routed httptest server that speaks the same wire
// format as the real backend: bearer-token auth answering 403 with
// {"error": ...}, watchlist upserts, the generating/ready recommendation
// protocol, feedback upserts and the disliked list. Every request is
// captured so tests can assert on exact request counts and payloads.
//
//	svc := testinfra.NewFakeService(t)
//	client := remote.NewClient(svc.URL(), remote.StaticToken(svc.Token))
//
//	svc.QueueRecommend(testinfra.Generating(), testinfra.Ready(movies...))
//	svc.FailNext(http.MethodPost, "/recommendation-feedback", http.StatusInternalServerError)
//
//	if got := svc.Count(http.MethodGet, "/recommend"); got != 2 { ... }
//
// Failure injection is one-shot per call to FailNext, in FIFO order per route.
// Gate blocks a route until the returned release function is called, which
// lets tests hold a request in flight.
package testinfra
