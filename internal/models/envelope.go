// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package models

import "time"

// Envelope wraps every consumer API response. Exactly one of Data and Error
// is meaningful, chosen by Status ("success" or "error").
//
//	{"status":"success","data":{"in_watchlist":true},"meta":{"timestamp":"2026-01-28T12:00:00Z"}}
//	{"status":"error","error":{"code":"PRECONDITION","message":"..."},"meta":{...}}
type Envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
	Meta   Meta        `json:"meta"`
}

// Meta describes how fresh the data is.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	// LastFetchedAt is set on watchlist reads: the last successful remote
	// fetch. Cached is true when this read did not go to the remote service.
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	Cached        bool       `json:"cached,omitempty"`
}

// ErrorBody is the error half of an Envelope. Details carries per-field
// messages for VALIDATION_FAILED.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
