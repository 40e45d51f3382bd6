// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package feedback submits user feedback on recommendations.
//
// Aggregate feedback rates the whole recommendation set. The primary payload
// carries the overall flag and the ids of the movies that were shown; if it
// fails, exactly one fallback with the bare sentiment is sent. Both failing
// returns the last error and leaves the previous record in place.
//
// Per-item feedback is two-step for "good": the sentiment is recorded first
// (state awaiting_rating) and SubmitRating may follow with a 1-10 rating.
// "bad" is single-step and terminal. ClearDislike withdraws a "bad" by
// posting "neutral".
//
// The server upserts by (user, target), so repeating a submission is an
// update. The reconciler does not deduplicate, but rejects a second
// submission for a target whose first is still pending.
package feedback
