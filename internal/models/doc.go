// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package models defines the data structures shared by ReelSync components.

Model Categories:

 1. Watchlist: WatchlistEntry, WatchStatus, WatchlistAdd, WatchlistUpdate
 2. Recommendations: RecommendedMovie, JobStatus, RecommendationSnapshot
 3. Feedback: Sentiment, FeedbackTarget, FeedbackPayload, FeedbackState, DislikedMovie
 4. Consumer API: Envelope, ErrorBody, Meta

The remote service is loosely typed. Timestamps arrive in several layouts,
genre lists are sometimes stringified lists, and decimals may be quoted.
Timestamp, StringList and FlexFloat decode all of those forms.
*/
package models
