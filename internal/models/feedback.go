// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package models

import "strconv"

// Sentiment is a user's reaction to a recommendation or a whole set.
type Sentiment string

const (
	SentimentGood Sentiment = "good"
	SentimentBad  Sentiment = "bad"
	// SentimentNeutral withdraws an earlier "bad" for a single movie.
	SentimentNeutral Sentiment = "neutral"
)

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	return s == SentimentGood || s == SentimentBad || s == SentimentNeutral
}

// Feedback rating bounds.
const (
	MinFeedbackRating = 1
	MaxFeedbackRating = 10
)

// FeedbackTarget identifies what feedback is about: a movie or the whole set.
type FeedbackTarget struct {
	MovieID int64
	Overall bool
}

// OverallTarget is the target for aggregate feedback.
var OverallTarget = FeedbackTarget{Overall: true}

// MovieTarget returns the target for a single movie.
func MovieTarget(movieID int64) FeedbackTarget {
	return FeedbackTarget{MovieID: movieID}
}

// String returns "overall" or the movie id.
func (t FeedbackTarget) String() string {
	if t.Overall {
		return "overall"
	}
	return strconv.FormatInt(t.MovieID, 10)
}

// FeedbackPayload is the body of POST /recommendation-feedback.
// MovieIDs is context sent with the primary aggregate attempt only.
type FeedbackPayload struct {
	MovieID  *int64    `json:"movie_id,omitempty"`
	Feedback Sentiment `json:"feedback" validate:"required,oneof=good bad neutral"`
	Rating   *int      `json:"rating,omitempty" validate:"omitempty,gte=1,lte=10"`
	Overall  bool      `json:"overall,omitempty"`
	MovieIDs []int64   `json:"movie_ids,omitempty"`
}

// FeedbackState tracks one target through the submission flow.
type FeedbackState string

const (
	FeedbackNone FeedbackState = "none"
	// FeedbackPending means a submission is in flight.
	FeedbackPending FeedbackState = "pending"
	// FeedbackAwaitingRating follows a recorded "good": an optional rating may follow.
	FeedbackAwaitingRating FeedbackState = "awaiting_rating"
	FeedbackSubmitted      FeedbackState = "submitted"
)

// FeedbackRecord is the last accepted feedback for a target.
type FeedbackRecord struct {
	Target    FeedbackTarget `json:"-"`
	TargetID  string         `json:"target"`
	Sentiment Sentiment      `json:"sentiment"`
	Rating    *int           `json:"rating,omitempty"`
	State     FeedbackState  `json:"state"`
}

// DislikedMovie is an entry of GET /disliked-recommendations.
type DislikedMovie struct {
	MovieID      int64      `json:"movie_id"`
	Title        string     `json:"title"`
	FeedbackDate Timestamp  `json:"feedback_date"`
	Genres       StringList `json:"genres"`
}
