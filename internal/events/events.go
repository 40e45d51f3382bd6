// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/models"
)

// Topic names.
const (
	TopicWatchlistChanged       = "watchlist.changed"
	TopicRecommendationsChanged = "recommendations.changed"
	TopicFeedbackSubmitted      = "feedback.submitted"
	TopicSessionChanged         = "session.changed"
)

// AllTopics lists every topic in publication order.
var AllTopics = []string{
	TopicWatchlistChanged,
	TopicRecommendationsChanged,
	TopicFeedbackSubmitted,
	TopicSessionChanged,
}

// Event is the envelope carried in every message.
type Event struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher is what components depend on. Implementations must not block on
// subscribers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Nop discards everything.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Watchlist change reasons.
const (
	ReasonFetched = "fetched"
	ReasonReset   = "reset"
)

// WatchlistChanged is published after a fetch result is applied or the cache is reset.
type WatchlistChanged struct {
	Reason   string  `json:"reason"`
	Count    int     `json:"count"`
	MovieIDs []int64 `json:"movie_ids"`
}

// RecommendationsChanged is published after every poller state transition.
type RecommendationsChanged struct {
	Status        models.JobStatus `json:"status"`
	Count         int              `json:"count"`
	FailureReason string           `json:"failure_reason,omitempty"`
}

// FeedbackSubmitted is published when a feedback record changes state.
type FeedbackSubmitted struct {
	Kind   string                `json:"kind"`
	Record models.FeedbackRecord `json:"record"`
}

// SessionChanged is published on login and logout.
type SessionChanged struct {
	Active bool   `json:"active"`
	Email  string `json:"email,omitempty"`
}
