// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package models

import (
	"strings"
	"time"
)

// RecommendedMovie is one entry of a recommendation set, ordered by score.
type RecommendedMovie struct {
	ID          int64      `json:"id,omitempty"`
	MovieID     int64      `json:"movie_id"`
	Title       string     `json:"title"`
	PosterPath  string     `json:"poster_path"`
	Overview    string     `json:"overview"`
	Score       FlexFloat  `json:"recommendation_score"`
	Genres      StringList `json:"genres"`
	Actors      StringList `json:"actors"`
	ReleaseDate string     `json:"release_date"`
	VoteAverage FlexFloat  `json:"vote_average"`
}

// HasGenre reports whether the movie is tagged with genre (case-insensitive).
func (m RecommendedMovie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

// RecommendationResponse is the body of GET /recommend.
//
// Status is "generating" while the server is still computing; Movies then
// carries whatever interim set it has. Some server paths misspell the key as
// recommend_movies; LegacyMovies captures that form.
type RecommendationResponse struct {
	Movies       []RecommendedMovie `json:"recommended_movies"`
	LegacyMovies []RecommendedMovie `json:"recommend_movies,omitempty"`
	Status       string             `json:"status,omitempty"`
}

// ServerStatusGenerating marks a recommendation response that is not final.
const ServerStatusGenerating = "generating"

// Generating reports whether the server is still computing.
func (r RecommendationResponse) Generating() bool {
	return r.Status == ServerStatusGenerating
}

// Results returns the movie list regardless of which key carried it.
func (r RecommendationResponse) Results() []RecommendedMovie {
	if r.Movies == nil && r.LegacyMovies != nil {
		return r.LegacyMovies
	}
	return r.Movies
}

// JobStatus is the recommendation poller state.
type JobStatus string

const (
	JobIdle       JobStatus = "idle"
	JobRequesting JobStatus = "requesting"
	JobGenerating JobStatus = "generating"
	JobReady      JobStatus = "ready"
	JobFailed     JobStatus = "failed"
)

// RecommendationSnapshot is a consistent read of the poller state.
type RecommendationSnapshot struct {
	Status        JobStatus          `json:"status"`
	Results       []RecommendedMovie `json:"results"`
	FailureReason string             `json:"failure_reason,omitempty"`
	InFlight      bool               `json:"in_flight"`
	RetryPending  bool               `json:"retry_pending"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
