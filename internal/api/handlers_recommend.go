// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"net/http"

	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/recommend"
	"github.com/tomtom215/reelsync/internal/session"
)

// RecommendationsResponse is the poller snapshot with the genre filter applied.
type RecommendationsResponse struct {
	models.RecommendationSnapshot
	Genre  string   `json:"genre"`
	Genres []string `json:"genres"`
}

// FetchResponse reports whether a fetch was dispatched.
type FetchResponse struct {
	Dispatched bool                    `json:"dispatched"`
	Snapshot   RecommendationsResponse `json:"snapshot"`
}

// GetRecommendations handles GET /api/v1/recommendations?genre=.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	s, ok := h.sessions.Current()
	if !ok {
		respondOK(w, emptyRecommendations(genre))
		return
	}
	respondOK(w, recommendations(s, genre))
}

// FetchRecommendations handles POST /api/v1/recommendations/fetch. It is a
// no-op while a request is in flight or a retry is armed.
func (h *Handler) FetchRecommendations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	dispatched := s.Recommendations.Fetch(r.Context())
	respondOK(w, FetchResponse{
		Dispatched: dispatched,
		Snapshot:   recommendations(s, r.URL.Query().Get("genre")),
	})
}

// RefreshRecommendations handles POST /api/v1/recommendations/refresh.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Recommendations.Refresh(r.Context()); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, recommendations(s, r.URL.Query().Get("genre")))
}

func recommendations(s *session.Session, genre string) RecommendationsResponse {
	if genre == "" {
		genre = recommend.AllGenres
	}
	snap := s.Recommendations.Snapshot()
	snap.Results = s.Recommendations.Filter(genre)
	return RecommendationsResponse{
		RecommendationSnapshot: snap,
		Genre:                  genre,
		Genres:                 s.Recommendations.Genres(),
	}
}

func emptyRecommendations(genre string) RecommendationsResponse {
	if genre == "" {
		genre = recommend.AllGenres
	}
	return RecommendationsResponse{
		RecommendationSnapshot: models.RecommendationSnapshot{
			Status:  models.JobIdle,
			Results: []models.RecommendedMovie{},
		},
		Genre:  genre,
		Genres: []string{},
	}
}
