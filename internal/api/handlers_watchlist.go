// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"net/http"

	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/session"
)

// WatchlistEntryResponse answers membership queries.
type WatchlistEntryResponse struct {
	MovieID     int64                  `json:"movie_id"`
	InWatchlist bool                   `json:"in_watchlist"`
	Entry       *models.WatchlistEntry `json:"entry,omitempty"`
}

type addWatchlistRequest struct {
	MovieID int64              `json:"movie_id" validate:"gt=0"`
	Status  models.WatchStatus `json:"status" validate:"omitempty,oneof=want_to_watch watching watched"`
	Notes   string             `json:"notes" validate:"max=2000"`
}

// ListWatchlist handles GET /api/v1/watchlist. force=true bypasses the TTL;
// status narrows the result to one watch status.
func (h *Handler) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Current()
	if !ok {
		respondOK(w, []models.WatchlistEntry{})
		return
	}

	entries := s.Watchlist.Fetch(r.Context(), boolQuery(r, "force"))
	if status := models.WatchStatus(r.URL.Query().Get("status")); status != "" {
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "unknown status "+string(status), nil)
			return
		}
		entries = s.Watchlist.ByStatus(status)
	}

	meta := models.Meta{}
	if fetched := s.Watchlist.LastFetchedAt(); !fetched.IsZero() {
		meta.LastFetchedAt = &fetched
	}
	respondSuccess(w, http.StatusOK, entries, meta)
}

// GetWatchlistEntry handles GET /api/v1/watchlist/{movieID}.
func (h *Handler) GetWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	s, ok := h.sessions.Current()
	if !ok {
		respondOK(w, WatchlistEntryResponse{MovieID: movieID})
		return
	}
	s.Watchlist.Fetch(r.Context(), false)
	respondOK(w, entryResponse(s, movieID))
}

// AddWatchlist handles POST /api/v1/watchlist. An empty status means want_to_watch.
func (h *Handler) AddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req addWatchlistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Watchlist.Add(r.Context(), req.MovieID, req.Status, req.Notes); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, entryResponse(s, req.MovieID), models.Meta{})
}

// UpdateWatchlist handles PUT /api/v1/watchlist/{movieID}.
func (h *Handler) UpdateWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	var update models.WatchlistUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Watchlist.Update(r.Context(), movieID, update); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, entryResponse(s, movieID))
}

// RemoveWatchlist handles DELETE /api/v1/watchlist/{movieID}.
func (h *Handler) RemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Watchlist.Remove(r.Context(), movieID); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, entryResponse(s, movieID))
}

func entryResponse(s *session.Session, movieID int64) WatchlistEntryResponse {
	resp := WatchlistEntryResponse{MovieID: movieID}
	if entry, ok := s.Watchlist.Get(movieID); ok {
		resp.InWatchlist = true
		resp.Entry = &entry
	}
	return resp
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Current()
	if !ok {
		respondFailure(w, r, session.ErrNoSession)
	}
	return s, ok
}
