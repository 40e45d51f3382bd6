// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/reelsync/internal/models"
)

// SessionResponse describes the signed-in state.
type SessionResponse struct {
	Active    bool       `json:"active"`
	Email     string     `json:"email,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type loginRequest struct {
	Token string `json:"token" validate:"required"`
}

// SessionStatus handles GET /api/v1/session.
func (h *Handler) SessionStatus(w http.ResponseWriter, _ *http.Request) {
	s, ok := h.sessions.Current()
	if !ok {
		respondOK(w, SessionResponse{})
		return
	}
	started := s.StartedAt
	respondOK(w, SessionResponse{Active: true, Email: s.Email, StartedAt: &started})
}

// Login handles POST /api/v1/session. The token is stored locally and a new
// session replaces any current one.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cred, err := h.sessions.Login(r.Context(), req.Token)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	resp := SessionResponse{Active: true, Email: cred.Email}
	if s, ok := h.sessions.Current(); ok {
		started := s.StartedAt
		resp.StartedAt = &started
	}
	if !cred.ExpiresAt.IsZero() {
		expires := cred.ExpiresAt
		resp.ExpiresAt = &expires
	}
	respondSuccess(w, http.StatusCreated, resp, models.Meta{})
}

// Logout handles DELETE /api/v1/session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, SessionResponse{})
}
