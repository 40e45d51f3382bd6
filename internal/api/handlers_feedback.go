// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"net/http"

	"github.com/tomtom215/reelsync/internal/models"
)

type aggregateFeedbackRequest struct {
	Sentiment models.Sentiment `json:"sentiment" validate:"required,oneof=good bad"`
}

type itemFeedbackRequest struct {
	Sentiment models.Sentiment `json:"sentiment" validate:"required,oneof=good bad"`
	Rating    *int             `json:"rating" validate:"omitempty,gte=1,lte=10"`
}

type ratingRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=10"`
}

// SubmitAggregateFeedback handles POST /api/v1/feedback/aggregate. The
// sentiment covers the recommendations currently held by the poller.
func (h *Handler) SubmitAggregateFeedback(w http.ResponseWriter, r *http.Request) {
	var req aggregateFeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.SubmitAggregate(r.Context(), req.Sentiment); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, s.Feedback.State(models.OverallTarget))
}

// GetItemFeedback handles GET /api/v1/feedback/items/{movieID}.
func (h *Handler) GetItemFeedback(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	target := models.MovieTarget(movieID)
	s, ok := h.sessions.Current()
	if !ok {
		respondOK(w, models.FeedbackRecord{Target: target, TargetID: target.String(), State: models.FeedbackNone})
		return
	}
	respondOK(w, s.Feedback.State(target))
}

// SubmitItemFeedback handles POST /api/v1/feedback/items/{movieID}.
func (h *Handler) SubmitItemFeedback(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	var req itemFeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Feedback.SubmitPerItem(r.Context(), movieID, req.Sentiment, req.Rating); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, s.Feedback.State(models.MovieTarget(movieID)))
}

// SubmitItemRating handles POST /api/v1/feedback/items/{movieID}/rating.
func (h *Handler) SubmitItemRating(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	var req ratingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Feedback.SubmitRating(r.Context(), movieID, req.Rating); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, s.Feedback.State(models.MovieTarget(movieID)))
}

// ClearDislike handles DELETE /api/v1/feedback/items/{movieID}.
func (h *Handler) ClearDislike(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.Feedback.ClearDislike(r.Context(), movieID); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, s.Feedback.State(models.MovieTarget(movieID)))
}

// ListDisliked handles GET /api/v1/feedback/disliked.
func (h *Handler) ListDisliked(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Current()
	if !ok {
		respondOK(w, []models.DislikedMovie{})
		return
	}
	disliked, err := s.Feedback.Disliked(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, disliked)
}
