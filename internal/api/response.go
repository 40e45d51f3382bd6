// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/credentials"
	"github.com/tomtom215/reelsync/internal/feedback"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/recommend"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/session"
	"github.com/tomtom215/reelsync/internal/validation"
)

// Error codes.
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeNoSession         = "NO_SESSION"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodePrecondition      = "PRECONDITION"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

const maxBodyBytes = 64 << 10

func respondJSON(w http.ResponseWriter, status int, response *models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}, meta models.Meta) {
	meta.Timestamp = time.Now()
	respondJSON(w, status, &models.Envelope{Status: "success", Data: data, Meta: meta})
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondSuccess(w, http.StatusOK, data, models.Meta{})
}

func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, &models.Envelope{
		Status: "error",
		Meta:   models.Meta{Timestamp: time.Now()},
		Error:  &models.ErrorBody{Code: code, Message: message, Details: details},
	})
}

// respondFailure maps a domain error onto a status and error code.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, ErrCodeInternalError
	message := err.Error()
	var details map[string]interface{}

	switch {
	case errors.Is(err, session.ErrNoSession):
		status, code = http.StatusUnauthorized, ErrCodeNoSession
	case errors.Is(err, feedback.ErrPending), errors.Is(err, recommend.ErrRequestInFlight):
		status, code = http.StatusConflict, ErrCodeConflict
	case errors.Is(err, credentials.ErrEmptyToken), errors.Is(err, credentials.ErrTokenExpired):
		status, code = http.StatusBadRequest, ErrCodeBadRequest
	default:
		var rerr *remote.Error
		if !errors.As(err, &rerr) {
			message = "internal error"
			break
		}
		message = remote.MessageOf(err)
		switch rerr.Kind {
		case remote.KindValidation:
			status, code = http.StatusBadRequest, ErrCodeValidationFailed
			details = validationDetails(err)
		case remote.KindUnauthenticated:
			status, code = http.StatusUnauthorized, ErrCodeUnauthenticated
		case remote.KindPrecondition:
			status, code = http.StatusConflict, ErrCodePrecondition
		case remote.KindTransient:
			status, code = http.StatusBadGateway, ErrCodeRemoteUnavailable
		}
	}

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError && code == ErrCodeInternalError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("code", code).Str("path", r.URL.Path).Msg("API request failed")
	respondError(w, status, code, message, details)
}

func validationDetails(err error) map[string]interface{} {
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	details := make(map[string]interface{}, len(verr.Errors()))
	for field, msg := range verr.Fields() {
		details[field] = msg
	}
	return details
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "request body too large or unreadable", nil)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		details := make(map[string]interface{})
		for field, msg := range verr.Fields() {
			details[field] = msg
		}
		respondError(w, http.StatusBadRequest, ErrCodeValidationFailed, verr.Error(), details)
		return false
	}
	return true
}

// movieIDParam parses the {movieID} URL parameter.
func movieIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "movieID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("invalid movie id %q", raw), nil)
		return 0, false
	}
	return id, true
}

func boolQuery(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return err == nil && v
}
