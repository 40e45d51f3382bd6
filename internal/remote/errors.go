// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/reelsync/internal/validation"
)

// Kind classifies a remote failure by how callers must react to it.
type Kind int

const (
	// KindTransient is a network or server failure. State is left unchanged
	// and retry is caller-initiated.
	KindTransient Kind = iota
	// KindUnauthenticated means no or invalid credential. Surfaced as empty state.
	KindUnauthenticated
	// KindPrecondition is a user-actionable server refusal, e.g. onboarding incomplete.
	KindPrecondition
	// KindValidation is a malformed mutation payload. Never retried.
	KindValidation
)

// String returns the lowercase kind name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindPrecondition:
		return "precondition"
	case KindValidation:
		return "validation"
	default:
		return "transient"
	}
}

// ErrUnauthenticated is wrapped by every Unauthenticated *Error.
var ErrUnauthenticated = errors.New("unauthenticated")

// Error is a classified remote failure.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	// Message is the server's {"error": ...} text, or a local description.
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error. Unknown errors are Transient.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, ErrUnauthenticated) {
		return KindUnauthenticated
	}
	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return KindTransient
}

// IsUnauthenticated reports whether err means the credential is missing or rejected.
func IsUnauthenticated(err error) bool {
	return err != nil && KindOf(err) == KindUnauthenticated
}

// MessageOf returns the human-readable part of err.
func MessageOf(err error) string {
	var re *Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewValidationError wraps a local validation failure.
func NewValidationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: MessageOf(err), Err: err}
}

func unauthenticated(op string, status int, message string) *Error {
	if message == "" {
		message = "not signed in"
	}
	return &Error{Kind: KindUnauthenticated, Op: op, StatusCode: status, Message: message, Err: ErrUnauthenticated}
}

func transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Message: err.Error(), Err: err}
}

// classifyStatus maps a non-2xx HTTP status to a Kind.
func classifyStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthenticated
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound, http.StatusConflict, http.StatusPreconditionFailed, http.StatusPreconditionRequired:
		return KindPrecondition
	default:
		return KindTransient
	}
}
