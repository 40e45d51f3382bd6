// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// traceIDs is the per-call identity carried in a context. A consumer API
// request has both ids; a background timer run has only a correlation id.
type traceIDs struct {
	request     string
	correlation string
}

type traceKey struct{}

func idsFrom(ctx context.Context) traceIDs {
	ids, _ := ctx.Value(traceKey{}).(traceIDs)
	return ids
}

// GenerateCorrelationID returns a short random id (8 hex characters).
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.correlation = id
	return context.WithValue(ctx, traceKey{}, ids)
}

// ContextWithNewCorrelationID tags ctx with a fresh correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

func CorrelationIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).correlation
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	ids := idsFrom(ctx)
	ids.request = id
	return context.WithValue(ctx, traceKey{}, ids)
}

func RequestIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).request
}

// Ctx is the global logger carrying the ids found in ctx.
//
//	logging.Ctx(ctx).Info().Int64("movie_id", id).Msg("Watchlist entry added")
func Ctx(ctx context.Context) *zerolog.Logger {
	return Attach(ctx, Logger())
}

// Attach adds the ids in ctx to a component's own logger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func Attach(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	ids := idsFrom(ctx)
	if ids == (traceIDs{}) {
		return &base
	}
	lc := base.With()
	if ids.correlation != "" {
		lc = lc.Str("correlation_id", ids.correlation)
	}
	if ids.request != "" {
		lc = lc.Str("request_id", ids.request)
	}
	l := lc.Logger()
	return &l
}

// WithComponent returns a child of the global logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
