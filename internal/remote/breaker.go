// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package remote

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
)

// BreakerClient wraps an API with a circuit breaker.
//
// Only Transient failures count against the circuit. Unauthenticated,
// Precondition and Validation results mean the service answered, so they
// count as successes. An open circuit rejects calls with a Transient error
// without touching the network.
type BreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

var _ API = (*BreakerClient)(nil)

// NewBreakerClient wraps api. When cfg.Enabled is false api is returned as-is.
func NewBreakerClient(api API, cfg config.BreakerConfig) API {
	if !cfg.Enabled {
		return api
	}
	return newBreakerClient(api, cfg)
}

func newBreakerClient(api API, cfg config.BreakerConfig) *BreakerClient {
	const cbName = "remote-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) != KindTransient
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := from.String(), to.String()
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{api: api, cb: cb, name: cbName}
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

// execute runs fn through the breaker and maps rejections to Transient.
func (b *BreakerClient) execute(op string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Err(err).Str("op", op).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, &Error{Kind: KindTransient, Op: op, Message: "remote service temporarily unavailable", Err: err}
	}

	outcome := "failure"
	if KindOf(err) != KindTransient {
		outcome = "success"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, outcome).Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
	return nil, err
}

// castResult type-casts the breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ListWatchlist implements API.
func (b *BreakerClient) ListWatchlist(ctx context.Context) ([]models.WatchlistEntry, error) {
	return castResult[[]models.WatchlistEntry](b.execute("watchlist.list", func() (interface{}, error) {
		return b.api.ListWatchlist(ctx)
	}))
}

// AddWatchlist implements API.
func (b *BreakerClient) AddWatchlist(ctx context.Context, add models.WatchlistAdd) error {
	_, err := b.execute("watchlist.add", func() (interface{}, error) {
		return nil, b.api.AddWatchlist(ctx, add)
	})
	return err
}

// UpdateWatchlist implements API.
func (b *BreakerClient) UpdateWatchlist(ctx context.Context, movieID int64, update models.WatchlistUpdate) error {
	_, err := b.execute("watchlist.update", func() (interface{}, error) {
		return nil, b.api.UpdateWatchlist(ctx, movieID, update)
	})
	return err
}

// DeleteWatchlist implements API.
func (b *BreakerClient) DeleteWatchlist(ctx context.Context, movieID int64) error {
	_, err := b.execute("watchlist.delete", func() (interface{}, error) {
		return nil, b.api.DeleteWatchlist(ctx, movieID)
	})
	return err
}

// GetRecommendations implements API.
func (b *BreakerClient) GetRecommendations(ctx context.Context) (*models.RecommendationResponse, error) {
	return castResult[*models.RecommendationResponse](b.execute("recommend.get", func() (interface{}, error) {
		return b.api.GetRecommendations(ctx)
	}))
}

// InvalidateRecommendations implements API.
func (b *BreakerClient) InvalidateRecommendations(ctx context.Context) error {
	_, err := b.execute("recommend.invalidate", func() (interface{}, error) {
		return nil, b.api.InvalidateRecommendations(ctx)
	})
	return err
}

// SubmitFeedback implements API.
func (b *BreakerClient) SubmitFeedback(ctx context.Context, payload models.FeedbackPayload) error {
	_, err := b.execute("feedback.submit", func() (interface{}, error) {
		return nil, b.api.SubmitFeedback(ctx, payload)
	})
	return err
}

// ListDisliked implements API.
func (b *BreakerClient) ListDisliked(ctx context.Context) ([]models.DislikedMovie, error) {
	return castResult[[]models.DislikedMovie](b.execute("feedback.disliked", func() (interface{}, error) {
		return b.api.ListDisliked(ctx)
	}))
}
