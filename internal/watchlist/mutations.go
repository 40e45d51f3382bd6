// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package watchlist

import (
	"context"

	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/validation"
)

// Add creates (or upserts) the entry for movieID and resynchronizes the
// cache. A nil error means the mutation succeeded. On failure the cached
// entries are unchanged, so calling Add again is safe.
func (c *Cache) Add(ctx context.Context, movieID int64, status models.WatchStatus, notes string) error {
	if status == "" {
		status = models.StatusWantToWatch
	}
	err := c.api.AddWatchlist(ctx, models.WatchlistAdd{
		MovieID: movieID,
		Status:  status,
		Notes:   notes,
	})
	return c.afterMutation(ctx, "add", movieID, err)
}

// Remove deletes the entry for movieID. Same contract as Add.
func (c *Cache) Remove(ctx context.Context, movieID int64) error {
	err := c.api.DeleteWatchlist(ctx, movieID)
	return c.afterMutation(ctx, "remove", movieID, err)
}

// Update applies a partial update to the entry for movieID. Same contract as
// Add. A rating is only accepted when the entry is, or becomes, watched.
func (c *Cache) Update(ctx context.Context, movieID int64, update models.WatchlistUpdate) error {
	if update.UserRating != nil && !c.ratingAllowed(movieID, update) {
		err := remote.NewValidationError("watchlist.update",
			validation.NewFieldError("user_rating", "watched", "user_rating requires status watched"))
		return c.afterMutation(ctx, "update", movieID, err)
	}
	err := c.api.UpdateWatchlist(ctx, movieID, update)
	return c.afterMutation(ctx, "update", movieID, err)
}

func (c *Cache) ratingAllowed(movieID int64, update models.WatchlistUpdate) bool {
	if update.Status != nil {
		return *update.Status == models.StatusWatched
	}
	entry, ok := c.Get(movieID)
	if !ok {
		// Unknown locally; let the server decide.
		return true
	}
	return entry.Status == models.StatusWatched
}

func (c *Cache) afterMutation(ctx context.Context, op string, movieID int64, err error) error {
	logger := logging.Attach(ctx, c.logger)
	if err != nil {
		metrics.WatchlistMutations.WithLabelValues(op, remote.KindOf(err).String()).Inc()

		c.mu.Lock()
		changed := false
		if remote.IsUnauthenticated(err) {
			changed = c.resetLocked()
		}
		c.lastErr = err
		c.mu.Unlock()
		if changed {
			c.publish(ctx, events.ReasonReset, nil)
		}
		logger.Warn().Err(err).Str("op", op).Int64("movie_id", movieID).Msg("Watchlist mutation failed")
		return err
	}

	metrics.WatchlistMutations.WithLabelValues(op, "success").Inc()
	logger.Info().Str("op", op).Int64("movie_id", movieID).Msg("Watchlist mutation applied")
	c.Fetch(ctx, true)
	return nil
}
