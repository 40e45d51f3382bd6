// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package feedback

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/validation"
)

// Submission kinds, used in metrics and events.
const (
	KindAggregate = "aggregate"
	KindItem      = "item"
	KindRating    = "rating"
	KindClear     = "clear"
)

// ErrPending is returned when a submission for the same target is still in flight.
var ErrPending = errors.New("feedback submission already pending for target")

// AggregateHook runs after aggregate feedback is accepted.
type AggregateHook func(ctx context.Context, sentiment models.Sentiment)

// Options configures a Reconciler.
type Options struct {
	Publisher   events.Publisher
	OnAggregate AggregateHook
}

// Reconciler tracks per-target feedback state and submits it.
type Reconciler struct {
	api         remote.API
	pub         events.Publisher
	onAggregate AggregateHook
	logger      zerolog.Logger

	mu      sync.Mutex
	records map[models.FeedbackTarget]models.FeedbackRecord
}

// New creates a reconciler with no recorded feedback.
func New(api remote.API, opts Options) *Reconciler {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	return &Reconciler{
		api:         api,
		pub:         opts.Publisher,
		onAggregate: opts.OnAggregate,
		logger:      logging.WithComponent("feedback"),
		records:     map[models.FeedbackTarget]models.FeedbackRecord{},
	}
}

// SubmitAggregate rates the current recommendation set. shown lists the
// movie ids the sentiment refers to; it is sent only with the primary payload.
// A nil error means the primary or the fallback submission was accepted.
func (r *Reconciler) SubmitAggregate(ctx context.Context, sentiment models.Sentiment, shown []int64) error {
	const op = "feedback.aggregate"
	if sentiment != models.SentimentGood && sentiment != models.SentimentBad {
		return remote.NewValidationError(op, validation.NewFieldError("feedback", "oneof", "feedback must be one of: good bad"))
	}

	target := models.OverallTarget
	prev, err := r.begin(target)
	if err != nil {
		return err
	}
	logger := logging.Attach(ctx, r.logger)

	primary := models.FeedbackPayload{Feedback: sentiment, Overall: true, MovieIDs: shown}
	err = r.api.SubmitFeedback(ctx, primary)
	outcome := "primary"

	if err != nil && !remote.IsUnauthenticated(err) {
		logger.Warn().Err(err).Msg("Aggregate feedback failed, retrying with simplified payload")
		err = r.api.SubmitFeedback(ctx, models.FeedbackPayload{Feedback: sentiment})
		outcome = "fallback"
	}

	if err != nil {
		r.rollback(target, prev)
		metrics.RecordFeedback(KindAggregate, "failed")
		logger.Warn().Err(err).Str("sentiment", string(sentiment)).Msg("Aggregate feedback not recorded")
		return err
	}

	rec := r.commit(target, sentiment, nil, models.FeedbackSubmitted)
	metrics.RecordFeedback(KindAggregate, outcome)
	logger.Info().Str("sentiment", string(sentiment)).Str("path", outcome).Msg("Aggregate feedback recorded")
	r.publish(ctx, KindAggregate, rec)

	if r.onAggregate != nil {
		r.onAggregate(ctx, sentiment)
	}
	return nil
}

// SubmitPerItem records sentiment for one recommended movie. "good" without a
// rating moves the target to awaiting_rating; "good" with a rating, and
// "bad", are final. "bad" never takes a rating.
func (r *Reconciler) SubmitPerItem(ctx context.Context, movieID int64, sentiment models.Sentiment, rating *int) error {
	const op = "feedback.item"
	switch {
	case movieID <= 0:
		return remote.NewValidationError(op, validation.NewFieldError("movie_id", "gt", "movie_id must be greater than 0"))
	case sentiment != models.SentimentGood && sentiment != models.SentimentBad:
		return remote.NewValidationError(op, validation.NewFieldError("feedback", "oneof", "feedback must be one of: good bad"))
	case sentiment == models.SentimentBad && rating != nil:
		return remote.NewValidationError(op, validation.NewFieldError("rating", "excluded_with", "rating is only accepted with good feedback"))
	}
	return r.submitItem(ctx, KindItem, movieID, sentiment, rating)
}

// SubmitRating is the optional second step after "good".
func (r *Reconciler) SubmitRating(ctx context.Context, movieID int64, rating int) error {
	const op = "feedback.rating"
	rec := r.State(models.MovieTarget(movieID))
	if rec.Sentiment != models.SentimentGood || rec.State == models.FeedbackNone {
		return &remote.Error{
			Kind:    remote.KindPrecondition,
			Op:      op,
			Message: "mark the movie as good before rating it",
		}
	}
	return r.submitItem(ctx, KindRating, movieID, models.SentimentGood, &rating)
}

// ClearDislike withdraws a "bad" for movieID by posting "neutral". On success
// the target returns to state none.
func (r *Reconciler) ClearDislike(ctx context.Context, movieID int64) error {
	const op = "feedback.clear"
	if movieID <= 0 {
		return remote.NewValidationError(op, validation.NewFieldError("movie_id", "gt", "movie_id must be greater than 0"))
	}
	target := models.MovieTarget(movieID)
	prev, err := r.begin(target)
	if err != nil {
		return err
	}

	id := movieID
	err = r.api.SubmitFeedback(ctx, models.FeedbackPayload{MovieID: &id, Feedback: models.SentimentNeutral})
	if err != nil {
		r.rollback(target, prev)
		metrics.RecordFeedback(KindClear, "failed")
		logging.Attach(ctx, r.logger).Warn().Err(err).Int64("movie_id", movieID).Msg("Failed to clear dislike")
		return err
	}

	r.mu.Lock()
	delete(r.records, target)
	r.mu.Unlock()

	metrics.RecordFeedback(KindClear, "primary")
	r.publish(ctx, KindClear, recordFor(target, models.SentimentNeutral, nil, models.FeedbackNone))
	return nil
}

// Disliked lists the movies the user marked "bad". Signed out, it is empty.
func (r *Reconciler) Disliked(ctx context.Context) ([]models.DislikedMovie, error) {
	movies, err := r.api.ListDisliked(ctx)
	if err != nil {
		if remote.IsUnauthenticated(err) {
			return []models.DislikedMovie{}, nil
		}
		return nil, err
	}
	return movies, nil
}

// State returns the record for target; an unknown target is in state none.
func (r *Reconciler) State(target models.FeedbackTarget) models.FeedbackRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[target]; ok {
		return rec
	}
	return recordFor(target, "", nil, models.FeedbackNone)
}

// Reset forgets every record.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.records = map[models.FeedbackTarget]models.FeedbackRecord{}
	r.mu.Unlock()
}

func (r *Reconciler) submitItem(ctx context.Context, kind string, movieID int64, sentiment models.Sentiment, rating *int) error {
	target := models.MovieTarget(movieID)
	prev, err := r.begin(target)
	if err != nil {
		return err
	}

	id := movieID
	err = r.api.SubmitFeedback(ctx, models.FeedbackPayload{MovieID: &id, Feedback: sentiment, Rating: rating})
	logger := logging.Attach(ctx, r.logger)
	if err != nil {
		r.rollback(target, prev)
		metrics.RecordFeedback(kind, "failed")
		logger.Warn().Err(err).Int64("movie_id", movieID).Str("sentiment", string(sentiment)).Msg("Feedback not recorded")
		return err
	}

	state := models.FeedbackSubmitted
	if sentiment == models.SentimentGood && rating == nil {
		state = models.FeedbackAwaitingRating
	}
	rec := r.commit(target, sentiment, rating, state)
	metrics.RecordFeedback(kind, "primary")
	logger.Info().Int64("movie_id", movieID).Str("sentiment", string(sentiment)).Str("state", string(state)).Msg("Feedback recorded")
	r.publish(ctx, kind, rec)
	return nil
}

// begin marks target pending and returns the record to restore on failure.
func (r *Reconciler) begin(target models.FeedbackTarget) (*models.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prev *models.FeedbackRecord
	if rec, ok := r.records[target]; ok {
		if rec.State == models.FeedbackPending {
			return nil, ErrPending
		}
		prev = &rec
	}
	pending := recordFor(target, "", nil, models.FeedbackPending)
	if prev != nil {
		pending.Sentiment = prev.Sentiment
		pending.Rating = prev.Rating
	}
	r.records[target] = pending
	return prev, nil
}

func (r *Reconciler) rollback(target models.FeedbackTarget, prev *models.FeedbackRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev == nil {
		delete(r.records, target)
		return
	}
	r.records[target] = *prev
}

func (r *Reconciler) commit(target models.FeedbackTarget, sentiment models.Sentiment, rating *int, state models.FeedbackState) models.FeedbackRecord {
	rec := recordFor(target, sentiment, rating, state)
	r.mu.Lock()
	r.records[target] = rec
	r.mu.Unlock()
	return rec
}

func (r *Reconciler) publish(ctx context.Context, kind string, rec models.FeedbackRecord) {
	events.Emit(ctx, r.pub, events.TopicFeedbackSubmitted, events.FeedbackSubmitted{Kind: kind, Record: rec})
}

func recordFor(target models.FeedbackTarget, sentiment models.Sentiment, rating *int, state models.FeedbackState) models.FeedbackRecord {
	var copied *int
	if rating != nil {
		v := *rating
		copied = &v
	}
	return models.FeedbackRecord{
		Target:    target,
		TargetID:  target.String(),
		Sentiment: sentiment,
		Rating:    copied,
		State:     state,
	}
}
