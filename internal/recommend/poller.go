// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package recommend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/schedule"
)

// DefaultRetryDelay is the fixed wait between polls while the server is generating.
const DefaultRetryDelay = 5 * time.Second

// PreconditionMessage is the failure reason shown when the server has no
// preferences for the user yet.
const PreconditionMessage = "Oops! It looks like your recommendations aren't available yet. " +
	"Complete the questionnaire to unlock your personalised movie list"

// AllGenres disables the genre filter.
const AllGenres = "all"

// ErrRequestInFlight is returned by Refresh while a request is outstanding.
var ErrRequestInFlight = errors.New("recommendation request already in flight")

// Options configures a Poller.
type Options struct {
	RetryDelay time.Duration
	Scheduler  schedule.Scheduler
	Publisher  events.Publisher
}

type slotKind int

const (
	slotEmpty slotKind = iota
	slotRequest
	slotRetry
)

// slot is the poller's single in-flight marker: a running request or an
// armed retry.
type slot struct {
	kind  slotKind
	retry schedule.Handle
}

// Poller drives the recommendation job state machine.
type Poller struct {
	api        remote.API
	sched      schedule.Scheduler
	pub        events.Publisher
	retryDelay time.Duration
	logger     zerolog.Logger

	mu            sync.Mutex
	status        models.JobStatus
	results       []models.RecommendedMovie
	failureReason string
	slot          slot
	generation    uint64
	updatedAt     time.Time
}

// New creates an idle poller.
func New(api remote.API, opts Options) *Poller {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	p := &Poller{
		api:        api,
		sched:      opts.Scheduler,
		pub:        opts.Publisher,
		retryDelay: opts.RetryDelay,
		logger:     logging.WithComponent("recommend"),
		status:     models.JobIdle,
		results:    []models.RecommendedMovie{},
	}
	metrics.SetRecommendState(string(models.JobIdle))
	return p
}

// Fetch requests the recommendation set unless a request is in flight or a
// retry is armed, in which case it does nothing and returns false. When it
// dispatches, Fetch waits for that response to be applied and returns true.
// Cancelling ctx does not abort the request.
func (p *Poller) Fetch(ctx context.Context) bool {
	p.mu.Lock()
	if p.slot.kind != slotEmpty {
		p.mu.Unlock()
		metrics.RecommendDeduplicated.Inc()
		logging.Attach(ctx, p.logger).Debug().Msg("Recommendation fetch deduplicated")
		return false
	}
	p.slot = slot{kind: slotRequest}
	gen := p.generation
	snap := p.transitionLocked(models.JobRequesting)
	p.mu.Unlock()

	p.publish(ctx, snap)
	p.request(context.WithoutCancel(ctx), gen)
	return true
}

// Refresh invalidates the server-side recommendation cache and requests a
// new set. An armed retry is cancelled and replaced. While a request is in
// flight Refresh returns ErrRequestInFlight.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	switch p.slot.kind {
	case slotRequest:
		p.mu.Unlock()
		return ErrRequestInFlight
	case slotRetry:
		p.slot.retry.Cancel()
	}
	p.slot = slot{kind: slotRequest}
	gen := p.generation
	snap := p.transitionLocked(models.JobRequesting)
	p.mu.Unlock()

	p.publish(ctx, snap)
	ctx = context.WithoutCancel(ctx)

	if err := p.api.InvalidateRecommendations(ctx); err != nil {
		p.mu.Lock()
		if gen != p.generation || p.slot.kind != slotRequest {
			p.mu.Unlock()
			return err
		}
		snap := p.failLocked(err)
		p.mu.Unlock()
		p.logResult(ctx, "invalidate", err)
		p.publish(ctx, snap)
		return err
	}

	logging.Attach(ctx, p.logger).Info().Msg("Server recommendation cache invalidated")

	// Stop may have run while the invalidate was pending; a newer Fetch
	// then owns the slot.
	p.mu.Lock()
	current := gen == p.generation && p.slot.kind == slotRequest
	p.mu.Unlock()
	if !current {
		metrics.RecommendRequests.WithLabelValues("discarded").Inc()
		return nil
	}
	p.request(ctx, gen)
	return nil
}

// Stop cancels an armed retry, returns to idle and discards the result of
// any request still in flight.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.generation++
	if p.slot.kind == slotRetry {
		p.slot.retry.Cancel()
	}
	p.slot = slot{}
	p.results = []models.RecommendedMovie{}
	p.failureReason = ""
	snap := p.transitionLocked(models.JobIdle)
	p.mu.Unlock()

	p.publish(context.Background(), snap)
}

// request performs one GET and applies it if gen is still current.
func (p *Poller) request(ctx context.Context, gen uint64) {
	resp, err := p.api.GetRecommendations(ctx)

	p.mu.Lock()
	if gen != p.generation || p.slot.kind != slotRequest {
		p.mu.Unlock()
		metrics.RecommendRequests.WithLabelValues("discarded").Inc()
		logging.Attach(ctx, p.logger).Debug().Msg("Discarding recommendation response after stop")
		return
	}

	var snap models.RecommendationSnapshot
	switch {
	case err != nil:
		snap = p.failLocked(err)
	case resp.Generating():
		p.results = copyMovies(resp.Results())
		p.failureReason = ""
		p.slot = slot{kind: slotRetry, retry: p.sched.AfterFunc(p.retryDelay, func() { p.retry(gen) })}
		snap = p.transitionLocked(models.JobGenerating)
	default:
		p.results = copyMovies(resp.Results())
		p.failureReason = ""
		p.slot = slot{}
		snap = p.transitionLocked(models.JobReady)
	}
	p.mu.Unlock()

	if err != nil {
		p.logResult(ctx, "get", err)
	} else {
		metrics.RecommendRequests.WithLabelValues(string(snap.Status)).Inc()
		logging.Attach(ctx, p.logger).Debug().
			Str("status", string(snap.Status)).
			Int("results", len(snap.Results)).
			Msg("Recommendation response applied")
	}
	p.publish(ctx, snap)
}

// retry fires when the generating delay elapses.
func (p *Poller) retry(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.slot.kind != slotRetry {
		p.mu.Unlock()
		return
	}
	p.slot = slot{kind: slotRequest}
	snap := p.transitionLocked(models.JobRequesting)
	p.mu.Unlock()

	ctx := logging.ContextWithNewCorrelationID(context.Background())
	p.publish(ctx, snap)
	p.request(ctx, gen)
}

// failLocked applies an error outcome and clears the slot.
func (p *Poller) failLocked(err error) models.RecommendationSnapshot {
	p.slot = slot{}
	if remote.IsUnauthenticated(err) {
		p.results = []models.RecommendedMovie{}
		p.failureReason = ""
		return p.transitionLocked(models.JobIdle)
	}
	p.failureReason = failureReason(err)
	return p.transitionLocked(models.JobFailed)
}

func (p *Poller) logResult(ctx context.Context, op string, err error) {
	kind := remote.KindOf(err)
	outcome := string(models.JobFailed)
	if kind == remote.KindUnauthenticated {
		outcome = kind.String()
	}
	metrics.RecommendRequests.WithLabelValues(outcome).Inc()

	logger := logging.Attach(ctx, p.logger)
	event := logger.Warn()
	if kind != remote.KindTransient {
		event = logger.Info()
	}
	event.Err(err).Str("op", op).Str("kind", kind.String()).Msg("Recommendation request failed")
}

func (p *Poller) transitionLocked(status models.JobStatus) models.RecommendationSnapshot {
	p.status = status
	p.updatedAt = p.sched.Now()
	metrics.SetRecommendState(string(status))
	return p.snapshotLocked()
}

func (p *Poller) publish(ctx context.Context, snap models.RecommendationSnapshot) {
	events.Emit(ctx, p.pub, events.TopicRecommendationsChanged, events.RecommendationsChanged{
		Status:        snap.Status,
		Count:         len(snap.Results),
		FailureReason: snap.FailureReason,
	})
}

// Status returns the current job status.
func (p *Poller) Status() models.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Snapshot returns a copy of the job state.
func (p *Poller) Snapshot() models.RecommendationSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Poller) snapshotLocked() models.RecommendationSnapshot {
	return models.RecommendationSnapshot{
		Status:        p.status,
		Results:       copyMovies(p.results),
		FailureReason: p.failureReason,
		InFlight:      p.slot.kind == slotRequest,
		RetryPending:  p.slot.kind == slotRetry,
		UpdatedAt:     p.updatedAt,
	}
}

// Genres returns the distinct genres across the current results, sorted.
func (p *Poller) Genres() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := map[string]string{}
	for _, m := range p.results {
		for _, g := range m.Genres {
			g = strings.TrimSpace(g)
			if g == "" {
				continue
			}
			key := strings.ToLower(g)
			if _, ok := seen[key]; !ok {
				seen[key] = g
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Filter returns the current results carrying genre, in result order.
// An empty genre or AllGenres returns every result.
func (p *Poller) Filter(genre string) []models.RecommendedMovie {
	p.mu.Lock()
	defer p.mu.Unlock()

	genre = strings.TrimSpace(genre)
	if genre == "" || strings.EqualFold(genre, AllGenres) {
		return copyMovies(p.results)
	}
	out := []models.RecommendedMovie{}
	for _, m := range p.results {
		if m.HasGenre(genre) {
			out = append(out, m)
		}
	}
	return out
}

func failureReason(err error) string {
	if remote.KindOf(err) == remote.KindPrecondition {
		return PreconditionMessage
	}
	return "Could not load recommendations: " + remote.MessageOf(err)
}

func copyMovies(in []models.RecommendedMovie) []models.RecommendedMovie {
	out := make([]models.RecommendedMovie, len(in))
	copy(out, in)
	return out
}
