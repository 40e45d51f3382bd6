// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/credentials"
	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/feedback"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/recommend"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/schedule"
	"github.com/tomtom215/reelsync/internal/watchlist"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("no active session")

// Options configures a Manager.
type Options struct {
	Store     credentials.Store
	Publisher events.Publisher
	Scheduler schedule.Scheduler

	// API replaces the remote client built from the configuration.
	API remote.API
}

// Manager opens and tears down sessions as the credential changes.
// It is also the credential source of the remote client it builds.
type Manager struct {
	cfg   *config.Config
	store credentials.Store
	pub   events.Publisher
	sched schedule.Scheduler
	api   remote.API

	mu      sync.RWMutex
	cred    *credentials.Credential
	current *Session
}

// NewManager creates a Manager with no session. Call Restore to resume a
// stored credential.
func NewManager(cfg *config.Config, opts Options) *Manager {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	m := &Manager{
		cfg:   cfg,
		store: opts.Store,
		pub:   opts.Publisher,
		sched: opts.Scheduler,
		api:   opts.API,
	}
	if m.api == nil {
		m.api = remote.NewBreakerClient(remote.NewClientFromConfig(cfg.Remote, m), cfg.Remote.Breaker)
	}
	metrics.SessionActive.Set(0)
	return m
}

// Token implements remote.CredentialSource. An expired credential counts as absent.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil || m.cred.Expired(m.sched.Now()) {
		return "", false
	}
	return m.cred.Token, true
}

// Restore opens a session from the stored credential. It reports whether
// one was found.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	if m.store == nil {
		return false, nil
	}
	cred, ok, err := m.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		logging.Info().Msg("No stored credential, starting signed out")
		return false, nil
	}
	m.open(ctx, cred)
	return true, nil
}

// Login persists token and replaces the current session with a new one.
func (m *Manager) Login(ctx context.Context, token string) (credentials.Credential, error) {
	var (
		cred credentials.Credential
		err  error
	)
	if m.store != nil {
		cred, err = m.store.Save(ctx, token)
	} else {
		cred, err = credentials.NewCredential(token, m.sched.Now())
	}
	if err != nil {
		return credentials.Credential{}, err
	}
	m.open(ctx, cred)
	return cred, nil
}

// Logout tears down the current session and deletes the stored credential.
// It is safe to call when signed out.
func (m *Manager) Logout(ctx context.Context) error {
	m.teardown(ctx)
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Close tears down the current session but keeps the stored credential.
func (m *Manager) Close() {
	m.teardown(context.Background())
}

// Current returns the active session.
func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != nil
}

// Active reports whether a session is open.
func (m *Manager) Active() bool {
	_, ok := m.Current()
	return ok
}

func (m *Manager) open(ctx context.Context, cred credentials.Credential) {
	s := m.newSession(cred)

	m.mu.Lock()
	prev := m.current
	m.cred = &cred
	m.current = s
	m.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	s.Watchlist.Start()

	metrics.SessionActive.Set(1)
	logging.Ctx(ctx).Info().Str("email", cred.Email).Msg("Session opened")
	events.Emit(ctx, m.pub, events.TopicSessionChanged, events.SessionChanged{Active: true, Email: cred.Email})
}

func (m *Manager) teardown(ctx context.Context) {
	m.mu.Lock()
	prev := m.current
	m.cred = nil
	m.current = nil
	m.mu.Unlock()

	if prev == nil {
		return
	}
	prev.close()

	metrics.SessionActive.Set(0)
	logging.Ctx(ctx).Info().Str("email", prev.Email).Msg("Session closed")
	events.Emit(ctx, m.pub, events.TopicSessionChanged, events.SessionChanged{Active: false})
}

func (m *Manager) newSession(cred credentials.Credential) *Session {
	s := &Session{
		Email:     cred.Email,
		StartedAt: m.sched.Now(),
	}
	s.Watchlist = watchlist.New(m.api, watchlist.Options{
		TTL:             m.cfg.Watchlist.TTL,
		RefreshInterval: m.cfg.Watchlist.RefreshInterval,
		Scheduler:       m.sched,
		Publisher:       m.pub,
	})
	s.Recommendations = recommend.New(m.api, recommend.Options{
		RetryDelay: m.cfg.Recommend.RetryDelay,
		Scheduler:  m.sched,
		Publisher:  m.pub,
	})
	s.Feedback = feedback.New(m.api, feedback.Options{
		Publisher:   m.pub,
		OnAggregate: s.refreshOnBad,
	})
	return s
}

// Session is one signed-in user's sync context.
type Session struct {
	Email     string
	StartedAt time.Time

	Watchlist       *watchlist.Cache
	Recommendations *recommend.Poller
	Feedback        *feedback.Reconciler
}

// SubmitAggregate sends sentiment for the recommendations currently shown.
func (s *Session) SubmitAggregate(ctx context.Context, sentiment models.Sentiment) error {
	snap := s.Recommendations.Snapshot()
	shown := make([]int64, 0, len(snap.Results))
	for _, movie := range snap.Results {
		shown = append(shown, movie.MovieID)
	}
	return s.Feedback.SubmitAggregate(ctx, sentiment, shown)
}

// refreshOnBad asks for a new recommendation set after the user rejects the current one.
func (s *Session) refreshOnBad(ctx context.Context, sentiment models.Sentiment) {
	if sentiment != models.SentimentBad {
		return
	}
	if err := s.Recommendations.Refresh(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation refresh after negative feedback failed")
	}
}

func (s *Session) close() {
	s.Watchlist.Close()
	s.Recommendations.Stop()
	s.Feedback.Reset()
}
