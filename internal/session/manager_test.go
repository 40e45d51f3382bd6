// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/credentials"
	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/schedule"
	"github.com/tomtom215/reelsync/internal/testinfra"
)

type recordingPublisher struct {
	mu       sync.Mutex
	sessions []events.SessionChanged
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	if topic != events.TopicSessionChanged {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, payload.(events.SessionChanged))
	return nil
}

func (r *recordingPublisher) changes() []events.SessionChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.SessionChanged(nil), r.sessions...)
}

type fixture struct {
	svc   *testinfra.FakeService
	sched *schedule.Manual
	store *credentials.BadgerStore
	pub   *recordingPublisher
	cfg   *config.Config
	mgr   *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := testinfra.NewFakeService(t)
	store, err := credentials.OpenBadgerStore(config.CredentialsConfig{})
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		Remote:    config.RemoteConfig{BaseURL: svc.URL()},
		Watchlist: config.WatchlistConfig{TTL: time.Minute, RefreshInterval: 5 * time.Minute},
		Recommend: config.RecommendConfig{RetryDelay: 5 * time.Second},
	}
	f := &fixture{
		svc:   svc,
		sched: schedule.NewManual(time.Now()),
		store: store,
		pub:   &recordingPublisher{},
		cfg:   cfg,
	}
	f.mgr = f.newManager()
	return f
}

func (f *fixture) newManager() *Manager {
	m := NewManager(f.cfg, Options{Store: f.store, Publisher: f.pub, Scheduler: f.sched})
	return m
}

func TestManager_LoginOpensSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(models.WatchlistEntry{ID: 1, MovieID: 7, Status: models.StatusWatching})
	ctx := context.Background()

	if _, ok := f.mgr.Current(); ok {
		t.Fatal("Current() before login ok = true")
	}
	if _, ok := f.mgr.Token(); ok {
		t.Fatal("Token() before login ok = true")
	}

	if _, err := f.mgr.Login(ctx, testinfra.DefaultToken); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	s, ok := f.mgr.Current()
	if !ok {
		t.Fatal("Current() after login ok = false")
	}
	if got := s.Watchlist.Fetch(ctx, false); len(got) != 1 || got[0].MovieID != 7 {
		t.Errorf("Fetch() = %+v, want the seeded entry", got)
	}
	if got := f.sched.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want the armed watchlist refresh", got)
	}

	changes := f.pub.changes()
	if len(changes) != 1 || !changes[0].Active {
		t.Errorf("session events = %+v, want one active", changes)
	}
}

func TestManager_LogoutTearsDown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(models.WatchlistEntry{ID: 1, MovieID: 7})
	f.svc.QueueRecommend(testinfra.Generating())
	ctx := context.Background()

	if _, err := f.mgr.Login(ctx, testinfra.DefaultToken); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	s, _ := f.mgr.Current()
	s.Watchlist.Fetch(ctx, false)
	s.Recommendations.Fetch(ctx)
	if got := f.sched.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want refresh and retry armed", got)
	}

	if err := f.mgr.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if f.mgr.Active() {
		t.Error("Active() after logout = true")
	}
	if got := f.sched.Pending(); got != 0 {
		t.Errorf("Pending() after logout = %d, want 0", got)
	}
	if got := s.Watchlist.Len(); got != 0 {
		t.Errorf("old cache Len() = %d, want 0", got)
	}
	if got := s.Recommendations.Status(); got != models.JobIdle {
		t.Errorf("old poller Status() = %v, want idle", got)
	}
	if _, ok, _ := f.store.Load(ctx); ok {
		t.Error("credential still stored after logout")
	}

	gets := f.svc.Count(http.MethodGet, "/recommend")
	f.sched.Advance(time.Hour)
	if got := f.svc.Count(http.MethodGet, "/recommend"); got != gets {
		t.Errorf("GET /recommend after logout = %d, want %d", got, gets)
	}

	if err := f.mgr.Logout(ctx); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
	changes := f.pub.changes()
	if len(changes) != 2 || changes[1].Active {
		t.Errorf("session events = %+v, want login then logout", changes)
	}
}

func TestManager_LoginReplacesSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(models.WatchlistEntry{ID: 1, MovieID: 7})
	ctx := context.Background()

	if _, err := f.mgr.Login(ctx, testinfra.DefaultToken); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	first, _ := f.mgr.Current()
	first.Watchlist.Fetch(ctx, false)

	if _, err := f.mgr.Login(ctx, testinfra.DefaultToken); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	second, _ := f.mgr.Current()
	if second == first {
		t.Fatal("Login() kept the previous session")
	}
	if got := first.Watchlist.Len(); got != 0 {
		t.Errorf("previous cache Len() = %d, want 0", got)
	}
	if got := f.sched.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want only the new refresh", got)
	}
}

func TestManager_Restore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if ok, err := f.mgr.Restore(ctx); ok || err != nil {
		t.Fatalf("Restore() on empty store = %v, %v", ok, err)
	}
	if _, err := f.store.Save(ctx, testinfra.DefaultToken); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	m := f.newManager()
	defer m.Close()
	ok, err := m.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore() = %v, %v", ok, err)
	}
	if token, ok := m.Token(); !ok || token != testinfra.DefaultToken {
		t.Errorf("Token() = %q, %v", token, ok)
	}

	m.Close()
	if m.Active() {
		t.Error("Active() after Close = true")
	}
	if _, ok, _ := f.store.Load(ctx); !ok {
		t.Error("Close() deleted the stored credential")
	}
}

func TestManager_ExpiredToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	sign := func(exp time.Time) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, credentials.Claims{
			Email:            "ana@example.com",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		}).SignedString([]byte("k"))
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return token
	}

	if _, err := f.mgr.Login(ctx, sign(time.Now().Add(-time.Minute))); !errors.Is(err, credentials.ErrTokenExpired) {
		t.Fatalf("Login(expired) error = %v, want ErrTokenExpired", err)
	}
	if f.mgr.Active() {
		t.Fatal("Active() after rejected login = true")
	}

	cred, err := f.mgr.Login(ctx, sign(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if cred.Email != "ana@example.com" {
		t.Errorf("Email = %q", cred.Email)
	}
	if _, ok := f.mgr.Token(); !ok {
		t.Fatal("Token() before expiry ok = false")
	}

	f.sched.Advance(2 * time.Hour)
	if _, ok := f.mgr.Token(); ok {
		t.Error("Token() after expiry ok = true")
	}
}

func TestSession_BadAggregateRefreshes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.svc.QueueRecommend(
		testinfra.Ready(models.RecommendedMovie{MovieID: 11, Title: "First"}, models.RecommendedMovie{MovieID: 12, Title: "Second"}),
		testinfra.Ready(models.RecommendedMovie{MovieID: 21, Title: "Replacement"}),
	)

	if _, err := f.mgr.Login(ctx, testinfra.DefaultToken); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	s, _ := f.mgr.Current()
	s.Recommendations.Fetch(ctx)

	if err := s.SubmitAggregate(ctx, models.SentimentGood); err != nil {
		t.Fatalf("SubmitAggregate(good) error = %v", err)
	}
	if got := f.svc.Count(http.MethodPost, "/refresh-recommendations"); got != 0 {
		t.Errorf("refresh after good = %d, want 0", got)
	}

	if err := s.SubmitAggregate(ctx, models.SentimentBad); err != nil {
		t.Fatalf("SubmitAggregate(bad) error = %v", err)
	}
	if got := f.svc.Count(http.MethodPost, "/refresh-recommendations"); got != 1 {
		t.Errorf("refresh after bad = %d, want 1", got)
	}
	snap := s.Recommendations.Snapshot()
	if snap.Status != models.JobReady || len(snap.Results) != 1 || snap.Results[0].MovieID != 21 {
		t.Errorf("Snapshot() after refresh = %+v", snap)
	}

	sent := f.svc.Feedback()
	if len(sent) != 2 {
		t.Fatalf("feedback payloads = %d, want 2", len(sent))
	}
	if ids := sent[1].MovieIDs; len(ids) != 2 || ids[0] != 11 || ids[1] != 12 {
		t.Errorf("movie_ids = %v, want the shown set", ids)
	}
}
