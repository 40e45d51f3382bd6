// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package watchlist

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/schedule"
	"github.com/tomtom215/reelsync/internal/testinfra"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *testinfra.FakeService
	sched *schedule.Manual
	cache *Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := testinfra.NewFakeService(t)
	client := remote.NewClient(svc.URL(), remote.TokenFunc(func() (string, bool) {
		return testinfra.DefaultToken, true
	}), remote.WithRateLimit(0, 0), remote.WithRetry(0, time.Millisecond))
	sched := schedule.NewManual(epoch)
	c := New(client, Options{Scheduler: sched})
	t.Cleanup(c.Close)
	return &fixture{svc: svc, sched: sched, cache: c}
}

func (f *fixture) gets() int {
	return f.svc.Count(http.MethodGet, "/watchlist")
}

func entry(movieID int64, status models.WatchStatus) models.WatchlistEntry {
	return models.WatchlistEntry{ID: movieID, MovieID: movieID, Status: status, Title: "Seeded"}
}

func TestCache_TTLShortCircuit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(1, models.StatusWatching), entry(2, models.StatusWatched))
	ctx := context.Background()

	first := f.cache.Fetch(ctx, false)
	if len(first) != 2 {
		t.Fatalf("len(Fetch()) = %d, want 2", len(first))
	}
	if got := f.cache.LastFetchedAt(); !got.Equal(epoch) {
		t.Errorf("LastFetchedAt() = %v, want %v", got, epoch)
	}

	f.svc.SeedWatchlist(entry(3, models.StatusWantToWatch))
	for i := 0; i < 5; i++ {
		f.sched.Advance(10 * time.Second)
		items := f.cache.Fetch(ctx, false)
		if len(items) != 2 || items[0].MovieID != 1 {
			t.Fatalf("Fetch() within TTL = %+v, want cached entries", items)
		}
	}
	if got := f.gets(); got != 1 {
		t.Errorf("GET /watchlist = %d, want 1", got)
	}

	f.sched.Advance(10 * time.Second) // 60s since the fetch
	items := f.cache.Fetch(ctx, false)
	if len(items) != 1 || items[0].MovieID != 3 {
		t.Errorf("Fetch() after TTL = %+v, want server entries", items)
	}
	if got := f.gets(); got != 2 {
		t.Errorf("GET /watchlist = %d, want 2", got)
	}
}

func TestCache_ForceBypassesTTL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.cache.Fetch(ctx, false)
	f.cache.Fetch(ctx, true)
	f.cache.Fetch(ctx, true)
	if got := f.gets(); got != 3 {
		t.Errorf("GET /watchlist = %d, want 3", got)
	}
}

func TestCache_FailedFetchKeepsState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(7, models.StatusWatched))
	ctx := context.Background()
	f.cache.Fetch(ctx, false)
	fetchedAt := f.cache.LastFetchedAt()

	f.sched.Advance(2 * time.Minute)
	f.svc.FailNext(http.MethodGet, "/watchlist", http.StatusInternalServerError, "database is down")
	items := f.cache.Fetch(ctx, false)

	if len(items) != 1 || items[0].MovieID != 7 {
		t.Errorf("Fetch() on failure = %+v, want previous entries", items)
	}
	if got := f.cache.LastFetchedAt(); !got.Equal(fetchedAt) {
		t.Errorf("LastFetchedAt() = %v, want unchanged %v", got, fetchedAt)
	}
	err := f.cache.LastError()
	if remote.KindOf(err) != remote.KindTransient || remote.MessageOf(err) != "database is down" {
		t.Errorf("LastError() = %v, want transient 'database is down'", err)
	}
	if !f.cache.Contains(7) {
		t.Error("Contains(7) = false after failed fetch, want true")
	}

	f.cache.Fetch(ctx, true)
	if err := f.cache.LastError(); err != nil {
		t.Errorf("LastError() after success = %v, want nil", err)
	}
}

func TestCache_AddContainsRemoveScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if f.cache.Contains(42) {
		t.Fatal("Contains(42) on empty cache = true")
	}
	if err := f.cache.Add(ctx, 42, models.StatusWantToWatch, ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !f.cache.Contains(42) {
		t.Fatal("Contains(42) after Add = false")
	}
	if err := f.cache.Remove(ctx, 42); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if f.cache.Contains(42) {
		t.Error("Contains(42) after Remove = true")
	}
	if got := f.gets(); got != 2 {
		t.Errorf("GET /watchlist = %d, want 2 (one per mutation)", got)
	}
}

func TestCache_MutationInvalidatesWithinTTL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(9, models.StatusWatching))
	ctx := context.Background()
	f.cache.Fetch(ctx, false)

	watched := models.StatusWatched
	rating := 8.0
	if err := f.cache.Update(ctx, 9, models.WatchlistUpdate{Status: &watched, UserRating: &rating}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	f.sched.Advance(time.Second)
	items := f.cache.Fetch(ctx, false)
	if len(items) != 1 || items[0].Status != models.StatusWatched || items[0].UserRating == nil || *items[0].UserRating != 8 {
		t.Errorf("Fetch() after Update = %+v, want watched rated 8", items)
	}
}

func TestCache_MutationFailureLeavesState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(1, models.StatusWatching))
	ctx := context.Background()
	f.cache.Fetch(ctx, false)

	f.svc.FailNext(http.MethodPost, "/watchlist", http.StatusBadGateway)
	err := f.cache.Add(ctx, 2, models.StatusWatching, "")
	if remote.KindOf(err) != remote.KindTransient {
		t.Fatalf("Add() error = %v, want transient", err)
	}
	if f.cache.Contains(2) || f.cache.Len() != 1 {
		t.Errorf("cache changed after failed Add: %+v", f.cache.Entries())
	}
	if got := f.gets(); got != 1 {
		t.Errorf("GET /watchlist = %d, want 1 (no resync after failure)", got)
	}

	// Retrying the same call is safe.
	if err := f.cache.Add(ctx, 2, models.StatusWatching, ""); err != nil {
		t.Fatalf("Add() retry error = %v", err)
	}
	if !f.cache.Contains(2) {
		t.Error("Contains(2) after retry = false")
	}
}

func TestCache_RemoveMissingIsPrecondition(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.cache.Remove(context.Background(), 404)
	if remote.KindOf(err) != remote.KindPrecondition {
		t.Errorf("Remove() error = %v, want precondition", err)
	}
}

func TestCache_RatingRequiresWatched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(5, models.StatusWantToWatch))
	ctx := context.Background()
	f.cache.Fetch(ctx, false)

	rating := 6.0
	err := f.cache.Update(ctx, 5, models.WatchlistUpdate{UserRating: &rating})
	if remote.KindOf(err) != remote.KindValidation {
		t.Fatalf("Update() error = %v, want validation", err)
	}
	watching := models.StatusWatching
	err = f.cache.Update(ctx, 5, models.WatchlistUpdate{Status: &watching, UserRating: &rating})
	if remote.KindOf(err) != remote.KindValidation {
		t.Fatalf("Update(watching+rating) error = %v, want validation", err)
	}
	if got := f.svc.Count(http.MethodPut, "/watchlist/5"); got != 0 {
		t.Errorf("PUT requests = %d, want 0", got)
	}
	if f.cache.LastError() == nil {
		t.Error("LastError() = nil after rejected update")
	}
}

func TestCache_ContainsNonPositiveID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if f.cache.Contains(0) || f.cache.Contains(-3) {
		t.Error("Contains() with non-positive id = true, want false")
	}
}

func TestCache_BackgroundRefresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cache.Start()
	f.cache.Start() // idempotent

	f.sched.Advance(4 * time.Minute)
	if got := f.gets(); got != 0 {
		t.Fatalf("GET /watchlist before interval = %d, want 0", got)
	}
	f.sched.Advance(time.Minute)
	if got := f.gets(); got != 1 {
		t.Fatalf("GET /watchlist after 5m = %d, want 1", got)
	}
	f.sched.Advance(10 * time.Minute)
	if got := f.gets(); got != 3 {
		t.Fatalf("GET /watchlist after 15m = %d, want 3", got)
	}

	f.cache.Close()
	f.sched.Advance(time.Hour)
	if got := f.gets(); got != 3 {
		t.Errorf("GET /watchlist after Close = %d, want 3", got)
	}
	if got := f.sched.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
}

func TestCache_UnauthenticatedResets(t *testing.T) {
	t.Parallel()

	svc := testinfra.NewFakeService(t)
	svc.SeedWatchlist(entry(1, models.StatusWatched))

	var mu sync.Mutex
	token := testinfra.DefaultToken
	client := remote.NewClient(svc.URL(), remote.TokenFunc(func() (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		return token, token != ""
	}), remote.WithRateLimit(0, 0))
	c := New(client, Options{Scheduler: schedule.NewManual(epoch)})
	ctx := context.Background()

	if got := len(c.Fetch(ctx, false)); got != 1 {
		t.Fatalf("len(Fetch()) = %d, want 1", got)
	}

	mu.Lock()
	token = ""
	mu.Unlock()

	items := c.Fetch(ctx, true)
	if len(items) != 0 || c.Len() != 0 {
		t.Errorf("Fetch() signed out = %+v, want empty", items)
	}
	if !c.LastFetchedAt().IsZero() {
		t.Errorf("LastFetchedAt() = %v, want zero", c.LastFetchedAt())
	}
	if got := svc.Count(http.MethodGet, "/watchlist"); got != 1 {
		t.Errorf("GET /watchlist = %d, want 1 (signed-out call not sent)", got)
	}
}

func TestCache_CoalescesConcurrentFetches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(1, models.StatusWatched))
	release := f.svc.Gate(http.MethodGet, "/watchlist")

	var wg sync.WaitGroup
	results := make([][]models.WatchlistEntry, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.cache.Fetch(context.Background(), false)
		}(i)
	}

	if !f.svc.WaitForCount(http.MethodGet, "/watchlist", 1, 2*time.Second) {
		t.Fatal("fetch never reached the server")
	}
	if !f.cache.IsLoading() {
		t.Error("IsLoading() = false while a fetch is in flight")
	}
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	if got := f.gets(); got != 1 {
		t.Errorf("GET /watchlist = %d, want 1", got)
	}
	for i, r := range results {
		if len(r) != 1 {
			t.Errorf("results[%d] = %+v, want 1 entry", i, r)
		}
	}
	if f.cache.IsLoading() {
		t.Error("IsLoading() = true after fetches completed")
	}
}

func TestCache_SharedFetchSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(1, models.StatusWatched), entry(2, models.StatusWantToWatch))
	release := f.svc.Gate(http.MethodGet, "/watchlist")

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	var wg sync.WaitGroup
	var first, second []models.WatchlistEntry
	wg.Add(2)
	go func() {
		defer wg.Done()
		first = f.cache.Fetch(ctxA, false)
	}()
	if !f.svc.WaitForCount(http.MethodGet, "/watchlist", 1, 2*time.Second) {
		t.Fatal("fetch never reached the server")
	}
	go func() {
		defer wg.Done()
		second = f.cache.Fetch(context.Background(), false)
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	release()
	wg.Wait()

	if len(second) != 2 {
		t.Errorf("joined consumer got %+v, want 2 entries", second)
	}
	if len(first) != 2 {
		t.Errorf("cancelled consumer got %+v, want 2 entries", first)
	}
	if err := f.cache.LastError(); err != nil {
		t.Errorf("LastError() = %v, want nil", err)
	}
	if got := f.gets(); got != 1 {
		t.Errorf("GET /watchlist = %d, want 1", got)
	}
}

func TestCache_LateFailureAfterNewerSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(entry(3, models.StatusWatched))
	f.svc.FailNext(http.MethodGet, "/watchlist", http.StatusInternalServerError, "replica lagging")
	releaseOld := f.svc.HoldNext(http.MethodGet, "/watchlist")
	ctx := context.Background()

	done := make(chan []models.WatchlistEntry, 1)
	go func() { done <- f.cache.Fetch(ctx, true) }()
	if !f.svc.WaitHeld(http.MethodGet, "/watchlist", 2*time.Second) {
		t.Fatal("first fetch never reached the server")
	}

	if items := f.cache.Fetch(ctx, true); len(items) != 1 {
		t.Fatalf("newer Fetch() = %+v, want 1 entry", items)
	}
	fetchedAt := f.cache.LastFetchedAt()

	releaseOld()
	if items := <-done; len(items) != 1 || items[0].MovieID != 3 {
		t.Errorf("late Fetch() = %+v, want current entries", items)
	}
	if err := f.cache.LastError(); err != nil {
		t.Errorf("LastError() = %v, want nil after newer success", err)
	}
	if got := f.cache.LastFetchedAt(); !got.Equal(fetchedAt) {
		t.Errorf("LastFetchedAt() = %v, want %v", got, fetchedAt)
	}
	if !f.cache.Contains(3) {
		t.Error("Contains(3) = false, want true")
	}
}

func TestCache_ByStatusAndGet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.SeedWatchlist(
		entry(1, models.StatusWatched),
		entry(2, models.StatusWantToWatch),
		entry(3, models.StatusWatched),
	)
	f.cache.Fetch(context.Background(), false)

	watched := f.cache.ByStatus(models.StatusWatched)
	if len(watched) != 2 || watched[0].MovieID != 1 || watched[1].MovieID != 3 {
		t.Errorf("ByStatus(watched) = %+v", watched)
	}
	if got := f.cache.ByStatus(models.StatusWatching); got == nil || len(got) != 0 {
		t.Errorf("ByStatus(watching) = %v, want empty", got)
	}
	e, ok := f.cache.Get(2)
	if !ok || e.Status != models.StatusWantToWatch {
		t.Errorf("Get(2) = %+v, %v", e, ok)
	}
	if _, ok := f.cache.Get(99); ok {
		t.Error("Get(99) ok = true")
	}

	// Entries is a copy.
	entries := f.cache.Entries()
	entries[0].MovieID = 1000
	if !f.cache.Contains(1) {
		t.Error("mutating Entries() result changed the cache")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	last   interface{}
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.last = payload
	return nil
}

func TestCache_PublishesChanges(t *testing.T) {
	t.Parallel()

	svc := testinfra.NewFakeService(t)
	svc.SeedWatchlist(entry(4, models.StatusWatched))
	client := remote.NewClient(svc.URL(), remote.StaticToken(testinfra.DefaultToken), remote.WithRateLimit(0, 0))
	pub := &recordingPublisher{}
	c := New(client, Options{Scheduler: schedule.NewManual(epoch), Publisher: pub})

	c.Fetch(context.Background(), false)
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.topics) != 2 {
		t.Fatalf("published %d events, want 2 (fetched, reset)", len(pub.topics))
	}
	last, ok := pub.last.(events.WatchlistChanged)
	if !ok || last.Reason != events.ReasonReset || last.Count != 0 {
		t.Errorf("last event = %#v, want reset with 0 entries", pub.last)
	}
}
