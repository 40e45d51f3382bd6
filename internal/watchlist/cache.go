// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package watchlist

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/remote"
	"github.com/tomtom215/reelsync/internal/schedule"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTTL             = 60 * time.Second
	DefaultRefreshInterval = 5 * time.Minute
)

const fetchKey = "watchlist"

// Options configures a Cache.
type Options struct {
	TTL             time.Duration
	RefreshInterval time.Duration
	Scheduler       schedule.Scheduler
	Publisher       events.Publisher
}

// Cache is the TTL-gated, mutation-invalidated watchlist cache.
type Cache struct {
	api       remote.API
	sched     schedule.Scheduler
	pub       events.Publisher
	ttl       time.Duration
	refreshIv time.Duration
	logger    zerolog.Logger
	sf        singleflight.Group

	mu            sync.Mutex
	items         []models.WatchlistEntry
	index         map[int64]int
	lastFetchedAt time.Time
	lastErr       error
	loading       int
	dispatched    uint64 // sequence of the latest dispatched fetch
	applied       uint64 // sequence of the latest applied fetch
	generation    uint64 // bumped on Close; late completions of older generations are dropped
	refresh       schedule.Handle
	closed        bool
}

// New creates an empty cache. Call Start to arm the background refresh.
func New(api remote.API, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	return &Cache{
		api:       api,
		sched:     opts.Scheduler,
		pub:       opts.Publisher,
		ttl:       opts.TTL,
		refreshIv: opts.RefreshInterval,
		logger:    logging.WithComponent("watchlist"),
		items:     []models.WatchlistEntry{},
		index:     map[int64]int{},
	}
}

// Start arms the background refresh. It is a no-op when already started or closed.
func (c *Cache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refresh != nil || c.closed {
		return
	}
	c.refresh = c.sched.Every(c.refreshIv, func() {
		ctx := logging.ContextWithNewCorrelationID(context.Background())
		c.Fetch(ctx, true)
	})
}

// Close cancels the background refresh, drops any in-flight result and resets
// the cache to empty. The cache stays usable for reads; Start is a no-op afterwards.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.refresh != nil {
		c.refresh.Cancel()
		c.refresh = nil
	}
	c.closed = true
	c.generation++
	changed := c.resetLocked()
	c.mu.Unlock()

	if changed {
		c.publish(context.Background(), events.ReasonReset, nil)
	}
}

// Fetch returns the current entries, refetching when force is set or the
// TTL has elapsed. It never fails: on error the previous entries are
// returned and LastError records the reason.
func (c *Cache) Fetch(ctx context.Context, force bool) []models.WatchlistEntry {
	if !force {
		c.mu.Lock()
		if c.freshLocked() {
			items := cloneEntries(c.items)
			c.mu.Unlock()
			metrics.WatchlistCacheHits.Inc()
			return items
		}
		c.mu.Unlock()
		metrics.WatchlistCacheMisses.Inc()

		v, _, _ := c.sf.Do(fetchKey, func() (interface{}, error) {
			return c.fetchNow(ctx), nil
		})
		return cloneEntries(v.([]models.WatchlistEntry))
	}
	return c.fetchNow(ctx)
}

// fetchNow always issues a request and applies its result if it is still
// current. The request outlives its caller: a non-forced fetch is shared
// with every consumer that joined it.
func (c *Cache) fetchNow(ctx context.Context) []models.WatchlistEntry {
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	c.dispatched++
	seq, gen := c.dispatched, c.generation
	c.loading++
	c.mu.Unlock()

	entries, err := c.api.ListWatchlist(ctx)
	logger := logging.Attach(ctx, c.logger)

	c.mu.Lock()
	c.loading--
	// A newer fetch already succeeded, so an older failure says nothing.
	if gen != c.generation || seq <= c.applied {
		items := cloneEntries(c.items)
		c.mu.Unlock()
		metrics.WatchlistFetches.WithLabelValues("stale").Inc()
		return items
	}

	if err != nil {
		if remote.IsUnauthenticated(err) {
			changed := c.resetLocked()
			c.mu.Unlock()
			metrics.WatchlistFetches.WithLabelValues("reset").Inc()
			logger.Debug().Err(err).Msg("Watchlist reset: not signed in")
			if changed {
				c.publish(ctx, events.ReasonReset, nil)
			}
			return []models.WatchlistEntry{}
		}
		c.lastErr = err
		items := cloneEntries(c.items)
		c.mu.Unlock()
		metrics.WatchlistFetches.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Int("cached_entries", len(items)).Msg("Watchlist fetch failed, keeping cached entries")
		return items
	}

	c.applied = seq
	c.replaceLocked(entries)
	c.lastFetchedAt = c.sched.Now()
	c.lastErr = nil
	items := cloneEntries(c.items)
	ids := movieIDs(c.items)
	c.mu.Unlock()

	metrics.WatchlistFetches.WithLabelValues("applied").Inc()
	metrics.WatchlistEntries.Set(float64(len(items)))
	logger.Debug().Int("entries", len(items)).Uint64("seq", seq).Msg("Watchlist fetched")
	c.publish(ctx, events.ReasonFetched, ids)
	return items
}

// Contains reports whether movieID is in the cached entries. Non-positive
// ids are never present.
func (c *Cache) Contains(movieID int64) bool {
	if movieID <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[movieID]
	return ok
}

// Get returns the cached entry for movieID.
func (c *Cache) Get(movieID int64) (models.WatchlistEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[movieID]
	if !ok {
		return models.WatchlistEntry{}, false
	}
	return c.items[i], true
}

// Entries returns a copy of the cached entries in server order.
func (c *Cache) Entries() []models.WatchlistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEntries(c.items)
}

// ByStatus returns the cached entries with the given status, in server order.
func (c *Cache) ByStatus(status models.WatchStatus) []models.WatchlistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []models.WatchlistEntry{}
	for _, e := range c.items {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// IsLoading reports whether a fetch is in flight.
func (c *Cache) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// LastFetchedAt returns the time of the last applied fetch, or zero.
func (c *Cache) LastFetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFetchedAt
}

// LastError returns the error of the most recent failed operation, cleared
// by the next successful fetch.
func (c *Cache) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Cache) freshLocked() bool {
	return !c.lastFetchedAt.IsZero() && c.sched.Now().Sub(c.lastFetchedAt) < c.ttl
}

// replaceLocked swaps in entries, keeping the first occurrence of a movie id.
func (c *Cache) replaceLocked(entries []models.WatchlistEntry) {
	items := make([]models.WatchlistEntry, 0, len(entries))
	index := make(map[int64]int, len(entries))
	for _, e := range entries {
		if _, dup := index[e.MovieID]; dup {
			c.logger.Warn().Int64("movie_id", e.MovieID).Msg("Duplicate watchlist entry from server, ignoring")
			continue
		}
		index[e.MovieID] = len(items)
		items = append(items, e)
	}
	c.items = items
	c.index = index
}

// resetLocked empties the cache and reports whether anything was cleared.
func (c *Cache) resetLocked() bool {
	changed := len(c.items) > 0 || !c.lastFetchedAt.IsZero()
	c.items = []models.WatchlistEntry{}
	c.index = map[int64]int{}
	c.lastFetchedAt = time.Time{}
	c.lastErr = nil
	c.applied = c.dispatched
	metrics.WatchlistEntries.Set(0)
	return changed
}

func (c *Cache) publish(ctx context.Context, reason string, ids []int64) {
	if ids == nil {
		ids = []int64{}
	}
	events.Emit(ctx, c.pub, events.TopicWatchlistChanged, events.WatchlistChanged{
		Reason:   reason,
		Count:    len(ids),
		MovieIDs: ids,
	})
}

func cloneEntries(in []models.WatchlistEntry) []models.WatchlistEntry {
	out := make([]models.WatchlistEntry, len(in))
	copy(out, in)
	return out
}

func movieIDs(entries []models.WatchlistEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.MovieID
	}
	return ids
}
