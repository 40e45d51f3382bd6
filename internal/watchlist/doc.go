// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package watchlist provides the session-wide watchlist cache.

One Cache is shared by every consumer of a session. Reads are served from
memory while the last successful fetch is younger than the TTL (60s by
default); older or forced reads go to the remote service and replace the
entries wholesale. Every successful mutation forces a refetch, so a later
non-forced read always reflects it. A background task forces a refetch every
RefreshInterval (5m by default) until Close.

Failures never corrupt state: a failed fetch keeps the previous entries and
LastFetchedAt and records LastError; an Unauthenticated result (credential
lost) resets the cache to empty.

Concurrent non-forced fetches are coalesced through singleflight. A fetch
result is applied only when its dispatch sequence is newer than the last
applied one, so a slow early response cannot overwrite a newer one.

Usage:

	c := watchlist.New(api, watchlist.Options{Scheduler: schedule.NewReal()})
	c.Start()
	defer c.Close()

	if c.Contains(42) { ... }
	if err := c.Add(ctx, 42, models.StatusWantToWatch, ""); err != nil { ... }
*/
package watchlist
