// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package session owns the per-user sync context.

A Session is created when a credential becomes available and torn down when
it goes away. It holds one watchlist cache, one recommendation poller and one
feedback reconciler, all sharing the Manager's remote client and event
publisher. Nothing in a torn-down session fires again: the cache refresh and
any armed recommendation retry are cancelled, and late responses are dropped.

Usage:

	mgr := session.NewManager(cfg, session.Options{Store: store, Publisher: bus})
	if _, err := mgr.Restore(ctx); err != nil {
	    logging.Warn().Err(err).Msg("Stored credential unusable")
	}
	if s, ok := mgr.Current(); ok {
	    entries := s.Watchlist.Fetch(ctx, false)
	}

Login persists the token through the credential store before swapping
sessions. Logout tears the session down and deletes the stored token.
*/
package session
