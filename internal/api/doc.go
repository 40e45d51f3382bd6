// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package api serves the local consumer API of the sync core.

UI processes on the same machine read watchlist, recommendation and feedback
state through it, trigger mutations, and subscribe to state changes over a
websocket. Every JSON response uses the models.Envelope envelope:

	{"status": "success", "data": {...}, "meta": {"timestamp": "..."}}
	{"status": "error", "error": {"code": "PRECONDITION", "message": "..."}, "meta": {...}}

Routes (all under /api/v1 unless noted):

	GET    /watchlist?force=bool&status=     cached entries
	GET    /watchlist/{movieID}              {in_watchlist, entry?}
	POST   /watchlist                        add {movie_id, status, notes}
	PUT    /watchlist/{movieID}              update {status?, user_rating?, notes?}
	DELETE /watchlist/{movieID}              remove
	GET    /recommendations?genre=           poller snapshot, filtered
	POST   /recommendations/fetch            start a fetch unless one is outstanding
	POST   /recommendations/refresh          invalidate the server cache and refetch
	POST   /feedback/aggregate               {sentiment}
	GET    /feedback/items/{movieID}         feedback state
	POST   /feedback/items/{movieID}         {sentiment, rating?}
	POST   /feedback/items/{movieID}/rating  {rating}
	DELETE /feedback/items/{movieID}         clear a dislike
	GET    /feedback/disliked                disliked movies
	GET    /session                          session status
	POST   /session                          {token} sign in
	DELETE /session                          sign out
	GET    /events                           websocket event stream
	GET    /healthz, /metrics                (root) liveness, prometheus

Without a session, read endpoints answer with empty state and mutations
answer 401 NO_SESSION.

Error codes map from the remote error taxonomy: VALIDATION_FAILED (400),
UNAUTHENTICATED (401), PRECONDITION (409), CONFLICT (409) for work already
in flight, REMOTE_UNAVAILABLE (502).
*/
package api
