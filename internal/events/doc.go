// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package events is the in-process state-change bus.

The watchlist cache, recommendation poller, feedback reconciler and session
manager publish a notification after every state change they apply. Consumers
(the websocket bridge in internal/api, tests) subscribe to one or more topics
instead of polling accessors.

The bus is a watermill gochannel pub/sub. Delivery is best-effort and
in-memory: nothing is persisted and a subscriber that falls behind only slows
its own stream. Publishing never blocks a component on a slow subscriber.

Topics:

	watchlist.changed        WatchlistChanged
	recommendations.changed  RecommendationsChanged
	feedback.submitted       FeedbackSubmitted
	session.changed          SessionChanged

Every message body is an Event envelope whose Payload holds the topic's
payload struct as JSON.
*/
package events
