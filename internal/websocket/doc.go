// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package websocket pushes state-change events to UI consumers.

The Hub owns the set of connected clients and fans broadcast messages out
to them; the Bridge subscribes to the in-process event bus and feeds every
event into the hub. Both run under the supervisor tree.

Wire format: each frame is a JSON object

	{"type": "watchlist.changed", "data": {<events.Event>}}

where type is the event topic. A client may send {"type": "ping"} and gets
{"type": "pong"} back. Clients can narrow the stream with the topics query
parameter, e.g. /api/v1/events?topics=watchlist.changed,session.changed.

Slow clients whose send buffer fills are dropped rather than allowed to
stall the broadcast loop.
*/
package websocket
