// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package supervisor runs the long-lived ReelSync services under a suture v4
tree.

	reelsync
	├── session-layer
	│   └── services.SessionExpiryService
	├── messaging-layer
	│   ├── websocket.Hub
	│   └── websocket.Bridge
	└── api-layer
	    └── services.HTTPServerService

Crashed services are restarted with suture's backoff. Services that must not
come back (the event bridge after the bus closes) return
suture.ErrDoNotRestart. Supervisor events are logged through sutureslog into
the process zerolog logger.

Usage:

	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	err := tree.Serve(ctx)
*/
package supervisor
