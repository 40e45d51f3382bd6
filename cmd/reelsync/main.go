// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Command reelsync runs the ReelSync client core as a local service.
//
// It keeps the signed-in user's watchlist, recommendations and feedback in
// sync with the remote recommendation service and exposes them to a UI over
// a local REST API and a websocket event stream.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, optional YAML file, then environment
//     variables such as REMOTE_BASE_URL and HTTP_PORT)
//  2. Logging
//  3. Credential store (BadgerDB, optionally encrypted)
//  4. Event bus and session manager; a stored token reopens the session
//  5. Websocket hub, event bridge and HTTP server under the supervisor tree
//
// SIGINT and SIGTERM stop the tree, then the session, bus and store close in
// that order.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reelsync/internal/api"
	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/credentials"
	"github.com/tomtom215/reelsync/internal/events"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/session"
	"github.com/tomtom215/reelsync/internal/supervisor"
	"github.com/tomtom215/reelsync/internal/supervisor/services"
	"github.com/tomtom215/reelsync/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.LoggingSettings())
	logging.Info().Str("remote", cfg.Remote.BaseURL).Msg("Starting ReelSync")
	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := credentials.OpenBadgerStore(cfg.Credentials)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}()

	bus := events.NewBus(events.DefaultBusConfig())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	mgr := session.NewManager(cfg, session.Options{Store: store, Publisher: bus})
	defer mgr.Close()

	if restored, err := mgr.Restore(ctx); err != nil {
		logging.Warn().Err(err).Msg("Could not restore session, starting signed out")
	} else if restored {
		logging.Info().Msg("Session restored from credential store")
	}

	hub := websocket.NewHub()
	router := api.NewRouter(api.NewHandler(mgr, hub), cfg.Server)
	server := api.NewServer(cfg.Server, router)

	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddSessionService(services.NewSessionExpiryService(mgr, 0))
	tree.AddMessagingService(hub)
	tree.AddMessagingService(websocket.NewBridge(bus, hub))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Msg("ReelSync stopped")
}
