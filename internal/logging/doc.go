// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package logging provides the zerolog-based global logger used across ReelSync.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Msg("Session opened")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Watchlist fetch failed")
//
// Components keep their own child logger (logging.WithComponent) and attach
// per-call correlation fields with logging.Attach(ctx, logger).
//
// When Config.File.Path is set, output is tee'd into a lumberjack-rotated file.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is
// never written.
package logging
