// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package services adapts ReelSync components to suture.Service.
//
// HTTPServerService binds a listener and serves an http.Server until its
// context ends, then drains it.
// SessionExpiryService signs the user out once the stored token expires.
package services
