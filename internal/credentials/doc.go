// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package credentials is the best-effort local store for the user's bearer
// token.
//
// The token is kept in BadgerDB (on disk, or in memory when no path is
// configured) under a single key. When a secret is configured the token is
// encrypted at rest with AES-256-GCM (see config.CredentialEncryptor), with
// the store key bound as additional data.
//
// Tokens issued by the movie service are HS256 JWTs carrying "email" and
// "exp". Inspect reads those claims without verifying the signature: the
// client has no key and only needs to know when to stop sending a token the
// server will reject. Opaque tokens are stored with no expiry.
//
// Load treats an expired token as absent and deletes it.
package credentials
