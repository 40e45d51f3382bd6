// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package config provides configuration loading for ReelSync.

Configuration is layered with Koanf v2: struct defaults, then an optional YAML
file (CONFIG_PATH, ./config.yaml, /etc/reelsync/config.yaml), then mapped
environment variables.

# Sections

  - remote: base URL, timeout, outgoing rate limit, 429 retry policy, circuit breaker
  - watchlist: cache TTL (60s) and background refresh interval (5m)
  - recommend: fixed retry delay while recommendations are generating (5s)
  - credentials: badger path and the secret used to encrypt the stored token
  - server: consumer API listen address, CORS origins, per-IP rate limit
  - logging: level, format, caller and optional rotated log file

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.LoggingSettings())

# Credential Encryption

CredentialEncryptor seals the stored bearer token with AES-256-GCM under a
key derived from credentials.secret via HKDF-SHA256. Seal and Open take a
label that is bound as additional data.
*/
package config
