// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/reelsync/internal/logging"
)

// Config holds all ReelSync configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in values from defaultConfig()
//  2. Config File: Optional YAML config file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Remote      RemoteConfig      `koanf:"remote"`
	Watchlist   WatchlistConfig   `koanf:"watchlist"`
	Recommend   RecommendConfig   `koanf:"recommend"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// RemoteConfig configures the remote recommendation service client.
type RemoteConfig struct {
	// BaseURL is the root of the remote service, e.g. http://localhost:5000.
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitRPS caps outgoing requests per second across all consumers.
	// 0 disables the limiter.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MaxRetries bounds retries of HTTP 429 responses. Other failures are never retried.
	MaxRetries     uint          `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker wrapping the remote client.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`
	// MaxRequests allowed through while half-open.
	MaxRequests uint32        `koanf:"max_requests"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32 `koanf:"consecutive_failures"`
}

// WatchlistConfig configures the watchlist cache.
type WatchlistConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// RecommendConfig configures the recommendation poller.
type RecommendConfig struct {
	// RetryDelay is the fixed wait between polls while the server reports "generating".
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// CredentialsConfig configures the local credential store.
type CredentialsConfig struct {
	// Path is the badger directory. Empty keeps the store in memory.
	Path string `koanf:"path"`

	// Secret derives the at-rest encryption key. Empty stores tokens unencrypted.
	Secret string `koanf:"secret"`
}

// ServerConfig configures the local consumer API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// RateLimitReqs per RateLimitWindow per client IP. 0 disables.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`

	// File enables rotated file output in addition to stderr.
	File string `koanf:"file"`

	MaxSizeMB  int  `koanf:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups"`
	MaxAgeDays int  `koanf:"max_age_days"`
	Compress   bool `koanf:"compress"`
}

// LoggingSettings converts the section into a logging.Config.
func (l LoggingConfig) LoggingSettings() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	cfg.File = logging.FileConfig{
		Path:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
	return cfg
}

// Load loads configuration from defaults, an optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
