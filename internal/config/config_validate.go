// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateWatchlist(); err != nil {
		return err
	}
	if c.Recommend.RetryDelay <= 0 {
		return errors.New("RECOMMEND_RETRY_DELAY must be positive")
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		return errors.New("REMOTE_BASE_URL is required")
	}
	if err := checkBaseURL(c.Remote.BaseURL); err != nil {
		return fmt.Errorf("REMOTE_BASE_URL: %w", err)
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("REMOTE_TIMEOUT must be positive")
	}
	if c.Remote.RateLimitRPS < 0 {
		return errors.New("REMOTE_RATE_LIMIT_RPS must not be negative")
	}
	if c.Remote.RateLimitRPS > 0 && c.Remote.RateLimitBurst < 1 {
		return errors.New("REMOTE_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Remote.MaxRetries > 0 && c.Remote.RetryBaseDelay <= 0 {
		return errors.New("REMOTE_RETRY_BASE_DELAY must be positive when retries are enabled")
	}
	if c.Remote.Breaker.Enabled && c.Remote.Breaker.ConsecutiveFailures == 0 {
		return errors.New("BREAKER_CONSECUTIVE_FAILURES must be at least 1")
	}
	return nil
}

// checkBaseURL accepts an absolute http(s) URL. A path prefix such as /api is
// fine; a query string is not, since request paths are appended to it.
func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return err
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	case u.Host == "":
		return errors.New("missing host")
	case u.RawQuery != "" || u.Fragment != "":
		return errors.New("query and fragment are not allowed")
	}
	return nil
}

func (c *Config) validateWatchlist() error {
	if c.Watchlist.TTL <= 0 {
		return errors.New("WATCHLIST_TTL must be positive")
	}
	if c.Watchlist.RefreshInterval <= 0 {
		return errors.New("WATCHLIST_REFRESH_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < 0 {
		return errors.New("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// HasWildcardCORS reports whether the consumer API accepts any origin.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
