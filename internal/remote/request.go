// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
)

// maxErrorBodySize bounds how much of an error response is read.
const maxErrorBodySize = 64 * 1024

// requestConfig holds configuration for one remote call
type requestConfig struct {
	op     string
	method string
	path   string
	body   interface{} // JSON-encoded when non-nil
}

// rateLimitedError is the retryable signal for HTTP 429.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return "rate limited (HTTP 429)"
}

// do executes a call, decodes a 2xx body into result (if non-nil) and records metrics.
func (c *Client) do(ctx context.Context, cfg requestConfig, result interface{}) error {
	start := time.Now()
	err := c.execute(ctx, cfg, result)
	metrics.RecordRemoteRequest(cfg.op, outcomeOf(err), time.Since(start))

	if err != nil {
		logger := logging.Attach(ctx, c.logger)
		event := logger.Debug()
		if KindOf(err) == KindTransient {
			event = logger.Warn()
		}
		event.Err(err).Str("op", cfg.op).Dur("elapsed", time.Since(start)).Msg("Remote call failed")
	}
	return err
}

func (c *Client) execute(ctx context.Context, cfg requestConfig, result interface{}) error {
	token, ok := "", false
	if c.creds != nil {
		token, ok = c.creds.Token()
	}
	if !ok || token == "" {
		return unauthenticated(cfg.op, 0, "")
	}

	var payload []byte
	if cfg.body != nil {
		var err error
		if payload, err = json.Marshal(cfg.body); err != nil {
			return NewValidationError(cfg.op, fmt.Errorf("encode request: %w", err))
		}
	}

	resp, err := c.doWithRateLimit(ctx, cfg, token, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(cfg.op, resp)
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &Error{
			Kind:       KindTransient,
			Op:         cfg.op,
			StatusCode: resp.StatusCode,
			Message:    "decode response: " + err.Error(),
			Err:        err,
		}
	}
	return nil
}

// doWithRateLimit sends the request, waiting on the local limiter first and
// retrying only HTTP 429. Every other outcome returns after one attempt.
func (c *Client) doWithRateLimit(ctx context.Context, cfg requestConfig, token string, payload []byte) (*http.Response, error) {
	attempt := func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, transient(cfg.op, fmt.Errorf("rate limiter: %w", err))
			}
		}

		req, err := c.newRequest(ctx, cfg, token, payload)
		if err != nil {
			return nil, transient(cfg.op, fmt.Errorf("create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, transient(cfg.op, fmt.Errorf("execute request: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
			resp.Body.Close()
			return nil, &rateLimitedError{retryAfter: retryAfter}
		}
		return resp, nil
	}

	resp, err := retry.DoWithData(attempt,
		retry.Context(ctx),
		retry.Attempts(c.maxRetries+1),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var rl *rateLimitedError
			return errors.As(err, &rl)
		}),
		retry.DelayType(c.backoff),
		retry.OnRetry(func(n uint, err error) {
			if n >= c.maxRetries {
				return // final attempt, no retry follows
			}
			metrics.RemoteRateLimitRetries.WithLabelValues(cfg.op).Inc()
			logging.Attach(ctx, c.logger).Warn().
				Str("op", cfg.op).
				Uint("attempt", n+1).
				Uint("max_retries", c.maxRetries).
				Msg("Remote service rate limited (HTTP 429), retrying")
		}),
	)
	if err == nil {
		return resp, nil
	}

	var rl *rateLimitedError
	if errors.As(err, &rl) {
		return nil, &Error{
			Kind:       KindTransient,
			Op:         cfg.op,
			StatusCode: http.StatusTooManyRequests,
			Message:    fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
			Err:        err,
		}
	}
	var re *Error
	if errors.As(err, &re) {
		return nil, re
	}
	return nil, transient(cfg.op, err)
}

// backoff is the retry-go delay for retry n (1-based): Retry-After when the
// server sent one, otherwise baseDelay doubled per retry (1s, 2s, 4s...),
// capped at maxDelay.
func (c *Client) backoff(n uint, err error, _ *retry.Config) time.Duration {
	var rl *rateLimitedError
	if errors.As(err, &rl) && rl.retryAfter > 0 {
		return min(rl.retryAfter, c.maxDelay)
	}
	if n == 0 {
		n = 1
	}
	if n > 16 {
		return c.maxDelay
	}
	d := c.baseDelay << (n - 1)
	if d <= 0 || d > c.maxDelay {
		return c.maxDelay
	}
	return d
}

func (c *Client) newRequest(ctx context.Context, cfg requestConfig, token string, payload []byte) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, c.baseURL+cfg.path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	} else if id := logging.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

// statusError classifies a non-2xx response.
func statusError(op string, resp *http.Response) *Error {
	msg := errorMessage(resp.StatusCode, readBodyForError(resp.Body))
	kind := classifyStatus(resp.StatusCode)
	if kind == KindUnauthenticated {
		return unauthenticated(op, resp.StatusCode, msg)
	}
	return &Error{Kind: kind, Op: op, StatusCode: resp.StatusCode, Message: msg}
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return nil
	}
	return body
}

// errorMessage extracts {"error": "..."} (or {"message": "..."}) from an error
// body, falling back to the raw text and then to the status text.
func errorMessage(status int, body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

// parseRetryAfter accepts delta-seconds or an HTTP date (RFC 9110).
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	var re *Error
	if errors.As(err, &re) && re.Kind == KindUnauthenticated && re.StatusCode == 0 {
		return "skipped"
	}
	return KindOf(err).String()
}
