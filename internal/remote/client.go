// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package remote

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/validation"
)

// API is the remote service surface consumed by the cache, poller and reconciler.
type API interface {
	ListWatchlist(ctx context.Context) ([]models.WatchlistEntry, error)
	AddWatchlist(ctx context.Context, add models.WatchlistAdd) error
	UpdateWatchlist(ctx context.Context, movieID int64, update models.WatchlistUpdate) error
	DeleteWatchlist(ctx context.Context, movieID int64) error
	GetRecommendations(ctx context.Context) (*models.RecommendationResponse, error)
	InvalidateRecommendations(ctx context.Context) error
	SubmitFeedback(ctx context.Context, payload models.FeedbackPayload) error
	ListDisliked(ctx context.Context) ([]models.DislikedMovie, error)
}

// CredentialSource supplies the bearer token. ok is false when signed out.
type CredentialSource interface {
	Token() (token string, ok bool)
}

// TokenFunc adapts a function to CredentialSource.
type TokenFunc func() (string, bool)

// Token implements CredentialSource.
func (f TokenFunc) Token() (string, bool) { return f() }

// StaticToken is a fixed credential. The empty string means signed out.
type StaticToken string

// Token implements CredentialSource.
func (s StaticToken) Token() (string, bool) { return string(s), s != "" }

// Client talks to the remote service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	limiter    *rate.Limiter
	maxRetries uint
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-attempt request timeout. d <= 0 keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests. rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets how often HTTP 429 is retried and the first backoff delay.
func WithRetry(maxRetries uint, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		creds:      creds,
		maxRetries: 3,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
		logger:     logging.WithComponent("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client from the remote config section.
func NewClientFromConfig(cfg config.RemoteConfig, creds CredentialSource) *Client {
	return NewClient(cfg.BaseURL, creds,
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		WithRetry(cfg.MaxRetries, cfg.RetryBaseDelay),
	)
}

type watchlistResponse struct {
	Watchlist []models.WatchlistEntry `json:"watchlist"`
}

type dislikedResponse struct {
	DislikedMovies []models.DislikedMovie `json:"disliked_movies"`
}

// ListWatchlist fetches the full watchlist in server order.
func (c *Client) ListWatchlist(ctx context.Context) ([]models.WatchlistEntry, error) {
	var resp watchlistResponse
	err := c.do(ctx, requestConfig{
		op:     "watchlist.list",
		method: http.MethodGet,
		path:   "/watchlist",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Watchlist == nil {
		resp.Watchlist = []models.WatchlistEntry{}
	}
	return resp.Watchlist, nil
}

// AddWatchlist creates (or upserts) an entry.
func (c *Client) AddWatchlist(ctx context.Context, add models.WatchlistAdd) error {
	const op = "watchlist.add"
	if verr := validation.ValidateStruct(&add); verr != nil {
		return NewValidationError(op, verr)
	}
	return c.do(ctx, requestConfig{
		op:     op,
		method: http.MethodPost,
		path:   "/watchlist",
		body:   add,
	}, nil)
}

// UpdateWatchlist applies a partial update to the entry for movieID.
func (c *Client) UpdateWatchlist(ctx context.Context, movieID int64, update models.WatchlistUpdate) error {
	const op = "watchlist.update"
	if movieID <= 0 {
		return NewValidationError(op, validation.NewFieldError("movie_id", "gt", "movie_id must be greater than 0"))
	}
	if update.Empty() {
		return NewValidationError(op, validation.NewFieldError("update", "required", "update must set status, user_rating or notes"))
	}
	if verr := validation.ValidateStruct(&update); verr != nil {
		return NewValidationError(op, verr)
	}
	return c.do(ctx, requestConfig{
		op:     op,
		method: http.MethodPut,
		path:   "/watchlist/" + strconv.FormatInt(movieID, 10),
		body:   update,
	}, nil)
}

// DeleteWatchlist removes the entry for movieID.
func (c *Client) DeleteWatchlist(ctx context.Context, movieID int64) error {
	const op = "watchlist.delete"
	if movieID <= 0 {
		return NewValidationError(op, validation.NewFieldError("movie_id", "gt", "movie_id must be greater than 0"))
	}
	return c.do(ctx, requestConfig{
		op:     op,
		method: http.MethodDelete,
		path:   "/watchlist/" + strconv.FormatInt(movieID, 10),
	}, nil)
}

// GetRecommendations fetches the current recommendation set. A response with
// Status "generating" is a success; the caller decides when to poll again.
func (c *Client) GetRecommendations(ctx context.Context) (*models.RecommendationResponse, error) {
	var resp models.RecommendationResponse
	if err := c.do(ctx, requestConfig{
		op:     "recommend.get",
		method: http.MethodGet,
		path:   "/recommend",
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InvalidateRecommendations asks the server to discard its cached recommendation set.
func (c *Client) InvalidateRecommendations(ctx context.Context) error {
	return c.do(ctx, requestConfig{
		op:     "recommend.invalidate",
		method: http.MethodPost,
		path:   "/refresh-recommendations",
		body:   struct{}{},
	}, nil)
}

// SubmitFeedback posts one feedback payload. The server upserts by (user, target).
func (c *Client) SubmitFeedback(ctx context.Context, payload models.FeedbackPayload) error {
	const op = "feedback.submit"
	if verr := validation.ValidateStruct(&payload); verr != nil {
		return NewValidationError(op, verr)
	}
	return c.do(ctx, requestConfig{
		op:     op,
		method: http.MethodPost,
		path:   "/recommendation-feedback",
		body:   payload,
	}, nil)
}

// ListDisliked returns the movies the user marked "bad".
func (c *Client) ListDisliked(ctx context.Context) ([]models.DislikedMovie, error) {
	var resp dislikedResponse
	if err := c.do(ctx, requestConfig{
		op:     "feedback.disliked",
		method: http.MethodGet,
		path:   "/disliked-recommendations",
	}, &resp); err != nil {
		return nil, err
	}
	if resp.DislikedMovies == nil {
		resp.DislikedMovies = []models.DislikedMovie{}
	}
	return resp.DislikedMovies, nil
}
