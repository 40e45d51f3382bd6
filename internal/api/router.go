// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/credentials"
	"github.com/tomtom215/reelsync/internal/middleware"
	"github.com/tomtom215/reelsync/internal/session"
	"github.com/tomtom215/reelsync/internal/websocket"
)

// Sessions is the part of session.Manager the API uses.
type Sessions interface {
	Current() (*session.Session, bool)
	Login(ctx context.Context, token string) (credentials.Credential, error)
	Logout(ctx context.Context) error
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	sessions  Sessions
	hub       *websocket.Hub
	startTime time.Time
}

// NewHandler creates a Handler. hub may be nil, which disables /events.
func NewHandler(sessions Sessions, hub *websocket.Hub) *Handler {
	return &Handler{sessions: sessions, hub: hub, startTime: time.Now()}
}

// NewRouter builds the consumer API.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}))
	r.Use(middleware.Metrics)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", h.ListWatchlist)
			r.Post("/", h.AddWatchlist)
			r.Get("/{movieID}", h.GetWatchlistEntry)
			r.Put("/{movieID}", h.UpdateWatchlist)
			r.Delete("/{movieID}", h.RemoveWatchlist)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", h.GetRecommendations)
			r.Post("/fetch", h.FetchRecommendations)
			r.Post("/refresh", h.RefreshRecommendations)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/aggregate", h.SubmitAggregateFeedback)
			r.Get("/disliked", h.ListDisliked)
			r.Get("/items/{movieID}", h.GetItemFeedback)
			r.Post("/items/{movieID}", h.SubmitItemFeedback)
			r.Post("/items/{movieID}/rating", h.SubmitItemRating)
			r.Delete("/items/{movieID}", h.ClearDislike)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.SessionStatus)
			r.Post("/", h.Login)
			r.Delete("/", h.Logout)
		})

		if h.hub != nil {
			r.Get("/events", websocket.Handler(h.hub, originChecker(cfg.CORSOrigins)))
		}
	})

	return r
}

// NewServer wraps handler in an http.Server bound to the configured address.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// originChecker allows the configured CORS origins on the event stream.
func originChecker(origins []string) func(string) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(origin string) bool {
		return allowed["*"] || allowed[origin]
	}
}
