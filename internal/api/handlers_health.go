// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status        string  `json:"status"`
	SessionActive bool    `json:"session_active"`
	StreamClients int     `json:"stream_clients"`
	Uptime        float64 `json:"uptime_seconds"`
}

// Health handles GET /healthz. The process is healthy whenever it can answer;
// a missing session is reported, not treated as a failure.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	_, active := h.sessions.Current()
	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}
	respondOK(w, HealthStatus{
		Status:        "ok",
		SessionActive: active,
		StreamClients: clients,
		Uptime:        time.Since(h.startTime).Seconds(),
	})
}
