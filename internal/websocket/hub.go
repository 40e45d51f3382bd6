// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
)

// Control message types. Event messages use the event topic as their type.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

const broadcastBuffer = 256

// Message is one frame sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected clients and broadcasts to them.
type Hub struct {
	broadcast chan Message
	logger    zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub. Broadcasts are delivered only while RunWithContext runs.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan Message, broadcastBuffer),
		logger:    logging.WithComponent("websocket-hub"),
		clients:   make(map[*Client]bool),
	}
}

// Register adds a client to the broadcast set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	h.logger.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Event stream client connected")
}

// Unregister removes a client and closes its send channel. Unknown clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	h.logger.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Event stream client disconnected")
}

// Broadcast queues msg for every client. It reports false when the queue is
// full and the message was dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Warn().Str("type", msg.Type).Msg("Broadcast queue full, dropping message")
		return false
	}
}

// RunWithContext delivers queued broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n := h.closeAllClients()
			h.logger.Info().Int("clients_closed", n).Msg("Event stream hub stopped")
			return ctx.Err()
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

func (h *Hub) String() string { return "websocket-hub" }

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// deliver sends msg to interested clients in id order. Clients whose buffer
// is full are dropped.
func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedLocked() {
		if !c.wants(msg.Type) {
			continue
		}
		select {
		case c.send <- msg:
			metrics.WSMessagesSent.WithLabelValues(msg.Type).Inc()
		default:
			h.logger.Warn().Uint64("client_id", c.id).Msg("Client send buffer full, disconnecting")
			close(c.send)
			delete(h.clients, c)
		}
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedLocked()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WSConnections.Set(0)
	return len(clients)
}

func (h *Hub) sortedLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}
