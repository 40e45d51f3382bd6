// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	gws "github.com/gorilla/websocket"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/reelsync/internal/events"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func dial(t *testing.T, srv *httptest.Server, query string) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	t.Parallel()

	hub := runHub(t)
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	a := dial(t, srv, "")
	b := dial(t, srv, "")
	waitForClients(t, hub, 2)

	if !hub.Broadcast(Message{Type: events.TopicWatchlistChanged, Data: map[string]int{"count": 2}}) {
		t.Fatal("Broadcast() = false")
	}
	for _, conn := range []*gws.Conn{a, b} {
		if msg := readMessage(t, conn); msg.Type != events.TopicWatchlistChanged {
			t.Errorf("Type = %q, want %q", msg.Type, events.TopicWatchlistChanged)
		}
	}
}

func TestHub_TopicFilter(t *testing.T) {
	t.Parallel()

	hub := runHub(t)
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	conn := dial(t, srv, "?topics="+events.TopicSessionChanged)
	waitForClients(t, hub, 1)

	hub.Broadcast(Message{Type: events.TopicWatchlistChanged})
	hub.Broadcast(Message{Type: events.TopicSessionChanged})

	if msg := readMessage(t, conn); msg.Type != events.TopicSessionChanged {
		t.Errorf("Type = %q, want only %q", msg.Type, events.TopicSessionChanged)
	}
}

func TestHub_PingPong(t *testing.T) {
	t.Parallel()

	hub := runHub(t)
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	conn := dial(t, srv, "?topics="+events.TopicSessionChanged)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", msg.Type)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	t.Parallel()

	hub := runHub(t)
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)
	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestHandler_RejectsOrigin(t *testing.T) {
	t.Parallel()

	hub := runHub(t)
	srv := httptest.NewServer(Handler(hub, func(origin string) bool { return origin == "http://ok.test" }))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.test"}}
	if _, _, err := gws.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("Dial() from rejected origin succeeded")
	}

	header["Origin"] = []string{"http://ok.test"}
	conn, _, err := gws.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() from allowed origin error = %v", err)
	}
	_ = conn.Close()
}

func TestBridge_ForwardsBusEvents(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.BusConfig{OutputBuffer: 8, Logger: watermill.NopLogger{}})
	defer bus.Close()
	hub := runHub(t)
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewBridge(bus, hub).Serve(ctx) }()

	// The subscription is registered asynchronously; keep publishing until
	// the first event comes through.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			_ = bus.Publish(context.Background(), events.TopicSessionChanged, events.SessionChanged{Active: true})
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	got := readMessage(t, conn)
	if got.Type != events.TopicSessionChanged {
		t.Errorf("Type = %q, want %q", got.Type, events.TopicSessionChanged)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestBridge_ClosedBusDoesNotRestart(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(events.BusConfig{OutputBuffer: 8, Logger: watermill.NopLogger{}})
	_ = bus.Close()

	err := NewBridge(bus, NewHub()).Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() error = %v, want ErrDoNotRestart", err)
	}
}
