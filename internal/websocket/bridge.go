// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/reelsync/internal/events"
)

// Subscriber is the part of events.Bus the bridge uses.
type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (<-chan events.Event, error)
}

// Bridge forwards every bus event to the hub.
type Bridge struct {
	sub Subscriber
	hub *Hub
}

// NewBridge creates a bridge from sub to hub.
func NewBridge(sub Subscriber, hub *Hub) *Bridge {
	return &Bridge{sub: sub, hub: hub}
}

// Serve implements suture.Service. A closed bus stops the bridge for good.
func (b *Bridge) Serve(ctx context.Context) error {
	ch, err := b.sub.Subscribe(ctx)
	if errors.Is(err, events.ErrClosed) {
		return suture.ErrDoNotRestart
	}
	if err != nil {
		return fmt.Errorf("subscribe to events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return suture.ErrDoNotRestart
			}
			b.hub.Broadcast(Message{Type: ev.Topic, Data: ev})
		}
	}
}

func (b *Bridge) String() string { return "event-bridge" }
