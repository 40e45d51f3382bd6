// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	b := NewBus(BusConfig{OutputBuffer: 8, Logger: watermill.NopLogger{}})
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, TopicWatchlistChanged)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	pubCtx := logging.ContextWithCorrelationID(context.Background(), "corr1234")
	if err := b.Publish(pubCtx, TopicWatchlistChanged, WatchlistChanged{Reason: ReasonFetched, Count: 1, MovieIDs: []int64{42}}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	ev := receive(t, ch)
	if ev.Topic != TopicWatchlistChanged {
		t.Errorf("Topic = %q, want %q", ev.Topic, TopicWatchlistChanged)
	}
	if ev.ID == "" {
		t.Error("ID is empty")
	}
	if ev.CorrelationID != "corr1234" {
		t.Errorf("CorrelationID = %q, want corr1234", ev.CorrelationID)
	}
	var payload WatchlistChanged
	if err := ev.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.Count != 1 || len(payload.MovieIDs) != 1 || payload.MovieIDs[0] != 42 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestBus_SubscribeAllTopics(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	_ = b.Publish(ctx, TopicRecommendationsChanged, RecommendationsChanged{Status: models.JobReady, Count: 3})
	_ = b.Publish(ctx, TopicSessionChanged, SessionChanged{Active: true})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[receive(t, ch).Topic] = true
	}
	if !seen[TopicRecommendationsChanged] || !seen[TopicSessionChanged] {
		t.Errorf("seen = %v, want both topics", seen)
	}
}

func TestBus_SubscriptionClosesOnCancel(t *testing.T) {
	t.Parallel()

	b := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, TopicFeedbackSubmitted)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after cancel, want closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestBus_Closed(t *testing.T) {
	t.Parallel()

	b := NewBus(BusConfig{Logger: watermill.NopLogger{}})
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := b.Publish(context.Background(), TopicSessionChanged, SessionChanged{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
	if _, err := b.Subscribe(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe() after Close error = %v, want ErrClosed", err)
	}

	// Emit swallows the closed error.
	Emit(context.Background(), b, TopicSessionChanged, SessionChanged{})
	Emit(context.Background(), nil, TopicSessionChanged, SessionChanged{})
}

func TestNop(t *testing.T) {
	t.Parallel()

	if err := (Nop{}).Publish(context.Background(), TopicSessionChanged, nil); err != nil {
		t.Errorf("Nop.Publish() error = %v", err)
	}
}
