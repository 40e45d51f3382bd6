// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("event bus closed")

// BusConfig holds configuration for the in-process bus.
type BusConfig struct {
	// OutputBuffer is the per-subscriber channel buffer.
	OutputBuffer int64
	Logger       watermill.LoggerAdapter
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{OutputBuffer: 64}
}

// Bus publishes state-change events over a watermill gochannel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*Bus)(nil)

// NewBus creates a bus.
func NewBus(cfg BusConfig) *Bus {
	logger := cfg.Logger
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger("events"))
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputBuffer,
		}, logger),
		logger: logging.WithComponent("events"),
		now:    time.Now,
	}
}

// Publish wraps payload in an Event and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	ev := Event{
		ID:            uuid.NewString(),
		Topic:         topic,
		OccurredAt:    b.now().UTC(),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Payload:       data,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(ev.ID, body)
	if ev.CorrelationID != "" {
		msg.Metadata.Set("correlation_id", ev.CorrelationID)
	}
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Subscribe fans the given topics into one channel. The channel is closed
// when ctx is cancelled or the bus is closed. Messages are acked on receipt.
func (b *Bus) Subscribe(ctx context.Context, topics ...string) (<-chan Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	if len(topics) == 0 {
		topics = AllTopics
	}

	out := make(chan Event, 16)
	var wg sync.WaitGroup
	for _, topic := range topics {
		msgs, err := b.pubsub.Subscribe(ctx, topic)
		if err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.forward(ctx, msgs, out)
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (b *Bus) forward(ctx context.Context, msgs <-chan *message.Message, out chan<- Event) {
	for msg := range msgs {
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			b.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed event")
			msg.Ack()
			continue
		}
		msg.Ack()
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts down the bus and closes every subscription.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// Emit publishes and logs a failure instead of returning it. Components use
// this so a notification failure never fails a state change.
func Emit(ctx context.Context, pub Publisher, topic string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, payload); err != nil && !errors.Is(err, ErrClosed) {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
