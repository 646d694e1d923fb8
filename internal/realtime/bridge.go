package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"serviceconnect_backend/internal/realtime/sse"
	"serviceconnect_backend/platform/logger"
)

const channelName = "realtime.events"

// envelope is the wire format carried over the Redis channel so events reach
// clients connected to other instances.
type envelope struct {
	Recipients []uuid.UUID `json:"recipients"`
	Event      sse.Event   `json:"event"`
}

// Bridge fans events out across instances through Redis pub/sub. Without a
// Redis client it degrades to local-only delivery.
type Bridge struct {
	hub    *sse.Hub
	client *redis.Client
	log    *logger.Logger
}

// NewBridge creates a bridge over the given hub. client may be nil.
func NewBridge(hub *sse.Hub, client *redis.Client, log *logger.Logger) *Bridge {
	return &Bridge{hub: hub, client: client, log: log}
}

// Deliver pushes the event to the recipients, via Redis when available so
// every instance delivers to its own connections.
func (b *Bridge) Deliver(ctx context.Context, recipients []uuid.UUID, event sse.Event) {
	if b.client == nil {
		b.hub.PublishToMany(recipients, event)
		return
	}

	payload, err := json.Marshal(envelope{Recipients: recipients, Event: event})
	if err != nil {
		b.log.Error("failed to marshal realtime envelope", "error", err)
		return
	}
	if err := b.client.Publish(ctx, channelName, payload).Err(); err != nil {
		b.log.Error("failed to publish realtime event, delivering locally", "error", err)
		b.hub.PublishToMany(recipients, event)
	}
}

// Listen consumes the Redis channel and delivers to local connections until
// the context is cancelled. No-op without a Redis client.
func (b *Bridge) Listen(ctx context.Context) error {
	if b.client == nil {
		return nil
	}

	sub := b.client.Subscribe(ctx, channelName)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe realtime channel: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Error("failed to decode realtime envelope", "error", err)
				continue
			}
			b.hub.PublishToMany(env.Recipients, env.Event)
		}
	}
}
