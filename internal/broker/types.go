// Package broker connects the streamer to the event bus. Each routing key
// maps to one Kafka topic or Redis channel.
package broker

import (
	"context"
)

// Handler receives one decoded bus payload.
type Handler func(ctx context.Context, payload map[string]interface{})

// Subscriber delivers the messages published on a routing key. Subscribe
// blocks until ctx is done or the subscription is closed, in both cases
// returning nil; it returns an error only when the subscription cannot be
// established.
type Subscriber interface {
	Subscribe(ctx context.Context, routingKey string, handler Handler) error
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error
	Close() error
}
