package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"streamer/internal/config"
	"streamer/internal/constants"
	"streamer/internal/logger"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
)

type RedisPublisher struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

func NewRedisPublisher(client *redis.Client, cfg config.RedisBusConfig, log logger.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: cfg.ChannelPrefix, logger: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	channel := p.prefix + routingKey
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}

	metrics.IncRedisMessage(channel, "out")
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisPublisher) Close() error {
	return nil
}

type RedisSubscriber struct {
	client *redis.Client
	prefix string
	logger logger.Logger
	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
}

func NewRedisSubscriber(client *redis.Client, cfg config.RedisBusConfig, log logger.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		client: client,
		prefix: cfg.ChannelPrefix,
		logger: log,
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, routingKey string, handler Handler) error {
	channel := s.prefix + routingKey

	pubsub := s.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe to %s failed: %w", channel, err)
	}

	s.mu.Lock()
	s.subs[pubsub] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, pubsub)
		s.mu.Unlock()
		pubsub.Close()
	}()

	subCtx := logging.WithRoutingKey(logging.WithServiceName(ctx, constants.ServiceName), routingKey)
	s.logger.InfowCtx(subCtx, "Started consuming", "channel", channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfowCtx(subCtx, "Stopped consuming", "channel", channel)
			return nil
		case msg, ok := <-messages:
			if !ok {
				s.logger.InfowCtx(subCtx, "Subscription closed", "channel", channel)
				return nil
			}
			metrics.IncRedisMessage(channel, "in")

			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				s.logger.ErrorwCtx(subCtx, "Failed to unmarshal message",
					"error", err,
					"channel", channel,
				)
				continue
			}
			handler(subCtx, payload)
		}
	}
}

func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for pubsub := range s.subs {
		if err := pubsub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
