//go:build integration

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/config"
	"streamer/internal/logger"
	"streamer/internal/testinfra"
)

func collect(t *testing.T, sub Subscriber, routingKey string) (<-chan map[string]interface{}, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan map[string]interface{}, 10)
	done := make(chan error, 1)

	go func() {
		done <- sub.Subscribe(ctx, routingKey, func(_ context.Context, payload map[string]interface{}) {
			received <- payload
		})
	}()
	return received, cancel, done
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	client := testinfra.Redis(t)
	log := logger.NopLogger()
	cfg := config.RedisBusConfig{ChannelPrefix: "realtime:"}

	sub := NewRedisSubscriber(client, cfg, log)
	received, cancel, done := collect(t, sub, "annotation")
	defer cancel()

	pub := NewRedisPublisher(client, cfg, log)
	payload := map[string]interface{}{"action": "create", "annotation_id": "A1", "src_client_id": "C9"}

	require.Eventually(t, func() bool {
		if err := pub.Publish(context.Background(), "annotation", payload); err != nil {
			return false
		}
		select {
		case got := <-received:
			assert.Equal(t, payload, got)
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)

	require.NoError(t, sub.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not end after Close")
	}
}

func TestKafkaBus_PublishSubscribe(t *testing.T) {
	brokers := testinfra.Kafka(t)
	log := logger.NopLogger()
	cfg := config.KafkaConfig{Brokers: brokers, GroupID: "streamer-test", TopicPrefix: "realtime.", SharedGroup: true}

	pub := NewKafkaPublisher(cfg, log)
	defer pub.Close()

	payload := map[string]interface{}{"type": "session-change", "userid": "acct:u1@example.com"}
	require.NoError(t, pub.Publish(context.Background(), "user", payload))

	sub := NewKafkaSubscriber(cfg, log)
	received, cancel, done := collect(t, sub, "user")

	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(60 * time.Second):
		t.Fatal("message not received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("subscription did not end after cancel")
	}
}
