package broker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/config"
	"streamer/internal/logger"
)

func TestNewSubscriber(t *testing.T) {
	log := logger.NopLogger()

	sub, err := NewSubscriber(config.BrokerConfig{
		Type:  "kafka",
		Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "streamer"},
	}, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &KafkaSubscriber{}, sub)

	_, err = NewSubscriber(config.BrokerConfig{Type: "redis"}, nil, log)
	assert.Error(t, err)

	_, err = NewSubscriber(config.BrokerConfig{Type: "amqp"}, nil, log)
	assert.Error(t, err)
}

func TestNewPublisher_UnknownType(t *testing.T) {
	_, err := NewPublisher(config.BrokerConfig{Type: "amqp"}, nil, logger.NopLogger())
	assert.Error(t, err)
}

func TestKafkaSubscriber_GroupID(t *testing.T) {
	log := logger.NopLogger()

	shared := NewKafkaSubscriber(config.KafkaConfig{GroupID: "streamer", SharedGroup: true}, log)
	assert.Equal(t, "streamer", shared.GroupID())

	a := NewKafkaSubscriber(config.KafkaConfig{GroupID: "streamer"}, log)
	b := NewKafkaSubscriber(config.KafkaConfig{GroupID: "streamer"}, log)
	assert.True(t, strings.HasPrefix(a.GroupID(), "streamer-"))
	assert.NotEqual(t, a.GroupID(), b.GroupID())
}

func TestMessageKey(t *testing.T) {
	assert.Equal(t, "A1", messageKey(map[string]interface{}{"annotation_id": "A1", "userid": "u"}))
	assert.Equal(t, "u", messageKey(map[string]interface{}{"userid": "u"}))
	assert.Equal(t, "", messageKey(map[string]interface{}{"annotation_id": 7}))
}
