package broker

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"streamer/internal/config"
	"streamer/internal/constants"
	"streamer/internal/logger"
)

// NewSubscriber builds the subscriber for cfg.Type. client is required for
// the redis broker and ignored otherwise.
func NewSubscriber(cfg config.BrokerConfig, client *redis.Client, log logger.Logger) (Subscriber, error) {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return NewKafkaSubscriber(cfg.Kafka, log), nil
	case constants.BrokerTypeRedis:
		if client == nil {
			return nil, fmt.Errorf("redis broker requires a redis client")
		}
		return NewRedisSubscriber(client, cfg.Redis, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

func NewPublisher(cfg config.BrokerConfig, client *redis.Client, log logger.Logger) (Publisher, error) {
	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return NewKafkaPublisher(cfg.Kafka, log), nil
	case constants.BrokerTypeRedis:
		if client == nil {
			return nil, fmt.Errorf("redis broker requires a redis client")
		}
		return NewRedisPublisher(client, cfg.Redis, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// messageKey partitions annotation events by annotation and user events by
// user so each entity's events stay ordered.
func messageKey(payload map[string]interface{}) string {
	for _, field := range []string{"annotation_id", "userid"} {
		if v, ok := payload[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
