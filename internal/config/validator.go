package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"streamer/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	validators := []func(*Config) error{
		func(c *Config) error { return validateServer(c.Server) },
		func(c *Config) error { return validateBroker(c.Broker, c.Database) },
		func(c *Config) error { return validateDatabase(c.Database) },
		func(c *Config) error { return validateStore(c.Store, c.Database) },
		func(c *Config) error { return validateStreamer(c.Streamer) },
		func(c *Config) error { return validateWebSocket(c.WebSocket) },
	}

	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig, db DatabaseConfig) error {
	if len(cfg.RoutingKeys) == 0 {
		return &ValidationError{
			Field:   "broker.routing_keys",
			Message: "at least one routing key is required",
		}
	}

	for i, key := range cfg.RoutingKeys {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.routing_keys[%d]", i),
				Message: "routing key cannot be empty",
			}
		}
	}

	switch cfg.Type {
	case constants.BrokerTypeKafka:
		return validateKafka(cfg.Kafka)
	case constants.BrokerTypeRedis:
		if db.Redis.Host == "" {
			return &ValidationError{
				Field:   "database.redis.host",
				Message: "redis broker requires database.redis to be configured",
			}
		}
		return nil
	case "":
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka, redis)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	return nil
}

// Postgres is always required: it holds users, group memberships and
// access tokens whatever the annotation store.
func validateDatabase(cfg DatabaseConfig) error {
	if err := validatePostgres(cfg.Postgres); err != nil {
		return err
	}

	if cfg.Redis.Host != "" || cfg.Redis.Port > 0 {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	if cfg.MongoDB.URI != "" {
		if err := validateMongoDB(cfg.MongoDB); err != nil {
			return err
		}
	}

	return nil
}

func validatePostgres(cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.postgres.host",
			Message: "PostgreSQL host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.postgres.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   "database.postgres.user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   "database.postgres.dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateMongoDB(cfg MongoDBConfig) error {
	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateStore(cfg StoreConfig, db DatabaseConfig) error {
	switch cfg.Type {
	case constants.StoreTypePostgres:
		if db.Postgres.Host == "" {
			return &ValidationError{
				Field:   "database.postgres.host",
				Message: "postgres annotation store requires database.postgres to be configured",
			}
		}
	case constants.StoreTypeMongoDB:
		if db.MongoDB.URI == "" {
			return &ValidationError{
				Field:   "database.mongodb.uri",
				Message: "mongodb annotation store requires database.mongodb to be configured",
			}
		}
	default:
		return &ValidationError{
			Field:   "store.type",
			Message: fmt.Sprintf("unknown store type: %s (supported: postgres, mongodb)", cfg.Type),
		}
	}
	return nil
}

func validateStreamer(cfg StreamerConfig) error {
	if cfg.QueueSize < 1 {
		return &ValidationError{
			Field:   "streamer.queue_size",
			Message: "queue size must be positive",
		}
	}

	if cfg.PutTimeout <= 0 {
		return &ValidationError{
			Field:   "streamer.put_timeout",
			Message: "put timeout must be positive",
		}
	}

	if cfg.SendBuffer < 1 {
		return &ValidationError{
			Field:   "streamer.send_buffer",
			Message: "send buffer must be positive",
		}
	}

	if cfg.SendTimeout <= 0 {
		return &ValidationError{
			Field:   "streamer.send_timeout",
			Message: "send timeout must be positive",
		}
	}

	if u, err := url.Parse(cfg.AppURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{
			Field:   "streamer.app_url",
			Message: fmt.Sprintf("app url must be an absolute URL, got %q", cfg.AppURL),
		}
	}

	if cfg.Supervisor.MaxRestarts < 0 {
		return &ValidationError{
			Field:   "streamer.supervisor.max_restarts",
			Message: "max_restarts must be non-negative",
		}
	}

	if cfg.Supervisor.Multiplier < 1 {
		return &ValidationError{
			Field:   "streamer.supervisor.multiplier",
			Message: "multiplier must be at least 1",
		}
	}

	return nil
}

func validateWebSocket(cfg WebSocketConfig) error {
	if !strings.HasPrefix(cfg.Path, "/") {
		return &ValidationError{
			Field:   "websocket.path",
			Message: "path must start with /",
		}
	}

	if cfg.PingInterval <= 0 || cfg.PongTimeout <= cfg.PingInterval {
		return &ValidationError{
			Field:   "websocket.pong_timeout",
			Message: "pong timeout must be greater than a positive ping interval",
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1) {
		return &ValidationError{
			Field:   "websocket.rate_limit",
			Message: "rps and burst must be positive when rate limiting is enabled",
		}
	}

	return nil
}
