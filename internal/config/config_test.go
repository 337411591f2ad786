package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  port: 9090
broker:
  type: kafka
  kafka:
    brokers: ["localhost:9092"]
database:
  postgres:
    host: localhost
    port: 5432
    user: h
    dbname: h
    sslmode: disable
streamer:
  queue_size: 16
  put_timeout: 50ms
  app_url: https://hypothes.is
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, []string{"annotation", "user"}, cfg.Broker.RoutingKeys)
	assert.Equal(t, 16, cfg.Streamer.QueueSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Streamer.PutTimeout)
	assert.Equal(t, "https://hypothes.is", cfg.Streamer.AppURL)
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, "/ws", cfg.WebSocket.Path)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("BROKER_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8081, ReadTimeout: time.Second, WriteTimeout: time.Second},
		Broker: BrokerConfig{
			Type:        "kafka",
			RoutingKeys: []string{"annotation", "user"},
			Kafka:       KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "streamer"},
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{Host: "localhost", Port: 5432, User: "h", DBName: "h"},
		},
		Store: StoreConfig{Type: "postgres"},
		Streamer: StreamerConfig{
			QueueSize:   1,
			PutTimeout:  100 * time.Millisecond,
			SendBuffer:  1,
			SendTimeout: time.Second,
			AppURL:      "http://localhost:5000",
			Supervisor:  SupervisorConfig{MaxRestarts: 1, Multiplier: 2},
		},
		WebSocket: WebSocketConfig{
			Path:         "/ws",
			PingInterval: time.Second,
			PongTimeout:  2 * time.Second,
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, field: "server.port"},
		{name: "unknown broker", mutate: func(c *Config) { c.Broker.Type = "amqp" }, field: "broker.type"},
		{name: "redis broker without redis", mutate: func(c *Config) { c.Broker.Type = "redis" }, field: "database.redis.host"},
		{name: "no routing keys", mutate: func(c *Config) { c.Broker.RoutingKeys = nil }, field: "broker.routing_keys"},
		{name: "no postgres", mutate: func(c *Config) { c.Database.Postgres.Host = "" }, field: "database.postgres.host"},
		{name: "mongo store without uri", mutate: func(c *Config) { c.Store.Type = "mongodb" }, field: "database.mongodb.uri"},
		{name: "zero queue", mutate: func(c *Config) { c.Streamer.QueueSize = 0 }, field: "streamer.queue_size"},
		{name: "relative app url", mutate: func(c *Config) { c.Streamer.AppURL = "/app" }, field: "streamer.app_url"},
		{name: "pong before ping", mutate: func(c *Config) { c.WebSocket.PongTimeout = time.Millisecond }, field: "websocket.pong_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
