package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"streamer/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")

	viper.SetDefault("broker.type", constants.BrokerTypeKafka)
	viper.SetDefault("broker.routing_keys", []string{constants.RoutingKeyAnnotation, constants.RoutingKeyUser})
	viper.SetDefault("broker.kafka.group_id", constants.ServiceName)
	viper.SetDefault("broker.kafka.topic_prefix", "realtime.")
	viper.SetDefault("broker.redis.channel_prefix", "realtime:")

	viper.SetDefault("store.type", constants.StoreTypePostgres)
	viper.SetDefault("database.mongodb.database", constants.DefaultMongoDBName)
	viper.SetDefault("database.mongodb.collection", constants.DefaultMongoCollection)

	viper.SetDefault("streamer.queue_size", constants.DefaultQueueSize)
	viper.SetDefault("streamer.put_timeout", constants.DefaultPutTimeout)
	viper.SetDefault("streamer.send_buffer", constants.DefaultSendBuffer)
	viper.SetDefault("streamer.send_timeout", constants.DefaultSendTimeout)
	viper.SetDefault("streamer.app_url", constants.DefaultAppURL)
	viper.SetDefault("streamer.incontext_url", constants.DefaultIncontextURL)
	viper.SetDefault("streamer.supervisor.max_restarts", 5)
	viper.SetDefault("streamer.supervisor.initial_interval", "1s")
	viper.SetDefault("streamer.supervisor.max_interval", "30s")
	viper.SetDefault("streamer.supervisor.multiplier", 2.0)

	viper.SetDefault("websocket.path", constants.DefaultWebSocketPath)
	viper.SetDefault("websocket.read_limit", constants.DefaultReadLimit)
	viper.SetDefault("websocket.ping_interval", constants.DefaultPingInterval)
	viper.SetDefault("websocket.pong_timeout", constants.DefaultPongTimeout)
	viper.SetDefault("websocket.write_timeout", constants.DefaultWSWriteTimeout)
	viper.SetDefault("websocket.rate_limit.rps", 10.0)
	viper.SetDefault("websocket.rate_limit.burst", 20)
	viper.SetDefault("websocket.rate_limit.cleanup_interval", "5m")
	viper.SetDefault("websocket.rate_limit.max_age", "10m")

	viper.SetDefault("nipsa.cache_ttl", constants.DefaultNipsaCacheTTL)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func bindEnvVariables() {
	viper.BindEnv("broker.type", "BROKER_TYPE")
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.topic_prefix", "BROKER_KAFKA_TOPIC_PREFIX")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("streamer.app_url", "STREAMER_APP_URL")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
}

// applyEnvOverrides handles values viper cannot map onto slices directly.
func applyEnvOverrides(cfg *Config) {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := splitList(brokersEnv)
		if len(brokers) > 0 {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if origins := viper.GetString("WEBSOCKET_ALLOWED_ORIGINS"); origins != "" {
		cfg.WebSocket.AllowedOrigins = splitList(origins)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
