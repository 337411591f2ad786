package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Store          StoreConfig          `mapstructure:"store"`
	Streamer       StreamerConfig       `mapstructure:"streamer"`
	WebSocket      WebSocketConfig      `mapstructure:"websocket"`
	Nipsa          NipsaConfig          `mapstructure:"nipsa"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type BrokerConfig struct {
	Type        string         `mapstructure:"type"` // "kafka" or "redis"
	RoutingKeys []string       `mapstructure:"routing_keys"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	Redis       RedisBusConfig `mapstructure:"redis"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	GroupID     string   `mapstructure:"group_id"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	// Each streamer instance must see every event, so the group id is
	// suffixed with a per-process instance id unless this is set.
	SharedGroup bool `mapstructure:"shared_group"`
}

type RedisBusConfig struct {
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig `mapstructure:"postgres"`
	Redis         RedisConfig    `mapstructure:"redis"`
	MongoDB       MongoDBConfig  `mapstructure:"mongodb"`
	RunMigrations bool           `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type StoreConfig struct {
	Type string `mapstructure:"type"` // "postgres" or "mongodb"
}

type StreamerConfig struct {
	QueueSize    int              `mapstructure:"queue_size"`
	PutTimeout   time.Duration    `mapstructure:"put_timeout"`
	SendBuffer   int              `mapstructure:"send_buffer"`
	SendTimeout  time.Duration    `mapstructure:"send_timeout"`
	AppURL       string           `mapstructure:"app_url"`
	IncontextURL string           `mapstructure:"incontext_url"`
	Supervisor   SupervisorConfig `mapstructure:"supervisor"`
}

type SupervisorConfig struct {
	MaxRestarts     int           `mapstructure:"max_restarts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type WebSocketConfig struct {
	Path           string          `mapstructure:"path"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	ReadLimit      int64           `mapstructure:"read_limit"`
	PingInterval   time.Duration   `mapstructure:"ping_interval"`
	PongTimeout    time.Duration   `mapstructure:"pong_timeout"`
	WriteTimeout   time.Duration   `mapstructure:"write_timeout"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RPS             float64       `mapstructure:"rps"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
}

type NipsaConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
