package constants

import "time"

const (
	ServiceName = "streamer"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
	KafkaFetchBackoff = time.Second
)

const (
	RoutingKeyAnnotation = "annotation"
	RoutingKeyUser       = "user"
)

const (
	DefaultQueueSize    = 4096
	DefaultPutTimeout   = 100 * time.Millisecond
	DefaultSendBuffer   = 64
	DefaultSendTimeout  = 250 * time.Millisecond
	DefaultAppURL       = "http://localhost:5000"
	DefaultIncontextURL = "https://hyp.is"
)

const (
	DefaultWebSocketPath   = "/ws"
	DefaultReadLimit       = 64 * 1024
	DefaultPingInterval    = 30 * time.Second
	DefaultPongTimeout     = 60 * time.Second
	DefaultWSWriteTimeout  = 10 * time.Second
	DefaultNipsaCacheTTL   = 30 * time.Second
	DefaultMongoDBName     = "annotations"
	DefaultMongoCollection = "annotations"
)

const (
	CacheKeyPrefixNipsa = "nipsa:"
)

const (
	StoreTypePostgres = "postgres"
	StoreTypeMongoDB  = "mongodb"
)

const (
	BrokerTypeKafka = "kafka"
	BrokerTypeRedis = "redis"
)

const (
	ShutdownTimeout = 5 * time.Second
	HealthTimeout   = 5 * time.Second
)
