package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BusMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_bus_messages_total",
			Help: "Total number of bus messages received by the consumer (count)",
		},
		[]string{"routing_key", "status"},
	)

	QueueDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_queue_dropped_total",
			Help: "Total number of envelopes dropped because the admission queue was full (count)",
		},
		[]string{"routing_key"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamer_queue_depth",
			Help: "Current number of envelopes waiting in the admission queue (count)",
		},
	)

	QueueWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamer_queue_wait_duration_ms",
			Help:    "Duration envelopes wait in the admission queue in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamer_dispatch_duration_ms",
			Help:    "Duration of one dispatch cycle in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"topic", "status"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_deliveries_total",
			Help: "Total number of messages handed to connections (count)",
		},
		[]string{"topic", "status"},
	)

	SuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_suppressed_total",
			Help: "Total number of per-connection deliveries suppressed by a pipeline gate (count)",
		},
		[]string{"reason"},
	)

	ConsumerRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_consumer_restarts_total",
			Help: "Total number of bus consumer restarts by the supervisor (count)",
		},
		[]string{"routing_key"},
	)

	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamer_connections_active",
			Help: "Number of live WebSocket connections (count)",
		},
	)

	ConnectionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_connections_closed_total",
			Help: "Total number of closed WebSocket connections (count)",
		},
		[]string{"reason"},
	)

	ClientMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_client_messages_total",
			Help: "Total number of messages received from clients (count)",
		},
		[]string{"type", "status"},
	)

	NipsaLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_nipsa_lookups_total",
			Help: "Total number of shadow-ban lookups (count)",
		},
		[]string{"result"},
	)

	StoreFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamer_store_fetch_duration_ms",
			Help:    "Duration of annotation store fetches in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_message_size_bytes",
			Help:    "Size of Kafka messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"service", "topic", "direction"},
	)

	KafkaReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_read_duration_ms",
			Help:    "Duration of reading messages from Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	RedisMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_pubsub_messages_total",
			Help: "Total number of messages received from or published to Redis pub/sub (count)",
		},
		[]string{"channel", "direction"},
	)
)

func RegisterStreamerMetrics() {
	prometheus.MustRegister(BusMessagesTotal)
	prometheus.MustRegister(QueueDroppedTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(QueueWaitDuration)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(SuppressedTotal)
	prometheus.MustRegister(ConsumerRestartsTotal)
	prometheus.MustRegister(NipsaLookupsTotal)
	prometheus.MustRegister(StoreFetchDuration)
}

func RegisterWebSocketMetrics() {
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(ConnectionsClosedTotal)
	prometheus.MustRegister(ClientMessagesTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaMessageSizeBytes)
	prometheus.MustRegister(KafkaReadDuration)
	prometheus.MustRegister(KafkaWriteDuration)
	prometheus.MustRegister(RedisMessagesTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func IncBusMessage(routingKey, status string) {
	BusMessagesTotal.WithLabelValues(routingKey, status).Inc()
}

func IncQueueDropped(routingKey string) {
	QueueDroppedTotal.WithLabelValues(routingKey).Inc()
}

func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

func ObserveQueueWait(duration time.Duration) {
	QueueWaitDuration.Observe(float64(duration.Milliseconds()))
}

func ObserveDispatchDuration(topic, status string, duration time.Duration) {
	DispatchDuration.WithLabelValues(topic, status).Observe(float64(duration.Milliseconds()))
}

func IncDelivery(topic, status string) {
	DeliveriesTotal.WithLabelValues(topic, status).Inc()
}

func IncSuppressed(reason string) {
	SuppressedTotal.WithLabelValues(reason).Inc()
}

func IncConsumerRestart(routingKey string) {
	ConsumerRestartsTotal.WithLabelValues(routingKey).Inc()
}

func SetConnectionsActive(count int) {
	ConnectionsActive.Set(float64(count))
}

func IncConnectionClosed(reason string) {
	ConnectionsClosedTotal.WithLabelValues(reason).Inc()
}

func IncClientMessage(msgType, status string) {
	ClientMessagesTotal.WithLabelValues(msgType, status).Inc()
}

func IncNipsaLookup(result string) {
	NipsaLookupsTotal.WithLabelValues(result).Inc()
}

func ObserveStoreFetch(status string, duration time.Duration) {
	StoreFetchDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaMessageSize(service, topic, direction string, sizeBytes int) {
	KafkaMessageSizeBytes.WithLabelValues(service, topic, direction).Observe(float64(sizeBytes))
}

func ObserveKafkaReadDuration(service, topic string, duration time.Duration) {
	KafkaReadDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncRedisMessage(channel, direction string) {
	RedisMessagesTotal.WithLabelValues(channel, direction).Inc()
}
