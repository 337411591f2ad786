package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"streamer/internal/config"
	"streamer/internal/constants"
	"streamer/internal/logger"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
	"streamer/pkg/retry"
	"streamer/pkg/tracing"
)

type KafkaPublisher struct {
	cfg    config.KafkaConfig
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{cfg: cfg, writer: w, logger: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	topic := p.cfg.TopicPrefix + routingKey
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(messageKey(payload)),
		Value:   body,
		Headers: tracing.InjectTraceContext(ctx, nil),
		Time:    time.Now(),
	}

	start := time.Now()
	err = retry.Do(ctx, retry.DefaultPolicy(), func() error {
		return p.writer.WriteMessages(ctx, msg)
	}, func(attempt int, err error, next time.Duration) {
		p.logger.WarnwCtx(ctx, "Retrying kafka write",
			"attempt", attempt,
			"next_delay", next,
			"error", err,
			"topic", topic,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncKafkaMessagesWritten(constants.ServiceName, topic)
	metrics.ObserveKafkaMessageSize(constants.ServiceName, topic, "out", len(body))
	metrics.ObserveKafkaWriteDuration(constants.ServiceName, topic, time.Since(start))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaSubscriber reads one topic per routing key. Unless SharedGroup is
// set, every process joins its own consumer group so that each streamer
// instance sees every event.
type KafkaSubscriber struct {
	cfg        config.KafkaConfig
	groupID    string
	startLast  bool
	logger     logger.Logger
	mu         sync.Mutex
	readers    []*kafka.Reader
	fetchDelay time.Duration
}

func NewKafkaSubscriber(cfg config.KafkaConfig, log logger.Logger) *KafkaSubscriber {
	groupID := cfg.GroupID
	if !cfg.SharedGroup {
		groupID = fmt.Sprintf("%s-%s", cfg.GroupID, uuid.NewString())
	}
	return &KafkaSubscriber{
		cfg:        cfg,
		groupID:    groupID,
		startLast:  !cfg.SharedGroup,
		logger:     log,
		fetchDelay: constants.KafkaFetchBackoff,
	}
}

func (s *KafkaSubscriber) GroupID() string {
	return s.groupID
}

func (s *KafkaSubscriber) Subscribe(ctx context.Context, routingKey string, handler Handler) error {
	topic := s.cfg.TopicPrefix + routingKey

	readerCfg := kafka.ReaderConfig{
		Brokers:  s.cfg.Brokers,
		GroupID:  s.groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	}
	if s.startLast {
		readerCfg.StartOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(readerCfg)

	s.mu.Lock()
	s.readers = append(s.readers, reader)
	s.mu.Unlock()
	defer s.removeReader(reader)

	subCtx := logging.WithRoutingKey(logging.WithServiceName(ctx, constants.ServiceName), routingKey)
	s.logger.InfowCtx(subCtx, "Started consuming",
		"topic", topic,
		"brokers", s.cfg.Brokers,
		"group_id", s.groupID,
	)

	for {
		start := time.Now()
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				s.logger.InfowCtx(subCtx, "Stopped consuming", "topic", topic)
				return nil
			}
			s.logger.ErrorwCtx(subCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.fetchDelay):
			}
			continue
		}

		metrics.IncKafkaMessagesRead(constants.ServiceName, topic)
		metrics.ObserveKafkaMessageSize(constants.ServiceName, topic, "in", len(m.Value))
		metrics.ObserveKafkaReadDuration(constants.ServiceName, topic, time.Since(start))

		s.deliver(subCtx, m, handler)

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			s.logger.ErrorwCtx(subCtx, "Failed to commit message",
				"error", err,
				"topic", topic,
			)
		}
	}
}

func (s *KafkaSubscriber) deliver(ctx context.Context, m kafka.Message, handler Handler) {
	msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "kafka.consume", m)
	defer span.End()

	if traceID := tracing.TraceID(msgCtx); traceID != "" {
		msgCtx = logging.WithTraceID(msgCtx, traceID)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		s.logger.ErrorwCtx(msgCtx, "Failed to unmarshal message",
			"error", err,
			"topic", m.Topic,
			"offset", m.Offset,
		)
		return
	}

	handler(msgCtx, payload)
}

func (s *KafkaSubscriber) removeReader(r *kafka.Reader) {
	s.mu.Lock()
	for i, reader := range s.readers {
		if reader == r {
			s.readers = append(s.readers[:i], s.readers[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	r.Close()
}

// Close closes every open reader, which ends their Subscribe loops.
func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	readers := append([]*kafka.Reader(nil), s.readers...)
	s.mu.Unlock()

	var errs []error
	for _, r := range readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
