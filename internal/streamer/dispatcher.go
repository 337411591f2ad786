package streamer

import (
	"context"
	"time"

	"streamer/internal/logger"
	"streamer/pkg/errors"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
	"streamer/pkg/tracing"
)

// TopicHandler processes one event payload for a snapshot of connections.
type TopicHandler func(ctx context.Context, payload map[string]interface{}, conns []Connection) error

// Dispatcher pops envelopes in admission order and hands each to the
// handler registered for its topic.
type Dispatcher struct {
	queue    *AdmissionQueue
	registry Registry
	handlers map[string]TopicHandler
	logger   logger.Logger
}

func NewDispatcher(queue *AdmissionQueue, registry Registry, handlers map[string]TopicHandler, log logger.Logger) *Dispatcher {
	h := make(map[string]TopicHandler, len(handlers))
	for topic, handler := range handlers {
		h[topic] = handler
	}
	return &Dispatcher{
		queue:    queue,
		registry: registry,
		handlers: h,
		logger:   log,
	}
}

// HandleMessage dispatches a single envelope. A panicking handler is
// reported as an error.
func (d *Dispatcher) HandleMessage(ctx context.Context, env Envelope) (err error) {
	handler, ok := d.handlers[env.Topic]
	if !ok {
		return &UnknownTopicError{Topic: env.Topic}
	}

	conns := d.registry.Snapshot()
	ctx, span := tracing.StartDispatchSpan(ctx, env.Topic, len(conns))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ObserveDispatchDuration(env.Topic, status, time.Since(start))
		tracing.EndSpan(span, err)
	}()

	return handler(ctx, env.Payload, conns)
}

// Run dispatches until ctx is done. Errors are logged and never stop the
// loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.InfowCtx(ctx, "Dispatcher started", "handlers", len(d.handlers))

	for {
		env, err := d.queue.Get(ctx)
		if err != nil {
			d.logger.InfowCtx(ctx, "Dispatcher stopped")
			return nil
		}

		msgCtx := logging.WithRoutingKey(ctx, env.Topic)
		if err := d.HandleMessage(msgCtx, env); err != nil {
			d.logger.ErrorwCtx(msgCtx, "Failed to dispatch message",
				"topic", env.Topic,
				"error", err,
			)
		}
	}
}
