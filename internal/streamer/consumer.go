package streamer

import (
	"context"
	"errors"
	"fmt"

	"streamer/internal/broker"
	"streamer/internal/logger"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
)

// ProcessMessages subscribes to routingKey and admits every payload into
// queue as an Envelope whose topic is the routing key. Payloads that do
// not fit in time are dropped with a warning.
//
// It returns nil once ctx is cancelled. Any other end of the subscription
// is reported as ErrConsumerQuit.
func ProcessMessages(ctx context.Context, sub broker.Subscriber, routingKey string, queue *AdmissionQueue, log logger.Logger) error {
	ctx = logging.WithRoutingKey(ctx, routingKey)

	handler := func(msgCtx context.Context, payload map[string]interface{}) {
		err := queue.Put(NewEnvelope(routingKey, payload))
		if errors.Is(err, ErrQueueFull) {
			metrics.IncQueueDropped(routingKey)
			metrics.IncBusMessage(routingKey, "dropped")
			log.WarnwCtx(msgCtx, "Admission queue full, dropping message",
				"routing_key", routingKey,
				"queue_capacity", queue.Cap(),
			)
			return
		}
		metrics.IncBusMessage(routingKey, "admitted")
	}

	err := sub.Subscribe(ctx, routingKey, handler)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w (routing key %q): %w", ErrConsumerQuit, routingKey, err)
	}
	return fmt.Errorf("%w (routing key %q)", ErrConsumerQuit, routingKey)
}
