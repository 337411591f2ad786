package streamer

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull is returned by AdmissionQueue.Put when no slot freed up
	// within the put timeout.
	ErrQueueFull = errors.New("admission queue is full")

	// ErrConsumerQuit means a bus subscription ended while the process was
	// not shutting down.
	ErrConsumerQuit = errors.New("bus consumer quit unexpectedly")

	ErrInvalidPayload = errors.New("invalid event payload")
)

// UnknownTopicError is returned for envelopes whose topic has no handler.
type UnknownTopicError struct {
	Topic string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("no handler registered for topic %q", e.Topic)
}
