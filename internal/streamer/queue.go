package streamer

import (
	"context"
	"time"

	"streamer/internal/constants"
	"streamer/pkg/metrics"
)

// AdmissionQueue is the bounded FIFO between bus consumers and the
// dispatcher. Put gives up after putTimeout instead of blocking the bus.
type AdmissionQueue struct {
	ch         chan Envelope
	putTimeout time.Duration
}

func NewAdmissionQueue(capacity int, putTimeout time.Duration) *AdmissionQueue {
	if capacity < 1 {
		capacity = constants.DefaultQueueSize
	}
	if putTimeout <= 0 {
		putTimeout = constants.DefaultPutTimeout
	}
	return &AdmissionQueue{
		ch:         make(chan Envelope, capacity),
		putTimeout: putTimeout,
	}
}

// Put enqueues env, waiting at most the put timeout for space. It returns
// ErrQueueFull on timeout; the envelope is not retried.
func (q *AdmissionQueue) Put(env Envelope) error {
	env.admitted = time.Now()

	select {
	case q.ch <- env:
		metrics.SetQueueDepth(len(q.ch))
		return nil
	default:
	}

	timer := time.NewTimer(q.putTimeout)
	defer timer.Stop()

	select {
	case q.ch <- env:
		metrics.SetQueueDepth(len(q.ch))
		return nil
	case <-timer.C:
		return ErrQueueFull
	}
}

// Get blocks until an envelope is available or ctx is done.
func (q *AdmissionQueue) Get(ctx context.Context) (Envelope, error) {
	select {
	case env := <-q.ch:
		metrics.SetQueueDepth(len(q.ch))
		if !env.admitted.IsZero() {
			metrics.ObserveQueueWait(time.Since(env.admitted))
		}
		return env, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

func (q *AdmissionQueue) Len() int {
	return len(q.ch)
}

func (q *AdmissionQueue) Cap() int {
	return cap(q.ch)
}
