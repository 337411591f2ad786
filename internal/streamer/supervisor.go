package streamer

import (
	"context"
	"fmt"
	"time"

	"streamer/internal/config"
	"streamer/internal/logger"
	"streamer/pkg/errors"
	"streamer/pkg/metrics"
	"streamer/pkg/retry"
)

// Task is a long-running unit of work that should only return on shutdown.
type Task func(ctx context.Context) error

// Supervisor restarts a Task whenever it returns (or panics) while its
// context is still live, waiting an exponential backoff between restarts.
// After MaxRestarts consecutive restarts it gives up and returns the last
// error. A run that lasted longer than MaxInterval resets the count.
type Supervisor struct {
	name   string
	cfg    config.SupervisorConfig
	logger logger.Logger
}

func NewSupervisor(name string, cfg config.SupervisorConfig, log logger.Logger) *Supervisor {
	return &Supervisor{name: name, cfg: cfg, logger: log}
}

func (s *Supervisor) Run(ctx context.Context, task Task) error {
	b := retry.ExponentialBackoff(s.cfg.InitialInterval, s.cfg.MaxInterval, s.cfg.Multiplier)
	restarts := 0

	for {
		started := time.Now()
		err := s.runOnce(ctx, task)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned without error", s.name)
		}

		if s.cfg.MaxInterval > 0 && time.Since(started) > s.cfg.MaxInterval {
			restarts = 0
			b.Reset()
		}

		if restarts >= s.cfg.MaxRestarts {
			s.logger.ErrorwCtx(ctx, "Task failed, giving up",
				"task", s.name,
				"restarts", restarts,
				"error", err,
			)
			return fmt.Errorf("%s failed after %d restarts: %w", s.name, restarts, err)
		}

		restarts++
		delay := b.NextBackOff()
		metrics.IncConsumerRestart(s.name)
		s.logger.WarnwCtx(ctx, "Task stopped, restarting",
			"task", s.name,
			"attempt", restarts,
			"max_restarts", s.cfg.MaxRestarts,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
	}()
	return task(ctx)
}
