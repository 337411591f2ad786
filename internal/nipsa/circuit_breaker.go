package nipsa

import (
	"context"
	"fmt"

	"streamer/internal/config"
	"streamer/pkg/circuitbreaker"
)

type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

// NewCircuitBreakerRepository returns repo unchanged when the breaker is
// disabled in cfg.
func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig) Repository {
	if !cfg.Enabled {
		return repo
	}

	cbConfig := circuitbreaker.ConfigFrom("nipsa", circuitbreaker.Settings{
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		FailureRatio: cfg.FailureRatio,
		MinRequests:  cfg.MinRequests,
	})

	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (r *CircuitBreakerRepository) IsFlagged(ctx context.Context, userid string) (bool, error) {
	result, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return r.repo.IsFlagged(ctx, userid)
	})
	if err != nil {
		if circuitbreaker.IsOpenError(err) {
			return false, fmt.Errorf("circuit breaker is open for nipsa: %w", err)
		}
		return false, err
	}

	flagged, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("repository returned invalid result type")
	}
	return flagged, nil
}

func (r *CircuitBreakerRepository) State() string {
	return r.cb.State().String()
}
