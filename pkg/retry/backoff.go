package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ExponentialBackoff never gives up on elapsed time; callers bound it with
// backoff.WithMaxRetries or a context.
func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64) *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}
