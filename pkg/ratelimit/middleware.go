// Package ratelimit throttles connection attempts per client IP.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"streamer/internal/config"
	"streamer/pkg/errors"
	"streamer/pkg/metrics"
)

type limiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiters holds one token bucket per key; idle buckets are evicted after
// MaxAge.
type Limiters struct {
	cfg config.RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*limiter
	now      func() time.Time
}

func NewLimiters(cfg config.RateLimitConfig) *Limiters {
	return &Limiters{
		cfg:      cfg,
		limiters: make(map[string]*limiter),
		now:      time.Now,
	}
}

// Allow reports whether key may proceed and how many tokens remain.
func (l *Limiters) Allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = &limiter{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.limiters[key] = lim
	}
	lim.lastSeen = l.now()

	if !lim.limiter.Allow() {
		return false, 0
	}
	remaining := int(lim.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining
}

// Cleanup drops buckets not seen within MaxAge.
func (l *Limiters) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.MaxAge)
	for key, lim := range l.limiters {
		if lim.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

func (l *Limiters) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RunCleanup evicts idle buckets every CleanupInterval until ctx is done.
func (l *Limiters) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware rejects requests over the limit with a 429.
func (l *Limiters) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(int(l.cfg.RPS))

	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = c.RemoteIP()
		}

		allowed, remaining := l.Allow(key)
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(errors.ErrTooManyRequests.Status, errors.ToErrorResponse(errors.ErrTooManyRequests))
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
