package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 5 * time.Second

// ErrDegraded marks a check failure that should not fail the whole service.
var ErrDegraded = errors.New("degraded")

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CheckerRegistry struct {
	checkers []Checker
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{
		checkers: make([]Checker, 0),
	}
}

func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, checker)
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make(map[string]CheckResult, len(r.checkers))
	allHealthy := true
	anyDegraded := false

	for _, checker := range r.checkers {
		err := checker.Check(ctx)
		result := CheckResult{
			Timestamp: time.Now(),
		}

		switch {
		case err == nil:
			result.Status = StatusHealthy
		case errors.Is(err, ErrDegraded):
			result.Status = StatusDegraded
			result.Message = err.Error()
			anyDegraded = true
		default:
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			allHealthy = false
		}

		results[checker.Name()] = result
	}

	overallStatus := StatusHealthy
	if !allHealthy {
		overallStatus = StatusUnhealthy
	} else if anyDegraded {
		overallStatus = StatusDegraded
	}

	return Health{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// Handler serves the registry's report; only an unhealthy report is a 503.
func (r *CheckerRegistry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := r.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}

type PostgreSQLChecker struct {
	db *sql.DB
}

func NewPostgreSQLChecker(db *sql.DB) *PostgreSQLChecker {
	return &PostgreSQLChecker{db: db}
}

func (c *PostgreSQLChecker) Name() string {
	return "postgresql"
}

func (c *PostgreSQLChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}
	return nil
}

type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string {
	return "redis"
}

func (c *RedisChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

type MongoDBChecker struct {
	client *mongo.Client
}

func NewMongoDBChecker(client *mongo.Client) *MongoDBChecker {
	return &MongoDBChecker{client: client}
}

func (c *MongoDBChecker) Name() string {
	return "mongodb"
}

func (c *MongoDBChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// QueueDepth is satisfied by the admission queue.
type QueueDepth interface {
	Len() int
	Cap() int
}

// QueueChecker reports degraded once the queue is fuller than threshold
// (a fraction of its capacity).
type QueueChecker struct {
	queue     QueueDepth
	threshold float64
}

func NewQueueChecker(queue QueueDepth, threshold float64) *QueueChecker {
	return &QueueChecker{queue: queue, threshold: threshold}
}

func (c *QueueChecker) Name() string {
	return "admission_queue"
}

func (c *QueueChecker) Check(context.Context) error {
	depth, capacity := c.queue.Len(), c.queue.Cap()
	if capacity > 0 && float64(depth) > c.threshold*float64(capacity) {
		return fmt.Errorf("%w: queue at %d of %d", ErrDegraded, depth, capacity)
	}
	return nil
}

// BreakerState is satisfied by circuit-breaker guarded repositories.
type BreakerState interface {
	State() string
}

// BreakerChecker reports degraded while the breaker is open.
type BreakerChecker struct {
	name    string
	breaker BreakerState
}

func NewBreakerChecker(name string, breaker BreakerState) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

func (c *BreakerChecker) Name() string {
	return c.name + "_circuit_breaker"
}

func (c *BreakerChecker) Check(context.Context) error {
	if state := c.breaker.State(); state == "open" {
		return fmt.Errorf("%w: circuit breaker %s", ErrDegraded, state)
	}
	return nil
}
