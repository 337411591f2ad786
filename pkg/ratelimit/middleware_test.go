package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"streamer/internal/config"
)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:         true,
		RPS:             0.001,
		Burst:           2,
		CleanupInterval: time.Minute,
		MaxAge:          time.Minute,
	}
}

func TestLimiters_Allow(t *testing.T) {
	l := NewLimiters(testConfig())

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, remaining := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "keys have separate buckets")
}

func TestLimiters_Cleanup(t *testing.T) {
	l := NewLimiters(testConfig())
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(2 * time.Minute)
	l.Allow("new")

	l.Cleanup()
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewLimiters(testConfig()).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
