package nipsa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/config"
	"streamer/internal/logger"
	"streamer/pkg/health"
)

type fakeRepository struct {
	flagged map[string]bool
	err     error
	calls   int
}

func (f *fakeRepository) IsFlagged(_ context.Context, userid string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.flagged[userid], nil
}

func TestService_IsFlagged(t *testing.T) {
	tests := []struct {
		name   string
		repo   *fakeRepository
		userid string
		want   bool
	}{
		{name: "flagged", repo: &fakeRepository{flagged: map[string]bool{"u1": true}}, userid: "u1", want: true},
		{name: "not flagged", repo: &fakeRepository{flagged: map[string]bool{"u1": true}}, userid: "u2", want: false},
		{name: "lookup error fails closed", repo: &fakeRepository{err: errors.New("db down")}, userid: "u1", want: true},
		{name: "empty userid", repo: &fakeRepository{err: errors.New("unused")}, userid: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo, logger.NopLogger())
			assert.Equal(t, tt.want, svc.IsFlagged(context.Background(), tt.userid))
		})
	}
}

func TestService_EmptyUserSkipsRepository(t *testing.T) {
	repo := &fakeRepository{}
	NewService(repo, logger.NopLogger()).IsFlagged(context.Background(), "")
	assert.Equal(t, 0, repo.calls)
}

func TestCircuitBreakerRepository_Disabled(t *testing.T) {
	repo := &fakeRepository{}
	got := NewCircuitBreakerRepository(repo, config.CircuitBreakerConfig{Enabled: false})
	assert.Same(t, repo, got)
}

func TestCircuitBreakerRepository_OpensAndFailsClosed(t *testing.T) {
	repo := &fakeRepository{err: errors.New("db down")}
	cb := NewCircuitBreakerRepository(repo, config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		FailureRatio: 0.5,
		MinRequests:  2,
	})
	svc := NewService(cb, logger.NopLogger())

	for i := 0; i < 3; i++ {
		assert.True(t, svc.IsFlagged(context.Background(), "u1"))
	}
	require.Equal(t, 2, repo.calls)
	assert.Equal(t, "open", cb.(*CircuitBreakerRepository).State())

	breaker, ok := cb.(health.BreakerState)
	require.True(t, ok)
	assert.ErrorIs(t, health.NewBreakerChecker("nipsa", breaker).Check(context.Background()), health.ErrDegraded)
}
