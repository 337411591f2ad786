//go:build integration

package nipsa

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/logger"
	"streamer/internal/testinfra"
)

func TestPostgresRepository_IsFlagged(t *testing.T) {
	db := testinfra.Postgres(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (userid, nipsa) VALUES
			('acct:troll@example.com', true),
			('acct:alice@example.com', false)
	`)
	require.NoError(t, err)

	repo := NewPostgresRepository(db)

	tests := []struct {
		userid  string
		flagged bool
	}{
		{userid: "acct:troll@example.com", flagged: true},
		{userid: "acct:alice@example.com", flagged: false},
		{userid: "acct:unknown@example.com", flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.userid, func(t *testing.T) {
			flagged, err := repo.IsFlagged(ctx, tt.userid)
			require.NoError(t, err)
			assert.Equal(t, tt.flagged, flagged)
		})
	}
}

func TestCachedRepository_ServesFromRedis(t *testing.T) {
	db := testinfra.Postgres(t)
	client := testinfra.Redis(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO users (userid, nipsa) VALUES ('acct:troll@example.com', true)`)
	require.NoError(t, err)

	cached := NewCachedRepository(NewPostgresRepository(db), client, time.Minute)
	svc := NewService(cached, logger.NopLogger())

	assert.True(t, svc.IsFlagged(ctx, "acct:troll@example.com"))

	// The cached flag survives the row changing until it expires or is dropped.
	_, err = db.ExecContext(ctx, `UPDATE users SET nipsa = false WHERE userid = 'acct:troll@example.com'`)
	require.NoError(t, err)
	assert.True(t, svc.IsFlagged(ctx, "acct:troll@example.com"))

	require.NoError(t, client.Del(ctx, cacheKey("acct:troll@example.com")).Err())
	assert.False(t, svc.IsFlagged(ctx, "acct:troll@example.com"))

	ttl, err := client.TTL(ctx, cacheKey("acct:troll@example.com")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
