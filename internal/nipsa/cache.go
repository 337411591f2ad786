package nipsa

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"streamer/internal/constants"
)

// CachedRepository keeps flags in Redis for ttl. Cache failures fall
// through to the wrapped repository.
type CachedRepository struct {
	repo   Repository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRepository(repo Repository, client *redis.Client, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = constants.DefaultNipsaCacheTTL
	}
	return &CachedRepository{repo: repo, client: client, ttl: ttl}
}

func cacheKey(userid string) string {
	return constants.CacheKeyPrefixNipsa + userid
}

func (r *CachedRepository) IsFlagged(ctx context.Context, userid string) (bool, error) {
	val, err := r.client.Get(ctx, cacheKey(userid)).Result()
	if err == nil {
		return val == "1", nil
	}

	flagged, err := r.repo.IsFlagged(ctx, userid)
	if err != nil {
		return false, err
	}

	value := "0"
	if flagged {
		value = "1"
	}
	// A failed write only costs a later cache miss.
	_ = r.client.Set(ctx, cacheKey(userid), value, r.ttl).Err()

	return flagged, nil
}
