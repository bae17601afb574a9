package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jackyYam/mybooklist/internal/metrics"
)

// blacklistKeyPrefix namespaces revoked refresh token identifiers.
const blacklistKeyPrefix = "blacklist:jti:"

// RedisBlacklist keeps revoked refresh token identifiers in Redis.  Each key
// expires together with its token, so no garbage collection is needed.
// Persistence across restarts depends on the Redis server's own settings.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

// Add blacklists jti until expiresAt using SET NX, so only the first of
// several concurrent revocations reports true.
func (b *RedisBlacklist) Add(ctx context.Context, jti string, userID uint64, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	return b.client.SetNX(ctx, blacklistKeyPrefix+jti, strconv.FormatUint(userID, 10), ttl).Result()
}

// Contains reports whether jti is blacklisted.
func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBlacklistCheck("redis", float64(time.Since(start).Microseconds())/1000.0)
	}()

	n, err := b.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
