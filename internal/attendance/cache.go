package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionCachePrefix = "classroll:session:"

// SessionCache memoizes code → session lookups. Failures are treated as
// misses; the store stays authoritative.
type SessionCache interface {
	Get(ctx context.Context, code string) (SessionTarget, bool)
	Set(ctx context.Context, code string, target SessionTarget)
}

// RedisSessionCache keeps lookups in redis with a TTL.
type RedisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionCache builds a cache on an existing client.
func NewRedisSessionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSessionCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached target for code.
func (c *RedisSessionCache) Get(ctx context.Context, code string) (SessionTarget, bool) {
	raw, err := c.client.Get(ctx, sessionCachePrefix+code).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("session cache get failed", zap.Error(err))
		}
		return SessionTarget{}, false
	}
	var target SessionTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		c.logger.Warn("session cache entry corrupt", zap.String("session_code", code), zap.Error(err))
		return SessionTarget{}, false
	}
	return target, true
}

// Set stores target under code.
func (c *RedisSessionCache) Set(ctx context.Context, code string, target SessionTarget) {
	raw, err := json.Marshal(target)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, sessionCachePrefix+code, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache set failed", zap.Error(err))
	}
}
