package cache

import (
	"context"
	"errors"
	"fmt"
	"servicearea-service/internal/platform/metrics"
	"servicearea-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "servicearea:result:"

// RedisResultCache stores encoded API responses with a fixed TTL.
// A zero TTL keeps entries until evicted.
type RedisResultCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{Client: client, TTL: ttl}
}

// OpenRedis returns a client for addr, or nil when addr is empty.
func OpenRedis(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password})
}

var _ ports.ResultCache = (*RedisResultCache)(nil)

func (c *RedisResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.Client == nil {
		return nil, false, errors.New("result cache: redis client is nil")
	}

	b, err := c.Client.Get(ctx, resultKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMissesTotal.WithLabelValues("result").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get result cache key=%s: %w", key, err)
	}

	metrics.CacheHitsTotal.WithLabelValues("result").Inc()
	return b, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, value []byte) error {
	if c.Client == nil {
		return errors.New("result cache: redis client is nil")
	}

	if err := c.Client.Set(ctx, resultKeyPrefix+key, value, c.TTL).Err(); err != nil {
		return fmt.Errorf("set result cache key=%s: %w", key, err)
	}
	return nil
}
