package tenantconfig

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
	"github.com/0xcro3dile/ragroute/internal/domain/ports"
)

const (
	// cacheKeyPrefix namespaces tenant config keys.
	cacheKeyPrefix = "tenantcfg:"
	// DefaultCacheTTL bounds how stale a cached config may get.
	DefaultCacheTTL = 5 * time.Minute
)

// cacheClient is the subset of redis.Cmdable the cache uses.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache is a read-through cache in front of another source.
// Only successful lookups are cached. Cache failures never fail a lookup.
type RedisCache struct {
	next   ports.TenantConfigSource
	client cacheClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache wraps next with a Redis cache.
func NewRedisCache(next ports.TenantConfigSource, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return newRedisCache(next, client, ttl, logger)
}

func newRedisCache(next ports.TenantConfigSource, client cacheClient, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{next: next, client: client, ttl: ttl, logger: logger}
}

// FetchTenantConfig implements ports.TenantConfigSource.
func (c *RedisCache) FetchTenantConfig(ctx context.Context, tenantID string) (*entities.TenantConfig, error) {
	key := cacheKeyPrefix + tenantID

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cfg entities.TenantConfig
		jsonErr := json.Unmarshal([]byte(val), &cfg)
		if jsonErr == nil {
			return &cfg, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("tenant config cache read failed", zap.String("key", key), zap.Error(err))
	}

	cfg, err := c.next.FetchTenantConfig(ctx, tenantID)
	if err != nil || cfg == nil {
		return cfg, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return cfg, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("tenant config cache write failed", zap.String("key", key), zap.Error(err))
	}

	return cfg, nil
}
