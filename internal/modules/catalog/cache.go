package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	productListCachePrefix = "vendorgpt:products:v:"
	cacheVersionKey        = "vendorgpt:products:version"
	defaultCacheTTL        = 5 * time.Minute
)

// Cache holds the raw product list between writes.
//
// On a miss GetAll returns the version it looked under; the caller hands it
// back to SetAll so a list loaded across an Invalidate lands under the retired
// version and is never served.
type Cache interface {
	GetAll(ctx context.Context) (products []Product, version int64, ok bool)
	SetAll(ctx context.Context, version int64, products []Product)
	Invalidate(ctx context.Context)
}

// NopCache never caches.
type NopCache struct{}

func (NopCache) GetAll(context.Context) ([]Product, int64, bool) { return nil, 0, false }
func (NopCache) SetAll(context.Context, int64, []Product)        {}
func (NopCache) Invalidate(context.Context)                      {}

// RedisCache keys the product list by a version counter; Invalidate bumps the
// counter so stale lists simply expire.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewRedisCache(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{redis: client, ttl: defaultCacheTTL, log: log}
}

func (c *RedisCache) GetAll(ctx context.Context) ([]Product, int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.log.Warn("Failed to read product cache version", zap.Error(err))
		return nil, 0, false
	}

	cached, err := c.redis.Get(ctx, listKey(version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Failed to read cached product list", zap.Error(err))
		}
		return nil, version, false
	}

	var products []Product
	if err := json.Unmarshal(cached, &products); err != nil {
		c.log.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, version, false
	}
	return products, version, true
}

// SetAll stores products under version. Version 0 means GetAll could not
// read one, so nothing is written.
func (c *RedisCache) SetAll(ctx context.Context, version int64, products []Product) {
	if version <= 0 {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		c.log.Warn("Failed to marshal product list for cache", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, listKey(version), data, c.ttl).Err(); err != nil {
		c.log.Warn("Failed to cache product list", zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	newVersion, err := c.redis.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		c.log.Error("Failed to invalidate product cache", zap.Error(err))
		return
	}
	c.log.Debug("Product cache invalidated", zap.Int64("new_version", newVersion))
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	ver, err := c.redis.Get(ctx, cacheVersionKey).Int64()
	if err == nil {
		return ver, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, err
	}
	// first use: start at 1 unless another instance got there first
	if err := c.redis.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	return c.redis.Get(ctx, cacheVersionKey).Int64()
}

func listKey(version int64) string {
	return fmt.Sprintf("%s%d:all", productListCachePrefix, version)
}
