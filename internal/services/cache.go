package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheKeyPrefix namespaces cached values in Redis.
const CacheKeyPrefix = "cache:"

// CacheService provides JSON value caching on top of Redis.
type CacheService struct {
	rdb *redis.Client
}

func NewCacheService(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

// Get retrieves a value from cache into dest. A missing key is a miss, not
// an error.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, CacheKeyPrefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value with the given TTL.
func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, CacheKeyPrefix+key, data, ttl).Err()
}

// Delete removes a cached value.
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, CacheKeyPrefix+key).Err()
}
