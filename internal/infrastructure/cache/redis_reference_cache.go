package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/vatchallan/internal/application/masterdata"
)

// RedisReferenceCache caches synced reference-data listings in Redis. Reads
// go through the cache unless the caller forces a refresh, mirroring the
// force-refresh flag on the listing operations.
type RedisReferenceCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisReferenceCache creates a new Redis-backed reference cache
func NewRedisReferenceCache(cfg RedisConfig) (*RedisReferenceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisReferenceCache{
		client:    client,
		keyPrefix: "refdata:",
	}, nil
}

// NewRedisReferenceCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisReferenceCacheWithClient(client *redis.Client, keyPrefix string) *RedisReferenceCache {
	if keyPrefix == "" {
		keyPrefix = "refdata:"
	}
	return &RedisReferenceCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// GetList loads a cached listing into out. Returns false on a miss.
func (c *RedisReferenceCache) GetList(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached listing: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt entry behaves like a miss.
		return false, nil
	}
	return true, nil
}

// SetList stores a listing with a TTL.
func (c *RedisReferenceCache) SetList(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode listing for cache: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache listing: %w", err)
	}
	return nil
}

// Invalidate drops cached listings. Called after a sync run.
func (c *RedisReferenceCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.keyPrefix + key
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached listings: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisReferenceCache) Close() error {
	return c.client.Close()
}

// Ensure RedisReferenceCache implements ReferenceCache
var _ masterdata.ReferenceCache = (*RedisReferenceCache)(nil)
