package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bundlecheck/backend/internal/domain/availability"
)

// RedisVariantCache implements VariantCache using Redis.
// This is suitable for distributed deployments where multiple instances
// should share SKU resolutions instead of each scanning the catalog.
type RedisVariantCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisVariantCache creates a new Redis-based variant cache
func NewRedisVariantCache(cfg RedisConfig, ttl time.Duration) (*RedisVariantCache, error) {
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

	return NewRedisVariantCacheWithClient(client, "", ttl), nil
}

// NewRedisVariantCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisVariantCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisVariantCache {
	if keyPrefix == "" {
		keyPrefix = "variant:sku:"
	}
	if ttl <= 0 {
		ttl = DefaultVariantTTL
	}
	return &RedisVariantCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached resolution for a SKU, or found=false on a miss
func (c *RedisVariantCache) Get(ctx context.Context, sku string) (*availability.ResolvedVariant, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+sku).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read variant cache: %w", err)
	}

	var variant availability.ResolvedVariant
	if err := json.Unmarshal(raw, &variant); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, false, fmt.Errorf("failed to decode variant cache entry: %w", err)
	}
	return &variant, true, nil
}

// Set stores a resolution for a SKU with the cache TTL
func (c *RedisVariantCache) Set(ctx context.Context, sku string, variant availability.ResolvedVariant) error {
	raw, err := json.Marshal(variant)
	if err != nil {
		return fmt.Errorf("failed to encode variant cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+sku, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write variant cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisVariantCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisVariantCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisVariantCache implements VariantCache
var _ availability.VariantCache = (*RedisVariantCache)(nil)
