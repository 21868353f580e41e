package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/infrastructure/config"
)

// VariantCacheFactory creates variant caches based on configuration
type VariantCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// VariantCacheFactoryOption is a functional option for configuring the factory
type VariantCacheFactoryOption func(*VariantCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) VariantCacheFactoryOption {
	return func(f *VariantCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) VariantCacheFactoryOption {
	return func(f *VariantCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewVariantCacheFactory creates a new factory
func NewVariantCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...VariantCacheFactoryOption) *VariantCacheFactory {
	f := &VariantCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based variant cache
func (f *VariantCacheFactory) CreateRedisCache() (availability.VariantCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisVariantCache(redisCfg, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis variant cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory variant cache.
// WARNING: in-memory caches do not share resolutions across process
// instances; every instance pays for its own catalog scans.
func (f *VariantCacheFactory) CreateInMemoryCache() availability.VariantCache {
	return NewInMemoryVariantCache(f.ttl)
}

// CreateCache creates a variant cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory when Redis is not
// reachable and fallback is allowed.
func (f *VariantCacheFactory) CreateCache() (availability.VariantCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis variant cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for variant cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory variant cache. "+
		"Each instance will scan the catalog independently.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
