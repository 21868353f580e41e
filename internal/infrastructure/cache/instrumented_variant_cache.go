package cache

import (
	"context"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/infrastructure/telemetry"
)

// InstrumentedVariantCache wraps a variant cache and records hit/miss/error
// outcomes per lookup.
type InstrumentedVariantCache struct {
	inner   availability.VariantCache
	metrics *telemetry.CheckMetrics
	backend string
}

// NewInstrumentedVariantCache wraps the given cache. backend names the
// underlying store ("memory" or "redis") in the recorded metrics.
func NewInstrumentedVariantCache(inner availability.VariantCache, metrics *telemetry.CheckMetrics, backend string) *InstrumentedVariantCache {
	return &InstrumentedVariantCache{
		inner:   inner,
		metrics: metrics,
		backend: backend,
	}
}

// Get looks up a SKU in the underlying cache and records the outcome.
func (c *InstrumentedVariantCache) Get(ctx context.Context, sku string) (*availability.ResolvedVariant, bool, error) {
	variant, found, err := c.inner.Get(ctx, sku)

	result := telemetry.CacheResultMiss
	switch {
	case err != nil:
		result = telemetry.CacheResultError
	case found:
		result = telemetry.CacheResultHit
	}
	c.metrics.RecordCacheLookup(ctx, c.backend, result)

	return variant, found, err
}

// Set stores a resolution in the underlying cache.
func (c *InstrumentedVariantCache) Set(ctx context.Context, sku string, variant availability.ResolvedVariant) error {
	return c.inner.Set(ctx, sku, variant)
}

var _ availability.VariantCache = (*InstrumentedVariantCache)(nil)
