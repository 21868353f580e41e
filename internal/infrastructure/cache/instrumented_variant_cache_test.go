package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/infrastructure/telemetry"
)

type failingVariantCache struct {
	getErr error
}

func (c *failingVariantCache) Get(_ context.Context, _ string) (*availability.ResolvedVariant, bool, error) {
	return nil, false, c.getErr
}

func (c *failingVariantCache) Set(_ context.Context, _ string, _ availability.ResolvedVariant) error {
	return nil
}

func newTestMetrics(t *testing.T) (*telemetry.CheckMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := telemetry.NewCheckMetrics(telemetry.CheckMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)
	return metrics, reader
}

func lookupCount(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "bundlecheck_variant_cache_lookup_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestInstrumentedVariantCache_PassesThrough(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	inner := NewInMemoryVariantCache(time.Minute)
	cache := NewInstrumentedVariantCache(inner, metrics, "memory")
	ctx := context.Background()

	variant := availability.ResolvedVariant{
		VariantID:       11,
		InventoryItemID: 101,
		TrackingMode:    commerce.TrackingModePlatform,
	}

	// Miss then hit, both recorded
	_, found, err := cache.Get(ctx, "FRAME-MB-1824")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "FRAME-MB-1824", variant))

	got, found, err := cache.Get(ctx, "FRAME-MB-1824")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, variant, *got)

	assert.Equal(t, int64(2), lookupCount(t, reader))
}

func TestInstrumentedVariantCache_RecordsErrors(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	cache := NewInstrumentedVariantCache(&failingVariantCache{getErr: errors.New("redis down")}, metrics, "redis")

	_, _, err := cache.Get(context.Background(), "FRAME-MB-1824")
	require.Error(t, err)

	assert.Equal(t, int64(1), lookupCount(t, reader))
}
