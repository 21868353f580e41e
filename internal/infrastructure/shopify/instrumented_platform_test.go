package shopify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/infrastructure/telemetry"
)

type stubInnerPlatform struct {
	productsErr error
	levelsErr   error
}

func (p *stubInnerPlatform) ListProducts(_ context.Context, _ string) (*commerce.ProductPage, error) {
	if p.productsErr != nil {
		return nil, p.productsErr
	}
	return &commerce.ProductPage{NextCursor: "next"}, nil
}

func (p *stubInnerPlatform) ListInventoryLevels(_ context.Context, _ int64) ([]commerce.InventoryLevel, error) {
	if p.levelsErr != nil {
		return nil, p.levelsErr
	}
	return []commerce.InventoryLevel{{LocationID: 1}}, nil
}

func newPlatformMetrics(t *testing.T) (*telemetry.CheckMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := telemetry.NewCheckMetrics(telemetry.CheckMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)
	return metrics, reader
}

func metricRecorded(t *testing.T, reader *sdkmetric.ManualReader, name string) bool {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func TestInstrumentedPlatform_ListProducts(t *testing.T) {
	metrics, reader := newPlatformMetrics(t)
	platform := NewInstrumentedPlatform(&stubInnerPlatform{}, metrics)

	page, err := platform.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "next", page.NextCursor)

	assert.True(t, metricRecorded(t, reader, "bundlecheck_upstream_duration_seconds"))
	assert.False(t, metricRecorded(t, reader, "bundlecheck_upstream_error_total"))
}

func TestInstrumentedPlatform_ListInventoryLevels(t *testing.T) {
	metrics, reader := newPlatformMetrics(t)
	platform := NewInstrumentedPlatform(&stubInnerPlatform{}, metrics)

	levels, err := platform.ListInventoryLevels(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, levels, 1)

	assert.True(t, metricRecorded(t, reader, "bundlecheck_upstream_duration_seconds"))
}

func TestInstrumentedPlatform_RecordsErrors(t *testing.T) {
	metrics, reader := newPlatformMetrics(t)
	platform := NewInstrumentedPlatform(&stubInnerPlatform{
		productsErr: commerce.ErrPlatformRateLimited,
	}, metrics)

	_, err := platform.ListProducts(context.Background(), "")
	assert.ErrorIs(t, err, commerce.ErrPlatformRateLimited)

	assert.True(t, metricRecorded(t, reader, "bundlecheck_upstream_error_total"))
}
