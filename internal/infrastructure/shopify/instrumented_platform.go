package shopify

import (
	"context"
	"time"

	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/infrastructure/telemetry"
)

// Upstream operation names used in metrics.
const (
	OpListProducts        = "list_products"
	OpListInventoryLevels = "list_inventory_levels"
)

// InstrumentedPlatform wraps a platform adapter and records call durations
// and error counts per upstream operation.
type InstrumentedPlatform struct {
	inner   commerce.Platform
	metrics *telemetry.CheckMetrics
}

// NewInstrumentedPlatform wraps the given platform adapter.
func NewInstrumentedPlatform(inner commerce.Platform, metrics *telemetry.CheckMetrics) *InstrumentedPlatform {
	return &InstrumentedPlatform{inner: inner, metrics: metrics}
}

// ListProducts returns one page of the product catalog.
func (p *InstrumentedPlatform) ListProducts(ctx context.Context, cursor string) (*commerce.ProductPage, error) {
	start := time.Now()
	page, err := p.inner.ListProducts(ctx, cursor)
	p.metrics.RecordUpstreamCall(ctx, OpListProducts, time.Since(start), err)
	return page, err
}

// ListInventoryLevels returns the per-location levels for one inventory item.
func (p *InstrumentedPlatform) ListInventoryLevels(ctx context.Context, inventoryItemID int64) ([]commerce.InventoryLevel, error) {
	start := time.Now()
	levels, err := p.inner.ListInventoryLevels(ctx, inventoryItemID)
	p.metrics.RecordUpstreamCall(ctx, OpListInventoryLevels, time.Since(start), err)
	return levels, err
}

var _ commerce.Platform = (*InstrumentedPlatform)(nil)
