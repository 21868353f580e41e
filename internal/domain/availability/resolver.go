package availability

import (
	"context"
	"fmt"

	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/domain/shared"
)

// ErrVariantNotFound indicates an exhausted catalog scan without a SKU match.
var ErrVariantNotFound = shared.NewDomainError("VARIANT_NOT_FOUND", "No catalog variant matches the requested SKU")

// ScanObserver is notified how many catalog pages a SKU resolution walked.
// Cache hits never invoke it.
type ScanObserver func(ctx context.Context, sku string, pages int64)

// VariantResolver resolves a SKU to its platform variant. Resolution scans
// the full catalog page by page, so results are memoized in the cache; a hit
// skips the scan entirely.
type VariantResolver struct {
	platform commerce.Platform
	cache    VariantCache
	observer ScanObserver
}

// NewVariantResolver creates a resolver over the given platform and cache.
func NewVariantResolver(platform commerce.Platform, cache VariantCache) *VariantResolver {
	return &VariantResolver{platform: platform, cache: cache}
}

// SetScanObserver sets the scan observer (optional)
func (r *VariantResolver) SetScanObserver(observer ScanObserver) {
	r.observer = observer
}

// Resolve returns the variant identity for a SKU. SKU comparison is exact:
// SKUs are canonical identifiers, not free-form text. A cache read failure
// is swallowed into a scan; a cache write failure is swallowed entirely, the
// next call simply scans again.
func (r *VariantResolver) Resolve(ctx context.Context, sku string) (*ResolvedVariant, error) {
	if cached, found, err := r.cache.Get(ctx, sku); err == nil && found {
		return cached, nil
	}

	cursor := ""
	var pages int64
	for {
		page, err := r.platform.ListProducts(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("resolve sku %q: %w", sku, err)
		}
		pages++
		for _, product := range page.Products {
			for _, variant := range product.Variants {
				if variant.SKU != sku {
					continue
				}
				resolved := ResolvedVariant{
					VariantID:       variant.ID,
					InventoryItemID: variant.InventoryItemID,
					TrackingMode:    variant.InventoryManagement,
				}
				// Best effort; a failed write just means another scan later.
				_ = r.cache.Set(ctx, sku, resolved)
				r.observeScan(ctx, sku, pages)
				return &resolved, nil
			}
		}
		if page.NextCursor == "" {
			r.observeScan(ctx, sku, pages)
			return nil, fmt.Errorf("resolve sku %q: %w", sku, ErrVariantNotFound)
		}
		cursor = page.NextCursor
	}
}

func (r *VariantResolver) observeScan(ctx context.Context, sku string, pages int64) {
	if r.observer == nil {
		return
	}
	r.observer(ctx, sku, pages)
}
