package availability

import (
	"context"

	"github.com/bundlecheck/backend/internal/domain/commerce"
)

// ResolvedVariant is the variant identity memoized per SKU. It carries just
// enough to answer an availability question without rescanning the catalog.
type ResolvedVariant struct {
	// VariantID is the platform variant id
	VariantID int64 `json:"variant_id"`
	// InventoryItemID keys the variant's inventory levels
	InventoryItemID int64 `json:"inventory_item_id"`
	// TrackingMode is who tracks inventory for the variant
	TrackingMode commerce.TrackingMode `json:"tracking_mode"`
}

// VariantCache memoizes SKU resolutions. Implementations expire entries so
// catalog edits surface without a restart. Negative results are never stored.
type VariantCache interface {
	// Get returns the cached resolution for a SKU, or found=false on a miss.
	// A cache failure is returned as an error so callers can log and fall
	// through to a scan.
	Get(ctx context.Context, sku string) (variant *ResolvedVariant, found bool, err error)

	// Set stores a resolution for a SKU.
	Set(ctx context.Context, sku string, variant ResolvedVariant) error
}
