// Package availability turns per-location inventory levels into a single
// availability decision with the platform's quantity semantics.
package availability

import (
	"github.com/shopspring/decimal"

	"github.com/bundlecheck/backend/internal/domain/commerce"
)

// ItemDecision is the availability verdict for one bundle item.
type ItemDecision struct {
	// ProductHandle is the storefront product handle
	ProductHandle string
	// SKU is the resolved stock-keeping unit
	SKU string
	// VariantID is the platform variant id
	VariantID int64
	// RequestedQuantity is the quantity the cart asked for
	RequestedQuantity decimal.Decimal
	// TotalAvailable sums levels across locations, nil when untracked
	TotalAvailable *decimal.Decimal
	// TrackingMode is who tracks inventory for the variant
	TrackingMode commerce.TrackingMode
	// Available is the per-item verdict
	Available bool
}

// Decision is the availability verdict for the whole bundle.
type Decision struct {
	// Available is true iff every item is available
	Available bool
	// Reason is the first blocking reason, "" when available
	Reason string
	// Items holds the per-item verdicts in bundle order
	Items []ItemDecision
}

// SumLevels aggregates the available quantity over every location level.
// Null levels contribute nothing; negative values (platform oversell
// bookkeeping) participate as-is.
func SumLevels(levels []commerce.InventoryLevel) decimal.Decimal {
	total := decimal.Zero
	for _, level := range levels {
		if !level.Available.Valid {
			continue
		}
		total = total.Add(level.Available.Decimal)
	}
	return total
}

// DecideItem applies the quantity policy for one item. Untracked variants
// (any mode but the platform's own tracking) are available by policy with an
// unlimited TotalAvailable; tracked variants are available iff the summed
// total covers the requested quantity.
func DecideItem(handle, sku string, variant ResolvedVariant, requested decimal.Decimal, levels []commerce.InventoryLevel) ItemDecision {
	d := ItemDecision{
		ProductHandle:     handle,
		SKU:               sku,
		VariantID:         variant.VariantID,
		RequestedQuantity: requested,
		TrackingMode:      variant.TrackingMode,
	}
	if !variant.TrackingMode.Tracked() {
		d.Available = true
		return d
	}
	total := SumLevels(levels)
	d.TotalAvailable = &total
	d.Available = total.GreaterThanOrEqual(requested)
	return d
}

// Decide combines per-item verdicts into the bundle verdict.
func Decide(items []ItemDecision) Decision {
	d := Decision{Available: true, Items: items}
	for _, item := range items {
		if item.Available {
			continue
		}
		d.Available = false
		if d.Reason == "" {
			d.Reason = blockingReason(item)
		}
	}
	return d
}

func blockingReason(item ItemDecision) string {
	if item.TotalAvailable == nil {
		return "insufficient stock for " + item.SKU
	}
	return "insufficient stock for " + item.SKU +
		": " + item.TotalAvailable.String() + " available, " +
		item.RequestedQuantity.String() + " requested"
}
