package bundle

import (
	"github.com/shopspring/decimal"

	"github.com/bundlecheck/backend/internal/domain/shared"
)

// BundleSize is the number of line items a bundle always carries.
const BundleSize = 2

var (
	// ErrWrongItemCount indicates the cart did not send exactly two line items
	ErrWrongItemCount = shared.NewDomainError("BUNDLE_ITEM_COUNT", "A bundle consists of exactly two line items")
	// ErrInvalidQuantity indicates a zero or negative requested quantity
	ErrInvalidQuantity = shared.NewDomainError("BUNDLE_INVALID_QUANTITY", "Line item quantity must be positive")
	// ErrNoSelection indicates a line item carried no usable selection properties
	ErrNoSelection = shared.NewDomainError("BUNDLE_NO_SELECTION", "Line item has no recognized selection properties")
)

// Property is one raw storefront line-item property as typed by a human or
// injected by the storefront script.
type Property struct {
	Name  string
	Value string
}

// LineItem is one cart line of the bundle.
type LineItem struct {
	// ProductHandle identifies the product this line belongs to
	ProductHandle string
	// Quantity is the requested quantity (positive)
	Quantity decimal.Decimal
	// Properties are the raw selection properties for this line
	Properties []Property
}

// Selection holds the normalized option choices for one product,
// keyed by normalized option name.
type Selection map[string]string

// Bundle is exactly two line items checked together.
type Bundle struct {
	Items [BundleSize]LineItem
}

// NewBundle validates the cart lines and assembles a bundle.
// Exactly two items are required; each must carry a positive quantity.
func NewBundle(items []LineItem) (*Bundle, error) {
	if len(items) != BundleSize {
		return nil, ErrWrongItemCount
	}
	b := &Bundle{}
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		b.Items[i] = item
	}
	return b, nil
}

// Selection parses the line item's properties into a normalized selection.
// Returns ErrNoSelection when nothing usable remains after filtering.
func (li LineItem) Selection() (Selection, error) {
	return ParseProperties(li.Properties)
}
