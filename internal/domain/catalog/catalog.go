// Package catalog holds the static catalog mapping: for each product handle,
// the declared option order and the lookup-key to SKU table. The mapping
// ships with the binary and can be extended or overridden from configuration.
package catalog

import (
	"fmt"

	"github.com/bundlecheck/backend/internal/domain/bundle"
	"github.com/bundlecheck/backend/internal/domain/shared"
)

// Domain error codes surfaced to the storefront so it can distinguish
// "unknown combination" from "out of stock".
const (
	ErrCodeUnknownProduct     = "CATALOG_UNKNOWN_PRODUCT"
	ErrCodeUnknownCombination = "CATALOG_UNKNOWN_COMBINATION"
)

// NewUnknownProductError reports a product handle the catalog does not carry.
func NewUnknownProductError(handle string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeUnknownProduct,
		fmt.Sprintf("Unknown product %q", handle))
}

// NewUnknownCombinationError reports a lookup key with no SKU mapping.
func NewUnknownCombinationError(handle, key string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeUnknownCombination,
		fmt.Sprintf("Unknown option combination %q for product %q", key, handle))
}

// ProductEntry is the catalog entry for one product.
type ProductEntry struct {
	// Options are the product's option names in declared order
	Options []string
	// SKUs maps a normalized lookup key to the variant SKU
	SKUs map[string]string
}

// Catalog maps (product handle, lookup key) to a SKU.
type Catalog struct {
	products map[string]ProductEntry
}

// New builds a catalog from entries keyed by product handle. Handles, option
// names, and lookup keys are normalized on the way in so lookups are exact
// after normalization.
func New(entries map[string]ProductEntry) *Catalog {
	c := &Catalog{products: make(map[string]ProductEntry, len(entries))}
	c.merge(entries)
	return c
}

// Merge overlays additional entries onto the catalog. An entry for an
// existing handle replaces its option order when one is given and overlays
// its SKU table key by key.
func (c *Catalog) Merge(entries map[string]ProductEntry) {
	c.merge(entries)
}

func (c *Catalog) merge(entries map[string]ProductEntry) {
	for handle, entry := range entries {
		handle = bundle.NormalizeText(handle)
		existing, ok := c.products[handle]
		if !ok {
			existing = ProductEntry{SKUs: make(map[string]string)}
		}
		if len(entry.Options) > 0 {
			options := make([]string, len(entry.Options))
			for i, opt := range entry.Options {
				options[i] = bundle.NormalizeText(opt)
			}
			existing.Options = options
		}
		for key, sku := range entry.SKUs {
			existing.SKUs[bundle.NormalizeText(key)] = sku
		}
		c.products[handle] = existing
	}
}

// OptionOrder returns the declared option order for a product handle.
func (c *Catalog) OptionOrder(handle string) ([]string, error) {
	entry, ok := c.products[bundle.NormalizeText(handle)]
	if !ok {
		return nil, NewUnknownProductError(handle)
	}
	return entry.Options, nil
}

// ResolveSKU maps a product handle and lookup key to the variant SKU.
func (c *Catalog) ResolveSKU(handle, key string) (string, error) {
	entry, ok := c.products[bundle.NormalizeText(handle)]
	if !ok {
		return "", NewUnknownProductError(handle)
	}
	sku, ok := entry.SKUs[bundle.NormalizeText(key)]
	if !ok {
		return "", NewUnknownCombinationError(handle, key)
	}
	return sku, nil
}

// Default returns the catalog table that ships with the binary.
func Default() *Catalog {
	return New(map[string]ProductEntry{
		"poster-frame": {
			Options: []string{"Frame", "Size"},
			SKUs: map[string]string{
				"Matte Black / 18x24": "FRAME-MB-1824",
				"Matte Black / 24x36": "FRAME-MB-2436",
				"Walnut / 18x24":      "FRAME-WN-1824",
				"Walnut / 24x36":      "FRAME-WN-2436",
			},
		},
		"art-print": {
			Options: []string{"Print", "Size"},
			SKUs: map[string]string{
				"Harbor Dawn / 18x24":  "PRINT-HD-1824",
				"Harbor Dawn / 24x36":  "PRINT-HD-2436",
				"Cedar Ridge / 18x24":  "PRINT-CR-1824",
				"Cedar Ridge / 24x36":  "PRINT-CR-2436",
			},
		},
	})
}
