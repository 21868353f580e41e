// Package commerce defines the port interface to the upstream commerce
// platform. The interface lives in the domain layer; concrete HTTP adapters
// live in the infrastructure layer (Ports & Adapters).
package commerce

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Platform Errors
// ---------------------------------------------------------------------------

var (
	// ErrPlatformNotConfigured indicates adapter configuration is missing or invalid
	ErrPlatformNotConfigured = errors.New("commerce: platform not configured")
	// ErrPlatformRequestFailed indicates a request to the platform failed
	ErrPlatformRequestFailed = errors.New("commerce: platform request failed")
	// ErrPlatformInvalidResponse indicates the platform returned an unparseable body
	ErrPlatformInvalidResponse = errors.New("commerce: invalid platform response")
	// ErrPlatformAuthFailed indicates the platform rejected our credentials
	ErrPlatformAuthFailed = errors.New("commerce: platform authentication failed")
	// ErrPlatformRateLimited indicates the platform throttled the request
	ErrPlatformRateLimited = errors.New("commerce: platform rate limited")
)

// ---------------------------------------------------------------------------
// TrackingMode
// ---------------------------------------------------------------------------

// TrackingMode is the platform's inventory management mode for a variant.
type TrackingMode string

// TrackingModePlatform means the platform itself tracks inventory for the
// variant. Any other value (including empty) means inventory is untracked
// and the variant sells regardless of levels.
const TrackingModePlatform TrackingMode = "shopify"

// Tracked returns true if the platform tracks inventory for this mode.
func (m TrackingMode) Tracked() bool {
	return m == TrackingModePlatform
}

// String returns the string representation of TrackingMode
func (m TrackingMode) String() string {
	return string(m)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Variant is one purchasable variant of a platform product.
type Variant struct {
	// ID is the platform variant id
	ID int64
	// ProductID is the owning product's platform id
	ProductID int64
	// SKU is the merchant's stock-keeping unit (canonical, exact-match)
	SKU string
	// Title is the platform variant title (option values joined with " / ")
	Title string
	// InventoryItemID keys the variant's inventory levels
	InventoryItemID int64
	// InventoryManagement is who tracks inventory for this variant
	InventoryManagement TrackingMode
	// InventoryPolicy is the platform oversell policy ("deny" or "continue")
	InventoryPolicy string
}

// Product is one platform product with its variants.
type Product struct {
	// ID is the platform product id
	ID int64
	// Handle is the product's URL handle
	Handle string
	// Title is the product title
	Title string
	// Options are the product's option names in declared order
	Options []string
	// Variants are the purchasable variants
	Variants []Variant
}

// ProductPage is one page of the catalog scan.
type ProductPage struct {
	// Products are the products on this page
	Products []Product
	// NextCursor is the opaque cursor of the next page, "" when exhausted
	NextCursor string
}

// InventoryLevel is the on-hand quantity of one inventory item at one location.
type InventoryLevel struct {
	// LocationID is the platform location id
	LocationID int64
	// Available is the sellable quantity at this location. Invalid (null)
	// when the platform reports no level, e.g. untracked items. Negative
	// values are real: the platform books oversells below zero.
	Available decimal.NullDecimal
}

// ---------------------------------------------------------------------------
// Platform Port Interface
// ---------------------------------------------------------------------------

// Platform is the read-only port to the upstream commerce platform.
// Implementations never reserve, decrement, or otherwise write inventory.
type Platform interface {
	// ListProducts returns one page of the product catalog. Pass "" for the
	// first page; follow NextCursor until it is "".
	ListProducts(ctx context.Context, cursor string) (*ProductPage, error)

	// ListInventoryLevels returns the per-location levels for one inventory
	// item across all locations, following pagination to exhaustion.
	ListInventoryLevels(ctx context.Context, inventoryItemID int64) ([]InventoryLevel, error)
}
