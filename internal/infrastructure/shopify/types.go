package shopify

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bundlecheck/backend/internal/domain/commerce"
)

// ---------------------------------------------------------------------------
// Admin API Wire Types
// ---------------------------------------------------------------------------

// productsResponse is the body of GET /products.json
type productsResponse struct {
	Products []productPayload `json:"products"`
}

// productPayload represents one product in an Admin API response
type productPayload struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Options  []optionPayload  `json:"options"`
	Variants []variantPayload `json:"variants"`
}

// optionPayload represents one product option
type optionPayload struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// variantPayload represents one product variant
type variantPayload struct {
	ID                  int64  `json:"id"`
	ProductID           int64  `json:"product_id"`
	Title               string `json:"title"`
	SKU                 string `json:"sku"`
	InventoryItemID     int64  `json:"inventory_item_id"`
	InventoryManagement string `json:"inventory_management"`
	InventoryPolicy     string `json:"inventory_policy"`
}

// inventoryLevelsResponse is the body of GET /inventory_levels.json
type inventoryLevelsResponse struct {
	InventoryLevels []inventoryLevelPayload `json:"inventory_levels"`
}

// inventoryLevelPayload represents one per-location inventory level.
// Available is null when the item is not stocked at the location.
type inventoryLevelPayload struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	LocationID      int64  `json:"location_id"`
	Available       *int64 `json:"available"`
}

// ---------------------------------------------------------------------------
// Wire -> Domain Conversion
// ---------------------------------------------------------------------------

func (p productPayload) toDomain() commerce.Product {
	options := make([]optionPayload, len(p.Options))
	copy(options, p.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Position < options[j].Position
	})

	product := commerce.Product{
		ID:       p.ID,
		Handle:   p.Handle,
		Title:    p.Title,
		Options:  make([]string, 0, len(options)),
		Variants: make([]commerce.Variant, 0, len(p.Variants)),
	}
	for _, opt := range options {
		product.Options = append(product.Options, opt.Name)
	}
	for _, v := range p.Variants {
		product.Variants = append(product.Variants, commerce.Variant{
			ID:                  v.ID,
			ProductID:           v.ProductID,
			SKU:                 v.SKU,
			Title:               v.Title,
			InventoryItemID:     v.InventoryItemID,
			InventoryManagement: commerce.TrackingMode(v.InventoryManagement),
			InventoryPolicy:     v.InventoryPolicy,
		})
	}
	return product
}

func (l inventoryLevelPayload) toDomain() commerce.InventoryLevel {
	level := commerce.InventoryLevel{LocationID: l.LocationID}
	if l.Available != nil {
		level.Available = decimal.NewNullDecimal(decimal.NewFromInt(*l.Available))
	}
	return level
}
