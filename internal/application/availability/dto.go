package availability

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bundlecheck/backend/internal/domain/availability"
)

// PropertyRequest is one raw line-item property as the storefront sends it
type PropertyRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// CheckItemRequest is one bundle line in a check request. An omitted
// quantity means one unit.
type CheckItemRequest struct {
	ProductHandle string            `json:"product_handle" binding:"required"`
	Quantity      int64             `json:"quantity" binding:"omitempty,min=1"`
	Properties    []PropertyRequest `json:"properties" binding:"required,dive"`
}

// CheckBundleRequest is the storefront's availability question for one bundle
type CheckBundleRequest struct {
	Items []CheckItemRequest `json:"items" binding:"required,dive"`
}

// ItemResultResponse is the per-item verdict in API responses
type ItemResultResponse struct {
	ProductHandle     string           `json:"product_handle"`
	SKU               string           `json:"sku"`
	VariantID         int64            `json:"variant_id"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity"`
	TotalAvailable    *decimal.Decimal `json:"total_available,omitempty"`
	TrackingMode      string           `json:"tracking_mode"`
	Available         bool             `json:"available"`
}

// CheckResponse is the bundle verdict in API responses
type CheckResponse struct {
	CheckID   uuid.UUID            `json:"check_id"`
	Available bool                 `json:"available"`
	Reason    string               `json:"reason,omitempty"`
	Items     []ItemResultResponse `json:"items"`
}

// CheckLogResponse is one audit trail entry in API responses
type CheckLogResponse struct {
	ID         uuid.UUID            `json:"id"`
	ShopDomain string               `json:"shop_domain"`
	RequestID  string               `json:"request_id,omitempty"`
	Available  bool                 `json:"available"`
	Reason     string               `json:"reason,omitempty"`
	Items      []ItemResultResponse `json:"items"`
	DurationMS int64                `json:"duration_ms"`
	CreatedAt  time.Time            `json:"created_at"`
}

// CheckLogListResponse is a paginated page of audit trail entries
type CheckLogListResponse struct {
	Items    []CheckLogResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// CheckLogListFilter holds the query parameters for listing check logs
type CheckLogListFilter struct {
	ShopDomain string `form:"shop_domain"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func toItemResponses(items []availability.ItemDecision) []ItemResultResponse {
	out := make([]ItemResultResponse, len(items))
	for i, item := range items {
		out[i] = ItemResultResponse{
			ProductHandle:     item.ProductHandle,
			SKU:               item.SKU,
			VariantID:         item.VariantID,
			RequestedQuantity: item.RequestedQuantity,
			TotalAvailable:    item.TotalAvailable,
			TrackingMode:      item.TrackingMode.String(),
			Available:         item.Available,
		}
	}
	return out
}

func toCheckLogResponse(record availability.CheckRecord) CheckLogResponse {
	return CheckLogResponse{
		ID:         record.ID,
		ShopDomain: record.ShopDomain,
		RequestID:  record.RequestID,
		Available:  record.Available,
		Reason:     record.Reason,
		Items:      toItemResponses(record.Items),
		DurationMS: record.Duration.Milliseconds(),
		CreatedAt:  record.CreatedAt,
	}
}
