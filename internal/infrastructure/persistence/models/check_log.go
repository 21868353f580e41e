package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/commerce"
)

// CheckLogModel is the persistence model for an availability check record.
type CheckLogModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	ShopDomain string    `gorm:"type:varchar(255);not null;index:idx_check_logs_shop_created,priority:1"`
	RequestID  string    `gorm:"type:varchar(100)"`
	Available  bool      `gorm:"not null"`
	Reason     string    `gorm:"type:text"`
	ItemsJSON  string    `gorm:"type:jsonb;column:items"`
	DurationMS int64     `gorm:"column:duration_ms;not null"`
	CreatedAt  time.Time `gorm:"not null;index:idx_check_logs_shop_created,priority:2,sort:desc"`
}

// TableName returns the table name for GORM
func (CheckLogModel) TableName() string {
	return "check_logs"
}

// checkLogItem is the JSON shape stored in the items column.
type checkLogItem struct {
	ProductHandle     string           `json:"product_handle"`
	SKU               string           `json:"sku"`
	VariantID         int64            `json:"variant_id"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity"`
	TotalAvailable    *decimal.Decimal `json:"total_available,omitempty"`
	TrackingMode      string           `json:"tracking_mode"`
	Available         bool             `json:"available"`
}

// ToDomain converts the persistence model to a domain CheckRecord.
func (m *CheckLogModel) ToDomain() *availability.CheckRecord {
	record := &availability.CheckRecord{
		ID:         m.ID,
		ShopDomain: m.ShopDomain,
		RequestID:  m.RequestID,
		Available:  m.Available,
		Reason:     m.Reason,
		Items:      make([]availability.ItemDecision, 0),
		Duration:   time.Duration(m.DurationMS) * time.Millisecond,
		CreatedAt:  m.CreatedAt,
	}

	if m.ItemsJSON != "" {
		var items []checkLogItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			for _, item := range items {
				record.Items = append(record.Items, availability.ItemDecision{
					ProductHandle:     item.ProductHandle,
					SKU:               item.SKU,
					VariantID:         item.VariantID,
					RequestedQuantity: item.RequestedQuantity,
					TotalAvailable:    item.TotalAvailable,
					TrackingMode:      commerce.TrackingMode(item.TrackingMode),
					Available:         item.Available,
				})
			}
		}
	}

	return record
}

// FromDomain populates the persistence model from a domain CheckRecord.
func (m *CheckLogModel) FromDomain(record *availability.CheckRecord) {
	m.ID = record.ID
	m.ShopDomain = record.ShopDomain
	m.RequestID = record.RequestID
	m.Available = record.Available
	m.Reason = record.Reason
	m.DurationMS = record.Duration.Milliseconds()
	m.CreatedAt = record.CreatedAt

	items := make([]checkLogItem, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, checkLogItem{
			ProductHandle:     item.ProductHandle,
			SKU:               item.SKU,
			VariantID:         item.VariantID,
			RequestedQuantity: item.RequestedQuantity,
			TotalAvailable:    item.TotalAvailable,
			TrackingMode:      string(item.TrackingMode),
			Available:         item.Available,
		})
	}
	if jsonBytes, err := json.Marshal(items); err == nil {
		m.ItemsJSON = string(jsonBytes)
	} else {
		m.ItemsJSON = "[]"
	}
}

// CheckLogModelFromDomain creates a new persistence model from a domain CheckRecord.
func CheckLogModelFromDomain(record *availability.CheckRecord) *CheckLogModel {
	m := &CheckLogModel{}
	m.FromDomain(record)
	return m
}
