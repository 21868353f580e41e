package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/infrastructure/persistence/models"
)

// GormCheckLogRepository implements availability.CheckLogRepository using GORM
type GormCheckLogRepository struct {
	db *gorm.DB
}

// NewGormCheckLogRepository creates a new GormCheckLogRepository
func NewGormCheckLogRepository(db *gorm.DB) *GormCheckLogRepository {
	return &GormCheckLogRepository{db: db}
}

// Save stores one availability check record
func (r *GormCheckLogRepository) Save(ctx context.Context, record *availability.CheckRecord) error {
	model := models.CheckLogModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// List returns check records for a shop, newest first, with the total count
func (r *GormCheckLogRepository) List(ctx context.Context, shopDomain string, page, pageSize int) ([]availability.CheckRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&models.CheckLogModel{})
	if shopDomain != "" {
		query = query.Where("shop_domain = ?", shopDomain)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CheckLogModel
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	records := make([]availability.CheckRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].ToDomain())
	}
	return records, total, nil
}

// Ensure GormCheckLogRepository implements CheckLogRepository
var _ availability.CheckLogRepository = (*GormCheckLogRepository)(nil)
