package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/commerce"
)

// newMockCheckLogRepository creates a GormCheckLogRepository with a mocked SQL connection
func newMockCheckLogRepository(t *testing.T) (*GormCheckLogRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCheckLogRepository(gormDB), mock, mockDB
}

func testCheckRecord() *availability.CheckRecord {
	available := decimal.NewFromInt(3)
	return &availability.CheckRecord{
		ID:         uuid.New(),
		ShopDomain: "demo.myshopify.com",
		RequestID:  "req-123",
		Available:  false,
		Reason:     "insufficient stock for FRAME-MB-1824: 3 available, 5 requested",
		Items: []availability.ItemDecision{
			{
				ProductHandle:     "poster-frame",
				SKU:               "FRAME-MB-1824",
				VariantID:         1001,
				RequestedQuantity: decimal.NewFromInt(5),
				TotalAvailable:    &available,
				TrackingMode:      commerce.TrackingModePlatform,
				Available:         false,
			},
		},
		Duration:  42 * time.Millisecond,
		CreatedAt: time.Now().UTC(),
	}
}

func TestGormCheckLogRepository_Save(t *testing.T) {
	t.Run("saves check record", func(t *testing.T) {
		repo, mock, mockDB := newMockCheckLogRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "check_logs"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Save(context.Background(), testCheckRecord())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database error", func(t *testing.T) {
		repo, mock, mockDB := newMockCheckLogRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "check_logs"`).
			WillReturnError(sql.ErrConnDone)

		err := repo.Save(context.Background(), testCheckRecord())

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCheckLogRepository_List(t *testing.T) {
	itemsJSON := `[{"product_handle":"poster-frame","sku":"FRAME-MB-1824","variant_id":1001,` +
		`"requested_quantity":"5","total_available":"3","tracking_mode":"shopify","available":false}]`

	t.Run("lists records for shop newest first", func(t *testing.T) {
		repo, mock, mockDB := newMockCheckLogRepository(t)
		defer mockDB.Close()

		recordID := uuid.New()
		createdAt := time.Now().UTC()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "check_logs" WHERE shop_domain = \$1`).
			WithArgs("demo.myshopify.com").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows([]string{"id", "shop_domain", "request_id", "available", "reason", "items", "duration_ms", "created_at"}).
			AddRow(recordID, "demo.myshopify.com", "req-123", false, "insufficient stock for FRAME-MB-1824", itemsJSON, 42, createdAt)

		mock.ExpectQuery(`SELECT \* FROM "check_logs" WHERE shop_domain = \$1 ORDER BY created_at DESC LIMIT .*`).
			WithArgs("demo.myshopify.com", 20).
			WillReturnRows(rows)

		records, total, err := repo.List(context.Background(), "demo.myshopify.com", 1, 20)

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, records, 1)
		assert.Equal(t, recordID, records[0].ID)
		assert.False(t, records[0].Available)
		require.Len(t, records[0].Items, 1)
		assert.Equal(t, "FRAME-MB-1824", records[0].Items[0].SKU)
		assert.Equal(t, commerce.TrackingModePlatform, records[0].Items[0].TrackingMode)
		require.NotNil(t, records[0].Items[0].TotalAvailable)
		assert.True(t, records[0].Items[0].TotalAvailable.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, 42*time.Millisecond, records[0].Duration)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lists all shops when domain empty", func(t *testing.T) {
		repo, mock, mockDB := newMockCheckLogRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "check_logs"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery(`SELECT \* FROM "check_logs" ORDER BY created_at DESC LIMIT .*`).
			WithArgs(20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "shop_domain", "request_id", "available", "reason", "items", "duration_ms", "created_at"}))

		records, total, err := repo.List(context.Background(), "", 1, 20)

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("normalizes invalid pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockCheckLogRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "check_logs"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery(`SELECT \* FROM "check_logs" ORDER BY created_at DESC LIMIT .*`).
			WithArgs(20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "shop_domain", "request_id", "available", "reason", "items", "duration_ms", "created_at"}))

		_, _, err := repo.List(context.Background(), "", 0, -1)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates count error", func(t *testing.T) {
		repo, mock, mockDB := newMockCheckLogRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "check_logs"`).
			WillReturnError(sql.ErrConnDone)

		records, total, err := repo.List(context.Background(), "", 1, 20)

		assert.Error(t, err)
		assert.Nil(t, records)
		assert.Equal(t, int64(0), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
