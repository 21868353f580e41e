package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func findMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func newDBMetricsForTest(t *testing.T, cfg DBMetricsConfig) (*DBMetricsPlugin, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	plugin, err := NewDBMetricsPlugin(provider.Meter("test"), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(plugin.Stop)
	return plugin, reader
}

func newMetricsTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestNewDBMetricsPlugin_NilMeter(t *testing.T) {
	_, err := NewDBMetricsPlugin(nil, DBMetricsConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestDBMetricsPlugin_Name(t *testing.T) {
	plugin, _ := newDBMetricsForTest(t, DBMetricsConfig{})
	assert.Equal(t, "bundlecheck:db_metrics", plugin.Name())
}

func TestDBMetricsPlugin_RecordsQueryMetrics(t *testing.T) {
	plugin, reader := newDBMetricsForTest(t, DBMetricsConfig{})
	db, mock := newMetricsTestDB(t)
	require.NoError(t, db.Use(plugin))

	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	var n int
	require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.True(t, findMetric(rm, "bundlecheck_db_query_total"))
	assert.True(t, findMetric(rm, "bundlecheck_db_query_duration_seconds"))
}

func TestDBMetricsPlugin_CountsFailedQueries(t *testing.T) {
	plugin, reader := newDBMetricsForTest(t, DBMetricsConfig{})
	db, mock := newMetricsTestDB(t)
	require.NoError(t, db.Use(plugin))

	mock.ExpectQuery("SELECT broken").
		WillReturnError(assert.AnError)

	var n int
	require.Error(t, db.Raw("SELECT broken").Scan(&n).Error)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.True(t, findMetric(rm, "bundlecheck_db_query_total"))
}

func TestDBMetricsPlugin_SamplesPoolStats(t *testing.T) {
	plugin, reader := newDBMetricsForTest(t, DBMetricsConfig{PoolStatsInterval: 10 * time.Millisecond})
	db, _ := newMetricsTestDB(t)
	require.NoError(t, db.Use(plugin))

	require.Eventually(t, func() bool {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			return false
		}
		return findMetric(rm, "bundlecheck_db_pool_connections_in_use") &&
			findMetric(rm, "bundlecheck_db_pool_connections_max")
	}, time.Second, 20*time.Millisecond)
}

func TestDBMetricsPlugin_StopIsIdempotent(t *testing.T) {
	plugin, _ := newDBMetricsForTest(t, DBMetricsConfig{PoolStatsInterval: 10 * time.Millisecond})
	db, _ := newMetricsTestDB(t)
	require.NoError(t, db.Use(plugin))

	plugin.Stop()
	plugin.Stop()
}
