// Package telemetry provides OpenTelemetry integration for database metrics collection.
package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for check-log database metrics.
type DBMetricsConfig struct {
	// PoolStatsInterval defines how often connection pool stats are sampled (default: 15s).
	PoolStatsInterval time.Duration
}

// DBMetricsPlugin is a GORM plugin that records query counts and latency for
// the check-log store, plus connection pool gauges sampled in the background.
type DBMetricsPlugin struct {
	queryTotal    *Counter
	queryDuration *Histogram
	poolInUse     *Gauge
	poolIdle      *Gauge
	poolMax       *Gauge

	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetricsPlugin builds the plugin instruments on the given meter.
func NewDBMetricsPlugin(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetricsPlugin, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	p := &DBMetricsPlugin{
		interval: cfg.PoolStatsInterval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	var err error
	p.queryTotal, err = NewCounter(meter,
		"bundlecheck_db_query_total",
		"Total check-log database queries by operation and status",
		"{query}")
	if err != nil {
		return nil, err
	}
	p.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "bundlecheck_db_query_duration_seconds",
		Description: "Check-log database query latency by operation",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	p.poolInUse, err = NewGauge(meter,
		"bundlecheck_db_pool_connections_in_use",
		"Check-log database connections currently in use",
		"{connection}")
	if err != nil {
		return nil, err
	}
	p.poolIdle, err = NewGauge(meter,
		"bundlecheck_db_pool_connections_idle",
		"Idle check-log database connections",
		"{connection}")
	if err != nil {
		return nil, err
	}
	p.poolMax, err = NewGauge(meter,
		"bundlecheck_db_pool_connections_max",
		"Maximum open check-log database connections",
		"{connection}")
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin.
func (p *DBMetricsPlugin) Name() string {
	return "bundlecheck:db_metrics"
}

// Initialize implements gorm.Plugin. It registers the timing callbacks and
// starts pool stats sampling. Stop must be called on shutdown.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("db_metrics:before_create", p.before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("db_metrics:after_create", p.after("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("db_metrics:before_query", p.before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("db_metrics:after_query", p.after("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("db_metrics:before_update", p.before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("db_metrics:after_update", p.after("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("db_metrics:before_delete", p.before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("db_metrics:after_delete", p.after("delete")); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("db_metrics:before_raw", p.before); err != nil {
		return err
	}
	if err := db.Callback().Raw().After("gorm:raw").Register("db_metrics:after_raw", p.after("raw")); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	p.wg.Add(1)
	go p.samplePoolStats(sqlDB)

	p.logger.Info("Database metrics enabled",
		zap.Duration("pool_stats_interval", p.interval))
	return nil
}

func (p *DBMetricsPlugin) before(db *gorm.DB) {
	db.InstanceSet("db_metrics:start", time.Now())
}

func (p *DBMetricsPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		started, ok := db.InstanceGet("db_metrics:start")
		if !ok {
			return
		}
		startTime, ok := started.(time.Time)
		if !ok {
			return
		}

		status := "ok"
		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			status = "error"
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		p.queryTotal.Inc(ctx,
			AttrDBOperation.String(operation),
			AttrDBStatus.String(status),
		)
		p.queryDuration.RecordDuration(ctx, time.Since(startTime), AttrDBOperation.String(operation))
	}
}

func (p *DBMetricsPlugin) samplePoolStats(sqlDB *sql.DB) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			ctx := context.Background()
			p.poolInUse.Record(ctx, int64(stats.InUse))
			p.poolIdle.Record(ctx, int64(stats.Idle))
			p.poolMax.Record(ctx, int64(stats.MaxOpenConnections))
		}
	}
}

// Stop terminates pool stats sampling. Safe to call more than once.
func (p *DBMetricsPlugin) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
	})
}
