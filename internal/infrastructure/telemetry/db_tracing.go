// Package telemetry provides OpenTelemetry integration for distributed tracing.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for check-log database tracing.
type DBTracingConfig struct {
	Enabled          bool
	LogFullSQL       bool          // Include full SQL in spans; leaks check payloads, dev only
	SlowQueryThresh  time.Duration // Threshold for flagging slow queries (default: 200ms)
	DBSystem         string        // Database system name (default: "postgresql")
	WithoutVariables bool          // Exclude bind variables from the recorded SQL
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, bind
// variables stripped.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin wraps otelgorm and layers slow-query detection on top of
// the spans it creates for check-log reads and writes.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs otelgorm plus the timing callbacks on the GORM
// instance. A disabled config is a no-op.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerTimingCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerTimingCallbacks stamps the query start time before each operation
// and inspects the resulting span after it.
func (p *DBTracingPlugin) registerTimingCallbacks(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("db_tracing:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("db_tracing:after_create", p.inspectSpan); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("db_tracing:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("db_tracing:after_query", p.inspectSpan); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("db_tracing:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("db_tracing:after_update", p.inspectSpan); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("db_tracing:before_delete", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("db_tracing:after_delete", p.inspectSpan); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("db_tracing:before_raw", before); err != nil {
		return err
	}
	if err := db.Callback().Raw().After("gorm:raw").Register("db_tracing:after_raw", p.inspectSpan); err != nil {
		return err
	}
	return nil
}

// inspectSpan annotates the otelgorm span with row counts and flags slow or
// failed statements.
func (p *DBTracingPlugin) inspectSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"
