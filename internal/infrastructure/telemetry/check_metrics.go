// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CheckMetrics provides metrics for the bundle availability pipeline.
// It tracks check verdicts, variant resolution work, cache effectiveness,
// and upstream platform latency.
type CheckMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	checkTotal         *Counter
	resolverScanPages  *Counter
	cacheLookupTotal   *Counter
	upstreamErrorTotal *Counter

	// Histogram metrics (distributions)
	checkDuration    *Histogram
	upstreamDuration *Histogram
}

// CheckMetricsConfig holds configuration for availability check metrics.
type CheckMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewCheckMetrics creates a new CheckMetrics instance.
func NewCheckMetrics(cfg CheckMetricsConfig) (*CheckMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CheckMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	cm.checkTotal, err = NewCounter(
		cfg.Meter,
		"bundlecheck_check_total",
		"Total number of bundle availability checks by verdict",
		"{checks}",
	)
	if err != nil {
		return nil, err
	}

	cm.resolverScanPages, err = NewCounter(
		cfg.Meter,
		"bundlecheck_resolver_scan_pages_total",
		"Total number of catalog pages fetched while resolving SKUs",
		"{pages}",
	)
	if err != nil {
		return nil, err
	}

	cm.cacheLookupTotal, err = NewCounter(
		cfg.Meter,
		"bundlecheck_variant_cache_lookup_total",
		"Total number of variant cache lookups by result",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	cm.upstreamErrorTotal, err = NewCounter(
		cfg.Meter,
		"bundlecheck_upstream_error_total",
		"Total number of failed upstream platform calls",
		"{errors}",
	)
	if err != nil {
		return nil, err
	}

	cm.checkDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bundlecheck_check_duration_seconds",
		Description: "End to end availability check latency distribution",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	cm.upstreamDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bundlecheck_upstream_duration_seconds",
		Description: "Upstream platform call latency distribution",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return cm, nil
}

// Verdict labels for check metrics.
const (
	VerdictAvailable   = "available"
	VerdictUnavailable = "unavailable"
	VerdictError       = "error"
)

// Cache result labels for variant cache metrics.
const (
	CacheResultHit   = "hit"
	CacheResultMiss  = "miss"
	CacheResultError = "error"
)

// RecordCheck records a finished availability check.
func (cm *CheckMetrics) RecordCheck(ctx context.Context, shopDomain, verdict string, duration time.Duration) {
	cm.checkTotal.Inc(ctx,
		AttrShopDomain.String(shopDomain),
		AttrVerdict.String(verdict),
	)
	cm.checkDuration.RecordDuration(ctx,
		duration,
		AttrVerdict.String(verdict),
	)
}

// RecordScanPages records the number of catalog pages fetched for one SKU resolution.
func (cm *CheckMetrics) RecordScanPages(ctx context.Context, sku string, pages int64) {
	if pages <= 0 {
		return
	}
	cm.resolverScanPages.Add(ctx, pages, AttrSKU.String(sku))
}

// RecordCacheLookup records one variant cache lookup outcome.
func (cm *CheckMetrics) RecordCacheLookup(ctx context.Context, backend, result string) {
	cm.cacheLookupTotal.Inc(ctx,
		AttrCacheBackend.String(backend),
		AttrCacheResult.String(result),
	)
}

// RecordUpstreamCall records the latency of one upstream platform call.
func (cm *CheckMetrics) RecordUpstreamCall(ctx context.Context, operation string, duration time.Duration, err error) {
	cm.upstreamDuration.RecordDuration(ctx,
		duration,
		AttrUpstreamOp.String(operation),
	)
	if err != nil {
		cm.upstreamErrorTotal.Inc(ctx, AttrUpstreamOp.String(operation))
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCheckMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
