package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/bundle"
	"github.com/bundlecheck/backend/internal/domain/catalog"
	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/infrastructure/logger"
	"github.com/bundlecheck/backend/internal/infrastructure/telemetry"
)

// VariantResolver resolves a SKU to its platform variant identity.
type VariantResolver interface {
	Resolve(ctx context.Context, sku string) (*availability.ResolvedVariant, error)
}

// CheckService answers bundle availability questions. It is strictly
// read-only against the platform: the verdict reflects inventory at the
// moment of the check and nothing is reserved.
type CheckService struct {
	catalog  *catalog.Catalog
	resolver VariantResolver
	platform commerce.Platform

	checkLogs availability.CheckLogRepository
	metrics   *telemetry.CheckMetrics
}

// NewCheckService creates a new CheckService
func NewCheckService(cat *catalog.Catalog, resolver VariantResolver, platform commerce.Platform) *CheckService {
	return &CheckService{
		catalog:  cat,
		resolver: resolver,
		platform: platform,
	}
}

// SetCheckLogRepository sets the audit trail repository (optional).
// Saves are best-effort: a write failure never fails the check.
func (s *CheckService) SetCheckLogRepository(repo availability.CheckLogRepository) {
	s.checkLogs = repo
}

// SetMetrics sets the domain metrics recorder (optional)
func (s *CheckService) SetMetrics(metrics *telemetry.CheckMetrics) {
	s.metrics = metrics
}

// Check runs the full availability decision for one bundle: parse the cart
// lines, derive each item's lookup key, resolve the SKU to a platform
// variant, aggregate its per-location levels, and combine the per-item
// verdicts.
func (s *CheckService) Check(ctx context.Context, shopDomain string, req CheckBundleRequest) (*CheckResponse, error) {
	checkID := uuid.New()
	start := time.Now()

	ctx, span := telemetry.StartServiceSpan(ctx, "availability", "check")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCheckID, checkID.String(),
		telemetry.SpanAttrShopDomain, shopDomain,
	)

	ctx, _ = logger.WithCheckID(ctx, logger.FromContext(ctx), checkID.String())
	log := logger.L(ctx)

	decision, err := s.decide(ctx, span, req)
	duration := time.Since(start)

	if err != nil {
		telemetry.RecordError(span, err)
		s.recordCheck(ctx, shopDomain, telemetry.VerdictError, duration)
		log.Warn("Bundle check failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, err
	}

	verdict := telemetry.VerdictAvailable
	if !decision.Available {
		verdict = telemetry.VerdictUnavailable
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrVerdict, verdict,
		telemetry.SpanAttrReason, decision.Reason,
	)
	telemetry.SetOK(span)
	s.recordCheck(ctx, shopDomain, verdict, duration)

	log.Info("Bundle check decided",
		zap.Bool("available", decision.Available),
		zap.String("reason", decision.Reason),
		zap.Duration("duration", duration),
	)

	s.saveRecord(ctx, checkID, shopDomain, *decision, duration)

	return &CheckResponse{
		CheckID:   checkID,
		Available: decision.Available,
		Reason:    decision.Reason,
		Items:     toItemResponses(decision.Items),
	}, nil
}

// decide walks the bundle items and produces the combined verdict.
func (s *CheckService) decide(ctx context.Context, span trace.Span, req CheckBundleRequest) (*availability.Decision, error) {
	lines := make([]bundle.LineItem, len(req.Items))
	for i, item := range req.Items {
		props := make([]bundle.Property, len(item.Properties))
		for j, p := range item.Properties {
			props[j] = bundle.Property{Name: p.Name, Value: p.Value}
		}
		// A line without an explicit quantity asks for one unit.
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		lines[i] = bundle.LineItem{
			ProductHandle: item.ProductHandle,
			Quantity:      decimal.NewFromInt(quantity),
			Properties:    props,
		}
	}

	b, err := bundle.NewBundle(lines)
	if err != nil {
		return nil, err
	}

	items := make([]availability.ItemDecision, 0, bundle.BundleSize)
	for _, line := range b.Items {
		item, err := s.decideItem(ctx, span, line)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	decision := availability.Decide(items)
	return &decision, nil
}

// decideItem resolves one bundle line down to its per-item verdict.
func (s *CheckService) decideItem(ctx context.Context, span trace.Span, line bundle.LineItem) (*availability.ItemDecision, error) {
	selection, err := line.Selection()
	if err != nil {
		return nil, err
	}

	optionOrder, err := s.catalog.OptionOrder(line.ProductHandle)
	if err != nil {
		return nil, err
	}
	lookupKey := selection.LookupKey(optionOrder)

	sku, err := s.catalog.ResolveSKU(line.ProductHandle, lookupKey)
	if err != nil {
		return nil, err
	}

	variant, err := s.resolver.Resolve(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("check item %q: %w", line.ProductHandle, err)
	}

	telemetry.AddEvent(span, "variant_resolved",
		telemetry.SpanAttrProductHandle, line.ProductHandle,
		telemetry.SpanAttrLookupKey, lookupKey,
		telemetry.SpanAttrSKU, sku,
		telemetry.SpanAttrVariantID, variant.VariantID,
		telemetry.SpanAttrQuantity, line.Quantity.String(),
	)

	// Untracked variants sell regardless of levels, skip the upstream call.
	var levels []commerce.InventoryLevel
	if variant.TrackingMode.Tracked() {
		levels, err = s.platform.ListInventoryLevels(ctx, variant.InventoryItemID)
		if err != nil {
			return nil, fmt.Errorf("check item %q: %w", line.ProductHandle, err)
		}
	}

	item := availability.DecideItem(line.ProductHandle, sku, *variant, line.Quantity, levels)
	return &item, nil
}

// ListChecks returns the audit trail for a shop, newest first.
func (s *CheckService) ListChecks(ctx context.Context, filter CheckLogListFilter) (*CheckLogListResponse, error) {
	if s.checkLogs == nil {
		return nil, availability.ErrCheckLogDisabled
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	records, total, err := s.checkLogs.List(ctx, filter.ShopDomain, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list check logs: %w", err)
	}

	items := make([]CheckLogResponse, len(records))
	for i, record := range records {
		items[i] = toCheckLogResponse(record)
	}

	return &CheckLogListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *CheckService) recordCheck(ctx context.Context, shopDomain, verdict string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCheck(ctx, shopDomain, verdict, duration)
}

// saveRecord writes the audit trail entry. Failures are logged and dropped:
// the verdict has already been produced and the caller gets it regardless.
func (s *CheckService) saveRecord(ctx context.Context, checkID uuid.UUID, shopDomain string, decision availability.Decision, duration time.Duration) {
	if s.checkLogs == nil {
		return
	}
	record := availability.NewCheckRecord(shopDomain, logger.GetRequestID(ctx), decision, duration)
	record.ID = checkID
	if err := s.checkLogs.Save(ctx, record); err != nil {
		logger.L(ctx).Error("Failed to save check record", zap.Error(err))
	}
}
