package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bundlecheck/backend/internal/domain/shared"
)

// ErrCheckLogDisabled indicates the audit trail is not configured.
var ErrCheckLogDisabled = shared.NewDomainError("CHECK_LOG_DISABLED", "Check logging is not enabled")

// CheckRecord is the audit trail entry for one bundle availability check.
// Records are written after the verdict is produced and are never part of
// the decision itself.
type CheckRecord struct {
	ID         uuid.UUID
	ShopDomain string
	RequestID  string
	Available  bool
	Reason     string
	Items      []ItemDecision
	Duration   time.Duration
	CreatedAt  time.Time
}

// NewCheckRecord builds an audit record from a finished decision.
func NewCheckRecord(shopDomain, requestID string, decision Decision, duration time.Duration) *CheckRecord {
	return &CheckRecord{
		ID:         uuid.New(),
		ShopDomain: shopDomain,
		RequestID:  requestID,
		Available:  decision.Available,
		Reason:     decision.Reason,
		Items:      decision.Items,
		Duration:   duration,
		CreatedAt:  time.Now().UTC(),
	}
}

// CheckLogRepository persists and queries availability check records.
type CheckLogRepository interface {
	// Save stores one check record.
	Save(ctx context.Context, record *CheckRecord) error
	// List returns records for a shop, newest first, with the total count.
	List(ctx context.Context, shopDomain string, page, pageSize int) ([]CheckRecord, int64, error)
}
