package settlement

import (
	"context"
	"time"

	"github.com/nodalpay/paycore/ledger"
)

// Store is the persistence boundary for settlements and their state
// transition history. Implemented by store/sqlite alongside
// ledger.Store and period.Store.
type Store interface {
	InsertSettlement(ctx context.Context, s Settlement) error
	GetSettlement(ctx context.Context, tenant ledger.TenantID, id SettlementID) (*Settlement, error)
	UpdateSettlement(ctx context.Context, s Settlement) error
	InsertStateTransition(ctx context.Context, t StateTransition) error

	// SettlementsDueForRetry returns a tenant's FAILED settlements whose
	// NextRetryAt has elapsed and whose RetryCount is below MaxRetries,
	// for the retry worker's poll loop. Every query in this Store is
	// tenant-scoped; this one is no exception.
	SettlementsDueForRetry(ctx context.Context, tenant ledger.TenantID, asOf time.Time) ([]Settlement, error)

	AppendAudit(ctx context.Context, entry ledger.AuditEntry) error
}
