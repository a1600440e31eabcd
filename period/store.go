package period

import (
	"context"
	"time"

	"github.com/nodalpay/paycore/ledger"
)

// Store is the persistence boundary for periods, locks, and override
// requests. Implemented by store/sqlite alongside ledger.Store.
type Store interface {
	InsertPeriod(ctx context.Context, p Period) error
	UpdatePeriodStatus(ctx context.Context, tenant ledger.TenantID, id PeriodID, status PeriodStatus, closedBy string, closedAt time.Time) error
	GetPeriod(ctx context.Context, tenant ledger.TenantID, id PeriodID) (*Period, error)
	LatestPeriod(ctx context.Context, tenant ledger.TenantID, periodType PeriodType) (*Period, error)
	PeriodCovering(ctx context.Context, tenant ledger.TenantID, periodType PeriodType, date time.Time) (*Period, error)

	InsertLock(ctx context.Context, l Lock) error
	ReleaseLock(ctx context.Context, tenant ledger.TenantID, id LockID, releasedBy string, releasedAt time.Time) error
	GetLock(ctx context.Context, tenant ledger.TenantID, id LockID) (*Lock, error)
	ActiveLocksCovering(ctx context.Context, tenant ledger.TenantID, date time.Time) ([]Lock, error)

	InsertOverrideRequest(ctx context.Context, o OverrideRequest) error
	GetOverrideRequest(ctx context.Context, tenant ledger.TenantID, id OverrideID) (*OverrideRequest, error)
	DecideOverrideRequest(ctx context.Context, tenant ledger.TenantID, id OverrideID, status OverrideStatus, approverID, approverRole, note string, decidedAt time.Time) error
	ConsumeOverrideRequest(ctx context.Context, tenant ledger.TenantID, id OverrideID, consumedAt time.Time) error

	AppendAudit(ctx context.Context, entry ledger.AuditEntry) error
}
