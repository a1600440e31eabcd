package reconciliation

import (
	"context"

	"github.com/nodalpay/paycore/ledger"
)

// Store is the persistence boundary for reconciliation batches and
// items.
type Store interface {
	InsertBatch(ctx context.Context, b Batch) error
	UpdateBatchStatus(ctx context.Context, tenant ledger.TenantID, id BatchID, status BatchStatus) error
	GetBatch(ctx context.Context, tenant ledger.TenantID, id BatchID) (*Batch, error)

	InsertItems(ctx context.Context, items []Item) error
	UpdateItem(ctx context.Context, item Item) error
	GetItem(ctx context.Context, tenant ledger.TenantID, id ItemID) (*Item, error)
	ItemsForBatch(ctx context.Context, tenant ledger.TenantID, batchID BatchID) ([]Item, error)

	AppendAudit(ctx context.Context, entry ledger.AuditEntry) error
}
