/*
engine.go - batch matching and item resolution

Grounded in generic/snapshot.go's diff-against-persisted-state shape:
here the "persisted state" is the ledger's posted transactions and the
"incoming state" is the external statement, and the diff classifies
each side into matched / missing_internal / missing_external /
amount_mismatch.
*/
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/ledger"
)

// Engine runs reconciliation batches against the ledger core.
type Engine struct {
	store  Store
	ledger *ledger.Ledger
	cfg    config.Config
	now    func() int64
}

func New(store Store, l *ledger.Ledger, cfg config.Config, now func() int64) *Engine {
	return &Engine{store: store, ledger: l, cfg: cfg, now: now}
}

// InternalRecord pairs a posted transaction with the amount the
// reconciliation should compare it against (usually its gross Amount).
type InternalRecord struct {
	TransactionID string
	Amount        ledger.Entry
}

// RunBatch matches a set of internal transaction references against an
// external statement and persists the resulting batch and items.
func (e *Engine) RunBatch(ctx context.Context, tenant ledger.TenantID, periodStart, periodEnd time.Time, internal []InternalRecord, external []ExternalRecord, actor string) (Batch, []Item, error) {
	batch := Batch{
		ID:          BatchID(uuid.NewString()),
		TenantID:    tenant,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      BatchRunning,
		CreatedBy:   actor,
		CreatedAt:   time.Unix(0, e.now()).UTC(),
	}
	if err := e.store.InsertBatch(ctx, batch); err != nil {
		return Batch{}, nil, fmt.Errorf("inserting batch: %w", err)
	}

	externalByRef := make(map[string]ExternalRecord, len(external))
	for _, ext := range external {
		externalByRef[ext.Reference] = ext
	}
	matchedRefs := make(map[string]bool, len(external))

	items := make([]Item, 0, len(internal)+len(external))
	for _, in := range internal {
		item := Item{
			ID:                    ItemID(uuid.NewString()),
			BatchID:               batch.ID,
			TenantID:              tenant,
			InternalTransactionID: in.TransactionID,
			InternalAmount:        in.Amount.Amount,
			ResolutionStatus:      ResolutionUnresolved,
		}
		ext, ok := externalByRef[in.TransactionID]
		switch {
		case !ok:
			item.MatchStatus = MatchMissingExternal
		case !ext.Amount.Sub(in.Amount.Amount).Abs().LessThanOrEqual(e.cfg.BalanceTolerance):
			item.MatchStatus = MatchAmountMismatch
			item.ExternalReference = ext.Reference
			item.ExternalAmount = ext.Amount
			matchedRefs[ext.Reference] = true
		default:
			item.MatchStatus = MatchMatched
			item.ResolutionStatus = ResolutionResolved
			item.ExternalReference = ext.Reference
			item.ExternalAmount = ext.Amount
			matchedRefs[ext.Reference] = true
		}
		items = append(items, item)
	}

	for _, ext := range external {
		if matchedRefs[ext.Reference] {
			continue
		}
		items = append(items, Item{
			ID:               ItemID(uuid.NewString()),
			BatchID:          batch.ID,
			TenantID:         tenant,
			ExternalReference: ext.Reference,
			ExternalAmount:    ext.Amount,
			MatchStatus:       MatchMissingInternal,
			ResolutionStatus:  ResolutionUnresolved,
		})
	}

	if err := e.store.InsertItems(ctx, items); err != nil {
		return Batch{}, nil, fmt.Errorf("inserting items: %w", err)
	}

	completedAt := time.Unix(0, e.now()).UTC()
	if err := e.store.UpdateBatchStatus(ctx, tenant, batch.ID, BatchCompleted); err != nil {
		return Batch{}, nil, fmt.Errorf("completing batch: %w", err)
	}
	batch.Status = BatchCompleted
	batch.CompletedAt = &completedAt

	if err := e.store.AppendAudit(ctx, ledger.AuditEntry{
		TenantID:   tenant,
		EntityType: "reconciliation_batch",
		EntityID:   string(batch.ID),
		Action:     "run",
		After:      map[string]any{"item_count": len(items)},
		ActorID:    actor,
		CreatedAt:  e.now(),
	}); err != nil {
		return Batch{}, nil, fmt.Errorf("writing audit entry: %w", err)
	}

	return batch, items, nil
}

// CancelBatch marks a RUNNING batch CANCELLED. A COMPLETED batch
// cannot be cancelled.
func (e *Engine) CancelBatch(ctx context.Context, tenant ledger.TenantID, id BatchID, actor string) error {
	b, err := e.store.GetBatch(ctx, tenant, id)
	if err != nil {
		return fmt.Errorf("loading batch: %w", err)
	}
	if b == nil {
		return ErrBatchNotFound
	}
	if b.Status != BatchRunning {
		return ErrBatchNotCancellable
	}
	if err := e.store.UpdateBatchStatus(ctx, tenant, id, BatchCancelled); err != nil {
		return fmt.Errorf("cancelling batch: %w", err)
	}
	return e.store.AppendAudit(ctx, ledger.AuditEntry{
		TenantID:   tenant,
		EntityType: "reconciliation_batch",
		EntityID:   string(id),
		Action:     "cancel",
		ActorID:    actor,
		CreatedAt:  e.now(),
	})
}

// Resolve records a manual decision on one unmatched or mismatched
// item.
func (e *Engine) Resolve(ctx context.Context, tenant ledger.TenantID, itemID ItemID, resolution ResolutionStatus, notes, actor string) (Item, error) {
	item, err := e.store.GetItem(ctx, tenant, itemID)
	if err != nil {
		return Item{}, fmt.Errorf("loading item: %w", err)
	}
	if item == nil {
		return Item{}, ErrItemNotFound
	}
	if item.ResolutionStatus == ResolutionResolved && item.MatchStatus == MatchMatched {
		return Item{}, ErrItemAlreadyResolved
	}

	resolvedAt := time.Unix(0, e.now()).UTC()
	item.ResolutionStatus = resolution
	item.ResolutionNotes = notes
	item.ResolvedBy = actor
	item.ResolvedAt = &resolvedAt
	if err := e.store.UpdateItem(ctx, *item); err != nil {
		return Item{}, fmt.Errorf("updating item: %w", err)
	}
	if err := e.store.AppendAudit(ctx, ledger.AuditEntry{
		TenantID:   tenant,
		EntityType: "reconciliation_item",
		EntityID:   string(itemID),
		Action:     "resolve:" + string(resolution),
		Reason:     notes,
		ActorID:    actor,
		CreatedAt:  e.now(),
	}); err != nil {
		return Item{}, fmt.Errorf("writing audit entry: %w", err)
	}
	return *item, nil
}
