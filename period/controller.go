/*
controller.go - period lifecycle, locks, and the override workflow

Mirrors timeoff's request/approval flow: a request is created by one
actor and decided by another, and the decision is the only mutation
the record ever receives besides being consumed.
*/
package period

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/dbtx"
	"github.com/nodalpay/paycore/ledger"
)

// Controller is the period/lock/override service.
type Controller struct {
	store Store
	tx    dbtx.Beginner
	cfg   config.Config
	now   func() int64
}

func New(store Store, tx dbtx.Beginner, cfg config.Config, now func() int64) *Controller {
	return &Controller{store: store, tx: tx, cfg: cfg, now: now}
}

// CreatePeriod opens a new accounting period. If a prior period of the
// same type exists, its EndDate must not leave a gap to the new
// period's StartDate larger than config.PeriodGapToleranceDays.
func (c *Controller) CreatePeriod(ctx context.Context, tenant ledger.TenantID, periodType PeriodType, start, end time.Time) (Period, error) {
	prior, err := c.store.LatestPeriod(ctx, tenant, periodType)
	if err != nil {
		return Period{}, fmt.Errorf("loading prior period: %w", err)
	}
	if prior != nil {
		gap := start.Sub(prior.EndDate)
		tolerance := time.Duration(c.cfg.PeriodGapToleranceDays) * 24 * time.Hour
		if gap > tolerance {
			return Period{}, ErrPeriodGapTooLarge
		}
	}

	p := Period{
		ID:        PeriodID(uuid.NewString()),
		TenantID:  tenant,
		Type:      periodType,
		StartDate: start,
		EndDate:   end,
		Status:    PeriodOpen,
		CreatedAt: nanoToTime(c.now()),
	}
	if err := c.store.InsertPeriod(ctx, p); err != nil {
		return Period{}, fmt.Errorf("inserting period: %w", err)
	}
	return p, nil
}

// ClosePeriod advances a period one step along OPEN -> SOFT_CLOSED ->
// HARD_CLOSED. Hard-closing auto-creates a PERIOD_LOCK covering the
// period's date range, in the same transaction as the status change.
func (c *Controller) ClosePeriod(ctx context.Context, tenant ledger.TenantID, id PeriodID, target PeriodStatus, actor string) (Period, error) {
	var result Period
	err := c.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := c.store.GetPeriod(ctx, tenant, id)
		if err != nil {
			return fmt.Errorf("loading period: %w", err)
		}
		if p == nil {
			return ErrPeriodNotFound
		}
		if p.Status == PeriodHardClosed {
			return ErrPeriodAlreadyClosed
		}
		if !isValidClosureStep(p.Status, target) {
			return &TransitionError{From: p.Status, To: target}
		}
		previousStatus := p.Status

		closedAt := nanoToTime(c.now())
		if err := c.store.UpdatePeriodStatus(ctx, tenant, id, target, actor, closedAt); err != nil {
			return fmt.Errorf("updating period status: %w", err)
		}
		p.Status = target
		p.ClosedBy = actor
		p.ClosedAt = &closedAt

		if target == PeriodHardClosed {
			lock := Lock{
				ID:        LockID(uuid.NewString()),
				TenantID:  tenant,
				Type:      LockPeriod,
				StartDate: p.StartDate,
				EndDate:   p.EndDate,
				Status:    LockActive,
				Reason:    "auto-created on hard close of period " + string(p.ID),
				AppliedBy: actor,
				CreatedAt: closedAt,
			}
			if err := c.store.InsertLock(ctx, lock); err != nil {
				return fmt.Errorf("auto-creating period lock: %w", err)
			}
		}

		if err := c.store.AppendAudit(ctx, ledger.AuditEntry{
			TenantID:   tenant,
			EntityType: "accounting_period",
			EntityID:   string(id),
			Action:     "close:" + string(target),
			Before:     map[string]any{"status": string(previousStatus)},
			After:      map[string]any{"status": string(target)},
			ActorID:    actor,
			CreatedAt:  c.now(),
		}); err != nil {
			return fmt.Errorf("writing audit entry: %w", err)
		}

		result = *p
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	return result, nil
}

// CheckPeriodForPosting reports whether a ledger post dated `date` may
// proceed without an override, and if not, whether an override could
// cover it. A HARD_CLOSED period, and any PERIOD_LOCK covering the
// date (whether auto-created by hard-close or applied directly), never
// accept an override - RequiresOverride is false in both cases, per
// spec: "HARD_CLOSED: posting_allowed = false, override_required =
// false (no override accepted)". Only a SOFT_CLOSED period, or an
// AUDIT_LOCK/RECONCILIATION_LOCK with no PERIOD_LOCK also covering the
// date, leaves RequiresOverride true.
func (c *Controller) CheckPeriodForPosting(ctx context.Context, tenant ledger.TenantID, periodType PeriodType, date time.Time) (PostingCheck, error) {
	p, err := c.store.PeriodCovering(ctx, tenant, periodType, date)
	if err != nil {
		return PostingCheck{}, fmt.Errorf("loading covering period: %w", err)
	}
	locks, err := c.store.ActiveLocksCovering(ctx, tenant, date)
	if err != nil {
		return PostingCheck{}, fmt.Errorf("loading active locks: %w", err)
	}

	hardClosed := p != nil && p.Status == PeriodHardClosed

	if len(locks) > 0 {
		blocking := locks[0]
		for _, cand := range locks {
			if cand.Type == LockPeriod {
				blocking = cand
				break
			}
		}
		if blocking.Type == LockPeriod || hardClosed {
			return PostingCheck{Allowed: false, RequiresOverride: false, BlockingLock: &blocking, Period: p}, nil
		}
		return PostingCheck{Allowed: false, RequiresOverride: true, BlockingLock: &blocking, Period: p}, nil
	}
	if hardClosed {
		return PostingCheck{Allowed: false, RequiresOverride: false, Period: p}, nil
	}
	if p != nil && p.Status != PeriodOpen {
		return PostingCheck{Allowed: false, RequiresOverride: true, Period: p}, nil
	}
	return PostingCheck{Allowed: true, Period: p}, nil
}

// ApplyLock places an explicit AUDIT_LOCK or RECONCILIATION_LOCK over a
// date range.
func (c *Controller) ApplyLock(ctx context.Context, tenant ledger.TenantID, lockType LockType, start, end time.Time, reason, actor string) (Lock, error) {
	l := Lock{
		ID:        LockID(uuid.NewString()),
		TenantID:  tenant,
		Type:      lockType,
		StartDate: start,
		EndDate:   end,
		Status:    LockActive,
		Reason:    reason,
		AppliedBy: actor,
		CreatedAt: nanoToTime(c.now()),
	}
	if err := c.store.InsertLock(ctx, l); err != nil {
		return Lock{}, fmt.Errorf("inserting lock: %w", err)
	}
	return l, nil
}

// ReleaseLock deactivates a lock.
func (c *Controller) ReleaseLock(ctx context.Context, tenant ledger.TenantID, id LockID, actor string) error {
	l, err := c.store.GetLock(ctx, tenant, id)
	if err != nil {
		return fmt.Errorf("loading lock: %w", err)
	}
	if l == nil {
		return ErrLockNotFound
	}
	if l.Status != LockActive {
		return ErrLockAlreadyReleased
	}
	return c.store.ReleaseLock(ctx, tenant, id, actor, nanoToTime(c.now()))
}

// CheckLockStatus returns a lock by id.
func (c *Controller) CheckLockStatus(ctx context.Context, tenant ledger.TenantID, id LockID) (*Lock, error) {
	return c.store.GetLock(ctx, tenant, id)
}

// =============================================================================
// OVERRIDE WORKFLOW - dual confirmation required
// =============================================================================

const minJustificationLength = 10

// RequestOverride files a request to post against a locked date. reason
// is the requestor's written justification and must be at least
// minJustificationLength characters. A PERIOD_LOCK never accepts an
// override - per spec a hard-closed period is final - so filing a
// request against one is rejected outright, before it ever reaches an
// approver.
func (c *Controller) RequestOverride(ctx context.Context, tenant ledger.TenantID, lockID LockID, requestorID, requestorRole, reason string) (OverrideRequest, error) {
	if len(reason) < minJustificationLength {
		return OverrideRequest{}, ErrJustificationTooShort
	}
	l, err := c.store.GetLock(ctx, tenant, lockID)
	if err != nil {
		return OverrideRequest{}, fmt.Errorf("loading lock: %w", err)
	}
	if l == nil {
		return OverrideRequest{}, ErrLockNotFound
	}
	if l.Type == LockPeriod {
		return OverrideRequest{}, ErrOverrideNotAllowedForPeriodLock
	}
	o := OverrideRequest{
		ID:            OverrideID(uuid.NewString()),
		TenantID:      tenant,
		LockID:        lockID,
		RequestorID:   requestorID,
		RequestorRole: requestorRole,
		Reason:        reason,
		Status:        OverridePending,
		CreatedAt:     nanoToTime(c.now()),
	}
	if err := c.store.InsertOverrideRequest(ctx, o); err != nil {
		return OverrideRequest{}, fmt.Errorf("inserting override request: %w", err)
	}
	return o, nil
}

// ApproveOverride decides a pending request. The approver must be a
// distinct actor holding a distinct role from the requestor - self
// approval, or same-role approval, is always rejected regardless of
// who calls this method.
func (c *Controller) ApproveOverride(ctx context.Context, tenant ledger.TenantID, id OverrideID, approverID, approverRole, note string) (OverrideRequest, error) {
	return c.decide(ctx, tenant, id, OverrideApproved, approverID, approverRole, note)
}

// RejectOverride decides a pending request as rejected. Unlike
// approval, rejection does not require a distinct role, since no
// posting authority is being granted.
func (c *Controller) RejectOverride(ctx context.Context, tenant ledger.TenantID, id OverrideID, approverID, approverRole, note string) (OverrideRequest, error) {
	o, err := c.store.GetOverrideRequest(ctx, tenant, id)
	if err != nil {
		return OverrideRequest{}, fmt.Errorf("loading override request: %w", err)
	}
	if o == nil {
		return OverrideRequest{}, ErrOverrideNotFound
	}
	if o.Status != OverridePending {
		return OverrideRequest{}, ErrOverrideNotPending
	}
	if approverID == o.RequestorID {
		return OverrideRequest{}, ErrSelfApproval
	}
	decidedAt := nanoToTime(c.now())
	if err := c.store.DecideOverrideRequest(ctx, tenant, id, OverrideRejected, approverID, approverRole, note, decidedAt); err != nil {
		return OverrideRequest{}, fmt.Errorf("recording rejection: %w", err)
	}
	o.Status = OverrideRejected
	o.ApproverID = approverID
	o.ApproverRole = approverRole
	o.DecisionNote = note
	o.DecidedAt = &decidedAt
	return *o, nil
}

func (c *Controller) decide(ctx context.Context, tenant ledger.TenantID, id OverrideID, status OverrideStatus, approverID, approverRole, note string) (OverrideRequest, error) {
	o, err := c.store.GetOverrideRequest(ctx, tenant, id)
	if err != nil {
		return OverrideRequest{}, fmt.Errorf("loading override request: %w", err)
	}
	if o == nil {
		return OverrideRequest{}, ErrOverrideNotFound
	}
	if o.Status != OverridePending {
		return OverrideRequest{}, ErrOverrideNotPending
	}
	if approverID == o.RequestorID {
		return OverrideRequest{}, ErrSelfApproval
	}
	if approverRole == o.RequestorRole {
		return OverrideRequest{}, ErrSameRole
	}

	decidedAt := nanoToTime(c.now())
	if err := c.store.DecideOverrideRequest(ctx, tenant, id, status, approverID, approverRole, note, decidedAt); err != nil {
		return OverrideRequest{}, fmt.Errorf("recording decision: %w", err)
	}
	o.Status = status
	o.ApproverID = approverID
	o.ApproverRole = approverRole
	o.DecisionNote = note
	o.DecidedAt = &decidedAt
	return *o, nil
}

// ConsumeOverride validates that the given request is APPROVED and not
// yet consumed, marks it consumed, and returns a one-time-use token an
// event handler can present when posting. Must be called inside the
// same dbtx.Beginner.WithTx scope as the ledger post it authorizes, so
// a failed post leaves the override unconsumed.
func (c *Controller) ConsumeOverride(ctx context.Context, tenant ledger.TenantID, id OverrideID) (*ApprovedOverride, error) {
	o, err := c.store.GetOverrideRequest(ctx, tenant, id)
	if err != nil {
		return nil, fmt.Errorf("loading override request: %w", err)
	}
	if o == nil {
		return nil, ErrOverrideNotFound
	}
	if o.Status == OverrideConsumed {
		return nil, ErrOverrideAlreadyConsumed
	}
	if o.Status != OverrideApproved {
		return nil, ErrOverrideNotApproved
	}
	l, err := c.store.GetLock(ctx, tenant, o.LockID)
	if err != nil {
		return nil, fmt.Errorf("loading lock: %w", err)
	}
	if l != nil && l.Type == LockPeriod {
		return nil, ErrOverrideNotAllowedForPeriodLock
	}
	if err := c.store.ConsumeOverrideRequest(ctx, tenant, id, nanoToTime(c.now())); err != nil {
		return nil, fmt.Errorf("consuming override: %w", err)
	}
	return &ApprovedOverride{ID: o.ID, TenantID: tenant, LockID: o.LockID}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isValidClosureStep(from, to PeriodStatus) bool {
	switch from {
	case PeriodOpen:
		return to == PeriodSoftClosed
	case PeriodSoftClosed:
		return to == PeriodHardClosed
	default:
		return false
	}
}

func nanoToTime(nano int64) time.Time { return time.Unix(0, nano).UTC() }
