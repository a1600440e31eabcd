/*
Package period implements the accounting period lifecycle and the
ledger locks that gate posting: OPEN -> SOFT_CLOSED -> HARD_CLOSED is a
one-way, graduated closure, and an active lock of any kind blocks
ordinary posting until it is released. Posting past an AUDIT_LOCK or
RECONCILIATION_LOCK takes a consumed approved override (the lock stays
active); a PERIOD_LOCK accepts no override.

DEPENDENCY:
  period depends on ledger only for its AuditEntry/Store shape (every
  period and lock mutation writes an audit row through the same
  ledger.Store.AppendAudit contract the ledger core uses) and for
  TenantID - it never posts ledger transactions itself.
*/
package period

import (
	"time"

	"github.com/nodalpay/paycore/ledger"
)

type PeriodID string
type LockID string
type OverrideID string

type PeriodType string

const (
	PeriodDaily   PeriodType = "DAILY"
	PeriodMonthly PeriodType = "MONTHLY"
)

type PeriodStatus string

const (
	PeriodOpen        PeriodStatus = "OPEN"
	PeriodSoftClosed  PeriodStatus = "SOFT_CLOSED"
	PeriodHardClosed  PeriodStatus = "HARD_CLOSED"
)

// Period is one accounting window for a tenant.
type Period struct {
	ID         PeriodID
	TenantID   ledger.TenantID
	Type       PeriodType
	StartDate  time.Time
	EndDate    time.Time
	Status     PeriodStatus
	ClosedBy   string
	ClosedAt   *time.Time
	CreatedAt  time.Time
}

type LockType string

const (
	LockPeriod          LockType = "PERIOD_LOCK"
	LockAudit           LockType = "AUDIT_LOCK"
	LockReconciliation  LockType = "RECONCILIATION_LOCK"
)

type LockStatus string

const (
	LockActive   LockStatus = "ACTIVE"
	LockReleased LockStatus = "RELEASED"
)

// Lock gates posting for a tenant's date range. A PERIOD_LOCK is
// auto-created when its owning period hard-closes; AUDIT_LOCK and
// RECONCILIATION_LOCK are applied explicitly.
type Lock struct {
	ID          LockID
	TenantID    ledger.TenantID
	Type        LockType
	StartDate   time.Time
	EndDate     time.Time
	Status      LockStatus
	Reason      string
	AppliedBy   string
	CreatedAt   time.Time
	ReleasedBy  string
	ReleasedAt  *time.Time
}

type OverrideStatus string

const (
	OverridePending  OverrideStatus = "PENDING"
	OverrideApproved OverrideStatus = "APPROVED"
	OverrideRejected OverrideStatus = "REJECTED"
	OverrideConsumed OverrideStatus = "CONSUMED"
)

// OverrideRequest is a request to post past an AUDIT_LOCK or
// RECONCILIATION_LOCK; requests against a PERIOD_LOCK (and so a
// hard-closed period) are rejected. It requires dual confirmation: the approver must be a
// different actor, and must hold a distinct role, from the requestor.
type OverrideRequest struct {
	ID            OverrideID
	TenantID      ledger.TenantID
	LockID        LockID
	RequestorID   string
	RequestorRole string
	Reason        string
	Status        OverrideStatus
	ApproverID    string
	ApproverRole  string
	DecisionNote  string
	CreatedAt     time.Time
	DecidedAt     *time.Time
	ConsumedAt    *time.Time
}

// ApprovedOverride is the one-time-use token handed to an event
// handler once an override has been approved. Consuming it (via
// Controller.ConsumeOverride) is what actually permits a post against
// a locked date; holding one that hasn't been consumed permits
// nothing by itself.
type ApprovedOverride struct {
	ID       OverrideID
	TenantID ledger.TenantID
	LockID   LockID
}

// PostingCheck is the result of CheckPeriodForPosting.
type PostingCheck struct {
	Allowed         bool
	RequiresOverride bool
	BlockingLock    *Lock
	Period          *Period
}
