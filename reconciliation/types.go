/*
Package reconciliation implements batch matching between internal
ledger records and an external statement (bank or gateway), with a
resolvable item-level workflow.
*/
package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/ledger"
)

type BatchID string
type ItemID string

type BatchStatus string

const (
	BatchRunning   BatchStatus = "RUNNING"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchCancelled BatchStatus = "CANCELLED"
)

// Batch is one reconciliation run over a date range.
type Batch struct {
	ID         BatchID
	TenantID   ledger.TenantID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      BatchStatus
	CreatedBy   string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type MatchStatus string

const (
	MatchMatched          MatchStatus = "MATCHED"
	MatchMissingInternal  MatchStatus = "MISSING_INTERNAL" // external record has no internal counterpart
	MatchMissingExternal  MatchStatus = "MISSING_EXTERNAL" // internal record has no external counterpart
	MatchAmountMismatch   MatchStatus = "AMOUNT_MISMATCH"
)

type ResolutionStatus string

const (
	ResolutionUnresolved ResolutionStatus = "UNRESOLVED"
	ResolutionResolved   ResolutionStatus = "RESOLVED"
	ResolutionIgnored    ResolutionStatus = "IGNORED"
)

// Item is one line of a reconciliation batch: the pairing (or
// non-pairing) of one internal transaction with one external record.
type Item struct {
	ID                  ItemID
	BatchID             BatchID
	TenantID            ledger.TenantID
	InternalTransactionID string
	ExternalReference     string
	InternalAmount        decimal.Decimal
	ExternalAmount        decimal.Decimal
	MatchStatus           MatchStatus
	ResolutionStatus      ResolutionStatus
	ResolutionNotes       string
	ResolvedBy            string
	ResolvedAt            *time.Time
}

// ExternalRecord is one row from the external statement being
// reconciled against the ledger.
type ExternalRecord struct {
	Reference string
	Amount    decimal.Decimal
}
