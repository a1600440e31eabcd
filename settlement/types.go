/*
Package settlement implements the settlement state machine:
CREATED -> FUNDS_RESERVED -> SENT_TO_BANK -> BANK_CONFIRMED -> SETTLED,
with FAILED reachable from any non-terminal state and a bounded
FAILED -> RETRIED -> FUNDS_RESERVED retry loop. A settlement is final
only once it is SETTLED *and* carries a non-empty UTR - BANK_CONFIRMED
is never treated as final, no matter how long it has sat there.
*/
package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/ledger"
)

type SettlementID string

type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusFundsReserved  Status = "FUNDS_RESERVED"
	StatusSentToBank     Status = "SENT_TO_BANK"
	StatusBankConfirmed  Status = "BANK_CONFIRMED"
	StatusSettled        Status = "SETTLED"
	StatusFailed         Status = "FAILED"
	StatusRetried        Status = "RETRIED"
)

// Settlement is one payout cycle for a merchant.
type Settlement struct {
	ID            SettlementID
	TenantID      ledger.TenantID
	MerchantID    string
	Amount        decimal.Decimal
	Currency      string
	Status        Status
	UTR           string
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFinal reports whether the settlement has reached its one true
// terminal state: SETTLED with a populated UTR.
func (s Settlement) IsFinal() bool {
	return s.Status == StatusSettled && s.UTR != ""
}

// StateTransition is one append-only row of the settlement's history.
type StateTransition struct {
	ID           string
	SettlementID SettlementID
	From         Status
	To           Status
	Reason       string
	ActorID      string
	CreatedAt    time.Time
}
