/*
Package ledger implements the double-entry accounting core: immutable,
idempotent, tenant-isolated, balance-enforced posting with reversal
semantics.

PURPOSE:
  The ledger is the source of truth for every financial effect the
  aggregator records. Every accrual of merchant payable, platform fee,
  gateway fee, and settlement is a Transaction made of two or more
  balanced Entries. There is no mutation of posted state other than the
  single posted -> reversed transition.

CRITICAL INVARIANTS:
  1. BALANCED: for every posted transaction, sum(debits) == sum(credits)
     within BalanceTolerance.
  2. IMMUTABLE: once posted, a transaction's entries never change.
  3. IDEMPOTENT: the same idempotency key posted twice returns the first
     result, marked as a duplicate; it never posts twice.
  4. TENANT-ISOLATED: every read and write is scoped by tenant_id.

CORRECTIONS:
  A posted transaction is never edited or deleted. A correction is a
  full sibling transaction - the reversal - with every entry_type
  swapped, referencing the original via ReversesTransactionID.

SEE ALSO:
  - store.go: persistence interface implemented by store/sqlite
  - ledger.go: PostTransaction / ReverseTransaction / balance queries
  - events: maps business events onto balanced entry sets
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - decimal amount with currency, never a bare float
// =============================================================================

// Money pairs a decimal amount with its ISO-4217 currency code.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func MoneyFromFloat(amount float64, currency string) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency} }
func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency} }
func (m Money) Neg() Money        { return Money{Amount: m.Amount.Neg(), Currency: m.Currency} }
func (m Money) IsZero() bool      { return m.Amount.IsZero() }
func (m Money) IsPositive() bool  { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool  { return m.Amount.IsNegative() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type AccountID string
type TransactionID string
type EntryID string

// =============================================================================
// ACCOUNT - immutable, seeded master record (not user-creatable at runtime)
// =============================================================================

type AccountType string

const (
	AccountTypeEscrow          AccountType = "escrow"
	AccountTypeMerchant        AccountType = "merchant"
	AccountTypeGateway         AccountType = "gateway"
	AccountTypePlatformRevenue AccountType = "platform_revenue"
)

type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

type AccountCategory string

const (
	CategoryAsset     AccountCategory = "asset"
	CategoryLiability AccountCategory = "liability"
	CategoryRevenue   AccountCategory = "revenue"
	CategoryExpense   AccountCategory = "expense"
)

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

// Account is an immutable, seeded chart-of-accounts entry. Accounts are
// resolved by Code at posting time; they are never created by request
// handlers.
type Account struct {
	ID            AccountID
	TenantID      TenantID
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	Category      AccountCategory
	GatewayName   string
	Status        AccountStatus
}

func (a Account) IsActive() bool { return a.Status == AccountStatusActive }

// =============================================================================
// TRANSACTION - a posting unit
// =============================================================================

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionPosted   TransactionStatus = "posted"
	TransactionReversed TransactionStatus = "reversed"
)

// Transaction is a posting unit: once Status == posted it is immutable
// except for the single posted -> reversed transition.
type Transaction struct {
	ID                      TransactionID
	TenantID                TenantID
	TransactionRef          string
	IdempotencyKey          string
	EventType               string
	SourceTransactionID     string
	SourceOrderID           string
	Amount                  decimal.Decimal
	Currency                string
	Status                  TransactionStatus
	ReversesTransactionID   TransactionID
	ReversedByTransactionID TransactionID
	Metadata                map[string]string
	CreatedBy               string
	CreatedAt               time.Time
}

// =============================================================================
// ENTRY - one leg of a transaction
// =============================================================================

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// Entry is one immutable leg of a Transaction. Amount is always
// strictly positive; direction is carried by Type.
type Entry struct {
	ID            EntryID
	TenantID      TenantID
	TransactionID TransactionID
	AccountID     AccountID
	AccountCode   string // denormalized for convenience on reads
	Type          EntryType
	Amount        decimal.Decimal
	Currency      string
	Description   string
	Metadata      map[string]string
	CreatedAt     time.Time
}

// EntryInput is what a caller supplies to PostTransaction; Entry is what
// gets persisted once the account has been resolved.
type EntryInput struct {
	AccountCode string
	Type        EntryType
	Amount      decimal.Decimal
	Description string
	Metadata    map[string]string
}

// =============================================================================
// ACCOUNT BALANCE - derived view
// =============================================================================

// AccountBalance is the derived (debits, credits, signed balance) view
// for one (tenant, account).
type AccountBalance struct {
	AccountID     AccountID
	AccountCode   string
	AccountType   AccountType
	NormalBalance NormalBalance
	Debits        decimal.Decimal
	Credits       decimal.Decimal
	Balance       decimal.Decimal
}

// =============================================================================
// POSTING REQUEST / RESULT - the language-agnostic contract from spec §6
// =============================================================================

// PostRequest is the full input to PostTransaction.
type PostRequest struct {
	TenantID            TenantID
	TransactionRef      string
	IdempotencyKey      string
	EventType           string
	SourceTransactionID string
	SourceOrderID       string
	Amount              decimal.Decimal
	Currency            string
	Description         string
	Entries             []EntryInput
	Metadata            map[string]string
	CreatedBy           string
}

// PostResult is the output of PostTransaction, matching spec §6's
// { transaction, entries[], duplicate, validation } shape.
type PostResult struct {
	Transaction Transaction
	Entries     []Entry
	Duplicate   bool
	Validation  Validation
}

// Validation reports the debit/credit totals checked during posting.
type Validation struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Balanced     bool
}

// Summary is the aggregate result of GetSummary.
type Summary struct {
	From             time.Time
	To               time.Time
	AccountType      AccountType
	TransactionCount int
	TotalAmount      decimal.Decimal
	Balances         []AccountBalance
}
