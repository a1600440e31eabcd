/*
store.go - persistence interface for the ledger core

PURPOSE:
  Defines the boundary between posting logic and the database. The only
  implementation shipped is store/sqlite, but the interface is written
  against database/sql semantics so a Postgres-backed Store is a drop-in
  replacement (spec.md's "relies on a transactional relational store").

ATOMICITY:
  ReverseTransaction runs its entire sequence of reads/writes inside one
  dbtx.Beginner.WithTx call, and PostTransaction runs its inserts and
  status update inside one, so that "posted => balanced" and "reversed
  at most once" never observe a partial state. PostTransaction's
  idempotency-key lookup runs before its WithTx call opens, so it is
  part of the same transaction only when ctx already carries one (as
  in every events handler). The Store interface itself carries no transaction-management
  method - that boundary lives in package dbtx so period, settlement,
  and events can share it without importing the ledger store.
*/
package ledger

import "context"

// Store is the persistence boundary for accounts, transactions, entries,
// and the audit log.
type Store interface {
	// GetAccountByCode resolves an account by (tenant, code). Returns
	// (nil, nil) if no such account exists - callers turn that into
	// ErrUnknownAccount, since a deactivated or missing account reads
	// the same way at post time.
	GetAccountByCode(ctx context.Context, tenant TenantID, code string) (*Account, error)

	// GetAccountByID resolves an account by its primary key, used to
	// annotate derived balances with type and normal-balance side.
	GetAccountByID(ctx context.Context, tenant TenantID, id AccountID) (*Account, error)

	// GetTransactionByIdempotencyKey looks up a prior post by key, used
	// to implement idempotent replay. Returns (nil, nil) if absent.
	GetTransactionByIdempotencyKey(ctx context.Context, tenant TenantID, key string) (*Transaction, []Entry, error)

	// GetTransaction returns a transaction and its entries by id.
	GetTransaction(ctx context.Context, tenant TenantID, id TransactionID) (*Transaction, []Entry, error)

	// InsertTransaction persists a new transaction row (any status).
	InsertTransaction(ctx context.Context, tx Transaction) error

	// UpdateTransactionStatus performs the one legal mutation on a
	// transaction: pending->posted, or posted->reversed (with the
	// reciprocal ReversedByTransactionID set in the same call).
	UpdateTransactionStatus(ctx context.Context, tenant TenantID, id TransactionID, status TransactionStatus, reversedBy TransactionID) error

	// InsertEntries persists the legs of a transaction.
	InsertEntries(ctx context.Context, entries []Entry) error

	// EntriesForAccount returns every recorded entry for an account,
	// including those of reversed transactions (offset by their reversal's
	// entries), optionally bounded by an as-of timestamp (entries with
	// CreatedAt <= asOf). A nil asOf means "all entries".
	EntriesForAccount(ctx context.Context, tenant TenantID, accountID AccountID, asOfUnixNano *int64) ([]Entry, error)

	// AccountsByType returns every account of the tenant matching the
	// given type, or every account when accountType is "".
	AccountsByType(ctx context.Context, tenant TenantID, accountType AccountType) ([]Account, error)

	// TransactionsInRange returns posted transactions whose CreatedAt
	// falls within [from, to], for GetSummary's count/sum.
	TransactionsInRange(ctx context.Context, tenant TenantID, fromUnixNano, toUnixNano int64) ([]Transaction, error)

	// AppendAudit writes one audit row in the same unit of work as the
	// state change it documents.
	AppendAudit(ctx context.Context, entry AuditEntry) error
}

// AuditEntry is one append-only audit row, keyed by (entity_type, entity_id).
type AuditEntry struct {
	TenantID   TenantID
	EntityType string
	EntityID   string
	Action     string
	Before     map[string]any
	After      map[string]any
	ActorID    string
	ActorRole  string
	Reason     string
	CreatedAt  int64 // unix nano, set by the caller for determinism in tests
}
