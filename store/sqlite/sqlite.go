/*
Package sqlite provides the single SQLite-backed implementation of
every domain Store interface the payment aggregator core depends on:
ledger.Store, period.Store, settlement.Store, and reconciliation.Store.

WHY ONE STORE, FOUR INTERFACES:
  A ledger post, a period lock check, a settlement transition, and a
  reconciliation item can all need to happen inside the same database
  transaction (see dbtx.Beginner). One concrete Store backed by one
  *sql.DB, whose methods each resolve their executor via q(ctx), lets
  every domain package depend on a narrow interface while still sharing
  one connection pool and one transaction boundary underneath.

WAL MODE:
  Opened with _journal_mode=WAL and _foreign_keys=on, same as the
  teacher repo, for concurrent readers and crash-safe recovery.

MIGRATION:
  Schema is auto-migrated on New(), exactly like store/sqlite's
  original migrate(). For production, a versioned migration tool
  (golang-migrate, goose) would replace this.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/reconciliation"
	"github.com/nodalpay/paycore/settlement"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every query
// helper below works unmodified whether or not it is running inside a
// WithTx-scoped unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Store implements ledger.Store, period.Store, settlement.Store, and
// reconciliation.Store against one SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// q resolves the executor for ctx: the active *sql.Tx if WithTx is
// scoping this call, otherwise the shared connection pool.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// WithTx implements dbtx.Beginner: every Store call made with the
// returned context, for the duration of fn, participates in one
// database transaction. Calls nest: if ctx already carries a
// transaction (an outer WithTx is already in progress, as when a
// handler's own WithTx wraps a call into the ledger or period package,
// each of which opens its own WithTx), fn just joins it rather than
// opening a second, independent transaction against the same
// connection - which sqlite would otherwise serialize or deadlock on.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	scoped := context.WithValue(ctx, txKey{}, sqlTx)
	if err := fn(scoped); err != nil {
		sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		normal_balance TEXT NOT NULL,
		category TEXT NOT NULL,
		gateway_name TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		UNIQUE(tenant_id, code)
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_tenant_type ON accounts(tenant_id, type);

	CREATE TABLE IF NOT EXISTS ledger_transactions (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		transaction_ref TEXT,
		idempotency_key TEXT,
		event_type TEXT,
		source_transaction_id TEXT,
		source_order_id TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		reverses_transaction_id TEXT,
		reversed_by_transaction_id TEXT,
		metadata_json TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_txn_idempotency
		ON ledger_transactions(tenant_id, idempotency_key) WHERE idempotency_key IS NOT NULL AND idempotency_key != '';
	CREATE INDEX IF NOT EXISTS idx_ledger_txn_tenant_created ON ledger_transactions(tenant_id, created_at);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		account_code TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		description TEXT,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries(tenant_id, account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_transaction ON ledger_entries(transaction_id);

	CREATE TABLE IF NOT EXISTS accounting_periods (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		period_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		closed_by TEXT,
		closed_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_periods_tenant_type ON accounting_periods(tenant_id, period_type, end_date);

	CREATE TABLE IF NOT EXISTS ledger_locks (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		lock_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		applied_by TEXT,
		created_at TEXT NOT NULL,
		released_by TEXT,
		released_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_locks_tenant_status ON ledger_locks(tenant_id, status, start_date, end_date);

	CREATE TABLE IF NOT EXISTS override_requests (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		lock_id TEXT NOT NULL,
		requestor_id TEXT NOT NULL,
		requestor_role TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		approver_id TEXT,
		approver_role TEXT,
		decision_note TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT,
		consumed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_overrides_tenant_status ON override_requests(tenant_id, status);

	CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		merchant_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		utr TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 3,
		last_error TEXT,
		next_retry_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_settlements_tenant_status ON settlements(tenant_id, status);
	CREATE INDEX IF NOT EXISTS idx_settlements_retry ON settlements(status, next_retry_at);

	CREATE TABLE IF NOT EXISTS settlement_transitions (
		id TEXT PRIMARY KEY,
		settlement_id TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		reason TEXT,
		actor_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_settlement_transitions_settlement ON settlement_transitions(settlement_id);

	CREATE TABLE IF NOT EXISTS reconciliation_batches (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL,
		created_by TEXT,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE TABLE IF NOT EXISTS reconciliation_items (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		internal_transaction_id TEXT,
		external_reference TEXT,
		internal_amount TEXT,
		external_amount TEXT,
		match_status TEXT NOT NULL,
		resolution_status TEXT NOT NULL,
		resolution_notes TEXT,
		resolved_by TEXT,
		resolved_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_reconciliation_items_batch ON reconciliation_items(batch_id);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		before_json TEXT,
		after_json TEXT,
		actor_id TEXT,
		actor_role TEXT,
		reason TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(tenant_id, entity_type, entity_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func marshalMetadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalMetadata(s string) map[string]string {
	if s == "" {
		return nil
	}
	var m map[string]string
	_ = json.Unmarshal([]byte(s), &m)
	return m
}

func marshalJSON(v any) string {
	if v == nil {
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func unmarshalJSONMap(s string) map[string]any {
	if s == "" {
		return nil
	}
	var m map[string]any
	_ = json.Unmarshal([]byte(s), &m)
	return m
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// LEDGER STORE (ledger.Store)
// =============================================================================

func scanAccount(row *sql.Row) (*ledger.Account, error) {
	var a ledger.Account
	var gatewayName sql.NullString
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Category, &gatewayName, &a.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.GatewayName = gatewayName.String
	return &a, nil
}

func (s *Store) GetAccountByCode(ctx context.Context, tenant ledger.TenantID, code string) (*ledger.Account, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, tenant_id, code, name, type, normal_balance, category, gateway_name, status
		FROM accounts WHERE tenant_id = ? AND code = ?`, tenant, code)
	return scanAccount(row)
}

func (s *Store) GetAccountByID(ctx context.Context, tenant ledger.TenantID, id ledger.AccountID) (*ledger.Account, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, tenant_id, code, name, type, normal_balance, category, gateway_name, status
		FROM accounts WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanAccount(row)
}

// InsertAccount seeds a chart-of-accounts row. Not part of ledger.Store;
// called by the bootstrap/seed path only, since accounts are immutable
// at request-handling time.
func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT OR IGNORE INTO accounts (id, tenant_id, code, name, type, normal_balance, category, gateway_name, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TenantID, a.Code, a.Name, a.Type, a.NormalBalance, a.Category, nullString(a.GatewayName), a.Status)
	return err
}

func scanTransaction(row interface{ Scan(...any) error }) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var ref, idk, evt, srcTxn, srcOrder, reverses, reversedBy, metaJSON, createdBy sql.NullString
	var amount, createdAt string
	err := row.Scan(&t.ID, &t.TenantID, &ref, &idk, &evt, &srcTxn, &srcOrder, &amount, &t.Currency,
		&t.Status, &reverses, &reversedBy, &metaJSON, &createdBy, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.TransactionRef = ref.String
	t.IdempotencyKey = idk.String
	t.EventType = evt.String
	t.SourceTransactionID = srcTxn.String
	t.SourceOrderID = srcOrder.String
	t.Amount = parseDecimal(amount)
	t.ReversesTransactionID = ledger.TransactionID(reverses.String)
	t.ReversedByTransactionID = ledger.TransactionID(reversedBy.String)
	t.Metadata = unmarshalMetadata(metaJSON.String)
	t.CreatedBy = createdBy.String
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

const transactionColumns = `id, tenant_id, transaction_ref, idempotency_key, event_type, source_transaction_id,
	source_order_id, amount, currency, status, reverses_transaction_id, reversed_by_transaction_id,
	metadata_json, created_by, created_at`

func (s *Store) entriesForTransaction(ctx context.Context, tenant ledger.TenantID, txnID ledger.TransactionID) ([]ledger.Entry, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, tenant_id, transaction_id, account_id, account_code, entry_type, amount, currency,
			description, metadata_json, created_at
		FROM ledger_entries WHERE tenant_id = ? AND transaction_id = ? ORDER BY created_at ASC, id ASC`,
		tenant, txnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var desc, metaJSON, createdAt, amount string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.TransactionID, &e.AccountID, &e.AccountCode, &e.Type,
			&amount, &e.Currency, &desc, &metaJSON, &createdAt); err != nil {
			return nil, err
		}
		e.Amount = parseDecimal(amount)
		e.Description = desc
		e.Metadata = unmarshalMetadata(metaJSON)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetTransactionByIdempotencyKey(ctx context.Context, tenant ledger.TenantID, key string) (*ledger.Transaction, []ledger.Entry, error) {
	if key == "" {
		return nil, nil, nil
	}
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM ledger_transactions WHERE tenant_id = ? AND idempotency_key = ?`, tenant, key)
	t, err := scanTransaction(row)
	if err != nil || t == nil {
		return nil, nil, err
	}
	entries, err := s.entriesForTransaction(ctx, tenant, t.ID)
	return t, entries, err
}

func (s *Store) GetTransaction(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID) (*ledger.Transaction, []ledger.Entry, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM ledger_transactions WHERE tenant_id = ? AND id = ?`, tenant, id)
	t, err := scanTransaction(row)
	if err != nil || t == nil {
		return nil, nil, err
	}
	entries, err := s.entriesForTransaction(ctx, tenant, t.ID)
	return t, entries, err
}

func (s *Store) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO ledger_transactions
			(id, tenant_id, transaction_ref, idempotency_key, event_type, source_transaction_id,
			 source_order_id, amount, currency, status, reverses_transaction_id,
			 reversed_by_transaction_id, metadata_json, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.TenantID, nullString(tx.TransactionRef), nullString(tx.IdempotencyKey), nullString(tx.EventType),
		nullString(tx.SourceTransactionID), nullString(tx.SourceOrderID), tx.Amount.String(), tx.Currency, tx.Status,
		nullString(string(tx.ReversesTransactionID)), nullString(string(tx.ReversedByTransactionID)),
		marshalMetadata(tx.Metadata), nullString(tx.CreatedBy), formatTime(tx.CreatedAt))
	return err
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, tenant ledger.TenantID, id ledger.TransactionID, status ledger.TransactionStatus, reversedBy ledger.TransactionID) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE ledger_transactions SET status = ?, reversed_by_transaction_id = ?
		WHERE tenant_id = ? AND id = ?`,
		status, nullString(string(reversedBy)), tenant, id)
	return err
}

func (s *Store) InsertEntries(ctx context.Context, entries []ledger.Entry) error {
	for _, e := range entries {
		_, err := s.q(ctx).ExecContext(ctx, `
			INSERT INTO ledger_entries
				(id, tenant_id, transaction_id, account_id, account_code, entry_type, amount, currency,
				 description, metadata_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.TenantID, e.TransactionID, e.AccountID, e.AccountCode, e.Type, e.Amount.String(), e.Currency,
			nullString(e.Description), marshalMetadata(e.Metadata), formatTime(e.CreatedAt))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) EntriesForAccount(ctx context.Context, tenant ledger.TenantID, accountID ledger.AccountID, asOfUnixNano *int64) ([]ledger.Entry, error) {
	query := `SELECT id, tenant_id, transaction_id, account_id, account_code, entry_type, amount, currency,
		description, metadata_json, created_at FROM ledger_entries
		WHERE tenant_id = ? AND account_id = ?`
	args := []any{tenant, accountID}
	if asOfUnixNano != nil {
		query += ` AND created_at <= ?`
		args = append(args, formatTime(unixNanoToTimeUtil(*asOfUnixNano)))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var desc, metaJSON, createdAt, amount string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.TransactionID, &e.AccountID, &e.AccountCode, &e.Type,
			&amount, &e.Currency, &desc, &metaJSON, &createdAt); err != nil {
			return nil, err
		}
		e.Amount = parseDecimal(amount)
		e.Description = desc
		e.Metadata = unmarshalMetadata(metaJSON)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) AccountsByType(ctx context.Context, tenant ledger.TenantID, accountType ledger.AccountType) ([]ledger.Account, error) {
	query := `SELECT id, tenant_id, code, name, type, normal_balance, category, gateway_name, status
		FROM accounts WHERE tenant_id = ?`
	args := []any{tenant}
	if accountType != "" {
		query += ` AND type = ?`
		args = append(args, accountType)
	}
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var gatewayName sql.NullString
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Category, &gatewayName, &a.Status); err != nil {
			return nil, err
		}
		a.GatewayName = gatewayName.String
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) TransactionsInRange(ctx context.Context, tenant ledger.TenantID, fromUnixNano, toUnixNano int64) ([]ledger.Transaction, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM ledger_transactions
		WHERE tenant_id = ? AND status = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC`,
		tenant, ledger.TransactionPosted,
		formatTime(unixNanoToTimeUtil(fromUnixNano)), formatTime(unixNanoToTimeUtil(toUnixNano)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, rows.Err()
}

func (s *Store) AppendAudit(ctx context.Context, entry ledger.AuditEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO audit_log (tenant_id, entity_type, entity_id, action, before_json, after_json, actor_id, actor_role, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TenantID, entry.EntityType, entry.EntityID, entry.Action,
		marshalJSON(entry.Before), marshalJSON(entry.After), nullString(entry.ActorID), nullString(entry.ActorRole),
		nullString(entry.Reason), entry.CreatedAt)
	return err
}

func unixNanoToTimeUtil(nano int64) time.Time { return time.Unix(0, nano).UTC() }

// =============================================================================
// PERIOD STORE (period.Store)
// =============================================================================

func scanPeriod(row interface{ Scan(...any) error }) (*period.Period, error) {
	var p period.Period
	var closedBy sql.NullString
	var closedAt sql.NullString
	var startDate, endDate, createdAt string
	err := row.Scan(&p.ID, &p.TenantID, &p.Type, &startDate, &endDate, &p.Status, &closedBy, &closedAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.StartDate = parseTime(startDate)
	p.EndDate = parseTime(endDate)
	p.ClosedBy = closedBy.String
	p.ClosedAt = parseNullTime(closedAt)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

const periodColumns = `id, tenant_id, period_type, start_date, end_date, status, closed_by, closed_at, created_at`

func (s *Store) InsertPeriod(ctx context.Context, p period.Period) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO accounting_periods (id, tenant_id, period_type, start_date, end_date, status, closed_by, closed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.Type, formatTime(p.StartDate), formatTime(p.EndDate), p.Status,
		nullString(p.ClosedBy), nullTime(p.ClosedAt), formatTime(p.CreatedAt))
	return err
}

func (s *Store) UpdatePeriodStatus(ctx context.Context, tenant ledger.TenantID, id period.PeriodID, status period.PeriodStatus, closedBy string, closedAt time.Time) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE accounting_periods SET status = ?, closed_by = ?, closed_at = ?
		WHERE tenant_id = ? AND id = ?`,
		status, nullString(closedBy), formatTime(closedAt), tenant, id)
	return err
}

func (s *Store) GetPeriod(ctx context.Context, tenant ledger.TenantID, id period.PeriodID) (*period.Period, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+periodColumns+`
		FROM accounting_periods WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanPeriod(row)
}

func (s *Store) LatestPeriod(ctx context.Context, tenant ledger.TenantID, periodType period.PeriodType) (*period.Period, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+periodColumns+`
		FROM accounting_periods WHERE tenant_id = ? AND period_type = ?
		ORDER BY end_date DESC LIMIT 1`, tenant, periodType)
	return scanPeriod(row)
}

func (s *Store) PeriodCovering(ctx context.Context, tenant ledger.TenantID, periodType period.PeriodType, date time.Time) (*period.Period, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+periodColumns+`
		FROM accounting_periods
		WHERE tenant_id = ? AND period_type = ? AND start_date <= ? AND end_date >= ?
		LIMIT 1`, tenant, periodType, formatTime(date), formatTime(date))
	return scanPeriod(row)
}

func scanLock(row interface{ Scan(...any) error }) (*period.Lock, error) {
	var l period.Lock
	var reason, appliedBy, releasedBy sql.NullString
	var releasedAt sql.NullString
	var startDate, endDate, createdAt string
	err := row.Scan(&l.ID, &l.TenantID, &l.Type, &startDate, &endDate, &l.Status, &reason, &appliedBy,
		&createdAt, &releasedBy, &releasedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.StartDate = parseTime(startDate)
	l.EndDate = parseTime(endDate)
	l.Reason = reason.String
	l.AppliedBy = appliedBy.String
	l.CreatedAt = parseTime(createdAt)
	l.ReleasedBy = releasedBy.String
	l.ReleasedAt = parseNullTime(releasedAt)
	return &l, nil
}

const lockColumns = `id, tenant_id, lock_type, start_date, end_date, status, reason, applied_by, created_at, released_by, released_at`

func (s *Store) InsertLock(ctx context.Context, l period.Lock) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO ledger_locks (id, tenant_id, lock_type, start_date, end_date, status, reason, applied_by, created_at, released_by, released_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.TenantID, l.Type, formatTime(l.StartDate), formatTime(l.EndDate), l.Status,
		nullString(l.Reason), nullString(l.AppliedBy), formatTime(l.CreatedAt),
		nullString(l.ReleasedBy), nullTime(l.ReleasedAt))
	return err
}

func (s *Store) ReleaseLock(ctx context.Context, tenant ledger.TenantID, id period.LockID, releasedBy string, releasedAt time.Time) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE ledger_locks SET status = ?, released_by = ?, released_at = ?
		WHERE tenant_id = ? AND id = ?`,
		period.LockReleased, nullString(releasedBy), formatTime(releasedAt), tenant, id)
	return err
}

func (s *Store) GetLock(ctx context.Context, tenant ledger.TenantID, id period.LockID) (*period.Lock, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+lockColumns+`
		FROM ledger_locks WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanLock(row)
}

func (s *Store) ActiveLocksCovering(ctx context.Context, tenant ledger.TenantID, date time.Time) ([]period.Lock, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+lockColumns+`
		FROM ledger_locks
		WHERE tenant_id = ? AND status = ? AND start_date <= ? AND end_date >= ?`,
		tenant, period.LockActive, formatTime(date), formatTime(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locks []period.Lock
	for rows.Next() {
		l, err := scanLock(rows)
		if err != nil {
			return nil, err
		}
		if l != nil {
			locks = append(locks, *l)
		}
	}
	return locks, rows.Err()
}

func scanOverride(row interface{ Scan(...any) error }) (*period.OverrideRequest, error) {
	var o period.OverrideRequest
	var reason, approverID, approverRole, note sql.NullString
	var decidedAt, consumedAt sql.NullString
	var createdAt string
	err := row.Scan(&o.ID, &o.TenantID, &o.LockID, &o.RequestorID, &o.RequestorRole, &reason, &o.Status,
		&approverID, &approverRole, &note, &createdAt, &decidedAt, &consumedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Reason = reason.String
	o.ApproverID = approverID.String
	o.ApproverRole = approverRole.String
	o.DecisionNote = note.String
	o.CreatedAt = parseTime(createdAt)
	o.DecidedAt = parseNullTime(decidedAt)
	o.ConsumedAt = parseNullTime(consumedAt)
	return &o, nil
}

const overrideColumns = `id, tenant_id, lock_id, requestor_id, requestor_role, reason, status,
	approver_id, approver_role, decision_note, created_at, decided_at, consumed_at`

func (s *Store) InsertOverrideRequest(ctx context.Context, o period.OverrideRequest) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO override_requests
			(id, tenant_id, lock_id, requestor_id, requestor_role, reason, status,
			 approver_id, approver_role, decision_note, created_at, decided_at, consumed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.TenantID, o.LockID, o.RequestorID, o.RequestorRole, nullString(o.Reason), o.Status,
		nullString(o.ApproverID), nullString(o.ApproverRole), nullString(o.DecisionNote),
		formatTime(o.CreatedAt), nullTime(o.DecidedAt), nullTime(o.ConsumedAt))
	return err
}

func (s *Store) GetOverrideRequest(ctx context.Context, tenant ledger.TenantID, id period.OverrideID) (*period.OverrideRequest, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+overrideColumns+`
		FROM override_requests WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanOverride(row)
}

func (s *Store) DecideOverrideRequest(ctx context.Context, tenant ledger.TenantID, id period.OverrideID, status period.OverrideStatus, approverID, approverRole, note string, decidedAt time.Time) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE override_requests SET status = ?, approver_id = ?, approver_role = ?, decision_note = ?, decided_at = ?
		WHERE tenant_id = ? AND id = ?`,
		status, nullString(approverID), nullString(approverRole), nullString(note), formatTime(decidedAt), tenant, id)
	return err
}

func (s *Store) ConsumeOverrideRequest(ctx context.Context, tenant ledger.TenantID, id period.OverrideID, consumedAt time.Time) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE override_requests SET status = ?, consumed_at = ?
		WHERE tenant_id = ? AND id = ?`,
		period.OverrideConsumed, formatTime(consumedAt), tenant, id)
	return err
}

// =============================================================================
// SETTLEMENT STORE (settlement.Store)
// =============================================================================

func scanSettlement(row interface{ Scan(...any) error }) (*settlement.Settlement, error) {
	var st settlement.Settlement
	var utr, lastError sql.NullString
	var nextRetryAt sql.NullString
	var amount, createdAt, updatedAt string
	err := row.Scan(&st.ID, &st.TenantID, &st.MerchantID, &amount, &st.Currency, &st.Status, &utr,
		&st.RetryCount, &st.MaxRetries, &lastError, &nextRetryAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.Amount = parseDecimal(amount)
	st.UTR = utr.String
	st.LastError = lastError.String
	st.NextRetryAt = parseNullTime(nextRetryAt)
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)
	return &st, nil
}

const settlementColumns = `id, tenant_id, merchant_id, amount, currency, status, utr, retry_count, max_retries,
	last_error, next_retry_at, created_at, updated_at`

func (s *Store) InsertSettlement(ctx context.Context, st settlement.Settlement) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO settlements
			(id, tenant_id, merchant_id, amount, currency, status, utr, retry_count, max_retries,
			 last_error, next_retry_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.TenantID, st.MerchantID, st.Amount.String(), st.Currency, st.Status, nullString(st.UTR),
		st.RetryCount, st.MaxRetries, nullString(st.LastError), nullTime(st.NextRetryAt),
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt))
	return err
}

func (s *Store) GetSettlement(ctx context.Context, tenant ledger.TenantID, id settlement.SettlementID) (*settlement.Settlement, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+settlementColumns+`
		FROM settlements WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanSettlement(row)
}

func (s *Store) UpdateSettlement(ctx context.Context, st settlement.Settlement) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE settlements SET status = ?, utr = ?, retry_count = ?, last_error = ?, next_retry_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		st.Status, nullString(st.UTR), st.RetryCount, nullString(st.LastError), nullTime(st.NextRetryAt),
		formatTime(st.UpdatedAt), st.TenantID, st.ID)
	return err
}

func (s *Store) InsertStateTransition(ctx context.Context, t settlement.StateTransition) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO settlement_transitions (id, settlement_id, from_status, to_status, reason, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SettlementID, t.From, t.To, nullString(t.Reason), nullString(t.ActorID), formatTime(t.CreatedAt))
	return err
}

func (s *Store) SettlementsDueForRetry(ctx context.Context, tenant ledger.TenantID, asOf time.Time) ([]settlement.Settlement, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+settlementColumns+`
		FROM settlements
		WHERE tenant_id = ? AND status = ? AND retry_count < max_retries AND next_retry_at IS NOT NULL AND next_retry_at <= ?`,
		tenant, settlement.StatusFailed, formatTime(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		if st != nil {
			out = append(out, *st)
		}
	}
	return out, rows.Err()
}

// =============================================================================
// RECONCILIATION STORE (reconciliation.Store)
// =============================================================================

func scanBatch(row interface{ Scan(...any) error }) (*reconciliation.Batch, error) {
	var b reconciliation.Batch
	var createdBy sql.NullString
	var completedAt sql.NullString
	var periodStart, periodEnd, createdAt string
	err := row.Scan(&b.ID, &b.TenantID, &periodStart, &periodEnd, &b.Status, &createdBy, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.PeriodStart = parseTime(periodStart)
	b.PeriodEnd = parseTime(periodEnd)
	b.CreatedBy = createdBy.String
	b.CreatedAt = parseTime(createdAt)
	b.CompletedAt = parseNullTime(completedAt)
	return &b, nil
}

const batchColumns = `id, tenant_id, period_start, period_end, status, created_by, created_at, completed_at`

func (s *Store) InsertBatch(ctx context.Context, b reconciliation.Batch) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO reconciliation_batches (id, tenant_id, period_start, period_end, status, created_by, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TenantID, formatTime(b.PeriodStart), formatTime(b.PeriodEnd), b.Status,
		nullString(b.CreatedBy), formatTime(b.CreatedAt), nullTime(b.CompletedAt))
	return err
}

func (s *Store) UpdateBatchStatus(ctx context.Context, tenant ledger.TenantID, id reconciliation.BatchID, status reconciliation.BatchStatus) error {
	var completedAt sql.NullString
	if status == reconciliation.BatchCompleted || status == reconciliation.BatchCancelled {
		completedAt = nullString(formatTime(time.Now().UTC()))
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE reconciliation_batches SET status = ?, completed_at = COALESCE(?, completed_at)
		WHERE tenant_id = ? AND id = ?`,
		status, completedAt, tenant, id)
	return err
}

func (s *Store) GetBatch(ctx context.Context, tenant ledger.TenantID, id reconciliation.BatchID) (*reconciliation.Batch, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+batchColumns+`
		FROM reconciliation_batches WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanBatch(row)
}

func scanItem(row interface{ Scan(...any) error }) (*reconciliation.Item, error) {
	var it reconciliation.Item
	var internalTxn, externalRef, notes, resolvedBy sql.NullString
	var resolvedAt sql.NullString
	var internalAmount, externalAmount sql.NullString
	err := row.Scan(&it.ID, &it.BatchID, &it.TenantID, &internalTxn, &externalRef, &internalAmount, &externalAmount,
		&it.MatchStatus, &it.ResolutionStatus, &notes, &resolvedBy, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	it.InternalTransactionID = internalTxn.String
	it.ExternalReference = externalRef.String
	if internalAmount.Valid {
		it.InternalAmount = parseDecimal(internalAmount.String)
	}
	if externalAmount.Valid {
		it.ExternalAmount = parseDecimal(externalAmount.String)
	}
	it.ResolutionNotes = notes.String
	it.ResolvedBy = resolvedBy.String
	it.ResolvedAt = parseNullTime(resolvedAt)
	return &it, nil
}

const itemColumns = `id, batch_id, tenant_id, internal_transaction_id, external_reference, internal_amount,
	external_amount, match_status, resolution_status, resolution_notes, resolved_by, resolved_at`

func (s *Store) InsertItems(ctx context.Context, items []reconciliation.Item) error {
	for _, it := range items {
		var internalAmount, externalAmount sql.NullString
		if it.MatchStatus != reconciliation.MatchMissingInternal {
			internalAmount = nullString(it.InternalAmount.String())
		}
		if it.MatchStatus != reconciliation.MatchMissingExternal {
			externalAmount = nullString(it.ExternalAmount.String())
		}
		_, err := s.q(ctx).ExecContext(ctx, `
			INSERT INTO reconciliation_items
				(id, batch_id, tenant_id, internal_transaction_id, external_reference, internal_amount,
				 external_amount, match_status, resolution_status, resolution_notes, resolved_by, resolved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.BatchID, it.TenantID, nullString(it.InternalTransactionID), nullString(it.ExternalReference),
			internalAmount, externalAmount, it.MatchStatus, it.ResolutionStatus, nullString(it.ResolutionNotes),
			nullString(it.ResolvedBy), nullTime(it.ResolvedAt))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, it reconciliation.Item) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE reconciliation_items
		SET resolution_status = ?, resolution_notes = ?, resolved_by = ?, resolved_at = ?
		WHERE tenant_id = ? AND id = ?`,
		it.ResolutionStatus, nullString(it.ResolutionNotes), nullString(it.ResolvedBy), nullTime(it.ResolvedAt),
		it.TenantID, it.ID)
	return err
}

func (s *Store) GetItem(ctx context.Context, tenant ledger.TenantID, id reconciliation.ItemID) (*reconciliation.Item, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+itemColumns+`
		FROM reconciliation_items WHERE tenant_id = ? AND id = ?`, tenant, id)
	return scanItem(row)
}

func (s *Store) ItemsForBatch(ctx context.Context, tenant ledger.TenantID, batchID reconciliation.BatchID) ([]reconciliation.Item, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+itemColumns+`
		FROM reconciliation_items WHERE tenant_id = ? AND batch_id = ? ORDER BY id ASC`, tenant, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconciliation.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if it != nil {
			out = append(out, *it)
		}
	}
	return out, rows.Err()
}

// =============================================================================
// SEED - chart of accounts bootstrap
// =============================================================================

// SeedChartOfAccounts inserts the fixed platform-level accounts (the
// escrow, platform-fee, gateway-fee and chargeback accounts every
// tenant shares) plus one Receivable/Payable/Settlement sub-account
// triple per merchantID given, skipping any that already exist. Called
// once at service startup, never at request time - accounts are
// immutable once seeded.
func SeedChartOfAccounts(ctx context.Context, s *Store, tenant ledger.TenantID, merchantIDs []string, idFor func(code string) string) error {
	fixed := []ledger.Account{
		{ID: ledger.AccountID(idFor("ESCROW_BANK")), TenantID: tenant, Code: "ESCROW_BANK", Name: "Escrow nodal bank account",
			Type: ledger.AccountTypeEscrow, NormalBalance: ledger.NormalBalanceDebit, Category: ledger.CategoryAsset, Status: ledger.AccountStatusActive},
		{ID: ledger.AccountID(idFor("ESCROW_LIABILITY")), TenantID: tenant, Code: "ESCROW_LIABILITY", Name: "Escrow liability to merchants",
			Type: ledger.AccountTypeEscrow, NormalBalance: ledger.NormalBalanceCredit, Category: ledger.CategoryLiability, Status: ledger.AccountStatusActive},
		{ID: ledger.AccountID(idFor("PLATFORM_RECEIVABLE")), TenantID: tenant, Code: "PLATFORM_RECEIVABLE", Name: "Platform fee receivable",
			Type: ledger.AccountTypePlatformRevenue, NormalBalance: ledger.NormalBalanceDebit, Category: ledger.CategoryAsset, Status: ledger.AccountStatusActive},
		{ID: ledger.AccountID(idFor("PLATFORM_MDR")), TenantID: tenant, Code: "PLATFORM_MDR", Name: "Platform MDR revenue",
			Type: ledger.AccountTypePlatformRevenue, NormalBalance: ledger.NormalBalanceCredit, Category: ledger.CategoryRevenue, Status: ledger.AccountStatusActive},
		{ID: ledger.AccountID(idFor("GATEWAY_FEE_EXPENSE")), TenantID: tenant, Code: "GATEWAY_FEE_EXPENSE", Name: "Gateway fee expense",
			Type: ledger.AccountTypeGateway, NormalBalance: ledger.NormalBalanceDebit, Category: ledger.CategoryExpense, Status: ledger.AccountStatusActive},
		{ID: ledger.AccountID(idFor("GATEWAY_PAYABLE")), TenantID: tenant, Code: "GATEWAY_PAYABLE", Name: "Gateway fee payable",
			Type: ledger.AccountTypeGateway, NormalBalance: ledger.NormalBalanceCredit, Category: ledger.CategoryLiability, Status: ledger.AccountStatusActive},
		{ID: ledger.AccountID(idFor("CHARGEBACK_LIABILITY")), TenantID: tenant, Code: "CHARGEBACK_LIABILITY", Name: "Chargeback liability",
			Type: ledger.AccountTypeEscrow, NormalBalance: ledger.NormalBalanceCredit, Category: ledger.CategoryLiability, Status: ledger.AccountStatusActive},
	}
	for _, a := range fixed {
		if err := s.InsertAccount(ctx, a); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.Code, err)
		}
	}

	for _, merchantID := range merchantIDs {
		if err := seedMerchantAccounts(ctx, s, tenant, merchantID, idFor); err != nil {
			return err
		}
	}
	return nil
}

func seedMerchantAccounts(ctx context.Context, s *Store, tenant ledger.TenantID, merchantID string, idFor func(code string) string) error {
	perMerchant := []ledger.Account{
		{Code: events.MerchantReceivableAccount(merchantID), Name: "Merchant receivable " + merchantID,
			NormalBalance: ledger.NormalBalanceDebit, Category: ledger.CategoryAsset},
		{Code: events.MerchantPayableAccount(merchantID), Name: "Merchant payable " + merchantID,
			NormalBalance: ledger.NormalBalanceCredit, Category: ledger.CategoryLiability},
		{Code: events.MerchantSettlementAccount(merchantID), Name: "Merchant settlement clearing " + merchantID,
			NormalBalance: ledger.NormalBalanceDebit, Category: ledger.CategoryAsset},
	}
	for _, a := range perMerchant {
		a.ID = ledger.AccountID(idFor(a.Code))
		a.TenantID = tenant
		a.Type = ledger.AccountTypeMerchant
		a.Status = ledger.AccountStatusActive
		if err := s.InsertAccount(ctx, a); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.Code, err)
		}
	}
	return nil
}

// EnsureMerchantAccounts seeds the receivable/payable/settlement trio
// for one merchant if they do not already exist. Webhook intake calls
// this per order so a merchant's first payment never fails with
// UnknownAccount just because it wasn't in the startup seed list.
func (s *Store) EnsureMerchantAccounts(ctx context.Context, tenant ledger.TenantID, merchantKey string) error {
	return seedMerchantAccounts(ctx, s, tenant, merchantKey, func(code string) string {
		return uuid.NewString()
	})
}
