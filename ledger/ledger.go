/*
ledger.go - the posting engine

Mirrors the structure of a classic accounting engine: resolve accounts,
validate balance, write entries, flip the transaction to posted, audit
the change, all inside one transaction. Reversal is the only other
mutation, and it is itself just another balanced post.
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/dbtx"
)

// Ledger is the double-entry posting engine. It holds no mutable state
// of its own; every call is scoped to the tenant carried on its request.
type Ledger struct {
	store Store
	tx    dbtx.Beginner
	cfg   config.Config

	// now is supplied by the caller of New, so tests can pass a fixed clock.
	now func() int64 // unix nano
}

// New builds a Ledger. cfg should already have WithDefaults applied.
func New(store Store, tx dbtx.Beginner, cfg config.Config, now func() int64) *Ledger {
	return &Ledger{store: store, tx: tx, cfg: cfg, now: now}
}

// PostTransaction posts a balanced set of entries atomically. Replaying
// the same IdempotencyKey returns the original result with Duplicate
// set, rather than posting again.
func (l *Ledger) PostTransaction(ctx context.Context, req PostRequest) (PostResult, error) {
	if req.TenantID == "" {
		return PostResult{}, ErrTenantMismatch
	}
	if len(req.Entries) < 2 {
		return PostResult{}, ErrTooFewEntries
	}

	if req.IdempotencyKey != "" {
		existingTxn, existingEntries, err := l.store.GetTransactionByIdempotencyKey(ctx, req.TenantID, req.IdempotencyKey)
		if err != nil {
			return PostResult{}, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existingTxn != nil {
			return PostResult{
				Transaction: *existingTxn,
				Entries:     existingEntries,
				Duplicate:   true,
				Validation:  validationOf(existingEntries, l.cfg.BalanceTolerance),
			}, nil
		}
	}

	var result PostResult
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		txn := Transaction{
			ID:                  TransactionID(uuid.NewString()),
			TenantID:            req.TenantID,
			TransactionRef:      req.TransactionRef,
			IdempotencyKey:      req.IdempotencyKey,
			EventType:           req.EventType,
			SourceTransactionID: req.SourceTransactionID,
			SourceOrderID:       req.SourceOrderID,
			Amount:              req.Amount,
			Currency:            req.Currency,
			Status:              TransactionPending,
			Metadata:            req.Metadata,
			CreatedBy:           req.CreatedBy,
			CreatedAt:           unixNanoToTime(l.now()),
		}
		if err := l.store.InsertTransaction(ctx, txn); err != nil {
			return fmt.Errorf("inserting transaction: %w", err)
		}

		entries := make([]Entry, 0, len(req.Entries))
		for _, in := range req.Entries {
			account, err := l.store.GetAccountByCode(ctx, req.TenantID, in.AccountCode)
			if err != nil {
				return fmt.Errorf("resolving account %q: %w", in.AccountCode, err)
			}
			if account == nil || !account.IsActive() {
				return &UnknownAccountError{TenantID: req.TenantID, Code: in.AccountCode}
			}
			currency := req.Currency
			if currency == "" {
				currency = "INR"
			}
			entries = append(entries, Entry{
				ID:            EntryID(uuid.NewString()),
				TenantID:      req.TenantID,
				TransactionID: txn.ID,
				AccountID:     account.ID,
				AccountCode:   account.Code,
				Type:          in.Type,
				Amount:        in.Amount,
				Currency:      currency,
				Description:   in.Description,
				Metadata:      in.Metadata,
				CreatedAt:     txn.CreatedAt,
			})
		}

		validation := validationOf(entries, l.cfg.BalanceTolerance)
		if !validation.Balanced {
			return &UnbalancedError{
				TotalDebits:  validation.TotalDebits,
				TotalCredits: validation.TotalCredits,
				Tolerance:    l.cfg.BalanceTolerance,
			}
		}

		if err := l.store.InsertEntries(ctx, entries); err != nil {
			return fmt.Errorf("inserting entries: %w", err)
		}
		if err := l.store.UpdateTransactionStatus(ctx, req.TenantID, txn.ID, TransactionPosted, ""); err != nil {
			return fmt.Errorf("marking transaction posted: %w", err)
		}
		txn.Status = TransactionPosted

		if err := l.store.AppendAudit(ctx, AuditEntry{
			TenantID:   req.TenantID,
			EntityType: "ledger_transaction",
			EntityID:   string(txn.ID),
			Action:     "post",
			After: map[string]any{
				"transaction_ref": txn.TransactionRef,
				"event_type":      txn.EventType,
				"amount":          txn.Amount.String(),
				"entry_count":     len(entries),
			},
			ActorID:   req.CreatedBy,
			CreatedAt: l.now(),
		}); err != nil {
			return fmt.Errorf("writing audit entry: %w", err)
		}

		result = PostResult{Transaction: txn, Entries: entries, Duplicate: false, Validation: validation}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}
	return result, nil
}

// ReverseTransaction posts the sibling reversal of a posted transaction:
// every entry's Type is swapped, the new transaction references the
// original via ReversesTransactionID, and the original is atomically
// marked reversed. Reversing a transaction that is not currently posted
// (never posted, or already reversed) fails with ErrAlreadyReversed.
func (l *Ledger) ReverseTransaction(ctx context.Context, tenant TenantID, id TransactionID, reason, actor string) (PostResult, error) {
	var result PostResult
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		original, originalEntries, err := l.store.GetTransaction(ctx, tenant, id)
		if err != nil {
			return fmt.Errorf("loading transaction: %w", err)
		}
		if original == nil {
			return ErrTransactionNotFound
		}
		if original.Status != TransactionPosted {
			return ErrAlreadyReversed
		}

		reversal := Transaction{
			ID:                    TransactionID(uuid.NewString()),
			TenantID:              tenant,
			TransactionRef:        original.TransactionRef + "-REV",
			EventType:             original.EventType,
			SourceTransactionID:   original.SourceTransactionID,
			SourceOrderID:         original.SourceOrderID,
			Amount:                original.Amount,
			Currency:              original.Currency,
			Status:                TransactionPending,
			ReversesTransactionID: original.ID,
			Metadata:              map[string]string{"reversal_reason": reason},
			CreatedBy:             actor,
			CreatedAt:             unixNanoToTime(l.now()),
		}
		if err := l.store.InsertTransaction(ctx, reversal); err != nil {
			return fmt.Errorf("inserting reversal transaction: %w", err)
		}

		reversedEntries := make([]Entry, 0, len(originalEntries))
		for _, e := range originalEntries {
			swapped := e
			swapped.ID = EntryID(uuid.NewString())
			swapped.TransactionID = reversal.ID
			swapped.Type = swapEntryType(e.Type)
			swapped.Description = "reversal: " + e.Description
			swapped.CreatedAt = reversal.CreatedAt
			reversedEntries = append(reversedEntries, swapped)
		}
		if err := l.store.InsertEntries(ctx, reversedEntries); err != nil {
			return fmt.Errorf("inserting reversal entries: %w", err)
		}
		if err := l.store.UpdateTransactionStatus(ctx, tenant, reversal.ID, TransactionPosted, ""); err != nil {
			return fmt.Errorf("marking reversal posted: %w", err)
		}
		reversal.Status = TransactionPosted

		if err := l.store.UpdateTransactionStatus(ctx, tenant, original.ID, TransactionReversed, reversal.ID); err != nil {
			return fmt.Errorf("marking original reversed: %w", err)
		}

		if err := l.store.AppendAudit(ctx, AuditEntry{
			TenantID:   tenant,
			EntityType: "ledger_transaction",
			EntityID:   string(original.ID),
			Action:     "reverse",
			Before:     map[string]any{"status": string(TransactionPosted)},
			After:      map[string]any{"status": string(TransactionReversed), "reversed_by": string(reversal.ID)},
			ActorID:    actor,
			Reason:     reason,
			CreatedAt:  l.now(),
		}); err != nil {
			return fmt.Errorf("writing audit entry: %w", err)
		}

		result = PostResult{
			Transaction: reversal,
			Entries:     reversedEntries,
			Duplicate:   false,
			Validation:  validationOf(reversedEntries, l.cfg.BalanceTolerance),
		}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}
	return result, nil
}

// GetTransaction returns a transaction and its entries.
func (l *Ledger) GetTransaction(ctx context.Context, tenant TenantID, id TransactionID) (*Transaction, []Entry, error) {
	txn, entries, err := l.store.GetTransaction(ctx, tenant, id)
	if err != nil {
		return nil, nil, err
	}
	if txn == nil {
		return nil, nil, ErrTransactionNotFound
	}
	return txn, entries, nil
}

// GetAccountBalance returns the derived balance for one account, either
// as of now (asOfUnixNano == nil) or as of a point in time.
func (l *Ledger) GetAccountBalance(ctx context.Context, tenant TenantID, accountID AccountID, asOfUnixNano *int64) (AccountBalance, error) {
	account, err := l.store.GetAccountByID(ctx, tenant, accountID)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("resolving account: %w", err)
	}
	if account == nil {
		return AccountBalance{}, &UnknownAccountError{TenantID: tenant, Code: string(accountID)}
	}

	entries, err := l.store.EntriesForAccount(ctx, tenant, accountID, asOfUnixNano)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("loading entries: %w", err)
	}

	var debits, credits decimal.Decimal
	for _, e := range entries {
		switch e.Type {
		case EntryDebit:
			debits = debits.Add(e.Amount)
		case EntryCredit:
			credits = credits.Add(e.Amount)
		}
	}

	bal := AccountBalance{
		AccountID:     accountID,
		AccountCode:   account.Code,
		AccountType:   account.Type,
		NormalBalance: account.NormalBalance,
		Debits:        debits,
		Credits:       credits,
	}
	bal.Balance = signedBalance(debits, credits, bal.NormalBalance)
	return bal, nil
}

// GetSummary aggregates posted transactions and account balances over a
// window, scoped by account type when one is given.
func (l *Ledger) GetSummary(ctx context.Context, tenant TenantID, fromUnixNano, toUnixNano int64, accountType AccountType) (Summary, error) {
	transactions, err := l.store.TransactionsInRange(ctx, tenant, fromUnixNano, toUnixNano)
	if err != nil {
		return Summary{}, fmt.Errorf("loading transactions: %w", err)
	}

	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}

	accounts, err := l.store.AccountsByType(ctx, tenant, accountType)
	if err != nil {
		return Summary{}, fmt.Errorf("loading accounts: %w", err)
	}
	balances := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		bal, err := l.GetAccountBalance(ctx, tenant, a.ID, &toUnixNano)
		if err != nil {
			return Summary{}, fmt.Errorf("balance for %s: %w", a.Code, err)
		}
		balances = append(balances, bal)
	}

	return Summary{
		From:             unixNanoToTime(fromUnixNano),
		To:               unixNanoToTime(toUnixNano),
		AccountType:      accountType,
		TransactionCount: len(transactions),
		TotalAmount:      total,
		Balances:         balances,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func validationOf(entries []Entry, tolerance decimal.Decimal) Validation {
	var debits, credits decimal.Decimal
	for _, e := range entries {
		switch e.Type {
		case EntryDebit:
			debits = debits.Add(e.Amount)
		case EntryCredit:
			credits = credits.Add(e.Amount)
		}
	}
	diff := debits.Sub(credits).Abs()
	return Validation{
		TotalDebits:  debits,
		TotalCredits: credits,
		Balanced:     diff.LessThanOrEqual(tolerance),
	}
}

func swapEntryType(t EntryType) EntryType {
	if t == EntryDebit {
		return EntryCredit
	}
	return EntryDebit
}

// signedBalance folds raw debit/credit totals into a single signed
// balance according to the account's normal side: a debit-normal
// account's balance is debits-minus-credits, a credit-normal account's
// is credits-minus-debits.
func signedBalance(debits, credits decimal.Decimal, normal NormalBalance) decimal.Decimal {
	if normal == NormalBalanceCredit {
		return credits.Sub(debits)
	}
	return debits.Sub(credits)
}

func unixNanoToTime(nano int64) time.Time {
	return time.Unix(0, nano).UTC()
}
