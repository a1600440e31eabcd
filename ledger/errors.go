/*
errors.go - centralized error types for the ledger core

USAGE:
  Domain packages (period, settlement, events) wrap these with
  errors.Is()/errors.As() rather than string matching.
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrUnknownAccount is returned when an entry references a code that
	// does not resolve to an active account for the tenant.
	ErrUnknownAccount = errors.New("unknown or inactive account")

	// ErrUnbalanced is returned when sum(debits) != sum(credits) beyond
	// the configured tolerance.
	ErrUnbalanced = errors.New("transaction does not balance")

	// ErrCurrencyMismatch is returned when entries of one transaction
	// carry different currencies.
	ErrCurrencyMismatch = errors.New("entries have mismatched currencies")

	// ErrIdempotencyConflict names the reuse of an idempotency key with a
	// materially different request body. PostTransaction does not compare
	// request bodies and never returns it: a replayed key returns the
	// stored result.
	ErrIdempotencyConflict = errors.New("idempotency key reused with different body")

	// ErrAlreadyReversed is returned when reversing a transaction that is
	// not currently posted (already reversed, or never posted).
	ErrAlreadyReversed = errors.New("transaction already reversed or not posted")

	// ErrTransactionNotFound is returned when a transaction id does not
	// resolve within the tenant.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTenantMismatch is returned by PostTransaction when the request
	// carries no tenant id. The package has no notion of an authenticated
	// principal, so a tenant id is not checked against one.
	ErrTenantMismatch = errors.New("tenant mismatch")

	// ErrTooFewEntries is returned when fewer than two entries are given.
	ErrTooFewEntries = errors.New("a transaction requires at least two entries")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// UnbalancedError carries the computed totals for an unbalanced post.
type UnbalancedError struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Tolerance    decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("unbalanced transaction: debits=%s credits=%s (tolerance=%s)",
		e.TotalDebits.String(), e.TotalCredits.String(), e.Tolerance.String())
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// UnknownAccountError names the offending account code.
type UnknownAccountError struct {
	TenantID TenantID
	Code     string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("account %q not found or inactive for tenant %s", e.Code, e.TenantID)
}

func (e *UnknownAccountError) Unwrap() error { return ErrUnknownAccount }

// =============================================================================
// CLASSIFIER HELPERS
// =============================================================================

// IsClientError reports whether err is a validation failure that should
// never be retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrUnbalanced) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrIdempotencyConflict) ||
		errors.Is(err, ErrAlreadyReversed) ||
		errors.Is(err, ErrTooFewEntries)
}

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}
