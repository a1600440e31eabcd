/*
Package dbtx defines the narrow interface every domain package uses to
scope a sequence of store calls into one database transaction.

WHY A SEPARATE PACKAGE:
  ledger, period, settlement, events, and reconciliation all need atomic
  multi-step writes ("post_transaction", "hard-close + auto lock",
  "transition + ledger post"), but none of them should import each
  other's store implementation. dbtx.Beginner is the one shape every
  domain's service type depends on; store/sqlite.Store implements it
  once, using a context-carried *sql.Tx so the same Store value's
  methods transparently run against the transaction instead of the
  pool for the duration of the callback.

USAGE:
  err := beginner.WithTx(ctx, func(ctx context.Context) error {
      // every store.XxxStore call made with this ctx participates in
      // the same transaction
      return ledgerStore.InsertTransaction(ctx, tx)
  })
*/
package dbtx

import "context"

// Beginner scopes fn to a single atomic unit of work. A non-nil return
// from fn rolls the transaction back; nil commits it. Implementations
// MUST guarantee rollback on panic as well as on error return.
type Beginner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
