package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/store/sqlite"
)

const testTenant = ledger.TenantID("tenant-1")

func newTestHandlers(t *testing.T) (*events.Handlers, *period.Controller, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, sqlite.SeedChartOfAccounts(context.Background(), store, testTenant, []string{"merchant-1"}, func(code string) string {
		return "acct-" + code
	}))

	now := func() int64 { return 1700000000000000000 }
	cfg := config.Defaults()
	ldg := ledger.New(store, store, cfg, now)
	periodCtl := period.New(store, store, cfg, now)
	return events.New(ldg, periodCtl, store, cfg, now), periodCtl, store
}

func TestPaymentSuccess_PostsNormativeEightEntrySplit(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	result, err := h.PaymentSuccess(ctx, events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: time.Now(),
		ActorID:     "system",
	}, "TXN42", "order-1", decimal.NewFromFloat(1000), decimal.NewFromFloat(20), decimal.NewFromFloat(5), "INR")

	require.NoError(t, err)
	assert.True(t, result.Validation.Balanced)
	assert.Len(t, result.Entries, 8)
}

func TestPaymentSuccess_IdempotentReplayDoesNotDoublePost(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	pc := events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: time.Now(),
		ActorID:     "system",
	}
	first, err := h.PaymentSuccess(ctx, pc, "TXN42", "order-1", decimal.NewFromFloat(1000), decimal.NewFromFloat(20), decimal.NewFromFloat(5), "INR")
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := h.PaymentSuccess(ctx, pc, "TXN42", "order-1", decimal.NewFromFloat(1000), decimal.NewFromFloat(20), decimal.NewFromFloat(5), "INR")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
}

func TestRefundCompleted_UnwindsPaymentSuccessBalances(t *testing.T) {
	h, _, store := newTestHandlers(t)
	ctx := context.Background()

	pc := events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: time.Now(),
		ActorID:     "system",
	}
	payment, err := h.PaymentSuccess(ctx, pc, "evt-2", "order-2", decimal.NewFromFloat(1000), decimal.NewFromFloat(20), decimal.NewFromFloat(5), "INR")
	require.NoError(t, err)

	result, err := h.RefundCompleted(ctx, pc, "evt-2", string(payment.Transaction.ID), decimal.NewFromFloat(1000), decimal.NewFromFloat(20), decimal.NewFromFloat(5), "INR")
	require.NoError(t, err)
	assert.True(t, result.Validation.Balanced)

	ldg := ledger.New(store, store, config.Defaults(), func() int64 { return 1700000000000000000 })
	for _, code := range []string{
		events.AccountEscrowBank, events.AccountEscrowLiability,
		events.MerchantReceivableAccount("merchant-1"), events.MerchantPayableAccount("merchant-1"),
		events.AccountPlatformReceivable, events.AccountPlatformMDR,
	} {
		account, err := store.GetAccountByCode(ctx, testTenant, code)
		require.NoError(t, err)
		balance, err := ldg.GetAccountBalance(ctx, testTenant, account.ID, nil)
		require.NoError(t, err)
		assert.True(t, balance.Balance.IsZero(), "account %s should net back to zero after a full refund", code)
	}
}

func TestManualAdjustment_RequiresApproverEvenWhenPeriodIsOpen(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	_, err := h.ManualAdjustment(ctx, events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: time.Now(),
		ActorID:     "ops-1",
	}, "evt-adj", events.AccountEscrowBank, events.MerchantPayableAccount("merchant-1"), decimal.NewFromInt(10), "INR", "correcting a misallocation", "")
	assert.ErrorIs(t, err, events.ErrApproverRequired)
}

func TestManualAdjustment_RequiresOverrideEvenWhenPeriodIsOpen(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	_, err := h.ManualAdjustment(ctx, events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: time.Now(),
		ActorID:     "ops-1",
	}, "evt-adj", events.AccountEscrowBank, events.MerchantPayableAccount("merchant-1"), decimal.NewFromInt(10), "INR", "correcting a misallocation", "finance-1")

	assert.ErrorIs(t, err, period.ErrPostingBlocked)
}

func TestManualAdjustment_ConsumesOverrideEvenWhenPeriodIsOpen(t *testing.T) {
	h, periodCtl, store := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, sqlite.SeedChartOfAccounts(ctx, store, testTenant, nil, func(code string) string {
		return "lock-acct-" + code
	}))
	now := time.Now()
	lock, err := periodCtl.ApplyLock(ctx, testTenant, period.LockAudit, now.Add(-time.Hour), now.Add(time.Hour), "unrelated audit window", "auditor-1")
	require.NoError(t, err)
	req, err := periodCtl.RequestOverride(ctx, testTenant, lock.ID, "ops-1", "ops", "approved for this one adjustment")
	require.NoError(t, err)
	_, err = periodCtl.ApproveOverride(ctx, testTenant, req.ID, "finance-1", "finance", "approved")
	require.NoError(t, err)

	pc := events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: now.Add(-2 * time.Hour), // outside the lock window: period is open for this date
		ActorID:     "ops-1",
		Override:    &req.ID,
	}
	_, err = h.ManualAdjustment(ctx, pc, "evt-adj-1", events.AccountEscrowBank, events.MerchantPayableAccount("merchant-1"), decimal.NewFromInt(10), "INR", "correcting a misallocation", "finance-1")
	require.NoError(t, err)

	_, err = h.ManualAdjustment(ctx, pc, "evt-adj-2", events.AccountEscrowBank, events.MerchantPayableAccount("merchant-1"), decimal.NewFromInt(5), "INR", "second attempt must not reuse the same override", "finance-1")
	assert.ErrorIs(t, err, period.ErrOverrideAlreadyConsumed)
}

func TestPaymentSuccess_BlockedByLockRequiresApprovedOverride(t *testing.T) {
	h, periodCtl, _ := newTestHandlers(t)
	ctx := context.Background()

	now := time.Now()
	lock, err := periodCtl.ApplyLock(ctx, testTenant, period.LockAudit, now.Add(-time.Hour), now.Add(time.Hour), "audit window", "auditor-1")
	require.NoError(t, err)

	_, err = h.PaymentSuccess(ctx, events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: now,
		ActorID:     "system",
	}, "evt-locked", "order-locked", decimal.NewFromInt(50), decimal.NewFromInt(1), decimal.NewFromInt(1), "INR")
	assert.ErrorIs(t, err, period.ErrPostingBlocked)

	req, err := periodCtl.RequestOverride(ctx, testTenant, lock.ID, "ops-1", "ops", "need to post during audit")
	require.NoError(t, err)
	_, err = periodCtl.ApproveOverride(ctx, testTenant, req.ID, "finance-1", "finance", "approved")
	require.NoError(t, err)

	overrideID := req.ID
	result, err := h.PaymentSuccess(ctx, events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: now,
		ActorID:     "system",
		Override:    &overrideID,
	}, "evt-locked", "order-locked", decimal.NewFromInt(50), decimal.NewFromInt(1), decimal.NewFromInt(1), "INR")
	require.NoError(t, err)
	assert.True(t, result.Validation.Balanced)

	check, err := periodCtl.CheckLockStatus(ctx, testTenant, lock.ID)
	require.NoError(t, err)
	require.NotNil(t, check)
	assert.Equal(t, period.LockActive, check.Status, "consuming the override does not itself release the lock")
}

func TestChargebackDebitAndReversal_RoundTripBalances(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	pc := events.PostingContext{
		TenantID:    testTenant,
		MerchantKey: "merchant-1",
		PostingDate: time.Now(),
		ActorID:     "system",
	}
	payment, err := h.PaymentSuccess(ctx, pc, "evt-3", "order-3", decimal.NewFromInt(100), decimal.NewFromInt(2), decimal.NewFromInt(1), "INR")
	require.NoError(t, err)

	cb, err := h.ChargebackDebit(ctx, pc, "evt-3-cb", string(payment.Transaction.ID), decimal.NewFromInt(30), "INR")
	require.NoError(t, err)
	assert.True(t, cb.Validation.Balanced)
	assert.Len(t, cb.Entries, 4)

	reversal, err := h.ChargebackReversal(ctx, pc, cb.Transaction.ID, "dispute resolved in merchant's favor")
	require.NoError(t, err)
	assert.True(t, reversal.Validation.Balanced)
	assert.Equal(t, cb.Transaction.ID, reversal.Transaction.ReversesTransactionID)
}
