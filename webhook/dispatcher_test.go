package webhook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/store/sqlite"
	"github.com/nodalpay/paycore/webhook"
)

const testTenant = ledger.TenantID("tenant-1")

func newTestDispatcher(t *testing.T, orderID string) *webhook.Dispatcher {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, sqlite.SeedChartOfAccounts(context.Background(), store, testTenant, []string{orderID}, func(code string) string {
		return "acct-" + code
	}))

	now := func() int64 { return 1700000000000000000 }
	cfg := config.Defaults()
	ldg := ledger.New(store, store, cfg, now)
	periodCtl := period.New(store, store, cfg, now)
	handlers := events.New(ldg, periodCtl, store, cfg, now)

	secrets := webhook.StaticSecretResolver{}
	secrets.Set(string(testTenant), "razorpay", "shared-secret")
	return &webhook.Dispatcher{Events: handlers, Secrets: secrets}
}

func TestDispatcher_Apply_SuccessPaymentPosts(t *testing.T) {
	d := newTestDispatcher(t, "order-1")

	txnID, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		OrderID:       "order-1",
		TransactionID: "rzp_txn_1",
		RawStatus:     "SUCCESS",
		Amount:        "100",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txnID)
}

func TestDispatcher_Apply_CompletedStatusAlsoPosts(t *testing.T) {
	d := newTestDispatcher(t, "order-2")

	txnID, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		OrderID:       "order-2",
		TransactionID: "rzp_txn_2",
		RawStatus:     "COMPLETED",
		Amount:        "100",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txnID)
}

func TestDispatcher_Apply_PendingAcknowledgesWithoutPosting(t *testing.T) {
	d := newTestDispatcher(t, "order-3")

	txnID, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		OrderID:       "order-3",
		TransactionID: "rzp_txn_3",
		RawStatus:     "PENDING",
		Amount:        "100",
	})
	require.NoError(t, err)
	assert.Equal(t, "rzp_txn_3", txnID, "pending payloads are acknowledged with the transaction id, nothing is posted")
}

func TestDispatcher_Apply_FailedAcknowledgesWithoutPosting(t *testing.T) {
	d := newTestDispatcher(t, "order-4")

	txnID, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		OrderID:       "order-4",
		TransactionID: "rzp_txn_4",
		RawStatus:     "FAILED",
		Amount:        "100",
	})
	require.NoError(t, err)
	assert.Equal(t, "rzp_txn_4", txnID)
}

func TestDispatcher_Apply_QRCodeIDAloneIsAValidOrderIdentifier(t *testing.T) {
	d := newTestDispatcher(t, "qr-5")

	txnID, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		QRCodeID:      "qr-5",
		TransactionID: "rzp_txn_qr5",
		RawStatus:     "SUCCESS",
		Amount:        "100",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txnID)
}

func TestDispatcher_Apply_MissingOrderIdentifierRejected(t *testing.T) {
	d := newTestDispatcher(t, "order-6")

	_, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		TransactionID: "rzp_txn_6",
		RawStatus:     "SUCCESS",
		Amount:        "100",
	})
	assert.ErrorIs(t, err, webhook.ErrMissingOrderIdentifier)
}

func TestDispatcher_Apply_ProvisionsUnseenMerchantOnFirstPayment(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, sqlite.SeedChartOfAccounts(context.Background(), store, testTenant, nil, func(code string) string {
		return "acct-" + code
	}))

	now := func() int64 { return 1700000000000000000 }
	cfg := config.Defaults()
	ldg := ledger.New(store, store, cfg, now)
	periodCtl := period.New(store, store, cfg, now)
	handlers := events.New(ldg, periodCtl, store, cfg, now)

	secrets := webhook.StaticSecretResolver{}
	secrets.Set(string(testTenant), "razorpay", "shared-secret")
	d := &webhook.Dispatcher{Events: handlers, Secrets: secrets, Provisioner: store}

	txnID, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		OrderID:       "order-never-seeded",
		TransactionID: "rzp_txn_new",
		RawStatus:     "SUCCESS",
		Amount:        "100",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txnID)
}

func TestDispatcher_Apply_BadAmountErrors(t *testing.T) {
	d := newTestDispatcher(t, "order-7")

	_, err := d.Apply(context.Background(), testTenant, "razorpay", webhook.Payload{
		OrderID:       "order-7",
		TransactionID: "rzp_txn_7",
		RawStatus:     "SUCCESS",
		Amount:        "not-a-number",
	})
	assert.Error(t, err)
}
