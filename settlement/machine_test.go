package settlement_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/settlement"
	"github.com/nodalpay/paycore/store/sqlite"
)

const testTenant = ledger.TenantID("tenant-1")

func newTestMachine(t *testing.T) (*settlement.Machine, *sqlite.Store) {
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
	handlers := events.New(ldg, periodCtl, store, cfg, now)
	return settlement.New(store, handlers, store, cfg, now), store
}

func TestSettlement_FullHappyPath(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(500), "INR")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusCreated, s.Status)

	s, err = m.ReserveFunds(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusFundsReserved, s.Status)

	s, err = m.SendToBank(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusSentToBank, s.Status)

	s, err = m.ConfirmByBank(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusBankConfirmed, s.Status)
	assert.False(t, s.IsFinal(), "bank confirmation alone is never final")

	s, err = m.MarkSettled(ctx, testTenant, s.ID, "merchant-1", "UTR123456", "ops-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusSettled, s.Status)
	assert.True(t, s.IsFinal())
}

func TestMarkSettled_RequiresUTR(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	s, err = m.ReserveFunds(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	s, err = m.SendToBank(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	s, err = m.ConfirmByBank(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)

	_, err = m.MarkSettled(ctx, testTenant, s.ID, "merchant-1", "", "ops-1")
	assert.ErrorIs(t, err, settlement.ErrUTRRequired)
}

func TestMarkFailed_EscapeHatchFromAnyNonTerminalState(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(200), "INR")
	require.NoError(t, err)

	s, err = m.MarkFailed(ctx, testTenant, s.ID, "gateway timeout", "system")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusFailed, s.Status)
	assert.NotNil(t, s.NextRetryAt)
}

func TestMarkFailed_CannotOverrideSettled(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(200), "INR")
	require.NoError(t, err)
	s, err = m.ReserveFunds(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	s, err = m.SendToBank(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	s, err = m.ConfirmByBank(ctx, testTenant, s.ID, "ops-1")
	require.NoError(t, err)
	s, err = m.MarkSettled(ctx, testTenant, s.ID, "merchant-1", "UTR999", "ops-1")
	require.NoError(t, err)

	_, err = m.MarkFailed(ctx, testTenant, s.ID, "late failure", "system")
	var te *settlement.TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestRetrySettlement_ResumesFundsReservedAndBoundsRetries(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(300), "INR")
	require.NoError(t, err)
	s, err = m.MarkFailed(ctx, testTenant, s.ID, "attempt 1 failed", "system")
	require.NoError(t, err)

	s, err = m.RetrySettlement(ctx, testTenant, s.ID, "system")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusFundsReserved, s.Status)
	assert.Equal(t, 1, s.RetryCount)

	maxRetries := s.MaxRetries
	for i := 1; i < maxRetries; i++ {
		s, err = m.MarkFailed(ctx, testTenant, s.ID, "retry failed", "system")
		require.NoError(t, err)
		s, err = m.RetrySettlement(ctx, testTenant, s.ID, "system")
		require.NoError(t, err)
	}
	assert.Equal(t, maxRetries, s.RetryCount)

	s, err = m.MarkFailed(ctx, testTenant, s.ID, "final failure", "system")
	require.NoError(t, err)
	_, err = m.RetrySettlement(ctx, testTenant, s.ID, "system")
	assert.ErrorIs(t, err, settlement.ErrRetryExhausted)
}

func TestRetrySettlement_NotRetryableUnlessFailed(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(150), "INR")
	require.NoError(t, err)

	_, err = m.RetrySettlement(ctx, testTenant, s.ID, "system")
	assert.ErrorIs(t, err, settlement.ErrNotRetryable)
}

func TestSettlementsDueForRetry_OnlyReturnsElapsedBackoff(t *testing.T) {
	m, _ := newTestMachine(t)
	ctx := context.Background()

	s, err := m.CreateSettlement(ctx, testTenant, "merchant-1", decimal.NewFromInt(400), "INR")
	require.NoError(t, err)
	_, err = m.MarkFailed(ctx, testTenant, s.ID, "down", "system")
	require.NoError(t, err)

	due, err := m.SettlementsDueForRetry(ctx, testTenant)
	require.NoError(t, err)
	assert.Empty(t, due, "the fixed test clock never advances past the backoff window")
}
