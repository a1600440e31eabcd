package period_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
	"github.com/nodalpay/paycore/store/sqlite"
)

const testTenant = ledger.TenantID("tenant-1")

func newTestController(t *testing.T) (*period.Controller, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := func() int64 { return 1700000000000000000 }
	return period.New(store, store, config.Defaults(), now), store
}

func jan2025() (time.Time, time.Time) {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
}

func TestClosePeriod_GraduatedClosure(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()
	start, end := jan2025()

	p, err := c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, start, end)
	require.NoError(t, err)
	assert.Equal(t, period.PeriodOpen, p.Status)

	p, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodSoftClosed, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, period.PeriodSoftClosed, p.Status)

	p, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodHardClosed, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, period.PeriodHardClosed, p.Status)
}

func TestClosePeriod_SkippingSoftClose_Rejected(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()
	start, end := jan2025()

	p, err := c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, start, end)
	require.NoError(t, err)

	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodHardClosed, "ops-1")
	var transitionErr *period.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, period.PeriodOpen, transitionErr.From)
	assert.Equal(t, period.PeriodHardClosed, transitionErr.To)
}

func TestClosePeriod_HardClosedIsOneWay(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()
	start, end := jan2025()

	p, err := c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, start, end)
	require.NoError(t, err)
	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodSoftClosed, "ops-1")
	require.NoError(t, err)
	p, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodHardClosed, "ops-1")
	require.NoError(t, err)

	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodHardClosed, "ops-1")
	assert.ErrorIs(t, err, period.ErrPeriodAlreadyClosed)
}

func TestClosePeriod_HardClose_AutoCreatesLockAndBlocksPosting(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()
	start, end := jan2025()

	p, err := c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, start, end)
	require.NoError(t, err)
	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodSoftClosed, "ops-1")
	require.NoError(t, err)
	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodHardClosed, "ops-1")
	require.NoError(t, err)

	check, err := c.CheckPeriodForPosting(ctx, testTenant, period.PeriodMonthly, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	// A PERIOD_LOCK accepts no override, even though posting is blocked.
	assert.False(t, check.RequiresOverride)
	require.NotNil(t, check.BlockingLock)
	assert.Equal(t, period.LockPeriod, check.BlockingLock.Type)
}

func TestHardClose_OverrideNeverAccepted(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()
	start, end := jan2025()

	p, err := c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, start, end)
	require.NoError(t, err)
	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodSoftClosed, "ops-1")
	require.NoError(t, err)
	_, err = c.ClosePeriod(ctx, testTenant, p.ID, period.PeriodHardClosed, "ops-1")
	require.NoError(t, err)

	check, err := c.CheckPeriodForPosting(ctx, testTenant, period.PeriodMonthly, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.NotNil(t, check.BlockingLock)

	// Filing a request against the auto-created PERIOD_LOCK is rejected
	// outright - no override can ever reopen a hard-closed period.
	_, err = c.RequestOverride(ctx, testTenant, check.BlockingLock.ID, "ops-1", "ops", "please let me post anyway")
	assert.ErrorIs(t, err, period.ErrOverrideNotAllowedForPeriodLock)
}

func TestCreatePeriod_GapTooLarge_Rejected(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()
	start, end := jan2025()

	_, err := c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, start, end)
	require.NoError(t, err)

	farStart := end.AddDate(0, 2, 0)
	farEnd := farStart.AddDate(0, 1, 0)
	_, err = c.CreatePeriod(ctx, testTenant, period.PeriodMonthly, farStart, farEnd)
	assert.ErrorIs(t, err, period.ErrPeriodGapTooLarge)
}

func TestRequestOverride_ShortJustificationRejected(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	lock, err := c.ApplyLock(ctx, testTenant, period.LockAudit, time.Now(), time.Now().Add(24*time.Hour), "audit in progress", "auditor-1")
	require.NoError(t, err)

	_, err = c.RequestOverride(ctx, testTenant, lock.ID, "ops-1", "ops", "too short")
	assert.ErrorIs(t, err, period.ErrJustificationTooShort)
}

func TestOverrideWorkflow_SelfApprovalRejected(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	lock, err := c.ApplyLock(ctx, testTenant, period.LockAudit, time.Now(), time.Now().Add(24*time.Hour), "audit in progress", "auditor-1")
	require.NoError(t, err)

	req, err := c.RequestOverride(ctx, testTenant, lock.ID, "ops-1", "ops", "urgent correction")
	require.NoError(t, err)

	_, err = c.ApproveOverride(ctx, testTenant, req.ID, "ops-1", "ops", "approving my own request")
	assert.ErrorIs(t, err, period.ErrSelfApproval)
}

func TestOverrideWorkflow_SameRoleRejected(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	lock, err := c.ApplyLock(ctx, testTenant, period.LockAudit, time.Now(), time.Now().Add(24*time.Hour), "audit in progress", "auditor-1")
	require.NoError(t, err)

	req, err := c.RequestOverride(ctx, testTenant, lock.ID, "ops-1", "ops", "urgent correction")
	require.NoError(t, err)

	_, err = c.ApproveOverride(ctx, testTenant, req.ID, "ops-2", "ops", "same role as requestor")
	assert.ErrorIs(t, err, period.ErrSameRole)
}

func TestOverrideWorkflow_ApproveThenConsumeOnce(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	lock, err := c.ApplyLock(ctx, testTenant, period.LockAudit, time.Now(), time.Now().Add(24*time.Hour), "audit in progress", "auditor-1")
	require.NoError(t, err)

	req, err := c.RequestOverride(ctx, testTenant, lock.ID, "ops-1", "ops", "urgent correction")
	require.NoError(t, err)

	approved, err := c.ApproveOverride(ctx, testTenant, req.ID, "finance-1", "finance", "looks good")
	require.NoError(t, err)
	assert.Equal(t, period.OverrideApproved, approved.Status)

	token, err := c.ConsumeOverride(ctx, testTenant, req.ID)
	require.NoError(t, err)
	assert.Equal(t, lock.ID, token.LockID)

	_, err = c.ConsumeOverride(ctx, testTenant, req.ID)
	assert.ErrorIs(t, err, period.ErrOverrideAlreadyConsumed)
}

func TestReleaseLock_UnblocksPosting(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	now := time.Now()
	lock, err := c.ApplyLock(ctx, testTenant, period.LockReconciliation, now.Add(-time.Hour), now.Add(time.Hour), "reconciling", "ops-1")
	require.NoError(t, err)

	check, err := c.CheckPeriodForPosting(ctx, testTenant, period.PeriodDaily, now)
	require.NoError(t, err)
	assert.False(t, check.Allowed)

	require.NoError(t, c.ReleaseLock(ctx, testTenant, lock.ID, "ops-1"))

	check, err = c.CheckPeriodForPosting(ctx, testTenant, period.PeriodDaily, now)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
}
