package router_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/router"
)

type stubGateway struct{ name string }

func (g stubGateway) Name() string { return g.name }
func (g stubGateway) Charge(ctx context.Context, req router.ChargeRequest) (router.Result, error) {
	return router.Result{Success: true}, nil
}
func (g stubGateway) Refund(ctx context.Context, gatewayTxnID, amount string) (router.Result, error) {
	return router.Result{Success: true}, nil
}

func newGateways(names ...string) []router.Gateway {
	gateways := make([]router.Gateway, 0, len(names))
	for _, n := range names {
		gateways = append(gateways, stubGateway{name: n})
	}
	return gateways
}

func TestSelect_HealthBased_PrefersHealthiestGateway(t *testing.T) {
	cfg := config.Defaults()
	r := router.New(newGateways("razorpay", "payu"), cfg)

	for i := 0; i < 10; i++ {
		r.RecordSuccess("razorpay", 50)
		r.RecordFailure("payu", 2000)
	}

	selected, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	require.NotEmpty(t, selected)
	assert.Equal(t, "razorpay", selected[0].Name())
}

func TestSelect_RoundRobin_RotatesAcrossCalls(t *testing.T) {
	cfg := config.Defaults()
	cfg.RoutingStrategy = config.StrategyRoundRobin
	cfg.GatewayPriority = []string{"razorpay", "payu", "ccavenue"}
	r := router.New(newGateways("razorpay", "payu", "ccavenue"), cfg)

	first, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	second, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)

	assert.NotEqual(t, first[0].Name(), second[0].Name(), "round robin must advance the cursor between calls")
}

func TestSelect_RoundRobin_ConcurrencySafe(t *testing.T) {
	cfg := config.Defaults()
	cfg.RoutingStrategy = config.StrategyRoundRobin
	cfg.GatewayPriority = []string{"razorpay", "payu", "ccavenue"}
	r := router.New(newGateways("razorpay", "payu", "ccavenue"), cfg)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestSelect_CostOptimized_PrefersCheaperGateway(t *testing.T) {
	cfg := config.Defaults()
	cfg.RoutingStrategy = config.StrategyCostOptimized
	cfg.GatewayCosts = map[string]config.GatewayCost{
		"razorpay": {FixedFee: decimal.NewFromFloat(2), PercentageFee: decimal.NewFromFloat(0.02)},
		"payu":     {FixedFee: decimal.NewFromFloat(0.5), PercentageFee: decimal.NewFromFloat(0.01)},
	}
	r := router.New(newGateways("razorpay", "payu"), cfg)

	selected, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	assert.Equal(t, "payu", selected[0].Name())
}

func TestSelect_CostOptimized_ScalesWithAmount(t *testing.T) {
	cfg := config.Defaults()
	cfg.RoutingStrategy = config.StrategyCostOptimized
	cfg.GatewayCosts = map[string]config.GatewayCost{
		// razorpay: low fixed fee, high percentage - cheaper only for small amounts.
		"razorpay": {FixedFee: decimal.NewFromFloat(1), PercentageFee: decimal.NewFromFloat(0.05)},
		// payu: higher fixed fee, low percentage - cheaper once the percentage leg dominates.
		"payu": {FixedFee: decimal.NewFromFloat(10), PercentageFee: decimal.NewFromFloat(0.01)},
	}
	r := router.New(newGateways("razorpay", "payu"), cfg)

	small, err := r.Select(context.Background(), decimal.NewFromInt(10), "INR")
	require.NoError(t, err)
	assert.Equal(t, "razorpay", small[0].Name(), "at small amounts the low fixed fee wins")

	large, err := r.Select(context.Background(), decimal.NewFromInt(10000), "INR")
	require.NoError(t, err)
	assert.Equal(t, "payu", large[0].Name(), "at large amounts the low percentage fee wins")
}

func TestSelect_Priority_HonorsConfiguredOrder(t *testing.T) {
	cfg := config.Defaults()
	cfg.RoutingStrategy = config.StrategyPriority
	cfg.GatewayPriority = []string{"ccavenue", "razorpay", "payu"}
	r := router.New(newGateways("razorpay", "payu", "ccavenue"), cfg)

	selected, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	require.Len(t, selected, 3)
	assert.Equal(t, "ccavenue", selected[0].Name())
	assert.Equal(t, "razorpay", selected[1].Name())
	assert.Equal(t, "payu", selected[2].Name())
}

func TestSelect_MaxFallbackAttempts_TruncatesList(t *testing.T) {
	cfg := config.Defaults()
	cfg.RoutingStrategy = config.StrategyPriority
	cfg.GatewayPriority = []string{"razorpay", "payu", "ccavenue"}
	cfg.MaxFallbackAttempts = 2
	r := router.New(newGateways("razorpay", "payu", "ccavenue"), cfg)

	selected, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	assert.Len(t, selected, 2)
}

func TestSelect_NoGatewaysConfigured_ReturnsError(t *testing.T) {
	r := router.New(nil, config.Defaults())
	_, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	assert.ErrorIs(t, err, router.ErrNoGatewayAvailable)
}

func TestHealth_UntestedGatewayReportsHealthy(t *testing.T) {
	r := router.New(newGateways("razorpay"), config.Defaults())
	h := r.Health("razorpay")
	assert.Equal(t, router.StatusHealthy, h.Status)
	assert.Equal(t, 100, h.Score)
}

func TestHealth_AllFailuresReportsUnhealthyAndExcludesFromCandidates(t *testing.T) {
	cfg := config.Defaults()
	cfg.GatewayPriority = []string{"razorpay", "payu"}
	r := router.New(newGateways("razorpay", "payu"), cfg)

	for i := 0; i < 20; i++ {
		r.RecordFailure("razorpay", 2900)
	}
	for i := 0; i < 20; i++ {
		r.RecordSuccess("payu", 50)
	}

	assert.Equal(t, router.StatusUnhealthy, r.Health("razorpay").Status)

	selected, err := r.Select(context.Background(), decimal.NewFromInt(100), "INR")
	require.NoError(t, err)
	require.NotEmpty(t, selected)
	assert.Equal(t, "payu", selected[0].Name())
}

func TestHealth_HighSuccessRateButSlowIsDegradedNotHealthy(t *testing.T) {
	r := router.New(newGateways("razorpay"), config.Defaults())
	for i := 0; i < 20; i++ {
		r.RecordSuccess("razorpay", 3000)
	}
	h := r.Health("razorpay")
	assert.Equal(t, router.StatusDegraded, h.Status, "a 3s average response time fails the HEALTHY latency bound even at a perfect success rate")
}

func TestHealth_ModerateSuccessRateWithinLatencyBoundIsDegraded(t *testing.T) {
	r := router.New(newGateways("razorpay"), config.Defaults())
	for i := 0; i < 16; i++ {
		r.RecordSuccess("razorpay", 100)
	}
	for i := 0; i < 4; i++ {
		r.RecordFailure("razorpay", 100)
	}
	h := r.Health("razorpay")
	assert.InDelta(t, 0.80, h.SuccessRate, 0.001)
	assert.Equal(t, router.StatusDegraded, h.Status)
}
