/*
Package config defines the single configuration record shared by every
component of the payment aggregator core.

PURPOSE:
  Routing strategy, fallback thresholds, settlement retry policy, period
  tolerance, and balance tolerance are all collected in one struct and
  passed explicitly to each component's constructor. Nothing here is a
  package-level singleton: two tenants, or two tests, can run with two
  different Config values in the same process.

SEE ALSO:
  - router: consumes GatewayPriority, GatewayCosts, HealthScoreThreshold,
    MaxFallbackAttempts, RoutingStrategy
  - settlement: consumes SettlementMaxRetries, SettlementRetryBackoffMinutes
  - period: consumes PeriodGapToleranceDays
  - ledger: consumes BalanceTolerance
*/
package config

import "github.com/shopspring/decimal"

// RoutingStrategy selects how the smart router picks a gateway.
type RoutingStrategy string

const (
	StrategyHealthBased    RoutingStrategy = "HEALTH_BASED"
	StrategyRoundRobin     RoutingStrategy = "ROUND_ROBIN"
	StrategyCostOptimized  RoutingStrategy = "COST_OPTIMIZED"
	StrategyLatencyBased   RoutingStrategy = "LATENCY_BASED"
	StrategyPriority       RoutingStrategy = "PRIORITY"
)

// GatewayCost is the fee model used by the COST_OPTIMIZED strategy.
type GatewayCost struct {
	FixedFee      decimal.Decimal
	PercentageFee decimal.Decimal // e.g. 0.02 for 2%
}

// Config is the enumerated options record passed to every component at
// construction. Either start from Defaults(), or fill in the fields you
// need and call WithDefaults() to backfill anything left unset.
type Config struct {
	// Router
	GatewayPriority      []string
	GatewayCosts         map[string]GatewayCost
	HealthScoreThreshold int
	MaxFallbackAttempts  int
	RoutingStrategy      RoutingStrategy

	// Settlement
	SettlementMaxRetries          int
	SettlementRetryBackoffMinutes []int

	// Period
	PeriodGapToleranceDays int

	// Ledger
	BalanceTolerance decimal.Decimal
}

// Defaults returns a Config with every field set to its default value.
func Defaults() Config {
	return Config{
		GatewayPriority:      nil,
		GatewayCosts:         map[string]GatewayCost{},
		HealthScoreThreshold: 50,
		MaxFallbackAttempts:  3,
		RoutingStrategy:      StrategyHealthBased,

		SettlementMaxRetries:          3,
		SettlementRetryBackoffMinutes: []int{15, 60, 240},

		PeriodGapToleranceDays: 2,

		BalanceTolerance: decimal.NewFromFloat(0.01),
	}
}

// WithDefaults fills any zero-valued field of c with the package default,
// leaving fields the caller already set untouched.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.GatewayCosts == nil {
		c.GatewayCosts = d.GatewayCosts
	}
	if c.HealthScoreThreshold == 0 {
		c.HealthScoreThreshold = d.HealthScoreThreshold
	}
	if c.MaxFallbackAttempts == 0 {
		c.MaxFallbackAttempts = d.MaxFallbackAttempts
	}
	if c.RoutingStrategy == "" {
		c.RoutingStrategy = d.RoutingStrategy
	}
	if c.SettlementMaxRetries == 0 {
		c.SettlementMaxRetries = d.SettlementMaxRetries
	}
	if len(c.SettlementRetryBackoffMinutes) == 0 {
		c.SettlementRetryBackoffMinutes = d.SettlementRetryBackoffMinutes
	}
	if c.PeriodGapToleranceDays == 0 {
		c.PeriodGapToleranceDays = d.PeriodGapToleranceDays
	}
	if c.BalanceTolerance.IsZero() {
		c.BalanceTolerance = d.BalanceTolerance
	}
	return c
}

// RetryBackoff returns the backoff duration (in minutes) for the given
// zero-based retry attempt, clamped to the last configured value.
func (c Config) RetryBackoff(attempt int) int {
	backoffs := c.SettlementRetryBackoffMinutes
	if len(backoffs) == 0 {
		backoffs = Defaults().SettlementRetryBackoffMinutes
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(backoffs) {
		attempt = len(backoffs) - 1
	}
	return backoffs[attempt]
}
