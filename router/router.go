/*
router.go - strategy-driven gateway selection

Five strategies share one Select entrypoint; the strategy itself is
just a sort order over the configured gateway list, filtered to
gateways that are at least DEGRADED (never route fresh traffic to an
UNHEALTHY gateway when a better one exists).
*/
package router

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/config"
)

// ErrNoGatewayAvailable is returned when no configured gateway is
// registered with the router. When every gateway is UNHEALTHY, Select
// still returns them as last-resort candidates.
var ErrNoGatewayAvailable = errors.New("no gateway available")

// Router selects a Gateway per request and tracks outcomes to feed
// back into future selections.
type Router struct {
	gateways map[string]Gateway
	health   *HealthTracker
	cfg      config.Config

	rrMu             sync.Mutex
	roundRobinCursor int
}

func New(gateways []Gateway, cfg config.Config) *Router {
	m := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Name()] = g
	}
	return &Router{
		gateways: m,
		health:   NewHealthTracker(),
		cfg:      cfg,
	}
}

// Select returns the ordered fallback list of gateways to attempt for
// one charge, per the configured RoutingStrategy. The first entry is
// the primary choice; callers attempt subsequent entries only if the
// primary's Charge call fails, up to config.MaxFallbackAttempts.
func (r *Router) Select(ctx context.Context, amount decimal.Decimal, currency string) ([]Gateway, error) {
	candidates := r.candidateNames()
	if len(candidates) == 0 {
		return nil, ErrNoGatewayAvailable
	}

	var ordered []string
	switch r.cfg.RoutingStrategy {
	case config.StrategyRoundRobin:
		ordered = r.orderRoundRobin(candidates)
	case config.StrategyCostOptimized:
		ordered = r.orderByCost(candidates, amount)
	case config.StrategyLatencyBased:
		ordered = r.orderByLatency(candidates)
	case config.StrategyPriority:
		ordered = r.orderByPriority(candidates)
	default: // HEALTH_BASED
		ordered = r.orderByHealth(candidates)
	}

	max := r.cfg.MaxFallbackAttempts
	if max <= 0 || max > len(ordered) {
		max = len(ordered)
	}
	ordered = ordered[:max]

	gateways := make([]Gateway, 0, len(ordered))
	for _, name := range ordered {
		gateways = append(gateways, r.gateways[name])
	}
	return gateways, nil
}

// FallbackList is an alias for Select kept for callers that want to
// name the "give me every gateway I should try, in order" intent
// explicitly.
func (r *Router) FallbackList(ctx context.Context, amount decimal.Decimal, currency string) ([]Gateway, error) {
	return r.Select(ctx, amount, currency)
}

// RecordSuccess feeds a successful attempt back into the health tracker.
func (r *Router) RecordSuccess(gateway string, responseMillis int64) {
	r.health.RecordSuccess(gateway, responseMillis)
}

// RecordFailure feeds a failed attempt back into the health tracker.
func (r *Router) RecordFailure(gateway string, responseMillis int64) {
	r.health.RecordFailure(gateway, responseMillis)
}

// Health exposes the current derived health for one gateway.
func (r *Router) Health(gateway string) Health { return r.health.Health(gateway) }

// =============================================================================
// ORDERING STRATEGIES
// =============================================================================

// candidateNames returns every configured gateway that is not
// currently UNHEALTHY, using the configured priority order as the base
// iteration order, or the gateway names in sorted order when no
// priority list is set.
func (r *Router) candidateNames() []string {
	base := r.cfg.GatewayPriority
	if len(base) == 0 {
		for name := range r.gateways {
			base = append(base, name)
		}
		sort.Strings(base)
	}

	out := make([]string, 0, len(base))
	for _, name := range base {
		if _, ok := r.gateways[name]; !ok {
			continue
		}
		if r.health.Health(name).Status == StatusUnhealthy {
			continue
		}
		out = append(out, name)
	}
	// If filtering left nothing (every gateway unhealthy), fall back to
	// the full list rather than refusing to route at all.
	if len(out) == 0 {
		for _, name := range base {
			if _, ok := r.gateways[name]; ok {
				out = append(out, name)
			}
		}
	}
	return out
}

func (r *Router) orderByHealth(candidates []string) []string {
	ordered := append([]string(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return r.health.Health(ordered[i]).Score > r.health.Health(ordered[j]).Score
	})
	return ordered
}

// orderByPriority puts every candidate whose health score clears the
// configured threshold first, in configured-priority order, followed
// by the rest (still in configured order) as a last resort.
func (r *Router) orderByPriority(candidates []string) []string {
	aboveThreshold := make([]string, 0, len(candidates))
	belowThreshold := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if r.health.Health(name).Score >= r.cfg.HealthScoreThreshold {
			aboveThreshold = append(aboveThreshold, name)
		} else {
			belowThreshold = append(belowThreshold, name)
		}
	}
	return append(aboveThreshold, belowThreshold...)
}

func (r *Router) orderByCost(candidates []string, amount decimal.Decimal) []string {
	ordered := append([]string(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return r.estimatedCost(ordered[i], amount).LessThan(r.estimatedCost(ordered[j], amount))
	})
	return ordered
}

// estimatedCost is fixed_fee + amount * percentage_fee for the given
// gateway, the exact per-transaction quote the COST_OPTIMIZED strategy
// ranks gateways by - not a representative unit amount.
func (r *Router) estimatedCost(gateway string, amount decimal.Decimal) decimal.Decimal {
	cost, ok := r.cfg.GatewayCosts[gateway]
	if !ok {
		return decimal.NewFromInt(0)
	}
	return cost.FixedFee.Add(cost.PercentageFee.Mul(amount))
}

func (r *Router) orderByLatency(candidates []string) []string {
	ordered := append([]string(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return r.health.Health(ordered[i]).AvgResponseMillis < r.health.Health(ordered[j]).AvgResponseMillis
	})
	return ordered
}

func (r *Router) orderRoundRobin(candidates []string) []string {
	if len(candidates) == 0 {
		return candidates
	}
	r.rrMu.Lock()
	start := r.roundRobinCursor % len(candidates)
	r.roundRobinCursor++
	r.rrMu.Unlock()

	ordered := make([]string, 0, len(candidates))
	for i := 0; i < len(candidates); i++ {
		ordered = append(ordered, candidates[(start+i)%len(candidates)])
	}
	return ordered
}
