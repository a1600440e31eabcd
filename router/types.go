/*
Package router implements the smart gateway router: a health-tracked,
strategy-driven selection of a payment gateway, with an ordered
fallback list for when the first choice's attempt fails.
*/
package router

import (
	"context"
	"time"
)

// Status classifies a gateway's recent health.
type Status string

const (
	StatusHealthy   Status = "HEALTHY"
	StatusDegraded  Status = "DEGRADED"
	StatusUnhealthy Status = "UNHEALTHY"
)

// Health is the derived health snapshot for one gateway.
type Health struct {
	Gateway            string
	SuccessRate        float64 // 0..1 over the tracked window
	AvgResponseMillis  float64
	P95ResponseMillis  float64
	Score              int // 0..100, 70*success_rate + responseScore
	Status             Status
	SampleCount        int
}

// Result is what a Gateway adapter returns from Charge/Refund.
type Result struct {
	Success        bool
	GatewayTxnID   string
	ResponseMillis int64
	ErrorCode      string
	ErrorMessage   string
}

// ChargeRequest is the gateway-agnostic request passed to Gateway.Charge.
type ChargeRequest struct {
	OrderID  string
	Amount   string // decimal string, gateway adapters parse per their own SDK needs
	Currency string
	Metadata map[string]string
}

// Gateway is the capability interface every payment gateway adapter
// implements. Dispatch is by interface, never by type-switch on a
// concrete gateway struct.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (Result, error)
	Refund(ctx context.Context, gatewayTxnID string, amount string) (Result, error)
}

// sample is one recorded attempt, kept in HealthTracker's rolling window.
type sample struct {
	success      bool
	responseMS   int64
	at           time.Time
}
