package router

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CCAvenueGateway is a stand-in adapter for CCAvenue.
type CCAvenueGateway struct{}

func NewCCAvenueGateway() *CCAvenueGateway { return &CCAvenueGateway{} }

func (g *CCAvenueGateway) Name() string { return "ccavenue" }

func (g *CCAvenueGateway) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	start := time.Now()
	return Result{
		Success:        true,
		GatewayTxnID:   "ccav_" + uuid.NewString(),
		ResponseMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (g *CCAvenueGateway) Refund(ctx context.Context, gatewayTxnID string, amount string) (Result, error) {
	start := time.Now()
	return Result{
		Success:        true,
		GatewayTxnID:   "ccav_rfnd_" + uuid.NewString(),
		ResponseMillis: time.Since(start).Milliseconds(),
	}, nil
}
