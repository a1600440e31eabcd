package router

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PayUGateway is a stand-in adapter for PayU.
type PayUGateway struct{}

func NewPayUGateway() *PayUGateway { return &PayUGateway{} }

func (g *PayUGateway) Name() string { return "payu" }

func (g *PayUGateway) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	start := time.Now()
	return Result{
		Success:        true,
		GatewayTxnID:   "payu_" + uuid.NewString(),
		ResponseMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (g *PayUGateway) Refund(ctx context.Context, gatewayTxnID string, amount string) (Result, error) {
	start := time.Now()
	return Result{
		Success:        true,
		GatewayTxnID:   "payu_rfnd_" + uuid.NewString(),
		ResponseMillis: time.Since(start).Milliseconds(),
	}, nil
}
