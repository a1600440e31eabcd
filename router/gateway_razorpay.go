package router

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RazorpayGateway is a stand-in adapter for Razorpay. Real deployments
// would wrap Razorpay's HTTP SDK here; this adapter, like the PayU and
// CCAvenue ones, exists so the router has Gateway implementations to
// select between during development and in tests.
type RazorpayGateway struct{}

func NewRazorpayGateway() *RazorpayGateway { return &RazorpayGateway{} }

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	start := time.Now()
	return Result{
		Success:        true,
		GatewayTxnID:   "rzp_" + uuid.NewString(),
		ResponseMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (g *RazorpayGateway) Refund(ctx context.Context, gatewayTxnID string, amount string) (Result, error) {
	start := time.Now()
	return Result{
		Success:        true,
		GatewayTxnID:   "rzp_rfnd_" + uuid.NewString(),
		ResponseMillis: time.Since(start).Milliseconds(),
	}, nil
}
