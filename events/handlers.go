/*
Package events translates business events - a successful payment, a
refund, a bank settlement, a chargeback and its reversal, a manual
adjustment - into the fixed, balanced sets of ledger entries each one
requires. This is the layer timeoff/ledger.go occupies in the teacher
repo: a domain-specific wrapper around a generic posting engine, so the
posting engine itself never has to know what a "chargeback" is.

The entry shape each handler produces is normative, not an
implementation detail: callers get exactly these postings and no
others, against the fixed chart-of-accounts codes below.

GATING:
  Every handler consults the period Controller before posting. If
  posting is blocked by an active AUDIT_LOCK or RECONCILIATION_LOCK, the
  caller must have already run the dual-confirmation request/approve
  workflow and pass the approved request's OverrideID in
  PostingContext.Override; the handler consumes it and posts the ledger
  transaction inside the same transaction, so a failed post never
  silently burns the override. A HARD_CLOSED period or a PERIOD_LOCK
  blocks posting whether or not an override is passed.
*/
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/dbtx"
	"github.com/nodalpay/paycore/ledger"
	"github.com/nodalpay/paycore/period"
)

// Well-known global account codes the chart of accounts is seeded
// with. These are not user-configurable; they are the fixed vocabulary
// the event handlers post against.
const (
	AccountEscrowBank          = "ESCROW_BANK"
	AccountEscrowLiability     = "ESCROW_LIABILITY"
	AccountPlatformReceivable  = "PLATFORM_RECEIVABLE"
	AccountPlatformMDR         = "PLATFORM_MDR"
	AccountGatewayFeeExpense   = "GATEWAY_FEE_EXPENSE"
	AccountGatewayPayable      = "GATEWAY_PAYABLE"
	AccountChargebackLiability = "CHARGEBACK_LIABILITY"
)

// MerchantReceivableAccount, MerchantPayableAccount and
// MerchantSettlementAccount derive the per-merchant sub-accounts a
// given merchant key is seeded with. merchantKey is typically the
// merchant_id; sub-accounts exist per merchant so one merchant's
// balance never leaks into another's.
func MerchantReceivableAccount(merchantKey string) string { return "MERCHANT_RECEIVABLE:" + merchantKey }
func MerchantPayableAccount(merchantKey string) string    { return "MERCHANT_PAYABLE:" + merchantKey }
func MerchantSettlementAccount(merchantKey string) string { return "MERCHANT_SETTLEMENT:" + merchantKey }

// Handlers is the event-to-ledger-entry translation layer.
type Handlers struct {
	ledger *ledger.Ledger
	period *period.Controller
	tx     dbtx.Beginner
	cfg    config.Config
	now    func() int64
}

func New(l *ledger.Ledger, p *period.Controller, tx dbtx.Beginner, cfg config.Config, now func() int64) *Handlers {
	return &Handlers{ledger: l, period: p, tx: tx, cfg: cfg, now: now}
}

// PostingContext carries the fields every handler needs to gate and
// post a transaction.
type PostingContext struct {
	TenantID    ledger.TenantID
	MerchantKey string // merchant identifier; expands to that merchant's Receivable/Payable/Settlement sub-accounts
	PostingDate time.Time
	ActorID     string
	Override    *period.OverrideID // set only when posting against a locked date
}

// gate checks the period/lock status for PostingDate and, when posting
// is blocked, consumes the caller-supplied override. It must run
// inside the same dbtx.Beginner.WithTx scope as the ledger post that
// follows, which every handler below arranges.
func (h *Handlers) gate(ctx context.Context, pc PostingContext) error {
	check, err := h.period.CheckPeriodForPosting(ctx, pc.TenantID, period.PeriodDaily, pc.PostingDate)
	if err != nil {
		return fmt.Errorf("checking period gate: %w", err)
	}
	if check.Allowed {
		return nil
	}
	if !check.RequiresOverride {
		return period.ErrPostingBlocked
	}
	if pc.Override == nil {
		return period.ErrPostingBlocked
	}
	if _, err := h.period.ConsumeOverride(ctx, pc.TenantID, *pc.Override); err != nil {
		return fmt.Errorf("consuming override: %w", err)
	}
	return nil
}

func (h *Handlers) post(ctx context.Context, pc PostingContext, req ledger.PostRequest) (ledger.PostResult, error) {
	var result ledger.PostResult
	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := h.gate(ctx, pc); err != nil {
			return err
		}
		r, err := h.ledger.PostTransaction(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// PaymentSuccess posts the normative entries for a successful payment:
// the gross amount clears through escrow, the merchant is credited its
// net amount, and any platform or gateway fee is split off as its own
// balanced pair. gross = platformFee + gatewayFee + the merchant's net.
func (h *Handlers) PaymentSuccess(ctx context.Context, pc PostingContext, eventID, sourceOrderID string, gross, platformFee, gatewayFee decimal.Decimal, currency string) (ledger.PostResult, error) {
	net := gross.Sub(platformFee).Sub(gatewayFee)
	entries := []ledger.EntryInput{
		{AccountCode: AccountEscrowBank, Type: ledger.EntryDebit, Amount: gross, Description: "gross payment into escrow"},
		{AccountCode: AccountEscrowLiability, Type: ledger.EntryCredit, Amount: gross, Description: "escrow liability for gross payment"},
		{AccountCode: MerchantReceivableAccount(pc.MerchantKey), Type: ledger.EntryDebit, Amount: net, Description: "merchant receivable for net payment"},
		{AccountCode: MerchantPayableAccount(pc.MerchantKey), Type: ledger.EntryCredit, Amount: net, Description: "net amount owed to merchant"},
	}
	if platformFee.IsPositive() {
		entries = append(entries,
			ledger.EntryInput{AccountCode: AccountPlatformReceivable, Type: ledger.EntryDebit, Amount: platformFee, Description: "platform fee receivable"},
			ledger.EntryInput{AccountCode: AccountPlatformMDR, Type: ledger.EntryCredit, Amount: platformFee, Description: "platform MDR earned"},
		)
	}
	if gatewayFee.IsPositive() {
		entries = append(entries,
			ledger.EntryInput{AccountCode: AccountGatewayFeeExpense, Type: ledger.EntryDebit, Amount: gatewayFee, Description: "gateway fee expense"},
			ledger.EntryInput{AccountCode: AccountGatewayPayable, Type: ledger.EntryCredit, Amount: gatewayFee, Description: "gateway fee payable"},
		)
	}

	return h.post(ctx, pc, ledger.PostRequest{
		TenantID:       pc.TenantID,
		TransactionRef: "payment:" + eventID,
		IdempotencyKey: "payment-success-" + eventID,
		EventType:      "payment_success",
		SourceOrderID:  sourceOrderID,
		Amount:         gross,
		Currency:       currency,
		Description:    "payment captured",
		CreatedBy:      pc.ActorID,
		Entries:        entries,
	})
}

// RefundCompleted posts the normative entries for a completed refund:
// the gross refund unwinds out of escrow, and the merchant's net
// position is unwound by refundAmount minus any fee portion the
// platform keeps for itself.
func (h *Handlers) RefundCompleted(ctx context.Context, pc PostingContext, eventID, originalPaymentID string, refundAmount, platformFeeRefund, gatewayFeeRefund decimal.Decimal, currency string) (ledger.PostResult, error) {
	net := refundAmount.Sub(platformFeeRefund).Sub(gatewayFeeRefund)
	entries := []ledger.EntryInput{
		{AccountCode: AccountEscrowLiability, Type: ledger.EntryDebit, Amount: refundAmount, Description: "unwind escrow liability on refund"},
		{AccountCode: AccountEscrowBank, Type: ledger.EntryCredit, Amount: refundAmount, Description: "refund leaves escrow"},
		{AccountCode: MerchantPayableAccount(pc.MerchantKey), Type: ledger.EntryDebit, Amount: net, Description: "reverse merchant payable for refund"},
		{AccountCode: MerchantReceivableAccount(pc.MerchantKey), Type: ledger.EntryCredit, Amount: net, Description: "reverse merchant receivable for refund"},
	}
	if platformFeeRefund.IsPositive() {
		entries = append(entries,
			ledger.EntryInput{AccountCode: AccountPlatformMDR, Type: ledger.EntryDebit, Amount: platformFeeRefund, Description: "platform MDR refunded"},
			ledger.EntryInput{AccountCode: AccountPlatformReceivable, Type: ledger.EntryCredit, Amount: platformFeeRefund, Description: "platform receivable refunded"},
		)
	}

	return h.post(ctx, pc, ledger.PostRequest{
		TenantID:            pc.TenantID,
		TransactionRef:      "refund:" + eventID,
		IdempotencyKey:      "refund-completed-" + eventID,
		EventType:           "refund_completed",
		SourceTransactionID: originalPaymentID,
		Amount:              refundAmount,
		Currency:            currency,
		Description:         "refund to customer",
		CreatedBy:           pc.ActorID,
		Entries:             entries,
	})
}

// Settlement posts the payout of a merchant's accrued payable to their
// bank account: the payable is cleared into a settlement-clearing
// sub-account and the matching funds leave escrow.
// sourceSettlementID should be the settlement.SettlementID.
func (h *Handlers) Settlement(ctx context.Context, pc PostingContext, eventID, sourceSettlementID string, amount decimal.Decimal, currency, utr string) (ledger.PostResult, error) {
	return h.post(ctx, pc, ledger.PostRequest{
		TenantID:            pc.TenantID,
		TransactionRef:      "settlement:" + eventID,
		IdempotencyKey:      "settlement-" + eventID,
		EventType:           "settlement",
		SourceTransactionID: sourceSettlementID,
		Amount:              amount,
		Currency:            currency,
		Description:         "settlement payout, utr " + utr,
		CreatedBy:           pc.ActorID,
		Metadata:            map[string]string{"utr": utr},
		Entries: []ledger.EntryInput{
			{AccountCode: MerchantPayableAccount(pc.MerchantKey), Type: ledger.EntryDebit, Amount: amount, Description: "clear merchant payable on settlement"},
			{AccountCode: MerchantSettlementAccount(pc.MerchantKey), Type: ledger.EntryCredit, Amount: amount, Description: "merchant settlement clearing"},
			{AccountCode: AccountEscrowLiability, Type: ledger.EntryDebit, Amount: amount, Description: "unwind escrow liability on settlement"},
			{AccountCode: AccountEscrowBank, Type: ledger.EntryCredit, Amount: amount, Description: "funds leave escrow to merchant bank account"},
		},
	})
}

// ChargebackDebit posts a chargeback against a merchant: the disputed
// amount is clawed back from their receivable and leaves escrow to the
// cardholder's bank.
func (h *Handlers) ChargebackDebit(ctx context.Context, pc PostingContext, eventID, originalPaymentID string, amount decimal.Decimal, currency string) (ledger.PostResult, error) {
	return h.post(ctx, pc, ledger.PostRequest{
		TenantID:            pc.TenantID,
		TransactionRef:      "chargeback:" + eventID,
		IdempotencyKey:      "chargeback-debit-" + eventID,
		EventType:           "chargeback_debit",
		SourceTransactionID: originalPaymentID,
		Amount:              amount,
		Currency:            currency,
		Description:         "chargeback debited from merchant",
		CreatedBy:           pc.ActorID,
		Entries: []ledger.EntryInput{
			{AccountCode: AccountChargebackLiability, Type: ledger.EntryDebit, Amount: amount, Description: "chargeback liability"},
			{AccountCode: MerchantReceivableAccount(pc.MerchantKey), Type: ledger.EntryCredit, Amount: amount, Description: "chargeback clawed back from merchant receivable"},
			{AccountCode: AccountEscrowLiability, Type: ledger.EntryDebit, Amount: amount, Description: "unwind escrow liability on chargeback"},
			{AccountCode: AccountEscrowBank, Type: ledger.EntryCredit, Amount: amount, Description: "disputed funds leave escrow"},
		},
	})
}

// ChargebackReversal posts the merchant winning a chargeback dispute.
// Unlike the other handlers this is not a distinct entry shape: it is
// a ledger reversal of the original chargeback_debit transaction, with
// every entry's type swapped, same as any other correction.
func (h *Handlers) ChargebackReversal(ctx context.Context, pc PostingContext, chargebackTransactionID ledger.TransactionID, reason string) (ledger.PostResult, error) {
	var result ledger.PostResult
	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := h.gate(ctx, pc); err != nil {
			return err
		}
		r, err := h.ledger.ReverseTransaction(ctx, pc.TenantID, chargebackTransactionID, reason, pc.ActorID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// ManualAdjustment posts an arbitrary balanced two-leg correction
// between two accounts. Because it bypasses every other handler's
// fixed entry shape, it always requires both an approver and an
// approved override, regardless of whether the posting date is
// otherwise open - so unlike post/gate, it consumes the override
// unconditionally rather than only when the period would otherwise
// block the write. An override presented here is spent whether or not
// the period was actually closed, since the override is the thing that
// authorizes the adjustment itself, not just a closed period. A posting
// date inside a HARD_CLOSED period or a PERIOD_LOCK is still refused.
func (h *Handlers) ManualAdjustment(ctx context.Context, pc PostingContext, eventID, fromAccountCode, toAccountCode string, amount decimal.Decimal, currency, reason, approverID string) (ledger.PostResult, error) {
	if approverID == "" {
		return ledger.PostResult{}, ErrApproverRequired
	}
	if pc.Override == nil {
		return ledger.PostResult{}, period.ErrPostingBlocked
	}

	var result ledger.PostResult
	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		check, err := h.period.CheckPeriodForPosting(ctx, pc.TenantID, period.PeriodDaily, pc.PostingDate)
		if err != nil {
			return fmt.Errorf("checking period gate: %w", err)
		}
		if !check.Allowed && !check.RequiresOverride {
			return period.ErrPostingBlocked
		}
		if _, err := h.period.ConsumeOverride(ctx, pc.TenantID, *pc.Override); err != nil {
			return fmt.Errorf("consuming override: %w", err)
		}
		r, err := h.ledger.PostTransaction(ctx, ledger.PostRequest{
			TenantID:       pc.TenantID,
			TransactionRef: "manual-adjustment:" + eventID,
			IdempotencyKey: "manual-adjustment-" + eventID,
			EventType:      "manual_adjustment",
			Amount:         amount,
			Currency:       currency,
			Description:    reason,
			CreatedBy:      pc.ActorID,
			Metadata:       map[string]string{"approver_id": approverID},
			Entries: []ledger.EntryInput{
				{AccountCode: fromAccountCode, Type: ledger.EntryCredit, Amount: amount, Description: reason},
				{AccountCode: toAccountCode, Type: ledger.EntryDebit, Amount: amount, Description: reason},
			},
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}
