/*
machine.go - the settlement state machine

Grounded in generic/request.go's status-transition validation and
api/scheduler.go's poll loop, generalized from timeoff requests to bank
settlement cycles with a bounded, backoff-scheduled retry path.
*/
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nodalpay/paycore/config"
	"github.com/nodalpay/paycore/dbtx"
	"github.com/nodalpay/paycore/events"
	"github.com/nodalpay/paycore/ledger"
)

var validEdges = map[Status][]Status{
	StatusCreated:       {StatusFundsReserved, StatusFailed},
	StatusFundsReserved: {StatusSentToBank, StatusFailed},
	StatusSentToBank:    {StatusBankConfirmed, StatusFailed},
	StatusBankConfirmed: {StatusSettled, StatusFailed},
	StatusFailed:        {StatusRetried},
	StatusRetried:       {StatusFundsReserved},
}

func isValidEdge(from, to Status) bool {
	for _, allowed := range validEdges[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Machine drives settlements through their lifecycle.
type Machine struct {
	store  Store
	events *events.Handlers
	tx     dbtx.Beginner
	cfg    config.Config
	now    func() int64
}

func New(store Store, handlers *events.Handlers, tx dbtx.Beginner, cfg config.Config, now func() int64) *Machine {
	return &Machine{store: store, events: handlers, tx: tx, cfg: cfg, now: now}
}

// CreateSettlement opens a new settlement in CREATED status.
func (m *Machine) CreateSettlement(ctx context.Context, tenant ledger.TenantID, merchantID string, amount decimal.Decimal, currency string) (Settlement, error) {
	now := nanoToTime(m.now())
	s := Settlement{
		ID:         SettlementID(uuid.NewString()),
		TenantID:   tenant,
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   currency,
		Status:     StatusCreated,
		MaxRetries: m.cfg.SettlementMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.InsertSettlement(ctx, s); err != nil {
		return Settlement{}, fmt.Errorf("inserting settlement: %w", err)
	}
	return s, nil
}

// transition performs one edge of the state machine, recording history
// and an audit row atomically. The returned settlement reflects the
// post-transition state.
func (m *Machine) transition(ctx context.Context, tenant ledger.TenantID, id SettlementID, to Status, reason, actor string) (Settlement, error) {
	var result Settlement
	err := m.tx.WithTx(ctx, func(ctx context.Context) error {
		s, err := m.store.GetSettlement(ctx, tenant, id)
		if err != nil {
			return fmt.Errorf("loading settlement: %w", err)
		}
		if s == nil {
			return ErrSettlementNotFound
		}
		if !isValidEdge(s.Status, to) {
			return &TransitionError{From: s.Status, To: to}
		}

		from := s.Status
		s.Status = to
		s.LastError = reason
		s.UpdatedAt = nanoToTime(m.now())
		if err := m.store.UpdateSettlement(ctx, *s); err != nil {
			return fmt.Errorf("updating settlement: %w", err)
		}
		if err := m.store.InsertStateTransition(ctx, StateTransition{
			ID:           uuid.NewString(),
			SettlementID: id,
			From:         from,
			To:           to,
			Reason:       reason,
			ActorID:      actor,
			CreatedAt:    s.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("recording transition: %w", err)
		}
		if err := m.store.AppendAudit(ctx, ledger.AuditEntry{
			TenantID:   tenant,
			EntityType: "settlement",
			EntityID:   string(id),
			Action:     "transition:" + string(to),
			Before:     map[string]any{"status": string(from)},
			After:      map[string]any{"status": string(to)},
			ActorID:    actor,
			Reason:     reason,
			CreatedAt:  m.now(),
		}); err != nil {
			return fmt.Errorf("writing audit entry: %w", err)
		}
		result = *s
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	return result, nil
}

// ReserveFunds moves a settlement from CREATED (or RETRIED) to
// FUNDS_RESERVED.
func (m *Machine) ReserveFunds(ctx context.Context, tenant ledger.TenantID, id SettlementID, actor string) (Settlement, error) {
	return m.transition(ctx, tenant, id, StatusFundsReserved, "", actor)
}

// SendToBank moves a settlement to SENT_TO_BANK.
func (m *Machine) SendToBank(ctx context.Context, tenant ledger.TenantID, id SettlementID, actor string) (Settlement, error) {
	return m.transition(ctx, tenant, id, StatusSentToBank, "", actor)
}

// ConfirmByBank moves a settlement to BANK_CONFIRMED. This is never a
// final state by itself; it only records that the bank has acked
// receipt, pending the UTR that finalizes the payout.
func (m *Machine) ConfirmByBank(ctx context.Context, tenant ledger.TenantID, id SettlementID, actor string) (Settlement, error) {
	return m.transition(ctx, tenant, id, StatusBankConfirmed, "", actor)
}

// MarkSettled finalizes a BANK_CONFIRMED settlement once its UTR is
// known, posting the ledger entries that clear the merchant's payable
// and release escrow in the same transaction as the state change.
func (m *Machine) MarkSettled(ctx context.Context, tenant ledger.TenantID, id SettlementID, merchantKey, utr, actor string) (Settlement, error) {
	if utr == "" {
		return Settlement{}, ErrUTRRequired
	}

	var result Settlement
	err := m.tx.WithTx(ctx, func(ctx context.Context) error {
		s, err := m.store.GetSettlement(ctx, tenant, id)
		if err != nil {
			return fmt.Errorf("loading settlement: %w", err)
		}
		if s == nil {
			return ErrSettlementNotFound
		}
		if !isValidEdge(s.Status, StatusSettled) {
			return &TransitionError{From: s.Status, To: StatusSettled}
		}

		if _, err := m.events.Settlement(ctx, events.PostingContext{
			TenantID:    tenant,
			MerchantKey: merchantKey,
			PostingDate: nanoToTime(m.now()),
			ActorID:     actor,
		}, string(id), string(id), s.Amount, s.Currency, utr); err != nil {
			return fmt.Errorf("posting settlement entries: %w", err)
		}

		from := s.Status
		s.Status = StatusSettled
		s.UTR = utr
		s.UpdatedAt = nanoToTime(m.now())
		if err := m.store.UpdateSettlement(ctx, *s); err != nil {
			return fmt.Errorf("updating settlement: %w", err)
		}
		if err := m.store.InsertStateTransition(ctx, StateTransition{
			ID:           uuid.NewString(),
			SettlementID: id,
			From:         from,
			To:           StatusSettled,
			Reason:       "utr:" + utr,
			ActorID:      actor,
			CreatedAt:    s.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("recording transition: %w", err)
		}

		result = *s
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	return result, nil
}

// MarkFailed moves a settlement to FAILED from any non-terminal state,
// scheduling its next retry slot if retries remain.
func (m *Machine) MarkFailed(ctx context.Context, tenant ledger.TenantID, id SettlementID, reason, actor string) (Settlement, error) {
	s, err := m.transitionForce(ctx, tenant, id, StatusFailed, reason, actor)
	if err != nil {
		return Settlement{}, err
	}
	return s, nil
}

// transitionForce allows FAILED from any state except SETTLED (the
// state machine's one escape hatch), unlike transition which only
// honors validEdges.
func (m *Machine) transitionForce(ctx context.Context, tenant ledger.TenantID, id SettlementID, to Status, reason, actor string) (Settlement, error) {
	var result Settlement
	err := m.tx.WithTx(ctx, func(ctx context.Context) error {
		s, err := m.store.GetSettlement(ctx, tenant, id)
		if err != nil {
			return fmt.Errorf("loading settlement: %w", err)
		}
		if s == nil {
			return ErrSettlementNotFound
		}
		if s.Status == StatusSettled {
			return &TransitionError{From: s.Status, To: to}
		}

		from := s.Status
		s.Status = to
		s.LastError = reason
		s.UpdatedAt = nanoToTime(m.now())
		if to == StatusFailed && s.RetryCount < s.MaxRetries {
			backoff := m.cfg.RetryBackoff(s.RetryCount)
			next := s.UpdatedAt.Add(time.Duration(backoff) * time.Minute)
			s.NextRetryAt = &next
		}
		if err := m.store.UpdateSettlement(ctx, *s); err != nil {
			return fmt.Errorf("updating settlement: %w", err)
		}
		if err := m.store.InsertStateTransition(ctx, StateTransition{
			ID:           uuid.NewString(),
			SettlementID: id,
			From:         from,
			To:           to,
			Reason:       reason,
			ActorID:      actor,
			CreatedAt:    s.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("recording transition: %w", err)
		}
		result = *s
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	return result, nil
}

// RetrySettlement moves a FAILED settlement to RETRIED then immediately
// to FUNDS_RESERVED, incrementing RetryCount. Fails with
// ErrRetryExhausted once RetryCount has reached MaxRetries.
func (m *Machine) RetrySettlement(ctx context.Context, tenant ledger.TenantID, id SettlementID, actor string) (Settlement, error) {
	var result Settlement
	err := m.tx.WithTx(ctx, func(ctx context.Context) error {
		s, err := m.store.GetSettlement(ctx, tenant, id)
		if err != nil {
			return fmt.Errorf("loading settlement: %w", err)
		}
		if s == nil {
			return ErrSettlementNotFound
		}
		if s.Status != StatusFailed {
			return ErrNotRetryable
		}
		if s.RetryCount >= s.MaxRetries {
			return ErrRetryExhausted
		}

		s.RetryCount++
		s.Status = StatusFundsReserved
		s.NextRetryAt = nil
		s.UpdatedAt = nanoToTime(m.now())
		if err := m.store.UpdateSettlement(ctx, *s); err != nil {
			return fmt.Errorf("updating settlement: %w", err)
		}
		if err := m.store.InsertStateTransition(ctx, StateTransition{
			ID:           uuid.NewString(),
			SettlementID: id,
			From:         StatusFailed,
			To:           StatusRetried,
			Reason:       fmt.Sprintf("retry attempt %d", s.RetryCount),
			ActorID:      actor,
			CreatedAt:    s.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("recording transition: %w", err)
		}
		if err := m.store.InsertStateTransition(ctx, StateTransition{
			ID:           uuid.NewString(),
			SettlementID: id,
			From:         StatusRetried,
			To:           StatusFundsReserved,
			Reason:       "resuming funds reservation",
			ActorID:      actor,
			CreatedAt:    s.UpdatedAt,
		}); err != nil {
			return fmt.Errorf("recording transition: %w", err)
		}

		result = *s
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	return result, nil
}

// SettlementsDueForRetry lists a tenant's FAILED settlements ready for
// another attempt, for the retry worker's poll loop.
func (m *Machine) SettlementsDueForRetry(ctx context.Context, tenant ledger.TenantID) ([]Settlement, error) {
	return m.store.SettlementsDueForRetry(ctx, tenant, nanoToTime(m.now()))
}

func nanoToTime(nano int64) time.Time { return time.Unix(0, nano).UTC() }
