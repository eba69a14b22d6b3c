package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/resilience"
	"ticketing-payment-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Provider operation names. Each gets its own circuit breaker.
const (
	opCreatePayment  = "create_payment"
	opConfirmPayment = "confirm_payment"
	opCreateRefund   = "create_refund"
)

// LedgerServiceImpl implements ports.LedgerService. All monetary invariants
// are enforced under the payment intent's row lock; domain events are written
// to the outbox in the same transaction as the ledger mutation.
type LedgerServiceImpl struct {
	intentRepo ports.PaymentIntentRepository
	refundRepo ports.RefundRepository
	outboxRepo ports.OutboxRepository
	transactor ports.DBTransactor
	guard      *IdempotencyGuard
	provider   ports.ProviderClient
	caller     *resilience.Caller
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	intentRepo ports.PaymentIntentRepository,
	refundRepo ports.RefundRepository,
	outboxRepo ports.OutboxRepository,
	transactor ports.DBTransactor,
	guard *IdempotencyGuard,
	provider ports.ProviderClient,
	caller *resilience.Caller,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		intentRepo: intentRepo,
		refundRepo: refundRepo,
		outboxRepo: outboxRepo,
		transactor: transactor,
		guard:      guard,
		provider:   provider,
		caller:     caller,
		log:        log,
	}
}

// CreatePayment registers a charge with the provider and records a pending
// payment intent. The whole operation runs under the idempotency guard, so a
// retried request returns the original intent without a second charge.
func (s *LedgerServiceImpl) CreatePayment(ctx context.Context, idempotencyKey string, req ports.CreatePaymentRequest) (*domain.PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Currency == "" {
		return nil, apperror.Validation("currency is required")
	}
	if req.OrderID == "" {
		return nil, apperror.Validation("order_id is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal request: %w", err))
	}

	payload, err := s.guard.Do(ctx, opCreatePayment, idempotencyKey, body, func(ctx context.Context) ([]byte, error) {
		return s.createPayment(ctx, idempotencyKey, req)
	})
	if err != nil {
		return nil, err
	}

	intent := &domain.PaymentIntent{}
	if err := json.Unmarshal(payload, intent); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal intent: %w", err))
	}
	return intent, nil
}

func (s *LedgerServiceImpl) createPayment(ctx context.Context, idempotencyKey string, req ports.CreatePaymentRequest) ([]byte, error) {
	// Call the provider first. The idempotency key is forwarded so a crash
	// between the provider call and the commit cannot double-charge: the
	// retried call dedupes provider-side.
	var result *ports.ProviderPaymentResult
	err := s.caller.Call(ctx, opCreatePayment, func(ctx context.Context) error {
		var callErr error
		result, callErr = s.provider.CreatePaymentIntent(ctx, ports.ProviderPaymentRequest{
			OrderID:        req.OrderID,
			Amount:         req.Amount,
			Currency:       req.Currency,
			IdempotencyKey: idempotencyKey,
		})
		return callErr
	})
	if err != nil {
		return nil, providerError(err)
	}

	now := time.Now().UTC()
	intent := &domain.PaymentIntent{
		ID:                  uuid.New(),
		OrderID:             req.OrderID,
		VenueID:             req.VenueID,
		TenantID:            req.TenantID,
		Amount:              req.Amount,
		Currency:            req.Currency,
		Status:              domain.PaymentStatusPending,
		ProviderReferenceID: result.ProviderReferenceID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.intentRepo.Create(ctx, dbTx, intent); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := s.appendEvent(ctx, dbTx, domain.EventPaymentCreated, intent.ID, intent); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("intent_id", intent.ID.String()).
		Str("order_id", req.OrderID).
		Int64("amount", req.Amount).
		Msg("payment intent created")

	return json.Marshal(intent)
}

// ConfirmPayment drives pending -> succeeded through the provider. Confirming
// an already-succeeded intent is a no-op returning the current record.
func (s *LedgerServiceImpl) ConfirmPayment(ctx context.Context, intentID uuid.UUID) (*domain.PaymentIntent, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	intent, err := s.intentRepo.GetByIDForUpdate(ctx, dbTx, intentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if intent == nil {
		return nil, apperror.ErrNotFound("payment intent")
	}
	if intent.Status == domain.PaymentStatusSucceeded {
		return intent, nil
	}
	if !intent.CanTransitionTo(domain.PaymentStatusSucceeded) {
		return nil, apperror.ErrInvalidState(fmt.Sprintf("cannot confirm a %s payment", intent.Status))
	}

	err = s.caller.Call(ctx, opConfirmPayment, func(ctx context.Context) error {
		_, callErr := s.provider.ConfirmPayment(ctx, intent.ProviderReferenceID, intentID.String())
		return callErr
	})
	if err != nil {
		return nil, providerError(err)
	}

	if err := s.transition(ctx, dbTx, intent, domain.PaymentStatusSucceeded, domain.EventPaymentSucceeded, nil); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("intent_id", intentID.String()).Msg("payment confirmed")
	return intent, nil
}

// FailPayment drives pending -> failed, recording the reason.
func (s *LedgerServiceImpl) FailPayment(ctx context.Context, intentID uuid.UUID, reason string) (*domain.PaymentIntent, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	intent, err := s.intentRepo.GetByIDForUpdate(ctx, dbTx, intentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if intent == nil {
		return nil, apperror.ErrNotFound("payment intent")
	}
	if intent.Status == domain.PaymentStatusFailed {
		return intent, nil
	}
	if !intent.CanTransitionTo(domain.PaymentStatusFailed) {
		return nil, apperror.ErrInvalidState(fmt.Sprintf("cannot fail a %s payment", intent.Status))
	}

	if err := s.transition(ctx, dbTx, intent, domain.PaymentStatusFailed, domain.EventPaymentFailed, map[string]string{"reason": reason}); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("intent_id", intentID.String()).Str("reason", reason).Msg("payment failed")
	return intent, nil
}

// CreateRefund creates a pending refund under the intent's row lock. The
// cumulative cap check and the provider call both run while the lock is held,
// so concurrent refunds cannot jointly exceed the original amount. The intent
// status rolls up to refunded or partially_refunded in the same transaction;
// a later failed settlement rolls it back.
func (s *LedgerServiceImpl) CreateRefund(ctx context.Context, idempotencyKey string, req ports.RefundRequest) (*domain.Refund, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal request: %w", err))
	}

	payload, err := s.guard.Do(ctx, opCreateRefund, idempotencyKey, body, func(ctx context.Context) ([]byte, error) {
		return s.createRefund(ctx, idempotencyKey, req)
	})
	if err != nil {
		return nil, err
	}

	refund := &domain.Refund{}
	if err := json.Unmarshal(payload, refund); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal refund: %w", err))
	}
	return refund, nil
}

func (s *LedgerServiceImpl) createRefund(ctx context.Context, idempotencyKey string, req ports.RefundRequest) ([]byte, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	intent, err := s.intentRepo.GetByIDForUpdate(ctx, dbTx, req.PaymentIntentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if intent == nil {
		return nil, apperror.ErrNotFound("payment intent")
	}
	if !intent.Refundable() {
		return nil, apperror.ErrInvalidState(fmt.Sprintf("cannot refund a %s payment", intent.Status))
	}

	// Pending refunds reserve refundable balance, so the cap holds even
	// before the provider settles them.
	refunded, err := s.refundRepo.SumActiveByIntent(ctx, dbTx, intent.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if refunded+req.Amount > intent.Amount {
		return nil, apperror.ErrAmountExceeded()
	}

	var result *ports.ProviderRefundResult
	err = s.caller.Call(ctx, opCreateRefund, func(ctx context.Context) error {
		var callErr error
		result, callErr = s.provider.CreateRefund(ctx, ports.ProviderRefundRequest{
			ProviderReferenceID: intent.ProviderReferenceID,
			Amount:              req.Amount,
			Reason:              req.Reason,
			IdempotencyKey:      idempotencyKey,
		})
		return callErr
	})
	if err != nil {
		return nil, providerError(err)
	}

	refund := &domain.Refund{
		ID:               uuid.New(),
		PaymentIntentID:  intent.ID,
		Amount:           req.Amount,
		Reason:           req.Reason,
		Status:           domain.RefundStatusPending,
		ProviderRefundID: result.ProviderRefundID,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.refundRepo.Create(ctx, dbTx, refund); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := s.appendEvent(ctx, dbTx, domain.EventRefundCreated, intent.ID, refund); err != nil {
		return nil, err
	}

	// The new refund is part of the reserved total, so the intent status
	// reflects it before the provider settles.
	if rollup := refundRollup(intent, refunded+req.Amount); rollup != intent.Status {
		if err := s.intentRepo.UpdateStatus(ctx, dbTx, intent.ID, rollup); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		intent.Status = rollup
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("refund_id", refund.ID.String()).
		Str("intent_id", intent.ID.String()).
		Int64("amount", req.Amount).
		Msg("refund created")

	return json.Marshal(refund)
}

// ConfirmPaymentTx applies a provider-confirmed success inside a caller-owned
// transaction. Used by the webhook inbox.
func (s *LedgerServiceImpl) ConfirmPaymentTx(ctx context.Context, tx pgx.Tx, providerRef string) error {
	intent, err := s.lockByProviderRef(ctx, tx, providerRef)
	if err != nil {
		return err
	}
	if intent.Status == domain.PaymentStatusSucceeded {
		return nil
	}
	if !intent.CanTransitionTo(domain.PaymentStatusSucceeded) {
		return apperror.ErrInvalidState(fmt.Sprintf("cannot confirm a %s payment", intent.Status))
	}
	return s.transition(ctx, tx, intent, domain.PaymentStatusSucceeded, domain.EventPaymentSucceeded, nil)
}

// FailPaymentTx applies a provider-reported failure inside a caller-owned
// transaction.
func (s *LedgerServiceImpl) FailPaymentTx(ctx context.Context, tx pgx.Tx, providerRef string, reason string) error {
	intent, err := s.lockByProviderRef(ctx, tx, providerRef)
	if err != nil {
		return err
	}
	if intent.Status == domain.PaymentStatusFailed {
		return nil
	}
	if !intent.CanTransitionTo(domain.PaymentStatusFailed) {
		return apperror.ErrInvalidState(fmt.Sprintf("cannot fail a %s payment", intent.Status))
	}
	return s.transition(ctx, tx, intent, domain.PaymentStatusFailed, domain.EventPaymentFailed, map[string]string{"reason": reason})
}

// SettleRefundTx records the provider's verdict on a pending refund and
// recomputes the intent status from the surviving refund total. A failed
// settlement releases its reserved balance, which can move the intent back
// toward succeeded.
func (s *LedgerServiceImpl) SettleRefundTx(ctx context.Context, tx pgx.Tx, providerRefundID string, succeeded bool) error {
	refund, err := s.refundRepo.GetByProviderRefundID(ctx, providerRefundID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if refund == nil {
		return apperror.ErrNotFound("refund")
	}
	if refund.Status != domain.RefundStatusPending {
		return nil
	}

	// Lock the intent before touching the refund so the settlement and the
	// rollup observe a consistent refund set.
	intent, err := s.intentRepo.GetByIDForUpdate(ctx, tx, refund.PaymentIntentID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if intent == nil {
		return apperror.ErrNotFound("payment intent")
	}

	newStatus := domain.RefundStatusFailed
	if succeeded {
		newStatus = domain.RefundStatusSucceeded
	}
	settled, err := s.refundRepo.Settle(ctx, tx, refund.ID, newStatus)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if !settled {
		// A concurrent settlement won between the read above and the locked
		// update. Settled refunds are immutable, so this verdict is dropped.
		return nil
	}

	refunded, err := s.refundRepo.SumActiveByIntent(ctx, tx, intent.ID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if rollup := refundRollup(intent, refunded); rollup != intent.Status {
		if err := s.intentRepo.UpdateStatus(ctx, tx, intent.ID, rollup); err != nil {
			return apperror.ErrDatabaseError(err)
		}
		intent.Status = rollup
	}
	return nil
}

// refundRollup maps the non-failed refund total onto an intent status. The
// rollup is a recompute, not a forward transition: a released reservation
// legitimately moves refunded back to partially_refunded or succeeded.
func refundRollup(intent *domain.PaymentIntent, refunded int64) domain.PaymentIntentStatus {
	switch {
	case refunded >= intent.Amount:
		return domain.PaymentStatusRefunded
	case refunded > 0:
		return domain.PaymentStatusPartiallyRefunded
	default:
		return domain.PaymentStatusSucceeded
	}
}

// providerError maps an exhausted or non-retryable provider failure onto the
// client-facing error vocabulary. Breaker rejections already carry their own
// code and pass through untouched.
func providerError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var clsErr *resilience.ClassifiedError
	if errors.As(err, &clsErr) {
		switch {
		case clsErr.Classification.Category == resilience.CategoryConfiguration:
			return apperror.InternalError(err)
		case clsErr.Classification.Retryable:
			return apperror.ErrProviderUnavailable(err)
		default:
			return apperror.ErrProviderRejected(err)
		}
	}
	return err
}

func (s *LedgerServiceImpl) lockByProviderRef(ctx context.Context, tx pgx.Tx, providerRef string) (*domain.PaymentIntent, error) {
	intent, err := s.intentRepo.GetByProviderReference(ctx, providerRef)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if intent == nil {
		return nil, apperror.ErrNotFound("payment intent")
	}
	// Re-read under the row lock; the unlocked read only resolved the id.
	locked, err := s.intentRepo.GetByIDForUpdate(ctx, tx, intent.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if locked == nil {
		return nil, apperror.ErrNotFound("payment intent")
	}
	return locked, nil
}

// transition updates the intent status and appends the matching outbox event
// in one transaction.
func (s *LedgerServiceImpl) transition(ctx context.Context, tx pgx.Tx, intent *domain.PaymentIntent, status domain.PaymentIntentStatus, eventType string, extra map[string]string) error {
	if err := s.intentRepo.UpdateStatus(ctx, tx, intent.ID, status); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	intent.Status = status
	intent.UpdatedAt = time.Now().UTC()

	payload := map[string]any{
		"payment_intent_id": intent.ID,
		"order_id":          intent.OrderID,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
		"status":            status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return s.appendEvent(ctx, tx, eventType, intent.ID, payload)
}

func (s *LedgerServiceImpl) appendEvent(ctx context.Context, tx pgx.Tx, eventType string, aggregateID uuid.UUID, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshal event payload: %w", err))
	}
	event := &domain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "payment_intent",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.outboxRepo.Append(ctx, tx, event); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	return nil
}
