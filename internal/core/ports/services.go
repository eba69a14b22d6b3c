package ports

import (
	"context"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Provider ---

// ProviderPaymentRequest is the outbound payload for creating a charge.
type ProviderPaymentRequest struct {
	OrderID        string
	Amount         int64
	Currency       string
	IdempotencyKey string
}

// ProviderPaymentResult is the provider's view of a charge.
type ProviderPaymentResult struct {
	ProviderReferenceID string
	Status              string
}

// ProviderRefundRequest is the outbound payload for creating a refund.
type ProviderRefundRequest struct {
	ProviderReferenceID string
	Amount              int64
	Reason              string
	IdempotencyKey      string
}

// ProviderRefundResult is the provider's view of a refund.
type ProviderRefundResult struct {
	ProviderRefundID string
	Status           string
}

// ProviderClient is the payment provider API. Implementations forward the
// idempotency key so provider-side dedup holds across retries.
type ProviderClient interface {
	CreatePaymentIntent(ctx context.Context, req ProviderPaymentRequest) (*ProviderPaymentResult, error)
	ConfirmPayment(ctx context.Context, providerRef, idempotencyKey string) (*ProviderPaymentResult, error)
	CreateRefund(ctx context.Context, req ProviderRefundRequest) (*ProviderRefundResult, error)
	Ping(ctx context.Context) error
}

// --- Messaging ---

// EventPublisher delivers outbox events to the event bus. Delivery is
// at-least-once; downstream consumers must be idempotent.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// DeadLetterQueue holds failed async jobs awaiting replay.
type DeadLetterQueue interface {
	Push(ctx context.Context, msg domain.DeadLetterMessage) error
	// Pop removes and returns the oldest message, or nil when empty.
	Pop(ctx context.Context) (*domain.DeadLetterMessage, error)
	Len(ctx context.Context) (int64, error)
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Core services ---

// CreatePaymentRequest holds validated input for payment creation.
type CreatePaymentRequest struct {
	OrderID  string
	VenueID  uuid.UUID
	TenantID uuid.UUID
	Amount   int64
	Currency string
}

// RefundRequest holds validated input for refund creation.
type RefundRequest struct {
	PaymentIntentID uuid.UUID
	Amount          int64
	Reason          string
}

// LedgerService owns PaymentIntent and Refund records and their monetary
// invariants. The Tx variants run inside a caller-owned transaction and are
// used by the webhook inbox.
type LedgerService interface {
	CreatePayment(ctx context.Context, idempotencyKey string, req CreatePaymentRequest) (*domain.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, intentID uuid.UUID) (*domain.PaymentIntent, error)
	FailPayment(ctx context.Context, intentID uuid.UUID, reason string) (*domain.PaymentIntent, error)
	CreateRefund(ctx context.Context, idempotencyKey string, req RefundRequest) (*domain.Refund, error)

	ConfirmPaymentTx(ctx context.Context, tx pgx.Tx, providerRef string) error
	FailPaymentTx(ctx context.Context, tx pgx.Tx, providerRef string, reason string) error
	SettleRefundTx(ctx context.Context, tx pgx.Tx, providerRefundID string, succeeded bool) error
}

// WebhookInbox deduplicates inbound provider webhooks and drives ledger
// transitions.
type WebhookInbox interface {
	Ingest(ctx context.Context, provider, providerEventID, eventType string, payload []byte) (alreadyProcessed bool, err error)
	Reprocess(ctx context.Context, eventID uuid.UUID) error
}

// RecoveryReport summarizes one recovery pass.
type RecoveryReport struct {
	Processed int      `json:"processed"`
	Recovered int      `json:"recovered"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// RecoveryService repairs stuck operations and replays the dead-letter queue.
// Both methods are idempotent no-ops on a healthy set.
type RecoveryService interface {
	ProcessDeadLetterQueue(ctx context.Context) (*RecoveryReport, error)
	RecoverStaleOperations(ctx context.Context) (*RecoveryReport, error)
}
