package ports

import (
	"context"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentIntentRepository defines persistence operations for payment intents.
// Methods accepting pgx.Tx run inside transaction blocks; ForUpdate variants
// take the row lock that serializes concurrent transitions on one intent.
type PaymentIntentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, intent *domain.PaymentIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentIntent, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PaymentIntent, error)
	GetByProviderReference(ctx context.Context, providerRef string) (*domain.PaymentIntent, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentIntentStatus) error
}

// RefundRepository defines persistence operations for refunds.
type RefundRepository interface {
	Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error
	// SumActiveByIntent returns the sum of non-failed refund amounts for an
	// intent. Must be called with the intent row already locked.
	SumActiveByIntent(ctx context.Context, tx pgx.Tx, intentID uuid.UUID) (int64, error)
	ListByIntent(ctx context.Context, intentID uuid.UUID) ([]domain.Refund, error)
	// Settle moves a pending refund to a terminal status. Returns false when
	// no pending row matched, meaning a concurrent settlement already won;
	// settled refunds are immutable.
	Settle(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RefundStatus) (settled bool, err error)
	GetByProviderRefundID(ctx context.Context, providerRefundID string) (*domain.Refund, error)
}

// IdempotencyRepository is the durable idempotency store. Claim must be
// atomic at the database level (unique-constraint insert, not check-then-set).
type IdempotencyRepository interface {
	// Claim inserts a fresh in_flight record, or returns the existing one.
	// claimed is true when this caller owns the execution.
	Claim(ctx context.Context, rec *domain.IdempotencyRecord) (claimed bool, existing *domain.IdempotencyRecord, err error)
	Get(ctx context.Context, operationType, key string) (*domain.IdempotencyRecord, error)
	Complete(ctx context.Context, operationType, key string, payload []byte) error
	// Release removes an in_flight claim after a failed execution so a
	// retry with the same key can run again.
	Release(ctx context.Context, operationType, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// WebhookEventRepository is the inbox store.
type WebhookEventRepository interface {
	// Insert adds the event if (provider, provider_event_id) is unseen.
	// Returns false without error on a duplicate.
	Insert(ctx context.Context, event *domain.WebhookEvent) (inserted bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string) error
}

// OutboxRepository stores domain events written transactionally with ledger
// mutations.
type OutboxRepository interface {
	Append(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error
	// ClaimUnpublished selects a batch of unpublished rows with
	// FOR UPDATE SKIP LOCKED inside tx so concurrent publishers never
	// deliver the same row.
	ClaimUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	IncrementAttempts(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RecoveryOperationRepository tracks long-running async operations.
type RecoveryOperationRepository interface {
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.RecoveryOperation, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Touch(ctx context.Context, id uuid.UUID) error
}

// AuditRepository persists recovery audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
