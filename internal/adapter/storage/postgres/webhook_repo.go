package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const webhookColumns = `id, provider, provider_event_id, event_type, payload, status, last_error, received_at, processed_at`

// WebhookEventRepo implements ports.WebhookEventRepository. Deduplication
// rests on the unique (provider, provider_event_id) constraint, so a replayed
// delivery turns into a no-op insert.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Insert adds the event if (provider, provider_event_id) is unseen. Returns
// false without error when the event was already recorded.
func (r *WebhookEventRepo) Insert(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	query := `INSERT INTO webhook_events (id, provider, provider_event_id, event_type, payload, status, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		event.ID, event.Provider, event.ProviderEventID,
		event.EventType, event.Payload, event.Status, event.ReceivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID fetches a webhook event by its inbox id.
func (r *WebhookEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM webhook_events WHERE id = $1`, webhookColumns)

	e := &domain.WebhookEvent{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Provider, &e.ProviderEventID, &e.EventType,
		&e.Payload, &e.Status, &e.LastError, &e.ReceivedAt, &e.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook event: %w", err)
	}
	return e, nil
}

// MarkProcessed flips the event to processed inside the same transaction as
// the ledger transition it triggered.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	query := `UPDATE webhook_events SET status = $1, processed_at = $2, last_error = NULL WHERE id = $3`

	tag, err := tx.Exec(ctx, query, domain.WebhookEventProcessed, at, id)
	if err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook event not found: %s", id)
	}
	return nil
}

// MarkFailed records a processing failure. Runs outside the ledger
// transaction because that transaction has already rolled back.
func (r *WebhookEventRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	query := `UPDATE webhook_events SET status = $1, last_error = $2 WHERE id = $3`

	if _, err := r.pool.Exec(ctx, query, domain.WebhookEventFailed, cause, id); err != nil {
		return fmt.Errorf("mark webhook failed: %w", err)
	}
	return nil
}
