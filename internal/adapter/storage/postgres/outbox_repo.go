package postgres

import (
	"context"
	"fmt"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OutboxRepo implements ports.OutboxRepository.
type OutboxRepo struct {
	pool Pool
}

// NewOutboxRepo creates a new OutboxRepo.
func NewOutboxRepo(pool Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// Append writes an outbox row inside the same transaction as the ledger
// mutation that produced the event.
func (r *OutboxRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	query := `INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		event.ID, event.AggregateType, event.AggregateID,
		event.EventType, event.Payload, event.Attempts, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

// ClaimUnpublished selects up to limit unpublished rows in creation order.
// SKIP LOCKED lets concurrent publisher instances work disjoint batches.
func (r *OutboxRepo) ClaimUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxEvent, error) {
	query := `SELECT id, aggregate_type, aggregate_id, event_type, payload, attempts, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.Attempts, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return events, nil
}

// MarkPublished records broker acknowledgment for one event.
func (r *OutboxRepo) MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	tag, err := tx.Exec(ctx, `UPDATE outbox_events SET published_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// IncrementAttempts bumps the delivery counter after a failed publish.
func (r *OutboxRepo) IncrementAttempts(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE outbox_events SET attempts = attempts + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment outbox attempts: %w", err)
	}
	return nil
}

// DeletePublishedBefore prunes delivered rows older than cutoff.
func (r *OutboxRepo) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune outbox events: %w", err)
	}
	return tag.RowsAffected(), nil
}
