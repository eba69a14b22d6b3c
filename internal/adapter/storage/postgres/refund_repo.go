package postgres

import (
	"context"
	"errors"
	"fmt"

	"ticketing-payment-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const refundColumns = `id, payment_intent_id, amount, reason, status, provider_refund_id, created_at`

// RefundRepo implements ports.RefundRepository.
type RefundRepo struct {
	pool Pool
}

// NewRefundRepo creates a new RefundRepo.
func NewRefundRepo(pool Pool) *RefundRepo {
	return &RefundRepo{pool: pool}
}

// Create inserts a refund within a database transaction.
func (r *RefundRepo) Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error {
	query := `INSERT INTO refunds (id, payment_intent_id, amount, reason, status, provider_refund_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		refund.ID, refund.PaymentIntentID, refund.Amount, refund.Reason,
		refund.Status, refund.ProviderRefundID, refund.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

// SumActiveByIntent sums non-failed refund amounts for one intent. It reads
// through tx so it observes rows written earlier in the same transaction and
// runs under the intent's row lock.
func (r *RefundRepo) SumActiveByIntent(ctx context.Context, tx pgx.Tx, intentID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_intent_id = $1 AND status != 'failed'`

	var sum int64
	if err := tx.QueryRow(ctx, query, intentID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum refunds: %w", err)
	}
	return sum, nil
}

// ListByIntent fetches all refunds for an intent, newest first.
func (r *RefundRepo) ListByIntent(ctx context.Context, intentID uuid.UUID) ([]domain.Refund, error) {
	query := fmt.Sprintf(`SELECT %s FROM refunds WHERE payment_intent_id = $1 ORDER BY created_at DESC`, refundColumns)

	rows, err := r.pool.Query(ctx, query, intentID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		if err := rows.Scan(&rf.ID, &rf.PaymentIntentID, &rf.Amount, &rf.Reason, &rf.Status, &rf.ProviderRefundID, &rf.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan refund row: %w", err)
		}
		refunds = append(refunds, rf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refund rows: %w", err)
	}
	return refunds, nil
}

// Settle moves a pending refund to a terminal status. The status guard in
// the WHERE clause makes contradictory concurrent settlements lose cleanly:
// zero rows affected means another settlement already landed.
func (r *RefundRepo) Settle(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RefundStatus) (bool, error) {
	tag, err := tx.Exec(ctx, `UPDATE refunds SET status = $1 WHERE id = $2 AND status = 'pending'`, status, id)
	if err != nil {
		return false, fmt.Errorf("settle refund: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByProviderRefundID fetches a refund by the provider's refund id.
func (r *RefundRepo) GetByProviderRefundID(ctx context.Context, providerRefundID string) (*domain.Refund, error) {
	query := fmt.Sprintf(`SELECT %s FROM refunds WHERE provider_refund_id = $1`, refundColumns)

	rf := &domain.Refund{}
	err := r.pool.QueryRow(ctx, query, providerRefundID).Scan(
		&rf.ID, &rf.PaymentIntentID, &rf.Amount, &rf.Reason, &rf.Status, &rf.ProviderRefundID, &rf.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get refund by provider id: %w", err)
	}
	return rf, nil
}
