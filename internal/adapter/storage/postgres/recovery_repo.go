package postgres

import (
	"context"
	"fmt"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/google/uuid"
)

// RecoveryOperationRepo implements ports.RecoveryOperationRepository.
type RecoveryOperationRepo struct {
	pool Pool
}

// NewRecoveryOperationRepo creates a new RecoveryOperationRepo.
func NewRecoveryOperationRepo(pool Pool) *RecoveryOperationRepo {
	return &RecoveryOperationRepo{pool: pool}
}

// ListStale returns non-terminal operations untouched since olderThan.
func (r *RecoveryOperationRepo) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.RecoveryOperation, error) {
	query := `SELECT id, type, status, venue_id, created_at, last_updated_at
		FROM recovery_operations
		WHERE status IN ($1, $2) AND last_updated_at < $3
		ORDER BY last_updated_at
		LIMIT $4`

	rows, err := r.pool.Query(ctx, query, domain.OperationPending, domain.OperationInProgress, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale operations: %w", err)
	}
	defer rows.Close()

	var ops []domain.RecoveryOperation
	for rows.Next() {
		var op domain.RecoveryOperation
		if err := rows.Scan(&op.ID, &op.Type, &op.Status, &op.VenueID, &op.CreatedAt, &op.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan operation row: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation rows: %w", err)
	}
	return ops, nil
}

// MarkFailed force-fails a stale operation with the recovery reason.
func (r *RecoveryOperationRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE recovery_operations SET status = $1, failure_reason = $2, last_updated_at = $3 WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, domain.OperationFailed, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark operation failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recovery operation not found: %s", id)
	}
	return nil
}

// Touch refreshes last_updated_at so an active operation is not swept.
func (r *RecoveryOperationRepo) Touch(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `UPDATE recovery_operations SET last_updated_at = $1 WHERE id = $2`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch operation: %w", err)
	}
	return nil
}

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Insert persists one recovery audit entry.
func (r *AuditRepo) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	query := `INSERT INTO recovery_audit (id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
