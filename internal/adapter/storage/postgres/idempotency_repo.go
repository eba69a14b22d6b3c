package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const idempotencyColumns = `operation_type, key, request_fingerprint, result_payload, status, expires_at, created_at`

// IdempotencyRepo implements ports.IdempotencyRepository. Claim relies on the
// (operation_type, key) primary key so the first inserter wins at the
// database level.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Claim atomically inserts an in_flight record. When the key already exists,
// the stored record is returned instead and claimed is false.
func (r *IdempotencyRepo) Claim(ctx context.Context, rec *domain.IdempotencyRecord) (bool, *domain.IdempotencyRecord, error) {
	query := `INSERT INTO idempotency_records (operation_type, key, request_fingerprint, result_payload, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (operation_type, key) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		rec.OperationType, rec.Key, rec.RequestFingerprint,
		rec.ResultPayload, rec.Status, rec.ExpiresAt, rec.CreatedAt,
	)
	if err != nil {
		return false, nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil, nil
	}

	existing, err := r.Get(ctx, rec.OperationType, rec.Key)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		// The losing row expired between the insert and the read. Treat it
		// as a transient conflict so the caller retries.
		return false, nil, fmt.Errorf("idempotency record vanished for key %s", rec.Key)
	}
	return false, existing, nil
}

// Get fetches an idempotency record by its composite key.
func (r *IdempotencyRepo) Get(ctx context.Context, operationType, key string) (*domain.IdempotencyRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM idempotency_records WHERE operation_type = $1 AND key = $2`, idempotencyColumns)

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, operationType, key).Scan(
		&rec.OperationType, &rec.Key, &rec.RequestFingerprint,
		&rec.ResultPayload, &rec.Status, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

// Complete stores the result payload and flips the record to completed.
func (r *IdempotencyRepo) Complete(ctx context.Context, operationType, key string, payload []byte) error {
	query := `UPDATE idempotency_records SET result_payload = $1, status = $2
		WHERE operation_type = $3 AND key = $4 AND status = $5`

	tag, err := r.pool.Exec(ctx, query, payload, domain.IdempotencyCompleted, operationType, key, domain.IdempotencyInFlight)
	if err != nil {
		return fmt.Errorf("complete idempotency record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no in-flight idempotency record for key %s", key)
	}
	return nil
}

// Release deletes an in_flight claim so a retry with the same key can run.
// Completed records are never released.
func (r *IdempotencyRepo) Release(ctx context.Context, operationType, key string) error {
	query := `DELETE FROM idempotency_records WHERE operation_type = $1 AND key = $2 AND status = $3`

	if _, err := r.pool.Exec(ctx, query, operationType, key, domain.IdempotencyInFlight); err != nil {
		return fmt.Errorf("release idempotency claim: %w", err)
	}
	return nil
}

// DeleteExpired removes records past their retention window.
func (r *IdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idempotency_records WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency records: %w", err)
	}
	return tag.RowsAffected(), nil
}
