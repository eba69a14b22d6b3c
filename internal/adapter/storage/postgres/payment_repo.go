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

const paymentIntentColumns = `id, order_id, venue_id, tenant_id, amount, currency, status, provider_reference_id, created_at, updated_at`

// PaymentIntentRepo implements ports.PaymentIntentRepository.
type PaymentIntentRepo struct {
	pool Pool
}

// NewPaymentIntentRepo creates a new PaymentIntentRepo.
func NewPaymentIntentRepo(pool Pool) *PaymentIntentRepo {
	return &PaymentIntentRepo{pool: pool}
}

// Create inserts a new payment intent within a database transaction.
func (r *PaymentIntentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.PaymentIntent) error {
	query := `INSERT INTO payment_intents (id, order_id, venue_id, tenant_id, amount, currency, status, provider_reference_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.OrderID, p.VenueID, p.TenantID,
		p.Amount, p.Currency, p.Status, p.ProviderReferenceID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

// GetByID fetches a payment intent by UUID.
func (r *PaymentIntentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_intents WHERE id = $1`, paymentIntentColumns)
	return scanPaymentIntent(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches and row-locks a payment intent inside tx. This
// lock serializes all concurrent transitions on one intent.
func (r *PaymentIntentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PaymentIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_intents WHERE id = $1 FOR UPDATE`, paymentIntentColumns)
	return scanPaymentIntent(tx.QueryRow(ctx, query, id))
}

// GetByProviderReference fetches a payment intent by the provider's id.
func (r *PaymentIntentRepo) GetByProviderReference(ctx context.Context, providerRef string) (*domain.PaymentIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_intents WHERE provider_reference_id = $1`, paymentIntentColumns)
	return scanPaymentIntent(r.pool.QueryRow(ctx, query, providerRef))
}

// UpdateStatus updates an intent's status within a database transaction.
func (r *PaymentIntentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentIntentStatus) error {
	query := `UPDATE payment_intents SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update payment intent status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment intent not found: %s", id)
	}
	return nil
}

func scanPaymentIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	p := &domain.PaymentIntent{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.VenueID, &p.TenantID,
		&p.Amount, &p.Currency, &p.Status, &p.ProviderReferenceID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment intent: %w", err)
	}
	return p, nil
}
