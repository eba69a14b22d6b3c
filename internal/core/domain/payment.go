package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentIntentStatus represents the lifecycle state of a payment intent.
type PaymentIntentStatus string

const (
	PaymentStatusPending           PaymentIntentStatus = "pending"
	PaymentStatusSucceeded         PaymentIntentStatus = "succeeded"
	PaymentStatusFailed            PaymentIntentStatus = "failed"
	PaymentStatusRefunded          PaymentIntentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentIntentStatus = "partially_refunded"
)

// PaymentIntent is the ledger-owned record of one attempted charge.
// Amount is in minor units. Mutated only inside a row-locked transaction.
type PaymentIntent struct {
	ID                  uuid.UUID           `json:"id"`
	OrderID             string              `json:"order_id"`
	VenueID             uuid.UUID           `json:"venue_id"`
	TenantID            uuid.UUID           `json:"tenant_id"`
	Amount              int64               `json:"amount"`
	Currency            string              `json:"currency"`
	Status              PaymentIntentStatus `json:"status"`
	ProviderReferenceID string              `json:"provider_reference_id"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// CanTransitionTo reports whether the state machine permits the move.
// pending -> succeeded|failed; succeeded -> refunded|partially_refunded;
// partially_refunded -> refunded. failed and refunded are terminal.
func (p *PaymentIntent) CanTransitionTo(next PaymentIntentStatus) bool {
	switch p.Status {
	case PaymentStatusPending:
		return next == PaymentStatusSucceeded || next == PaymentStatusFailed
	case PaymentStatusSucceeded:
		return next == PaymentStatusRefunded || next == PaymentStatusPartiallyRefunded
	case PaymentStatusPartiallyRefunded:
		return next == PaymentStatusRefunded || next == PaymentStatusPartiallyRefunded
	default:
		return false
	}
}

// Refundable reports whether a refund may be created against this intent.
func (p *PaymentIntent) Refundable() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusPartiallyRefunded
}

// IsTerminal returns true if no further transitions are possible.
func (p *PaymentIntent) IsTerminal() bool {
	return p.Status == PaymentStatusFailed || p.Status == PaymentStatusRefunded
}
