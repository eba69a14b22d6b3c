package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the lifecycle state of a refund.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund is a (possibly partial) reversal of a succeeded payment intent.
// Immutable once succeeded. The cumulative invariant lives in the ledger:
// sum of non-failed refund amounts never exceeds the intent amount.
type Refund struct {
	ID               uuid.UUID    `json:"id"`
	PaymentIntentID  uuid.UUID    `json:"payment_intent_id"`
	Amount           int64        `json:"amount"`
	Reason           string       `json:"reason"`
	Status           RefundStatus `json:"status"`
	ProviderRefundID string       `json:"provider_refund_id"`
	CreatedAt        time.Time    `json:"created_at"`
}

// CountsTowardCap reports whether this refund consumes refundable balance.
func (r *Refund) CountsTowardCap() bool {
	return r.Status != RefundStatusFailed
}
