package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outbox event types emitted by the ledger and inbox.
const (
	EventPaymentCreated   = "payment_intent.created"
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.failed"
	EventRefundCreated    = "refund.created"
)

// OutboxEvent is a domain event written in the same database transaction as
// the ledger mutation that produced it. A background publisher delivers it
// at-least-once and sets PublishedAt only after broker acknowledgment.
type OutboxEvent struct {
	ID            uuid.UUID  `json:"id"`
	AggregateType string     `json:"aggregate_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	EventType     string     `json:"event_type"`
	Payload       []byte     `json:"payload"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}
