package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEventStatus represents the processing state of an inbox row.
type WebhookEventStatus string

const (
	WebhookEventPending   WebhookEventStatus = "pending"
	WebhookEventProcessed WebhookEventStatus = "processed"
	WebhookEventFailed    WebhookEventStatus = "failed"
)

// Well-known provider event types dispatched to ledger transitions.
const (
	WebhookTypePaymentSucceeded = "payment_intent.succeeded"
	WebhookTypePaymentFailed    = "payment_intent.payment_failed"
	WebhookTypeRefundSucceeded  = "refund.succeeded"
	WebhookTypeRefundFailed     = "refund.failed"
)

// WebhookEvent is an inbox row deduplicating inbound provider webhooks.
// (Provider, ProviderEventID) is unique; a replayed webhook is a no-op.
// Rows are never deleted; they are the audit trail.
type WebhookEvent struct {
	ID              uuid.UUID          `json:"id"`
	Provider        string             `json:"provider"`
	ProviderEventID string             `json:"provider_event_id"`
	EventType       string             `json:"event_type"`
	Payload         []byte             `json:"payload"`
	Status          WebhookEventStatus `json:"status"`
	LastError       *string            `json:"last_error,omitempty"`
	ReceivedAt      time.Time          `json:"received_at"`
	ProcessedAt     *time.Time         `json:"processed_at,omitempty"`
}
