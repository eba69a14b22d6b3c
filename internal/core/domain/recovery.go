package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecoveryOperationStatus tracks long-running async units of work.
type RecoveryOperationStatus string

const (
	OperationPending    RecoveryOperationStatus = "pending"
	OperationInProgress RecoveryOperationStatus = "in_progress"
	OperationCompleted  RecoveryOperationStatus = "completed"
	OperationFailed     RecoveryOperationStatus = "failed"
)

// RecoveryOperation represents any long-running async job (sync job, mint
// job) whose staleness triggers forced failure by the recovery sweep.
type RecoveryOperation struct {
	ID            uuid.UUID               `json:"id"`
	Type          string                  `json:"type"`
	Status        RecoveryOperationStatus `json:"status"`
	VenueID       uuid.UUID               `json:"venue_id"`
	CreatedAt     time.Time               `json:"created_at"`
	LastUpdatedAt time.Time               `json:"last_updated_at"`
}

// Stale reports whether the operation has been sitting in a non-terminal
// status longer than the threshold.
func (o *RecoveryOperation) Stale(now time.Time, threshold time.Duration) bool {
	if o.Status != OperationPending && o.Status != OperationInProgress {
		return false
	}
	return now.Sub(o.LastUpdatedAt) > threshold
}

// QueueKind tags a dead-letter message with the subsystem that produced it.
type QueueKind string

const (
	QueueWebhook      QueueKind = "webhook"
	QueueSync         QueueKind = "sync"
	QueueNotification QueueKind = "notification"
)

// DeadLetterMessage is one failed async job awaiting replay. The Queue tag
// selects the handler; payloads are kind-specific JSON.
type DeadLetterMessage struct {
	ID         uuid.UUID `json:"id"`
	Queue      QueueKind `json:"queue"`
	Payload    []byte    `json:"payload"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// WebhookReplayPayload is the payload for QueueWebhook messages.
type WebhookReplayPayload struct {
	WebhookEventID uuid.UUID `json:"webhook_event_id"`
}

// SyncReplayPayload is the payload for QueueSync messages.
type SyncReplayPayload struct {
	OperationID uuid.UUID `json:"operation_id"`
}

// NotificationReplayPayload is the payload for QueueNotification messages.
type NotificationReplayPayload struct {
	AggregateID uuid.UUID `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
}

// AuditEntry records a recovery action for later inspection.
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
