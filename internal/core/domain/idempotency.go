package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IdempotencyStatus marks whether the guarded operation is still running.
type IdempotencyStatus string

const (
	IdempotencyInFlight  IdempotencyStatus = "in_flight"
	IdempotencyCompleted IdempotencyStatus = "completed"
)

// IdempotencyRecord deduplicates client-submitted mutating requests.
// (OperationType, Key) is unique; concurrent callers with the same key
// observe the same ResultPayload and never trigger a second execution.
type IdempotencyRecord struct {
	Key                string            `json:"key"`
	OperationType      string            `json:"operation_type"`
	RequestFingerprint string            `json:"request_fingerprint"`
	ResultPayload      []byte            `json:"result_payload"` // nil until first completion
	Status             IdempotencyStatus `json:"status"`
	ExpiresAt          time.Time         `json:"expires_at"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Fingerprint hashes a normalized request body for key-reuse detection.
func Fingerprint(normalizedBody []byte) string {
	sum := sha256.Sum256(normalizedBody)
	return hex.EncodeToString(sum[:])
}
