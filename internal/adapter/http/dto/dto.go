package dto

import "encoding/json"

// CreatePaymentRequest is the request body for opening a payment intent.
type CreatePaymentRequest struct {
	OrderID  string `json:"order_id" binding:"required,max=100"`
	VenueID  string `json:"venue_id" binding:"required,uuid"`
	TenantID string `json:"tenant_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// RefundRequest is the request body for creating a refund.
type RefundRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"max=500"`
}

// FailPaymentRequest is the request body for failing a pending intent.
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PaymentIntentResponse is the response body for payment intent results.
type PaymentIntentResponse struct {
	ID                  string `json:"id"`
	OrderID             string `json:"order_id"`
	VenueID             string `json:"venue_id"`
	TenantID            string `json:"tenant_id"`
	Amount              int64  `json:"amount"`
	Currency            string `json:"currency"`
	Status              string `json:"status"`
	ProviderReferenceID string `json:"provider_reference_id"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// RefundResponse is the response body for refund results.
type RefundResponse struct {
	ID               string `json:"id"`
	PaymentIntentID  string `json:"payment_intent_id"`
	Amount           int64  `json:"amount"`
	Reason           string `json:"reason,omitempty"`
	Status           string `json:"status"`
	ProviderRefundID string `json:"provider_refund_id"`
	CreatedAt        string `json:"created_at"`
}

// RefundListResponse wraps the refunds recorded against one intent.
type RefundListResponse struct {
	Items []RefundResponse `json:"items"`
	Total int              `json:"total"`
}

// WebhookEnvelope is the provider's event delivery format.
type WebhookEnvelope struct {
	ID   string          `json:"id" binding:"required"`
	Type string          `json:"type" binding:"required"`
	Data json.RawMessage `json:"data" binding:"required"`
}

// WebhookAckResponse acknowledges a webhook delivery.
type WebhookAckResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate"`
}

// HealthResponse is the deep health check response.
type HealthResponse struct {
	Status       string             `json:"status"`
	Dependencies []DependencyHealth `json:"dependencies"`
}

// DependencyHealth is one monitored dependency's state.
type DependencyHealth struct {
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	LastError           *string `json:"last_error,omitempty"`
}
