package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentIntent_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from PaymentIntentStatus
		to   PaymentIntentStatus
		want bool
	}{
		{"pending to succeeded", PaymentStatusPending, PaymentStatusSucceeded, true},
		{"pending to failed", PaymentStatusPending, PaymentStatusFailed, true},
		{"pending to refunded", PaymentStatusPending, PaymentStatusRefunded, false},
		{"succeeded to refunded", PaymentStatusSucceeded, PaymentStatusRefunded, true},
		{"succeeded to partially refunded", PaymentStatusSucceeded, PaymentStatusPartiallyRefunded, true},
		{"succeeded to failed", PaymentStatusSucceeded, PaymentStatusFailed, false},
		{"succeeded to pending", PaymentStatusSucceeded, PaymentStatusPending, false},
		{"partially refunded to refunded", PaymentStatusPartiallyRefunded, PaymentStatusRefunded, true},
		{"partially refunded stays partial", PaymentStatusPartiallyRefunded, PaymentStatusPartiallyRefunded, true},
		{"failed is terminal", PaymentStatusFailed, PaymentStatusPending, false},
		{"refunded is terminal", PaymentStatusRefunded, PaymentStatusPartiallyRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PaymentIntent{Status: tt.from}
			assert.Equal(t, tt.want, p.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentIntent_Refundable(t *testing.T) {
	tests := []struct {
		name   string
		status PaymentIntentStatus
		want   bool
	}{
		{"pending", PaymentStatusPending, false},
		{"succeeded", PaymentStatusSucceeded, true},
		{"failed", PaymentStatusFailed, false},
		{"partially refunded", PaymentStatusPartiallyRefunded, true},
		{"refunded", PaymentStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PaymentIntent{Status: tt.status}
			assert.Equal(t, tt.want, p.Refundable())
		})
	}
}

func TestPaymentIntent_IsTerminal(t *testing.T) {
	assert.False(t, (&PaymentIntent{Status: PaymentStatusPending}).IsTerminal())
	assert.False(t, (&PaymentIntent{Status: PaymentStatusSucceeded}).IsTerminal())
	assert.False(t, (&PaymentIntent{Status: PaymentStatusPartiallyRefunded}).IsTerminal())
	assert.True(t, (&PaymentIntent{Status: PaymentStatusFailed}).IsTerminal())
	assert.True(t, (&PaymentIntent{Status: PaymentStatusRefunded}).IsTerminal())
}

func TestRefund_CountsTowardCap(t *testing.T) {
	assert.True(t, (&Refund{Status: RefundStatusPending}).CountsTowardCap())
	assert.True(t, (&Refund{Status: RefundStatusSucceeded}).CountsTowardCap())
	assert.False(t, (&Refund{Status: RefundStatusFailed}).CountsTowardCap())
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint([]byte(`{"amount":1000,"order_id":"ORD-1"}`))
	b := Fingerprint([]byte(`{"amount":1000,"order_id":"ORD-1"}`))
	c := Fingerprint([]byte(`{"amount":2000,"order_id":"ORD-1"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestRecoveryOperation_Stale(t *testing.T) {
	now := time.Now()
	threshold := 30 * time.Minute

	tests := []struct {
		name      string
		status    RecoveryOperationStatus
		updatedAt time.Time
		want      bool
	}{
		{"pending past threshold", OperationPending, now.Add(-time.Hour), true},
		{"in progress past threshold", OperationInProgress, now.Add(-time.Hour), true},
		{"pending within threshold", OperationPending, now.Add(-time.Minute), false},
		{"completed never stale", OperationCompleted, now.Add(-time.Hour), false},
		{"failed never stale", OperationFailed, now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &RecoveryOperation{Status: tt.status, LastUpdatedAt: tt.updatedAt}
			assert.Equal(t, tt.want, op.Stale(now, threshold))
		})
	}
}

func TestProviderHealth_Available(t *testing.T) {
	assert.True(t, ProviderHealth{Status: ProviderHealthy}.Available())
	assert.True(t, ProviderHealth{Status: ProviderDegraded}.Available())
	assert.False(t, ProviderHealth{Status: ProviderUnhealthy}.Available())
}

func TestWorstOf(t *testing.T) {
	assert.Equal(t, ProviderHealthy, WorstOf(ProviderHealthy, ProviderHealthy))
	assert.Equal(t, ProviderDegraded, WorstOf(ProviderHealthy, ProviderDegraded))
	assert.Equal(t, ProviderUnhealthy, WorstOf(ProviderDegraded, ProviderUnhealthy))
	assert.Equal(t, ProviderUnhealthy, WorstOf(ProviderUnhealthy, ProviderHealthy))
}

func TestPaymentStatus_Constants(t *testing.T) {
	assert.Equal(t, PaymentIntentStatus("pending"), PaymentStatusPending)
	assert.Equal(t, PaymentIntentStatus("succeeded"), PaymentStatusSucceeded)
	assert.Equal(t, PaymentIntentStatus("failed"), PaymentStatusFailed)
	assert.Equal(t, PaymentIntentStatus("refunded"), PaymentStatusRefunded)
	assert.Equal(t, PaymentIntentStatus("partially_refunded"), PaymentStatusPartiallyRefunded)
}

func TestWebhookType_Constants(t *testing.T) {
	assert.Equal(t, "payment_intent.succeeded", WebhookTypePaymentSucceeded)
	assert.Equal(t, "payment_intent.payment_failed", WebhookTypePaymentFailed)
	assert.Equal(t, "refund.succeeded", WebhookTypeRefundSucceeded)
	assert.Equal(t, "refund.failed", WebhookTypeRefundFailed)
}
