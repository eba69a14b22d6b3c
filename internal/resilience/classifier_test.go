package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusErr struct {
	status     int
	retryAfter int
	msg        string
}

func (e *statusErr) Error() string { return e.msg }

func (e *statusErr) StatusCode() int { return e.status }

func (e *statusErr) RetryAfterSeconds() int { return e.retryAfter }

func TestClassify_StatusCodes(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name      string
		status    int
		category  Category
		retryable bool
	}{
		{"unauthorized", 401, CategoryAuthentication, false},
		{"forbidden", 403, CategoryAuthorization, false},
		{"rate limited", 429, CategoryRateLimit, true},
		{"bad request", 400, CategoryValidation, false},
		{"unprocessable", 422, CategoryValidation, false},
		{"not found", 404, CategoryDataError, false},
		{"conflict", 409, CategoryDataError, false},
		{"server error", 500, CategoryProviderError, true},
		{"bad gateway", 502, CategoryProviderError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(&statusErr{status: tt.status, msg: "opaque message"})
			assert.Equal(t, tt.category, cls.Category)
			assert.Equal(t, tt.retryable, cls.Retryable)
		})
	}
}

func TestClassify_DeadlineExceededIsNetwork(t *testing.T) {
	c := NewClassifier()

	cls := c.Classify(fmt.Errorf("provider request: %w", context.DeadlineExceeded))
	assert.Equal(t, CategoryNetwork, cls.Category)
	assert.True(t, cls.Retryable)
	assert.Equal(t, 30*time.Second, cls.RetryAfter)
}

func TestClassify_MessageFallback(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		msg      string
		category Category
	}{
		{"dial tcp: connection refused", CategoryNetwork},
		{"upstream returned bad gateway", CategoryProviderError},
		{"request validation failed on amount", CategoryValidation},
		{"missing credential for provider", CategoryConfiguration},
		{"account forbidden for this operation", CategoryAuthorization},
		{"completely novel failure", CategoryUnknown},
	}
	for _, tt := range tests {
		cls := c.Classify(errors.New(tt.msg))
		assert.Equal(t, tt.category, cls.Category, tt.msg)
	}
}

func TestClassify_ConfigurationIsCritical(t *testing.T) {
	c := NewClassifier()

	cls := c.Classify(errors.New("provider misconfigured: no api key"))
	assert.Equal(t, CategoryConfiguration, cls.Category)
	assert.Equal(t, SeverityCritical, cls.Severity)
	assert.False(t, cls.Retryable)
}

func TestClassify_RetryAfterHint(t *testing.T) {
	c := NewClassifier()

	cls := c.Classify(&statusErr{status: 429, retryAfter: 7, msg: "throttled"})
	assert.Equal(t, 7*time.Second, cls.RetryAfter)
}

func TestClassify_RetryAfterFromMessage(t *testing.T) {
	c := NewClassifier()

	cls := c.Classify(errors.New("rate limit exceeded, retry after 5 seconds"))
	assert.Equal(t, CategoryRateLimit, cls.Category)
	assert.Equal(t, 5*time.Second, cls.RetryAfter)
}

func TestClassify_RateLimitDefaultRetryAfter(t *testing.T) {
	c := NewClassifier()

	cls := c.Classify(errors.New("too many requests"))
	assert.Equal(t, CategoryRateLimit, cls.Category)
	assert.Equal(t, 60*time.Second, cls.RetryAfter)
}
