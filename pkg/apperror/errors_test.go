package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("PAY_002", "Invalid amount", http.StatusBadRequest),
			expected: "[PAY_002] Invalid amount",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("PAY_002", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestPaymentErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidAmount", ErrInvalidAmount(), "PAY_002", 400},
		{"NotFound", ErrNotFound("Payment intent"), "PAY_004", 404},
		{"InvalidState", ErrInvalidState("intent is failed"), "PAY_010", 409},
		{"AmountExceeded", ErrAmountExceeded(), "PAY_011", 422},
		{"IdempotencyConflict", ErrIdempotencyConflict(), "PAY_012", 422},
		{"RequestInProgress", ErrRequestInProgress(), "PAY_013", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestProviderErrors(t *testing.T) {
	inner := fmt.Errorf("card_declined")

	open := ErrBreakerOpen("create_payment")
	assert.Equal(t, "PRV_001", open.Code)
	assert.Equal(t, 503, open.HTTPStatus)
	assert.Contains(t, open.Message, "create_payment")

	unavailable := ErrProviderUnavailable(inner)
	assert.Equal(t, "PRV_002", unavailable.Code)
	assert.Equal(t, 502, unavailable.HTTPStatus)
	assert.True(t, errors.Is(unavailable, inner))

	rejected := ErrProviderRejected(inner)
	assert.Equal(t, "PRV_003", rejected.Code)
	assert.Equal(t, 402, rejected.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	intErr := InternalError(inner)
	assert.Equal(t, "SYS_001", intErr.Code)
	assert.Equal(t, 500, intErr.HTTPStatus)
}

func TestValidationMessage(t *testing.T) {
	err := Validation("currency must be a 3-letter code")
	assert.Equal(t, "PAY_002", err.Code)
	assert.Equal(t, 400, err.HTTPStatus)
	assert.Contains(t, err.Message, "currency")
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Refund")
	assert.Contains(t, err.Message, "Refund")
	assert.Equal(t, "PAY_004", err.Code)
}
