package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Payment Business Logic (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_002", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrInvalidState signals a ledger transition attempted from a wrong status,
// e.g. refunding a payment intent that never succeeded.
func ErrInvalidState(detail string) *AppError {
	return New("PAY_010", fmt.Sprintf("Operation not allowed: %s", detail), http.StatusConflict)
}

// ErrAmountExceeded signals a refund that would push the cumulative refunded
// amount past the original payment amount.
func ErrAmountExceeded() *AppError {
	return New("PAY_011", "Refund amount exceeds remaining refundable balance", http.StatusUnprocessableEntity)
}

// ErrIdempotencyConflict signals reuse of an idempotency key with a different
// request body.
func ErrIdempotencyConflict() *AppError {
	return New("PAY_012", "Idempotency key was already used with a different request", http.StatusUnprocessableEntity)
}

// ErrRequestInProgress signals a concurrent duplicate of an in-flight request.
func ErrRequestInProgress() *AppError {
	return New("PAY_013", "A request with this idempotency key is still being processed", http.StatusConflict)
}

// ---- Provider & Resilience (PRV) ----

// ErrBreakerOpen is returned without invoking the provider while the circuit
// breaker for the named operation is open.
func ErrBreakerOpen(name string) *AppError {
	return New("PRV_001", fmt.Sprintf("Payment provider temporarily unavailable (%s)", name), http.StatusServiceUnavailable)
}

func ErrProviderUnavailable(err error) *AppError {
	return Wrap("PRV_002", "Payment provider did not respond", http.StatusBadGateway, err)
}

// ErrProviderRejected covers terminal provider declines that must not be retried.
func ErrProviderRejected(err error) *AppError {
	return Wrap("PRV_003", "Payment provider rejected the request", http.StatusPaymentRequired, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a PAY_002-style validation error.
func Validation(message string) *AppError {
	return New("PAY_002", message, http.StatusBadRequest)
}
