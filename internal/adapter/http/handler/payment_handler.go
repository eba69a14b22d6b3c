package handler

import (
	"time"

	"ticketing-payment-core/internal/adapter/http/dto"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/pkg/apperror"
	"ticketing-payment-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey dedupes retried mutating requests.
const HeaderIdempotencyKey = "Idempotency-Key"

// PaymentHandler handles payment intent and refund endpoints.
type PaymentHandler struct {
	ledger     ports.LedgerService
	intentRepo ports.PaymentIntentRepository
	refundRepo ports.RefundRepository
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ledger ports.LedgerService, intentRepo ports.PaymentIntentRepository, refundRepo ports.RefundRepository) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, intentRepo: intentRepo, refundRepo: refundRepo}
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" {
		response.Error(c, apperror.Validation("Idempotency-Key header is required"))
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid venue_id"))
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid tenant_id"))
		return
	}

	intent, err := h.ledger.CreatePayment(c.Request.Context(), key, ports.CreatePaymentRequest{
		OrderID:  req.OrderID,
		VenueID:  venueID,
		TenantID: tenantID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentIntentResponse(intent))
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment intent id"))
		return
	}

	intent, err := h.intentRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}
	if intent == nil {
		response.Error(c, apperror.ErrNotFound("payment intent"))
		return
	}

	response.OK(c, toPaymentIntentResponse(intent))
}

// ConfirmPayment handles POST /api/v1/payments/:id/confirm.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment intent id"))
		return
	}

	intent, err := h.ledger.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentIntentResponse(intent))
}

// FailPayment handles POST /api/v1/payments/:id/fail.
func (h *PaymentHandler) FailPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment intent id"))
		return
	}

	var req dto.FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	intent, err := h.ledger.FailPayment(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentIntentResponse(intent))
}

// CreateRefund handles POST /api/v1/payments/:id/refunds.
func (h *PaymentHandler) CreateRefund(c *gin.Context) {
	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" {
		response.Error(c, apperror.Validation("Idempotency-Key header is required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment intent id"))
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	refund, err := h.ledger.CreateRefund(c.Request.Context(), key, ports.RefundRequest{
		PaymentIntentID: id,
		Amount:          req.Amount,
		Reason:          req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toRefundResponse(refund))
}

// ListRefunds handles GET /api/v1/payments/:id/refunds.
func (h *PaymentHandler) ListRefunds(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment intent id"))
		return
	}

	refunds, err := h.refundRepo.ListByIntent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}

	items := make([]dto.RefundResponse, 0, len(refunds))
	for i := range refunds {
		items = append(items, toRefundResponse(&refunds[i]))
	}
	response.OK(c, dto.RefundListResponse{Items: items, Total: len(items)})
}

func toPaymentIntentResponse(intent *domain.PaymentIntent) dto.PaymentIntentResponse {
	return dto.PaymentIntentResponse{
		ID:                  intent.ID.String(),
		OrderID:             intent.OrderID,
		VenueID:             intent.VenueID.String(),
		TenantID:            intent.TenantID.String(),
		Amount:              intent.Amount,
		Currency:            intent.Currency,
		Status:              string(intent.Status),
		ProviderReferenceID: intent.ProviderReferenceID,
		CreatedAt:           intent.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           intent.UpdatedAt.Format(time.RFC3339),
	}
}

func toRefundResponse(refund *domain.Refund) dto.RefundResponse {
	return dto.RefundResponse{
		ID:               refund.ID.String(),
		PaymentIntentID:  refund.PaymentIntentID.String(),
		Amount:           refund.Amount,
		Reason:           refund.Reason,
		Status:           string(refund.Status),
		ProviderRefundID: refund.ProviderRefundID,
		CreatedAt:        refund.CreatedAt.Format(time.RFC3339),
	}
}
