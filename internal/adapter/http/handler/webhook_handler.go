package handler

import (
	"ticketing-payment-core/internal/adapter/http/dto"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/pkg/apperror"
	"ticketing-payment-core/pkg/response"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives provider event deliveries.
type WebhookHandler struct {
	inbox ports.WebhookInbox
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(inbox ports.WebhookInbox) *WebhookHandler {
	return &WebhookHandler{inbox: inbox}
}

// Receive handles POST /api/v1/webhooks/:provider. Duplicate deliveries are
// acknowledged with duplicate=true so the provider stops retrying.
func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := c.Param("provider")

	var env dto.WebhookEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	alreadyProcessed, err := h.inbox.Ingest(c.Request.Context(), provider, env.ID, env.Type, env.Data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WebhookAckResponse{Received: true, Duplicate: alreadyProcessed})
}
