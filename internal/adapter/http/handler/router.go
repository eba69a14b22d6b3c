package handler

import (
	"ticketing-payment-core/internal/adapter/http/middleware"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger        ports.LedgerService
	IntentRepo    ports.PaymentIntentRepository
	RefundRepo    ports.RefundRepository
	Inbox         ports.WebhookInbox
	HealthMonitor *service.HealthMonitor
	Registry      *prometheus.Registry // nil = /metrics disabled
	Logger        zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	r.GET("/health/live", Liveness)
	r.GET("/health", HealthCheck(deps.HealthMonitor))

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")

	paymentHandler := NewPaymentHandler(deps.Ledger, deps.IntentRepo, deps.RefundRepo)
	payments := v1.Group("/payments")
	{
		payments.POST("", paymentHandler.CreatePayment)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.POST("/:id/confirm", paymentHandler.ConfirmPayment)
		payments.POST("/:id/fail", paymentHandler.FailPayment)
		payments.POST("/:id/refunds", paymentHandler.CreateRefund)
		payments.GET("/:id/refunds", paymentHandler.ListRefunds)
	}

	webhookHandler := NewWebhookHandler(deps.Inbox)
	v1.POST("/webhooks/:provider", webhookHandler.Receive)

	return r
}
