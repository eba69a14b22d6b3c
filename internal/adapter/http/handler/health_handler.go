package handler

import (
	"net/http"

	"ticketing-payment-core/internal/adapter/http/dto"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/service"

	"github.com/gin-gonic/gin"
)

// Liveness handles GET /health/live. It answers as long as the process runs.
func Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthCheck returns the deep health endpoint backed by the monitor's last
// probe cycle. Unhealthy dependencies yield 503 so load balancers drain the
// instance; degraded ones stay 200 but are visible in the body.
func HealthCheck(monitor *service.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		overall := monitor.Overall()

		deps := make([]dto.DependencyHealth, 0)
		for _, h := range monitor.Snapshot() {
			deps = append(deps, dto.DependencyHealth{
				Name:                h.Provider,
				Status:              string(h.Status),
				ConsecutiveFailures: h.ConsecutiveFailures,
				LastError:           h.LastError,
			})
		}

		status := http.StatusOK
		if overall == domain.ProviderUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, dto.HealthResponse{
			Status:       string(overall),
			Dependencies: deps,
		})
	}
}
