package handler

import (
	"context"
	"net/http"
	"time"

	"checkout-payments/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const dependencyPingTimeout = 2 * time.Second

type depStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthCheck handles GET /health. Liveness only: the process answering
// is the whole check.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadyCheck handles GET /ready. It pings every dependency and reports
// 503 with per-dependency detail when any of them is unreachable.
func ReadyCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), dependencyPingTimeout)
		defer cancel()

		deps := make(map[string]depStatus, len(checkers))
		allHealthy := true
		for _, hc := range checkers {
			if err := hc.Ping(ctx); err != nil {
				deps[hc.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[hc.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "ready"
		code := http.StatusOK
		if !allHealthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
