package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/ds124wfegd/eventbot/internal/transport/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck probes one optional dependency.
type HealthCheck func(ctx context.Context) error

// InitRoutes builds the ops router. webhook is nil unless the bot runs on
// Telegram.
func InitRoutes(version string, timeout time.Duration, webhook *TelegramWebhook, checks map[string]HealthCheck) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":    state,
			"service":   "eventbot",
			"version":   version,
			"checks":    results,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if webhook != nil {
		router.POST("/telegram/webhook", webhook.Receive)
	}

	return router
}
