package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

// InitAPIRouter mounts the control API. The event endpoints sit behind the
// rolling-window rate limiter; the health endpoint stays open for probes.
func InitAPIRouter(
	log logger.Logger,
	reg *registry.Registry,
	sender *registry.Sender,
	rateLimit int,
	rateWindow time.Duration,
	rg *gin.RouterGroup,
) {
	handler := NewHandler(reg, sender, log)

	rg.GET("/health", handler.Health)

	apiGroup := rg.Group("/api/v1", RateLimit(rateLimit, rateWindow))
	apiGroup.POST("/events/send/:connectionId", handler.SendToConnection)
	apiGroup.POST("/events/send-to-user", handler.SendToUser)
	apiGroup.POST("/events/broadcast", handler.Broadcast)
	apiGroup.GET("/connections", handler.ListConnections)
	apiGroup.GET("/connections/user/:userId", handler.ListConnectionsForUser)
	apiGroup.GET("/stats", handler.Stats)
}
