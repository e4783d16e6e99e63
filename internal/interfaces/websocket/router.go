package websocket

import (
	"time"

	"github.com/gin-gonic/gin"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

// InitWebSocketRouter initializes websocket routes.
func InitWebSocketRouter(
	log logger.Logger,
	reg *registry.Registry,
	resolver *auth.Resolver,
	keepAliveInterval time.Duration,
	rg *gin.RouterGroup,
) {
	handler := NewHandler(reg, resolver, keepAliveInterval, log)

	wsGroup := rg.Group("/ws")
	wsGroup.GET("", handler.Connect)
}
