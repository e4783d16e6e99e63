package sse

import (
	"time"

	"github.com/gin-gonic/gin"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

func InitSSERouter(
	log logger.Logger,
	reg *registry.Registry,
	resolver *auth.Resolver,
	keepAliveInterval time.Duration,
	rg *gin.RouterGroup,
) {
	handler := NewHandler(reg, resolver, keepAliveInterval, log)

	sseGroup := rg.Group("/sse")
	sseGroup.GET("", handler.Connect)
}
