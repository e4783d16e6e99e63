package main

import (
	"github.com/gin-gonic/gin"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/config"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
	"go-sse-broadcast/internal/interfaces/api"
	"go-sse-broadcast/internal/interfaces/sse"
	"go-sse-broadcast/internal/interfaces/websocket"
	"net/http"
)

func InitRouter(
	cfg *config.Config,
	reg *registry.Registry,
	sender *registry.Sender,
	resolver *auth.Resolver,
	log logger.Logger,
) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Cache-Control")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	rootGroup := router.Group("")

	sse.InitSSERouter(log, reg, resolver, cfg.Stream.KeepAliveInterval, rootGroup)
	websocket.InitWebSocketRouter(log, reg, resolver, cfg.Stream.KeepAliveInterval, rootGroup)
	api.InitAPIRouter(log, reg, sender, cfg.RateLimit.Limit, cfg.RateLimit.Window, rootGroup)

	return router
}
