package sse

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

type Handler struct {
	registry          *registry.Registry
	resolver          *auth.Resolver
	logger            logger.Logger
	keepAliveInterval time.Duration
}

func NewHandler(
	reg *registry.Registry,
	resolver *auth.Resolver,
	keepAliveInterval time.Duration,
	log logger.Logger,
) *Handler {
	return &Handler{
		registry:          reg,
		resolver:          resolver,
		logger:            log.WithField("handler", "sse"),
		keepAliveInterval: keepAliveInterval,
	}
}

// Connect accepts a long-lived event stream. It registers the connection,
// streams registry-delivered events through the shared response writer and
// interleaves keep-alive comment pulses until the client goes away or the
// registry removes the connection.
func (h *Handler) Connect(c *gin.Context) {
	stream := newEventStream(c.Writer)
	userID := h.resolver.UserID(c.Request)

	id, err := h.registry.Register(stream, userID)
	if err != nil {
		if errors.Is(err, registry.ErrCapacityExceeded) || errors.Is(err, registry.ErrRegistryClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service at capacity or shutting down"})
			return
		}
		h.logger.Errorf("register connection: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register connection"})
		return
	}

	h.logger.Infof("sse connection %s established (user=%q)", id, userID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	// The server-wide write timeout would kill the stream; lift it for this
	// request only.
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Warnf("could not clear write deadline for connection %s: %v", id, err)
	}

	keepAlive := time.NewTicker(h.keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Infof("sse client %s disconnected", id)
			h.registry.Remove(id)
			return

		case <-stream.Done():
			// Removed by the registry (stale, failed send or drain).
			h.logger.Infof("sse connection %s closed by registry", id)
			return

		case <-keepAlive.C:
			if err := stream.Write(registry.KeepAliveComment); err != nil {
				h.logger.Warnf("keep-alive to connection %s failed: %v", id, err)
				h.registry.Remove(id)
				return
			}
		}
	}
}
