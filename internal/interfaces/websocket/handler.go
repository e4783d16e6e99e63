package websocket

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
)

// Handler serves event streams over websocket, feeding the same registry as
// the SSE endpoint.
type Handler struct {
	registry          *registry.Registry
	resolver          *auth.Resolver
	logger            logger.Logger
	keepAliveInterval time.Duration
	upgrader          websocket.Upgrader
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
		logger:            log.WithField("handler", "websocket"),
		keepAliveInterval: keepAliveInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Connect upgrades the request and registers the socket as a connection.
func (h *Handler) Connect(c *gin.Context) {
	userID := h.resolver.UserID(c.Request)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("upgrade failed: %v", err)
		return
	}

	stream := newWsStream(conn, writeTimeout)

	id, err := h.registry.Register(stream, userID)
	if err != nil {
		if errors.Is(err, registry.ErrCapacityExceeded) || errors.Is(err, registry.ErrRegistryClosed) {
			h.logger.Warnf("rejecting websocket connection: %v", err)
		} else {
			h.logger.Errorf("register websocket connection: %v", err)
		}
		stream.Close()
		return
	}

	h.logger.Infof("websocket connection %s established (user=%q)", id, userID)

	go h.readLoop(id, conn)

	keepAlive := time.NewTicker(h.keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-stream.Done():
			h.logger.Infof("websocket connection %s closed", id)
			return

		case <-keepAlive.C:
			if err := stream.ping(); err != nil {
				h.logger.Warnf("ping to connection %s failed: %v", id, err)
				h.registry.Remove(id)
				return
			}
		}
	}
}

// readLoop drains inbound frames to surface client disconnects; the service
// does not consume client data.
func (h *Handler) readLoop(id string, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnf("websocket connection %s read error: %v", id, err)
			}
			h.registry.Remove(id)
			return
		}
	}
}
