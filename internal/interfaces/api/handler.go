package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

// Handler exposes the inbound control API over the registry and sender.
type Handler struct {
	registry *registry.Registry
	sender   *registry.Sender
	logger   logger.Logger
}

func NewHandler(reg *registry.Registry, sender *registry.Sender, log logger.Logger) *Handler {
	return &Handler{
		registry: reg,
		sender:   sender,
		logger:   log.WithField("handler", "api"),
	}
}

// EventRequest is the inbound event shape. Name is bounded; payload is
// arbitrary JSON.
type EventRequest struct {
	Name    string `json:"name" binding:"required,max=50"`
	Payload any    `json:"payload"`
	ID      string `json:"id" binding:"omitempty,max=100"`
	RetryMs int    `json:"retryMs" binding:"omitempty,min=0"`
}

func (r *EventRequest) toEvent() *registry.Event {
	return &registry.Event{
		Name:    r.Name,
		Payload: r.Payload,
		ID:      r.ID,
		RetryMs: r.RetryMs,
	}
}

type sendToUserRequest struct {
	UserID string       `json:"userId" binding:"required"`
	Event  EventRequest `json:"event" binding:"required"`
}

type broadcastRequest struct {
	Event     EventRequest `json:"event" binding:"required"`
	ExcludeID string       `json:"excludeConnectionId"`
}

// SendToConnection delivers one event to one connection. An unreachable
// target is a normal outcome, reported through the success flag.
func (h *Handler) SendToConnection(c *gin.Context) {
	id := c.Param("connectionId")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "connectionId must be a valid UUID"})
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event: " + err.Error()})
		return
	}

	if h.sender.SendTo(id, req.toEvent()) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "event delivered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": false, "message": "connection not found or unreachable"})
}

// SendToUser delivers one event to every connection of a user.
func (h *Handler) SendToUser(c *gin.Context) {
	var req sendToUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	sent := h.sender.SendToUser(req.UserID, req.Event.toEvent())
	c.JSON(http.StatusOK, gin.H{"success": true, "sentCount": sent})
}

// Broadcast delivers one event to every connection, minus an optional
// excluded one.
func (h *Handler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	sent := h.sender.Broadcast(req.Event.toEvent(), req.ExcludeID)
	c.JSON(http.StatusOK, gin.H{"success": true, "sentCount": sent})
}

// ListConnections returns the ids of all live connections.
func (h *Handler) ListConnections(c *gin.Context) {
	ids := h.registry.ListIDs()
	c.JSON(http.StatusOK, gin.H{"connectionIds": ids, "count": len(ids)})
}

// ListConnectionsForUser returns the ids of one user's live connections.
func (h *Handler) ListConnectionsForUser(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	ids := h.registry.ListIDsForUser(userID)
	c.JSON(http.StatusOK, gin.H{"connectionIds": ids, "count": len(ids)})
}

// Stats reports a snapshot of the registry population.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Stats())
}

// Health reports service health alongside the registry stats.
func (h *Handler) Health(c *gin.Context) {
	stats := h.registry.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
		"totalConnections":     stats.Total,
		"authenticatedClients": stats.Authenticated,
		"anonymousClients":     stats.Anonymous,
		"averageAgeSeconds":    stats.AverageAgeSeconds,
		"oldestAgeSeconds":     stats.OldestAgeSeconds,
	})
}
