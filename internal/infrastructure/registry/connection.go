package registry

import (
	"sync"
	"time"
)

// Connection is one registered long-lived streaming session.
type Connection struct {
	id          string
	userID      string
	stream      Stream
	connectedAt time.Time

	activityMu   sync.RWMutex
	lastActivity time.Time
}

func newConnection(id, userID string, stream Stream, now time.Time) *Connection {
	return &Connection{
		id:           id,
		userID:       userID,
		stream:       stream,
		connectedAt:  now,
		lastActivity: now,
	}
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string {
	return c.id
}

// UserID returns the associated user identity, or "" for an anonymous
// connection.
func (c *Connection) UserID() string {
	return c.userID
}

// ConnectedAt returns the registration timestamp.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// LastActivity returns the time of the last successful write to this
// connection.
func (c *Connection) LastActivity() time.Time {
	c.activityMu.RLock()
	defer c.activityMu.RUnlock()
	return c.lastActivity
}

// touch advances lastActivity. It never moves the timestamp backward.
func (c *Connection) touch(now time.Time) {
	c.activityMu.Lock()
	if now.After(c.lastActivity) {
		c.lastActivity = now
	}
	c.activityMu.Unlock()
}
