package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-sse-broadcast/internal/infrastructure/logger"
)

// Config holds the registry tuning knobs. Zero values fall back to defaults.
type Config struct {
	// MaxConnections caps the number of simultaneously registered
	// connections; Register fails beyond it without mutating state.
	MaxConnections int
	// HeartbeatInterval is the period of the liveness supervision tick.
	HeartbeatInterval time.Duration
	// ClientTimeout is the idle backstop: a connection whose lastActivity is
	// older than this is evicted without a send attempt.
	ClientTimeout time.Duration
	// WelcomeDelay is the startup grace period between registration and the
	// deferred "connected" event, giving the transport time to finish wiring
	// the stream before the first write.
	WelcomeDelay time.Duration
	// WriteTimeout bounds any single stream write; a stall counts as failure.
	WriteTimeout time.Duration
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		MaxConnections:    1000,
		HeartbeatInterval: 30 * time.Second,
		ClientTimeout:     90 * time.Second,
		WelcomeDelay:      200 * time.Millisecond,
		WriteTimeout:      5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConnections <= 0 {
		c.MaxConnections = def.MaxConnections
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = def.ClientTimeout
	}
	if c.WelcomeDelay <= 0 {
		c.WelcomeDelay = def.WelcomeDelay
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	return c
}

// Stats is a point-in-time snapshot of the registry population.
type Stats struct {
	Total             int     `json:"totalConnections"`
	Authenticated     int     `json:"authenticatedClients"`
	Anonymous         int     `json:"anonymousClients"`
	AverageAgeSeconds float64 `json:"averageAgeSeconds"`
	OldestAgeSeconds  float64 `json:"oldestAgeSeconds"`
}

// Registry is the sole owner of the connection set. All mutation and
// enumeration of connections goes through it; a single heartbeat goroutine
// supervises liveness until Drain is called.
type Registry struct {
	cfg    Config
	logger logger.Logger

	mu     sync.RWMutex
	conns  map[string]*Connection
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a registry and starts its heartbeat supervision.
func New(cfg Config, log logger.Logger) *Registry {
	r := &Registry{
		cfg:    cfg.withDefaults(),
		logger: log.WithField("component", "registry"),
		conns:  make(map[string]*Connection),
		done:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.heartbeatLoop()

	return r
}

// Register adds a connection for the given stream and returns its fresh id.
// It fails with ErrCapacityExceeded at the connection cap and with
// ErrRegistryClosed after Drain. A "connected" event carrying the id is
// scheduled after WelcomeDelay so the remote endpoint learns its identity.
func (r *Registry) Register(stream Stream, userID string) (string, error) {
	now := time.Now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRegistryClosed
	}
	if len(r.conns) >= r.cfg.MaxConnections {
		r.mu.Unlock()
		return "", ErrCapacityExceeded
	}
	id := uuid.NewString()
	r.conns[id] = newConnection(id, userID, stream, now)
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Infof("connection %s registered (user=%q total=%d)", id, userID, total)

	time.AfterFunc(r.cfg.WelcomeDelay, func() {
		r.deliver(id, connectedEvent(id, time.Now()))
	})

	return id, nil
}

// Remove closes the connection's stream best-effort and deletes the entry.
// It returns false when the id is unknown, making removal idempotent.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	if err := conn.stream.Close(); err != nil {
		r.logger.Debugf("close stream of connection %s: %v", id, err)
	}
	r.logger.Infof("connection %s removed", id)
	return true
}

// Get looks up a live connection by id.
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// ListIDs returns a snapshot of the currently registered connection ids.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// ListIDsForUser returns the ids of connections associated with the given
// user. Anonymous connections never match; an empty userID matches nothing.
func (r *Registry) ListIDsForUser(userID string) []string {
	if userID == "" {
		return []string{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0)
	for id, conn := range r.conns {
		if conn.userID == userID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Stats computes population statistics from a live snapshot.
func (r *Registry) Stats() Stats {
	now := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: len(r.conns)}
	if stats.Total == 0 {
		return stats
	}

	var totalAge float64
	for _, conn := range r.conns {
		age := now.Sub(conn.connectedAt).Seconds()
		totalAge += age
		if age > stats.OldestAgeSeconds {
			stats.OldestAgeSeconds = age
		}
		if conn.userID != "" {
			stats.Authenticated++
		} else {
			stats.Anonymous++
		}
	}
	stats.AverageAgeSeconds = totalAge / float64(stats.Total)
	return stats
}

// Drain announces shutdown to every connection (best-effort), removes them
// all and stops the heartbeat. Registrations fail afterwards. Safe to call
// more than once.
func (r *Registry) Drain() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()

	ev := shutdownEvent(time.Now())
	for _, id := range r.ListIDs() {
		r.deliver(id, ev)
		r.Remove(id)
	}
	r.logger.Info("registry drained")
}

// deliver encodes the event and writes it to the connection's stream. A
// vanished target is a normal miss; a failed or stalled write evicts the
// connection immediately, never retried.
func (r *Registry) deliver(id string, ev *Event) bool {
	conn, ok := r.Get(id)
	if !ok {
		return false
	}

	data, err := ev.Encode()
	if err != nil {
		r.logger.Errorf("encode event %q: %v", ev.Name, err)
		return false
	}

	if err := r.write(conn, data); err != nil {
		r.logger.Warnf("write %q to connection %s failed, evicting: %v", ev.Name, id, err)
		r.Remove(id)
		return false
	}

	conn.touch(time.Now())
	return true
}

// write performs one bounded write attempt against the connection's stream.
func (r *Registry) write(conn *Connection, data []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- conn.stream.Write(data)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.cfg.WriteTimeout):
		return fmt.Errorf("write timed out after %s", r.cfg.WriteTimeout)
	}
}

func (r *Registry) heartbeatLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.heartbeat(time.Now())
		case <-r.done:
			return
		}
	}
}

// heartbeat runs one supervision pass over a snapshot of the connection set:
// stale connections are evicted without a send attempt, the rest receive a
// ping whose failure evicts them on the spot. Ticks run on a single goroutine
// and never overlap.
func (r *Registry) heartbeat(now time.Time) {
	for _, id := range r.ListIDs() {
		conn, ok := r.Get(id)
		if !ok {
			continue
		}

		if idle := now.Sub(conn.LastActivity()); idle > r.cfg.ClientTimeout {
			r.logger.Infof("connection %s idle for %s, evicting as stale", id, idle.Round(time.Second))
			r.Remove(id)
			continue
		}

		r.deliver(id, pingEvent(now))
	}
}
