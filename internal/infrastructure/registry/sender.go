package registry

import "go-sse-broadcast/internal/infrastructure/logger"

// Sender is the event delivery engine. It resolves targets through the
// registry at call time and writes through each connection's stream; a failed
// write evicts the target and is reflected only in the returned result, never
// surfaced as an error.
type Sender struct {
	registry *Registry
	logger   logger.Logger
}

// NewSender creates a delivery engine over the given registry.
func NewSender(r *Registry, log logger.Logger) *Sender {
	return &Sender{
		registry: r,
		logger:   log.WithField("component", "sender"),
	}
}

// SendTo delivers the event to a single connection. It returns false when the
// target is unknown or the write fails (in which case the connection has
// already been evicted).
func (s *Sender) SendTo(id string, ev *Event) bool {
	return s.registry.deliver(id, ev)
}

// SendToUser delivers the event to every connection associated with the user
// at the moment of the call and returns the number of successful sends.
// Anonymous connections are never targeted.
func (s *Sender) SendToUser(userID string, ev *Event) int {
	sent := 0
	for _, id := range s.registry.ListIDsForUser(userID) {
		if s.registry.deliver(id, ev) {
			sent++
		}
	}
	s.logger.Debugf("event %q sent to %d connection(s) of user %q", ev.Name, sent, userID)
	return sent
}

// Broadcast delivers the event to every connection registered at the moment
// of the call, except excludeID, and returns the number of successful sends.
// Failure on one connection never blocks delivery to the others.
func (s *Sender) Broadcast(ev *Event, excludeID string) int {
	sent := 0
	for _, id := range s.registry.ListIDs() {
		if id == excludeID {
			continue
		}
		if s.registry.deliver(id, ev) {
			sent++
		}
	}
	s.logger.Debugf("event %q broadcast to %d connection(s)", ev.Name, sent)
	return sent
}
