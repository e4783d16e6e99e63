package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Well-known event names emitted by the registry itself.
const (
	EventConnected      = "connected"
	EventPing           = "ping"
	EventServerShutdown = "server-shutdown"
)

// KeepAliveComment is the transport-level idle pulse. SSE comment lines are
// ignored by clients, so transports may interleave it with encoded events.
var KeepAliveComment = []byte(": keep-alive\n\n")

// Event is one outbound message. Events are transient: constructed and
// consumed within a single delivery call, never queued.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
	ID      string `json:"id,omitempty"`
	RetryMs int    `json:"retryMs,omitempty"`
}

// Encode produces the text/event-stream wire form of the event:
//
//	id: <id>\n          (only when ID is set)
//	event: <name>\n
//	data: <json payload>\n
//	retry: <ms>\n       (only when RetryMs is set)
//	\n
func (e *Event) Encode() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for event %q: %w", e.Name, err)
	}

	var buf bytes.Buffer
	if e.ID != "" {
		buf.WriteString("id: ")
		buf.WriteString(e.ID)
		buf.WriteByte('\n')
	}
	buf.WriteString("event: ")
	buf.WriteString(e.Name)
	buf.WriteByte('\n')
	buf.WriteString("data: ")
	buf.Write(payload)
	buf.WriteByte('\n')
	if e.RetryMs > 0 {
		buf.WriteString("retry: ")
		buf.WriteString(strconv.Itoa(e.RetryMs))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func connectedEvent(connID string, now time.Time) *Event {
	return &Event{
		Name: EventConnected,
		Payload: map[string]any{
			"connectionId": connID,
			"timestamp":    now.UTC().Format(time.RFC3339),
		},
	}
}

func pingEvent(now time.Time) *Event {
	return &Event{
		Name:    EventPing,
		Payload: map[string]any{"timestamp": now.UnixMilli()},
	}
}

func shutdownEvent(now time.Time) *Event {
	return &Event{
		Name:    EventServerShutdown,
		Payload: map[string]any{"timestamp": now.UTC().Format(time.RFC3339)},
	}
}
