package registry

import (
	"strings"
	"testing"

	"go-sse-broadcast/internal/infrastructure/logger"
)

func newTestSender(t *testing.T) (*Registry, *Sender) {
	t.Helper()
	reg := newTestRegistry(t, quietConfig())
	return reg, NewSender(reg, logger.NewNop())
}

func TestSendToUnknownConnection(t *testing.T) {
	_, sender := newTestSender(t)

	if sender.SendTo("no-such-id", &Event{Name: "update"}) {
		t.Error("sending to an unknown id should return false")
	}
}

func TestSendToDeliversAndTouches(t *testing.T) {
	reg, sender := newTestSender(t)

	stream := &fakeStream{}
	id, _ := reg.Register(stream, "")

	conn, _ := reg.Get(id)
	before := conn.LastActivity()

	if !sender.SendTo(id, &Event{Name: "update", Payload: map[string]any{"a": 1}}) {
		t.Fatal("send should succeed")
	}
	if !strings.Contains(stream.contents(), "event: update\n") {
		t.Errorf("stream missing event, got %q", stream.contents())
	}
	if !conn.LastActivity().After(before) && !conn.LastActivity().Equal(before) {
		t.Error("lastActivity should not move backward on send")
	}
}

func TestSendToFailureEvicts(t *testing.T) {
	reg, sender := newTestSender(t)

	stream := &fakeStream{failing: true}
	id, _ := reg.Register(stream, "")

	if sender.SendTo(id, &Event{Name: "update"}) {
		t.Fatal("send over a broken stream should fail")
	}
	if _, ok := reg.Get(id); ok {
		t.Error("failed send should evict the connection")
	}
	if !stream.isClosed() {
		t.Error("evicted connection's stream should be closed")
	}
}

func TestSendToUserTargetsExactMatches(t *testing.T) {
	reg, sender := newTestSender(t)

	u1a := &fakeStream{}
	u1b := &fakeStream{}
	anon := &fakeStream{}
	other := &fakeStream{}
	reg.Register(u1a, "u1")
	reg.Register(u1b, "u1")
	reg.Register(anon, "")
	reg.Register(other, "u2")

	if got := sender.SendToUser("u1", &Event{Name: "notice"}); got != 2 {
		t.Fatalf("sent to %d connections, want 2", got)
	}
	if anon.writeCount() != 0 {
		t.Error("anonymous connection must never be targeted by user sends")
	}
	if other.writeCount() != 0 {
		t.Error("other user's connection must not be targeted")
	}

	if got := sender.SendToUser("", &Event{Name: "notice"}); got != 0 {
		t.Errorf("empty userID sent to %d connections, want 0", got)
	}
}

func TestBroadcastExcludesAndCounts(t *testing.T) {
	reg, sender := newTestSender(t)

	streams := make(map[string]*fakeStream)
	for i := 0; i < 3; i++ {
		s := &fakeStream{}
		id, _ := reg.Register(s, "")
		streams[id] = s
	}

	var excludeID string
	for id := range streams {
		excludeID = id
		break
	}

	if got := sender.Broadcast(&Event{Name: "update"}, excludeID); got != 2 {
		t.Fatalf("broadcast count = %d, want 2", got)
	}
	if streams[excludeID].writeCount() != 0 {
		t.Error("excluded connection received the broadcast")
	}
	for id, s := range streams {
		if id == excludeID {
			continue
		}
		if !strings.Contains(s.contents(), "event: update\n") {
			t.Errorf("connection %s missing broadcast event", id)
		}
	}
}

func TestBroadcastPartialFailure(t *testing.T) {
	reg, sender := newTestSender(t)

	good1 := &fakeStream{}
	good2 := &fakeStream{}
	bad := &fakeStream{failing: true}
	reg.Register(good1, "")
	reg.Register(good2, "")
	badID, _ := reg.Register(bad, "")

	if got := sender.Broadcast(&Event{Name: "update"}, ""); got != 2 {
		t.Fatalf("broadcast count = %d, want 2", got)
	}
	if _, ok := reg.Get(badID); ok {
		t.Error("failing connection should have been evicted during broadcast")
	}
	if good1.writeCount() != 1 || good2.writeCount() != 1 {
		t.Error("healthy connections should still receive the broadcast")
	}
}
