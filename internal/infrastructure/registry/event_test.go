package registry

import (
	"strings"
	"testing"
)

func TestEncodeAllFields(t *testing.T) {
	ev := &Event{
		ID:      "42",
		Name:    "update",
		Payload: map[string]any{"a": 1},
		RetryMs: 3000,
	}

	got, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := "id: 42\nevent: update\ndata: {\"a\":1}\nretry: 3000\n\n"
	if string(got) != want {
		t.Errorf("encoded = %q, want %q", got, want)
	}
}

func TestEncodeOmitsAbsentFields(t *testing.T) {
	ev := &Event{
		Name:    "update",
		Payload: map[string]any{"a": 1},
	}

	got, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := "event: update\ndata: {\"a\":1}\n\n"
	if string(got) != want {
		t.Errorf("encoded = %q, want %q", got, want)
	}
	if strings.Contains(string(got), "id:") || strings.Contains(string(got), "retry:") {
		t.Error("absent fields must be omitted, not left empty")
	}
}

func TestEncodeNilPayload(t *testing.T) {
	ev := &Event{Name: "tick"}

	got, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if want := "event: tick\ndata: null\n\n"; string(got) != want {
		t.Errorf("encoded = %q, want %q", got, want)
	}
}

func TestEncodeRejectsUnmarshalablePayload(t *testing.T) {
	ev := &Event{Name: "bad", Payload: func() {}}

	if _, err := ev.Encode(); err == nil {
		t.Error("expected error for unmarshalable payload")
	}
}

func TestKeepAliveCommentShape(t *testing.T) {
	if got := string(KeepAliveComment); got != ": keep-alive\n\n" {
		t.Errorf("keep-alive comment = %q", got)
	}
}
