package sse

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
)

var errStreamClosed = errors.New("sse: stream closed")

// eventStream adapts the gin response writer to the registry's Stream
// capability. Writes are serialized behind a mutex: the heartbeat, control
// API sends and the keep-alive loop all target the same response writer.
type eventStream struct {
	mu     sync.Mutex
	w      gin.ResponseWriter
	closed bool
	done   chan struct{}
}

func newEventStream(w gin.ResponseWriter) *eventStream {
	return &eventStream{
		w:    w,
		done: make(chan struct{}),
	}
}

// Write pushes bytes to the client and flushes immediately.
func (s *eventStream) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStreamClosed
	}
	if _, err := s.w.Write(p); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

// Close releases the handler goroutine. The HTTP connection itself is torn
// down by the server once the handler returns.
func (s *eventStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// Done is closed once the stream has been closed.
func (s *eventStream) Done() <-chan struct{} {
	return s.done
}
