package registry

// Stream is the write/close capability a transport hands over when it
// registers a connection. The registry only ever pushes encoded bytes through
// it and closes it on removal; it never depends on the concrete transport.
type Stream interface {
	Write(p []byte) error
	Close() error
}
