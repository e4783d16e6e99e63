package registry

import "errors"

var (
	// ErrCapacityExceeded is returned by Register when the registry already
	// holds its maximum number of connections.
	ErrCapacityExceeded = errors.New("registry: connection capacity exceeded")

	// ErrRegistryClosed is returned by Register after the registry has been
	// drained.
	ErrRegistryClosed = errors.New("registry: registry is closed")
)
