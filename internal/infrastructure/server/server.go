package server

import "context"

// Server is a start/stoppable network listener.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
