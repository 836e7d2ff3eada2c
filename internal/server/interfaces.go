package server

import "context"

// Server defines the lifecycle contract of the store server.
type Server interface {
	// RunServer serves until SIGINT, SIGTERM or SIGQUIT and then shuts down
	// gracefully.
	RunServer()

	// Run serves until ctx is done or the listener fails.
	Run(ctx context.Context) error

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}
