// Package workers runs the long-lived background loops of the client and
// orders asynchronous operations that touch the same document identity.
//
// It defines the Worker interface, a Workers aggregate that runs several
// workers under one context, and a Sequencer that serializes tasks per key.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run blocks until ctx is cancelled or the worker fails. A worker that
// stops because ctx was cancelled should return nil.
//
// Example implementation:
//
//	type MyWorker struct{}
//
//	func (w *MyWorker) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a function to [Worker].
type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
