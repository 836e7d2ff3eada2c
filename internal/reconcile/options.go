package reconcile

import (
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
)

// Option configures a [Reconciler].
type Option func(*Reconciler)

// WithChanges subscribes the reconciler to replicated changes.
func WithChanges(changes store.ChangeSource) Option {
	return func(r *Reconciler) {
		r.changes = changes
	}
}

// WithName sets the session name carried by the Ready notification.
func WithName(name string) Option {
	return func(r *Reconciler) {
		r.name = name
	}
}

// WithDone registers fn to run once the initial load attempt finished,
// whether it succeeded or not.
func WithDone(fn func()) Option {
	return func(r *Reconciler) {
		r.done = fn
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithPeerID tags every store write with the local peer identifier, so that
// the store reports those writes back as push changes.
func WithPeerID(peerID string) Option {
	return func(r *Reconciler) {
		r.peerID = peerID
	}
}
