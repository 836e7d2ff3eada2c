package bus

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-doc-sync/models"
)

// Recorder keeps every action delivered by a bus. The CLI uses it to await
// the outcome of a mutation; tests use it to assert on emitted notifications.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
	changed chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{})}
}

// Attach subscribes the recorder to b.
func (r *Recorder) Attach(b *Bus) (detach func()) {
	return b.Subscribe(r.Record)
}

func (r *Recorder) Record(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = append(r.actions, a)
	close(r.changed)
	r.changed = make(chan struct{})
}

// Actions returns a copy of everything recorded so far.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Action(nil), r.actions...)
}

// Notifications returns the recorded notifications, skipping other actions.
func (r *Recorder) Notifications() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Notification, 0, len(r.actions))
	for _, a := range r.actions {
		if n, ok := a.(models.Notification); ok {
			out = append(out, n)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = nil
}

// WaitFor blocks until match accepts a recorded action and returns it, or
// until ctx is done.
func (r *Recorder) WaitFor(ctx context.Context, match func(Action) bool) (Action, error) {
	seen := 0
	for {
		r.mu.Lock()
		if seen > len(r.actions) {
			seen = 0
		}
		pending := r.actions[seen:]
		changed := r.changed
		seen = len(r.actions)
		r.mu.Unlock()

		for _, a := range pending {
			if match(a) {
				return a, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}
