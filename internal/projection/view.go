package projection

import (
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/bus"
)

// View keeps the folded state of one category up to date from a bus.
type View struct {
	projection Projection

	mu       sync.RWMutex
	state    State
	onChange func(State)
}

func NewView(category string) *View {
	return &View{projection: New(category), state: Initial()}
}

// OnChange registers fn to be called with every new state. It must be set
// before the view is attached.
func (v *View) OnChange(fn func(State)) {
	v.onChange = fn
}

// Attach subscribes the view to b.
func (v *View) Attach(b *bus.Bus) (detach func()) {
	return b.Subscribe(v.Apply)
}

// Apply folds a into the view.
func (v *View) Apply(a bus.Action) {
	v.mu.Lock()
	prev := v.state
	next := v.projection.Fold(prev, a)
	v.state = next
	v.mu.Unlock()

	if v.onChange != nil && !same(prev, next) {
		v.onChange(next)
	}
}

func (v *View) Category() string {
	return v.projection.Category
}

// State returns the current state. Callers must not modify its items.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.state
}

// same reports whether Fold returned its input unchanged.
func same(a, b State) bool {
	if a.Ready != b.Ready || len(a.Items) != len(b.Items) {
		return false
	}
	return len(a.Items) == 0 || &a.Items[0] == &b.Items[0]
}
