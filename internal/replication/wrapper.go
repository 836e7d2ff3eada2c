// Package replication fans in change sources that appear during a session.
//
// A client subscribes its reducers once to a [Wrapper] and attaches change
// sources to it as they become available: the local store's feed right away,
// a remote change feed once it is configured. Handlers registered before a
// source is added still receive its changesets.
package replication

import (
	"sort"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

var _ store.ChangeSource = (*Wrapper)(nil)

// attachment is one source added to a Wrapper together with the
// subscriptions the Wrapper holds on it, keyed by handler id.
type attachment struct {
	source store.ChangeSource
	cancel map[uint64]func()
}

// Wrapper is a [store.ChangeSource] over any number of sources.
type Wrapper struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]func(models.Changeset)
	sources  map[uint64]*attachment
}

func NewWrapper() *Wrapper {
	return &Wrapper{
		handlers: make(map[uint64]func(models.Changeset)),
		sources:  make(map[uint64]*attachment),
	}
}

// Add attaches src and subscribes every registered handler to it. The
// returned function detaches src again.
func (w *Wrapper) Add(src store.ChangeSource) (remove func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	a := &attachment{source: src, cancel: make(map[uint64]func(), len(w.handlers))}
	for _, hid := range sortedKeys(w.handlers) {
		a.cancel[hid] = src.Subscribe(w.handlers[hid])
	}
	w.sources[id] = a

	return func() {
		w.mu.Lock()
		a, ok := w.sources[id]
		delete(w.sources, id)
		w.mu.Unlock()

		if ok {
			a.detach()
		}
	}
}

// Subscribe implements [store.ChangeSource]. handler receives the changesets
// of every source, including the ones added later.
func (w *Wrapper) Subscribe(handler func(models.Changeset)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	hid := w.nextID
	w.nextID++
	w.handlers[hid] = handler
	for _, sid := range sortedKeys(w.sources) {
		a := w.sources[sid]
		a.cancel[hid] = a.source.Subscribe(handler)
	}

	var once sync.Once
	return func() {
		once.Do(func() { w.unsubscribe(hid) })
	}
}

// Cancel detaches every source. Registered handlers stay subscribed to the
// Wrapper and are attached to sources added afterwards.
func (w *Wrapper) Cancel() {
	w.mu.Lock()
	sources := w.sources
	w.sources = make(map[uint64]*attachment)
	w.mu.Unlock()

	for _, sid := range sortedKeys(sources) {
		sources[sid].detach()
	}
}

// Sources returns the number of attached sources.
func (w *Wrapper) Sources() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.sources)
}

func (w *Wrapper) unsubscribe(hid uint64) {
	w.mu.Lock()
	delete(w.handlers, hid)
	cancels := make([]func(), 0, len(w.sources))
	for _, a := range w.sources {
		if cancel, ok := a.cancel[hid]; ok {
			cancels = append(cancels, cancel)
			delete(a.cancel, hid)
		}
	}
	w.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (a *attachment) detach() {
	for _, hid := range sortedKeys(a.cancel) {
		a.cancel[hid]()
	}
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
