package store

import (
	"context"
	"sort"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Feed fans out the change batches of one store to its subscribers.
//
// Publish delivers synchronously, in subscription order, outside of the
// feed's lock; subscribers may subscribe or cancel from a handler.
type Feed struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(models.ChangeBatch)
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]func(models.ChangeBatch))}
}

// Subscribe registers handler and returns its cancel function.
// Cancel is idempotent.
func (f *Feed) Subscribe(handler func(models.ChangeBatch)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers batch to every current subscriber. Empty batches are dropped.
func (f *Feed) Publish(batch models.ChangeBatch) {
	if len(batch.Docs) == 0 {
		return
	}

	f.mu.Lock()
	ids := make([]uint64, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(models.ChangeBatch), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, f.subs[id])
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(batch)
	}
}

// publishWrite publishes docs with the peer of ctx as origin.
func (f *Feed) publishWrite(ctx context.Context, docs []models.Document) {
	origin, _ := utils.GetPeerIDFromContext(ctx)
	f.Publish(models.ChangeBatch{Origin: origin, Docs: docs})
}

// PeerChanges is the in-process [ChangeSource] of one peer: its own writes
// arrive as push changesets, everything else as pull.
type PeerChanges struct {
	feed   *Feed
	peerID string
}

func NewPeerChanges(feed *Feed, peerID string) *PeerChanges {
	return &PeerChanges{feed: feed, peerID: peerID}
}

// Subscribe implements [ChangeSource].
func (p *PeerChanges) Subscribe(handler func(models.Changeset)) func() {
	return p.feed.Subscribe(func(batch models.ChangeBatch) {
		handler(batch.For(p.peerID))
	})
}
