package store

import (
	"context"
	"sort"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// MemoryStore is an in-process [Store]. Every write call publishes one
// change batch after the store's lock is released.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document

	feed   *Feed
	logger *logger.Logger
}

func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string]models.Document),
		feed:   NewFeed(),
		logger: log,
	}
}

func (m *MemoryStore) Feed() *Feed {
	return m.feed
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) AllDocs(ctx context.Context) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]models.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if doc.Deleted {
			continue
		}
		docs = append(docs, doc.Clone())
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return docs, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok || doc.Deleted {
		return models.Document{}, ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *MemoryStore) BulkGet(ctx context.Context, ids []string) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		doc, ok := m.docs[id]
		if !ok || doc.Deleted {
			continue
		}
		docs = append(docs, doc.Clone())
	}
	return docs, nil
}

func (m *MemoryStore) Put(ctx context.Context, doc models.Document) (string, error) {
	m.mu.Lock()
	stored, err := m.put(doc)
	m.mu.Unlock()
	if err != nil {
		return "", err
	}

	m.feed.publishWrite(ctx, []models.Document{stored})
	return stored.Rev, nil
}

func (m *MemoryStore) BulkDocs(ctx context.Context, docs []models.Document) ([]models.BulkResult, error) {
	results := make([]models.BulkResult, 0, len(docs))
	written := make([]models.Document, 0, len(docs))

	m.mu.Lock()
	for _, doc := range docs {
		stored, err := m.put(doc)
		if err != nil {
			results = append(results, errResult(doc.ID, err))
			continue
		}
		results = append(results, okResult(stored))
		written = append(written, stored)
	}
	m.mu.Unlock()

	m.logger.Debug().
		Str("func", "MemoryStore.BulkDocs").
		Int("requested", len(docs)).
		Int("written", len(written)).
		Msg("bulk write applied")

	m.feed.publishWrite(ctx, written)
	return results, nil
}

func (m *MemoryStore) Remove(ctx context.Context, ref models.DocRef) (string, error) {
	m.mu.Lock()
	tombstone, err := m.remove(ref)
	m.mu.Unlock()
	if err != nil {
		return "", err
	}

	m.feed.publishWrite(ctx, []models.Document{tombstone})
	return tombstone.Rev, nil
}

func (m *MemoryStore) BulkRemove(ctx context.Context, refs []models.DocRef) ([]models.BulkResult, error) {
	results := make([]models.BulkResult, 0, len(refs))
	removed := make([]models.Document, 0, len(refs))

	m.mu.Lock()
	for _, ref := range refs {
		tombstone, err := m.remove(ref)
		if err != nil {
			results = append(results, errResult(ref.ID, err))
			continue
		}
		results = append(results, okResult(tombstone))
		removed = append(removed, tombstone)
	}
	m.mu.Unlock()

	m.feed.publishWrite(ctx, removed)
	return results, nil
}

// put and remove must be called with m.mu held. They return a copy safe to
// hand out.
func (m *MemoryStore) put(doc models.Document) (models.Document, error) {
	current, exists := m.docs[doc.ID]
	next, err := applyPut(current, exists, doc)
	if err != nil {
		return models.Document{}, err
	}

	m.docs[next.ID] = next
	return next.Clone(), nil
}

func (m *MemoryStore) remove(ref models.DocRef) (models.Document, error) {
	current, exists := m.docs[ref.ID]
	tombstone, err := applyRemove(current, exists, ref)
	if err != nil {
		return models.Document{}, err
	}

	m.docs[ref.ID] = tombstone
	return tombstone, nil
}
