// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package index tracks which document identities the reconciler has seen and
// the category each one belongs to.
//
// Store tombstones arrive without a category, so the index is the only way to
// route a remote deletion to the right view. It also decides whether a
// document is a first sighting (insert) or already known (update).
package index

import (
	"sync"

	"github.com/MKhiriev/go-doc-sync/models"
)

// Index maps document identity to category.
//
// An identity present in the index was observed as a synchronized document
// and has not been removed since. Index is safe for concurrent use; every
// method is a single critical section.
type Index struct {
	mu      sync.Mutex
	entries map[string]string
}

func New() *Index {
	return &Index{entries: make(map[string]string)}
}

// Classify groups docs by category in first-seen order. Unknown identities
// become inserts and are recorded right away, so a later document with the
// same identity in docs is classified as an update.
//
// Documents outside categories are skipped.
func (i *Index) Classify(docs []models.Document, categories models.CategorySet) []*Batch {
	router := NewRouter()

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, doc := range docs {
		if !categories.Syncs(doc) {
			continue
		}

		batch := router.For(doc.Kind)
		batch.Seen = append(batch.Seen, doc)
		if _, known := i.entries[doc.ID]; known {
			batch.Update = append(batch.Update, doc)
			continue
		}

		i.entries[doc.ID] = doc.Kind
		batch.Insert = append(batch.Insert, doc)
	}

	return router.Batches()
}

// Remember records id under category and reports whether the identity was
// unknown before the call.
func (i *Index) Remember(id, category string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, known := i.entries[id]
	i.entries[id] = category
	return !known
}

// Forget removes id. Forgetting an unknown identity is a no-op.
func (i *Index) Forget(id string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.entries, id)
}

// Release forgets id and returns the category it was recorded under.
func (i *Index) Release(id string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	category, ok := i.entries[id]
	delete(i.entries, id)
	return category, ok
}

// Lookup returns the category recorded for id.
func (i *Index) Lookup(id string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	category, ok := i.entries[id]
	return category, ok
}

func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return len(i.entries)
}
