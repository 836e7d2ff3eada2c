// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package translator turns local mutation intents into document store writes
// and the store's stored documents back into confirmed notifications.
package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/index"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Translator executes mutation intents against a [store.DocumentStore] and
// keeps the identity index in step with what was written.
//
// Every method returns the confirmed notification: the intent with its
// payload replaced by the stored form. Bulk methods that fail for some items
// return the confirmed subset together with a [*PartialError]; when every
// item fails the notification has no payload.
type Translator struct {
	store store.DocumentStore
	index *index.Index
}

func New(s store.DocumentStore, idx *index.Index) *Translator {
	return &Translator{store: s, index: idx}
}

// Insert writes the intent's document. The identity is recorded before the
// write so an echo of it arriving in the meantime is classified as known;
// the entry is dropped again if the write fails and this call created it.
func (t *Translator) Insert(ctx context.Context, intent models.Notification) (models.Notification, error) {
	doc, err := single(intent)
	if err != nil {
		return models.Notification{}, err
	}

	fresh := t.index.Remember(doc.ID, doc.Kind)
	if _, err = t.store.Put(ctx, doc); err != nil {
		if fresh {
			t.index.Forget(doc.ID)
		}
		return models.Notification{}, fmt.Errorf("error inserting document %s: %w", doc.ID, err)
	}

	return t.confirm(ctx, intent, doc)
}

// InsertBulk writes the intent's documents with one bulk call.
func (t *Translator) InsertBulk(ctx context.Context, intent models.Notification) (models.Notification, error) {
	docs, err := many(intent)
	if err != nil {
		return models.Notification{}, err
	}

	fresh := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if t.index.Remember(doc.ID, doc.Kind) {
			fresh[doc.ID] = true
		}
	}

	written, failures, err := t.bulkPut(ctx, docs)
	for _, id := range rejected(docs, written, err) {
		if fresh[id] {
			t.index.Forget(id)
		}
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("error inserting documents: %w", err)
	}

	return t.confirmBulk(ctx, intent, written, failures)
}

// Update writes the intent's document and records its identity.
func (t *Translator) Update(ctx context.Context, intent models.Notification) (models.Notification, error) {
	doc, err := single(intent)
	if err != nil {
		return models.Notification{}, err
	}

	if _, err = t.store.Put(ctx, doc); err != nil {
		return models.Notification{}, fmt.Errorf("error updating document %s: %w", doc.ID, err)
	}
	t.index.Remember(doc.ID, doc.Kind)

	return t.confirm(ctx, intent, doc)
}

// UpdateBulk writes the intent's documents with one bulk call.
func (t *Translator) UpdateBulk(ctx context.Context, intent models.Notification) (models.Notification, error) {
	docs, err := many(intent)
	if err != nil {
		return models.Notification{}, err
	}

	written, failures, err := t.bulkPut(ctx, docs)
	if err != nil {
		return models.Notification{}, fmt.Errorf("error updating documents: %w", err)
	}
	for _, doc := range written {
		t.index.Remember(doc.ID, doc.Kind)
	}

	return t.confirmBulk(ctx, intent, written, failures)
}

// Remove deletes the referenced revision. The identity is forgotten whatever
// the store answers.
func (t *Translator) Remove(ctx context.Context, intent models.Notification) (models.Notification, error) {
	if len(intent.Refs) != 1 || intent.Refs[0].ID == "" {
		return models.Notification{}, fmt.Errorf("%w: remove needs exactly one reference with an identity", ErrInvalidIntent)
	}
	ref := intent.Refs[0]
	defer t.index.Forget(ref.ID)

	if _, err := t.store.Remove(ctx, ref); err != nil {
		return models.Notification{}, fmt.Errorf("error removing document %s: %w", ref.ID, err)
	}

	return intent, nil
}

// RemoveBulk deletes every referenced revision. All identities are forgotten
// whatever the store answers.
func (t *Translator) RemoveBulk(ctx context.Context, intent models.Notification) (models.Notification, error) {
	if len(intent.Refs) == 0 {
		return models.Notification{}, fmt.Errorf("%w: empty bulk remove", ErrInvalidIntent)
	}
	for _, ref := range intent.Refs {
		if ref.ID == "" {
			return models.Notification{}, fmt.Errorf("%w: reference without identity", ErrInvalidIntent)
		}
	}
	defer func() {
		for _, ref := range intent.Refs {
			t.index.Forget(ref.ID)
		}
	}()

	results, err := t.store.BulkRemove(ctx, intent.Refs)
	if err != nil {
		return models.Notification{}, fmt.Errorf("error removing documents: %w", err)
	}

	ids := make([]string, len(intent.Refs))
	for i, ref := range intent.Refs {
		ids[i] = ref.ID
	}
	errs := itemErrors(ids, results)

	removed := make([]models.DocRef, 0, len(intent.Refs))
	var failures []Failure
	for i, ref := range intent.Refs {
		if errs[i] != nil {
			failures = append(failures, Failure{ID: ref.ID, Err: errs[i]})
			continue
		}
		removed = append(removed, ref)
	}

	confirmed := intent
	confirmed.Refs = removed
	return confirmed, partial(failures, len(intent.Refs))
}

// confirm replaces the intent payload with the stored form of doc.
func (t *Translator) confirm(ctx context.Context, intent models.Notification, doc models.Document) (models.Notification, error) {
	stored, err := t.store.Get(ctx, doc.ID)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "Translator.confirm").
			Str("doc_id", doc.ID).
			Msg("document written but not readable")
		return models.Notification{}, fmt.Errorf("%w %s: %w", ErrReadBack, doc.ID, err)
	}
	if !stored.IsModel() {
		return intent, nil
	}

	confirmed := intent
	confirmed.Documents = []models.Document{stored}
	return confirmed, nil
}

func (t *Translator) confirmBulk(ctx context.Context, intent models.Notification, written []models.Document, failures []Failure) (models.Notification, error) {
	confirmed := intent
	confirmed.Documents = []models.Document{}

	if len(written) > 0 {
		ids := make([]string, 0, len(written))
		seen := make(map[string]struct{}, len(written))
		for _, doc := range written {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			ids = append(ids, doc.ID)
		}

		stored, err := t.store.BulkGet(ctx, ids)
		if err != nil {
			return models.Notification{}, fmt.Errorf("%w: %w", ErrReadBack, err)
		}
		for _, doc := range stored {
			if doc.IsModel() {
				confirmed.Documents = append(confirmed.Documents, doc)
			}
		}
	}

	return confirmed, partial(failures, len(intent.Documents))
}

// bulkPut writes docs and splits them into written documents and failures.
func (t *Translator) bulkPut(ctx context.Context, docs []models.Document) ([]models.Document, []Failure, error) {
	results, err := t.store.BulkDocs(ctx, docs)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	errs := itemErrors(ids, results)

	written := make([]models.Document, 0, len(docs))
	var failures []Failure
	for i, doc := range docs {
		if errs[i] != nil {
			failures = append(failures, Failure{ID: doc.ID, Err: errs[i]})
			continue
		}
		written = append(written, doc)
	}

	return written, failures, nil
}

// single validates a one-document intent and returns its document with the
// intent's category applied.
func single(intent models.Notification) (models.Document, error) {
	if len(intent.Documents) != 1 {
		return models.Document{}, fmt.Errorf("%w: expected one document, got %d", ErrInvalidIntent, len(intent.Documents))
	}
	return withCategory(intent.Documents[0], intent.Meta.Category)
}

func many(intent models.Notification) ([]models.Document, error) {
	if len(intent.Documents) == 0 {
		return nil, fmt.Errorf("%w: empty bulk intent", ErrInvalidIntent)
	}

	docs := make([]models.Document, 0, len(intent.Documents))
	for _, d := range intent.Documents {
		doc, err := withCategory(d, intent.Meta.Category)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func withCategory(doc models.Document, category string) (models.Document, error) {
	if doc.ID == "" {
		return models.Document{}, fmt.Errorf("%w: document without identity", ErrInvalidIntent)
	}
	if doc.Kind == "" {
		doc.Kind = category
	}
	if doc.Kind != category {
		return models.Document{}, fmt.Errorf("%w: document %s of category %q in %q intent", ErrInvalidIntent, doc.ID, doc.Kind, category)
	}
	return doc, nil
}

// itemErrors pairs bulk results with the items of the request and returns
// the error of each item, nil for written ones. Stores answer one result per
// item in request order, so the n-th result for an identity belongs to its
// n-th occurrence. Items without a result count as written.
func itemErrors(ids []string, results []models.BulkResult) []error {
	pending := make(map[string][]models.BulkResult, len(results))
	for _, r := range results {
		pending[r.ID] = append(pending[r.ID], r)
	}

	errs := make([]error, len(ids))
	for i, id := range ids {
		queue := pending[id]
		if len(queue) == 0 {
			continue
		}
		pending[id] = queue[1:]
		if !queue[0].OK() {
			errs[i] = resultError(queue[0])
		}
	}
	return errs
}

// rejected lists the identities of docs of which no occurrence was written.
func rejected(docs, written []models.Document, err error) []string {
	ok := make(map[string]struct{}, len(written))
	if err == nil {
		for _, doc := range written {
			ok[doc.ID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if _, stored := ok[doc.ID]; !stored {
			ids = append(ids, doc.ID)
		}
	}
	return ids
}

func resultError(r models.BulkResult) error {
	if r.Err != nil {
		return r.Err
	}
	return errors.New(r.Error)
}

func partial(failures []Failure, total int) error {
	if len(failures) == 0 {
		return nil
	}
	return &PartialError{Failures: failures, Total: total}
}
