// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package reconcile connects a notification bus to a replicated document
// store.
//
// A [Reconciler] is installed as bus middleware. When the bus builds its
// chain the reconciler subscribes to replicated changes and loads the store
// snapshot in the background. Local mutation intents of synchronized
// categories are then turned into store writes and replaced on the bus by
// their confirmed form; replicated changes are reduced into bulk
// notifications marked as remote, which are never written back.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/internal/changes"
	"github.com/MKhiriev/go-doc-sync/internal/index"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/translator"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/internal/workers"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Reconciler owns the identity index shared by the translator and the change
// reducer. One Reconciler serves one bus.
type Reconciler struct {
	store      store.DocumentStore
	categories models.CategorySet
	changes    store.ChangeSource
	name       string
	done       func()
	peerID     string
	log        *logger.Logger

	index      *index.Index
	translator *translator.Translator
	reducer    *changes.Reducer
	sequencer  *workers.Sequencer

	state       atomic.Int32
	activate    sync.Once
	loading     sync.WaitGroup
	initialized chan struct{}

	mu          sync.Mutex
	unsubscribe func()
}

func New(s store.DocumentStore, categories models.CategorySet, opts ...Option) *Reconciler {
	idx := index.New()
	r := &Reconciler{
		store:       s,
		categories:  categories,
		log:         logger.Nop(),
		index:       idx,
		translator:  translator.New(s, idx),
		reducer:     changes.NewReducer(idx, categories),
		sequencer:   workers.NewSequencer(),
		initialized: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Sync builds a reconciler and returns its middleware.
func Sync(s store.DocumentStore, categories models.CategorySet, opts ...Option) bus.Middleware {
	return New(s, categories, opts...).Middleware()
}

// Middleware returns the bus middleware. The reconciler activates the first
// time the bus builds a chain with it.
func (r *Reconciler) Middleware() bus.Middleware {
	return func(api bus.API) func(next bus.Dispatch) bus.Dispatch {
		return func(next bus.Dispatch) bus.Dispatch {
			r.activate.Do(func() { r.start(api) })

			return func(a bus.Action) {
				r.intercept(api, next, a)
			}
		}
	}
}

// State returns the current lifecycle stage.
func (r *Reconciler) State() State {
	return State(r.state.Load())
}

// Initialized is closed once the initial load attempt finished.
func (r *Reconciler) Initialized() <-chan struct{} {
	return r.initialized
}

// Index exposes the identity index for inspection.
func (r *Reconciler) Index() *index.Index {
	return r.index
}

// Wait blocks until the initial load and every accepted intent settled.
func (r *Reconciler) Wait() {
	r.loading.Wait()
	r.sequencer.Wait()
}

// Close stops the change subscription. Operations in flight run to
// completion; use Wait to await them.
func (r *Reconciler) Close() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// operationContext carries the logger and peer ID into store calls.
func (r *Reconciler) operationContext() context.Context {
	ctx := r.log.WithContext(context.Background())
	return utils.WithPeerID(ctx, r.peerID)
}

func (r *Reconciler) start(api bus.API) {
	if r.changes != nil {
		unsubscribe := r.changes.Subscribe(func(cs models.Changeset) {
			for _, n := range r.reducer.Reduce(cs) {
				api.Dispatch(n)
			}
		})

		r.mu.Lock()
		r.unsubscribe = unsubscribe
		r.mu.Unlock()
	}

	r.state.Store(int32(Loading))
	r.loading.Add(1)
	go func() {
		defer r.loading.Done()
		r.load(api)
	}()
}

// load reads the snapshot, primes the index and announces every category.
// Categories without documents are announced with an empty load.
func (r *Reconciler) load(api bus.API) {
	defer func() {
		close(r.initialized)
		if r.done != nil {
			r.done()
		}
	}()

	docs, err := r.store.AllDocs(r.operationContext())
	if err != nil {
		r.log.Err(err).Str("func", "Reconciler.load").Msg("failed to load document snapshot")
		api.Dispatch(models.Failed(err, models.OperationFetchDocs))
		return
	}

	batches := r.index.Classify(docs, r.categories)
	announced := make(map[string]struct{}, len(batches))
	for _, b := range batches {
		api.Dispatch(models.Loaded(b.Category, b.Seen))
		api.Dispatch(models.CategoryReady(b.Category))
		announced[b.Category] = struct{}{}
	}
	for _, category := range r.categories.Names() {
		if _, ok := announced[category]; ok {
			continue
		}
		api.Dispatch(models.Loaded(category, []models.Document{}))
		api.Dispatch(models.CategoryReady(category))
	}

	r.state.Store(int32(Ready))
	api.Dispatch(models.Ready(r.name))

	r.log.Info().
		Str("func", "Reconciler.load").
		Int("documents", r.index.Len()).
		Int("categories", len(r.categories)).
		Msg("initial load finished")
}

type operation func(ctx context.Context, intent models.Notification) (models.Notification, error)

// route returns the translator operation for n, or false when n is not a
// mutation intent.
func (r *Reconciler) route(n models.Notification) (operation, models.OperationKind, bool) {
	switch n.Type {
	case models.InsertModel:
		return r.translator.Insert, models.OperationInsert, true
	case models.InsertBulkModels:
		return r.translator.InsertBulk, models.OperationBulkInsert, true
	case models.UpdateModel:
		return r.translator.Update, models.OperationUpdate, true
	case models.UpdateBulkModels:
		return r.translator.UpdateBulk, models.OperationBulkUpdate, true
	case models.RemoveModel:
		return r.translator.Remove, models.OperationRemove, true
	case models.RemoveBulkModels:
		return r.translator.RemoveBulk, models.OperationBulkRemove, true
	default:
		return nil, "", false
	}
}

func (r *Reconciler) intercept(api bus.API, next bus.Dispatch, a bus.Action) {
	n, ok := a.(models.Notification)
	if !ok || n.Meta.FromRemote || n.Meta.Category == "" || !r.categories.Contains(n.Meta.Category) {
		next(a)
		return
	}

	op, kind, ok := r.route(n)
	if !ok {
		next(a)
		return
	}

	r.sequencer.Go(n.Identities(), func() {
		confirmed, err := op(r.operationContext(), n)
		if err == nil {
			next(confirmed)
			return
		}

		var partialErr *translator.PartialError
		if errors.As(err, &partialErr) && !partialErr.All() {
			next(confirmed)
		}

		r.log.Err(err).
			Str("func", "Reconciler.intercept").
			Str("type", string(n.Type)).
			Str("category", n.Meta.Category).
			Strs("doc_ids", n.Identities()).
			Msg("mutation failed")
		api.Dispatch(models.Failed(err, kind, n.Identities()...))
	})
}
