// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/MKhiriev/go-doc-sync/internal/reconcile"
	"github.com/MKhiriev/go-doc-sync/internal/replication"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/internal/workers"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Session is one running reconciliation session.
type Session struct {
	peerID     string
	categories models.CategorySet

	store      store.DocumentStore
	closeStore func() error
	changes    *replication.Wrapper

	reconciler *reconcile.Reconciler
	bus        *bus.Bus
	views      []*projection.View

	stopWorkers context.CancelFunc
	workersDone chan struct{}
	workersErr  error

	mu      sync.Mutex
	loadErr error

	closeOnce sync.Once
	closeErr  error

	logger *logger.Logger
}

// Open builds a session from cfg.
//
// With an adapter address the session talks to a store server and opens its
// change feed before the initial load, so no change after the snapshot is
// missed. Otherwise it opens the configured local store. Open returns once
// the bus is running; use Ready to await the initial load.
func Open(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*Session, error) {
	categories := models.NewCategorySet(cfg.App.Categories...)
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	peerID := cfg.App.PeerID
	if peerID == "" {
		peerID = utils.NewUUIDGenerator().Generate()
	}

	s := &Session{
		peerID:      peerID,
		categories:  categories,
		changes:     replication.NewWrapper(),
		closeStore:  func() error { return nil },
		workersDone: make(chan struct{}),
		logger:      log,
	}

	var background []workers.Worker
	if cfg.Remote() {
		remote, err := adapter.NewHTTPStore(cfg.Adapter, peerID, log)
		if err != nil {
			return nil, fmt.Errorf("error creating remote store: %w", err)
		}
		feed, err := adapter.NewChangesFeed(cfg.Adapter, cfg.Workers, peerID, log)
		if err != nil {
			return nil, fmt.Errorf("error creating change feed: %w", err)
		}

		s.store = remote
		s.changes.Add(feed)
		background = append(background, feed)

		s.startWorkers(background)
		select {
		case <-feed.Ready():
		case <-s.workersDone:
			return nil, fmt.Errorf("error opening change feed: %w", s.workersErr)
		case <-ctx.Done():
			s.stopWorkers()
			<-s.workersDone
			return nil, ctx.Err()
		}
	} else {
		local, err := store.NewStore(ctx, cfg.Storage.DB, log)
		if err != nil {
			return nil, fmt.Errorf("error creating local store: %w", err)
		}

		s.store = local
		s.closeStore = local.Close
		s.changes.Add(store.NewPeerChanges(local.Feed(), peerID))
		s.startWorkers(background)
	}

	for _, category := range categories.Names() {
		s.views = append(s.views, projection.NewView(category))
	}

	s.reconciler = reconcile.New(s.store, categories,
		reconcile.WithChanges(s.changes),
		reconcile.WithName(cfg.App.SessionName),
		reconcile.WithPeerID(peerID),
		reconcile.WithLogger(log),
		reconcile.WithDone(func() {
			log.Debug().Str("func", "client.Open").Msg("initial load attempt finished")
		}),
	)
	s.bus = bus.New(s.reconciler.Middleware(), bus.Listener(s.observe))

	log.Info().
		Str("func", "client.Open").
		Str("peer_id", peerID).
		Bool("remote", cfg.Remote()).
		Strs("categories", categories.Names()).
		Msg("session opened")

	return s, nil
}

func (s *Session) startWorkers(background []workers.Worker) {
	var ctx context.Context
	ctx, s.stopWorkers = context.WithCancel(context.Background())

	go func() {
		defer close(s.workersDone)
		s.workersErr = workers.NewWorkers(background...).Run(ctx)
	}()
}

// observe folds every action into the views before subscribers see it, so
// the initial load is captured even though it starts while the bus is built.
func (s *Session) observe(a bus.Action) {
	if n, ok := a.(models.Notification); ok && n.Type == models.ModelError && n.Meta.Operation == models.OperationFetchDocs {
		s.mu.Lock()
		s.loadErr = n.Err
		s.mu.Unlock()
	}

	for _, v := range s.views {
		v.Apply(a)
	}
}

// Ready blocks until the initial load finished. It returns [ErrLoadFailed]
// when the snapshot could not be read.
func (s *Session) Ready(ctx context.Context) error {
	select {
	case <-s.reconciler.Initialized():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, s.loadErr)
	}
	return nil
}

// Done is closed when the background workers stop. For a local session that
// happens right away; for a remote one when the change feed fails for good.
func (s *Session) Done() <-chan struct{} {
	return s.workersDone
}

// Err returns why the background workers stopped. It is valid after Done is
// closed.
func (s *Session) Err() error {
	select {
	case <-s.workersDone:
		return s.workersErr
	default:
		return nil
	}
}

func (s *Session) PeerID() string {
	return s.peerID
}

// Bus exposes the notification bus for dispatching and subscribing.
func (s *Session) Bus() *bus.Bus {
	return s.bus
}

func (s *Session) Views() []*projection.View {
	return s.views
}

// View returns the view of category.
func (s *Session) View(category string) (*projection.View, bool) {
	for _, v := range s.views {
		if v.Category() == category {
			return v, true
		}
	}
	return nil, false
}

// Close stops the change subscription and the background workers, waits for
// operations in flight and closes the store.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.reconciler.Close()
		s.changes.Cancel()
		s.stopWorkers()
		<-s.workersDone
		s.reconciler.Wait()

		var errs []error
		if s.workersErr != nil {
			errs = append(errs, s.workersErr)
		}
		if err := s.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("error closing store: %w", err))
		}
		s.closeErr = errors.Join(errs...)

		s.logger.Info().Str("func", "Session.Close").Msg("session closed")
	})
	return s.closeErr
}
