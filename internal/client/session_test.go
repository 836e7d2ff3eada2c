// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	myHTTP "github.com/MKhiriev/go-doc-sync/internal/handler/http"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func newLocalConfig(peerID string) *config.ClientConfig {
	return &config.ClientConfig{
		App: config.App{
			SessionName: "test",
			Categories:  []string{"note", "task"},
			PeerID:      peerID,
		},
		Storage: config.Storage{DB: config.DB{Driver: config.DriverMemory}},
		Workers: config.Workers{
			ReconnectBackoff:    10 * time.Millisecond,
			MaxReconnectBackoff: 50 * time.Millisecond,
		},
	}
}

func newRemoteConfig(serverURL, peerID string) *config.ClientConfig {
	cfg := newLocalConfig(peerID)
	cfg.Adapter = config.Adapter{HTTPAddress: serverURL, RequestTimeout: 5 * time.Second}
	return cfg
}

func newStoreServer(t *testing.T, cfg *config.ServerConfig) (*httptest.Server, store.Store) {
	t.Helper()

	if cfg == nil {
		cfg = &config.ServerConfig{
			Auth:   config.Auth{TokenIssuer: "go-doc-sync", TokenDuration: time.Hour},
			Server: config.Server{RequestTimeout: 5 * time.Second, ChangesBuffer: 16},
		}
	}

	s := store.NewMemoryStore(logger.Nop())
	h := myHTTP.NewHandler(s, cfg, models.NewAppBuildInfo("test", "", ""), logger.Nop())
	srv := httptest.NewServer(h.Init())
	t.Cleanup(func() {
		h.Shutdown()
		srv.Close()
	})
	return srv, s
}

func openSession(t *testing.T, cfg *config.ClientConfig) *Session {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Open(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ready(ctx))
	return s
}

func note(id, title string) models.Document {
	return models.Document{ID: id, Kind: "note", Fields: map[string]any{"title": title}}
}

func view(t *testing.T, s *Session, category string) *projection.View {
	t.Helper()
	v, ok := s.View(category)
	require.True(t, ok)
	return v
}

func itemIDs(v *projection.View) []string {
	items := v.State().Items
	ids := make([]string, 0, len(items))
	for _, d := range items {
		ids = append(ids, d.ID)
	}
	return ids
}

// ─────────────────────────────────────────────
// Local sessions
// ─────────────────────────────────────────────

func TestOpen_NoCategories(t *testing.T) {
	cfg := newLocalConfig("p1")
	cfg.App.Categories = []string{""}

	_, err := Open(context.Background(), cfg, logger.Nop())
	assert.ErrorIs(t, err, ErrNoCategories)
}

func TestSession_GeneratesPeerID(t *testing.T) {
	s := openSession(t, newLocalConfig(""))
	assert.NotEmpty(t, s.PeerID())
}

func TestSession_LocalReadyAnnouncesCategories(t *testing.T) {
	s := openSession(t, newLocalConfig("p1"))

	require.Len(t, s.Views(), 2)
	assert.Equal(t, "note", s.Views()[0].Category())
	assert.Equal(t, "task", s.Views()[1].Category())
	for _, v := range s.Views() {
		assert.True(t, v.State().Ready)
		assert.Empty(t, v.State().Items)
	}

	_, ok := s.View("other")
	assert.False(t, ok)
}

func TestSession_LocalMutations(t *testing.T) {
	s := openSession(t, newLocalConfig("p1"))
	ctx := context.Background()

	inserted, err := s.Insert(ctx, note("n1", "first"))
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.Rev)
	assert.Equal(t, []string{"n1"}, itemIDs(view(t, s, "note")))

	changed := inserted.Clone()
	changed.Fields["title"] = "second"
	updated, err := s.Update(ctx, changed)
	require.NoError(t, err)
	assert.NotEqual(t, inserted.Rev, updated.Rev)

	items := view(t, s, "note").State().Items
	require.Len(t, items, 1)
	assert.Equal(t, "second", items[0].Fields["title"])

	require.NoError(t, s.Remove(ctx, updated.Ref(), "note"))
	assert.Empty(t, view(t, s, "note").State().Items)
}

func TestSession_MutationErrors(t *testing.T) {
	s := openSession(t, newLocalConfig("p1"))
	ctx := context.Background()

	_, err := s.Insert(ctx, models.Document{ID: "x", Kind: "other"})
	assert.ErrorIs(t, err, ErrNotSynchronized)

	first, err := s.Insert(ctx, note("n1", "first"))
	require.NoError(t, err)

	_, err = s.Insert(ctx, note("n1", "again"))
	assert.ErrorIs(t, err, store.ErrConflict)

	err = s.Remove(ctx, models.DocRef{ID: "n1", Rev: "1-00"}, "note")
	assert.ErrorIs(t, err, store.ErrConflict)

	require.NoError(t, s.Remove(ctx, first.Ref(), "note"))
}

func TestSession_ConcurrentMutationsGetOwnOutcome(t *testing.T) {
	s := openSession(t, newLocalConfig("p1"))
	ctx := context.Background()

	for i := range 20 {
		taken := note(fmt.Sprintf("taken-%d", i), "first")
		_, err := s.Insert(ctx, taken)
		require.NoError(t, err)

		var (
			wg                sync.WaitGroup
			conflict, created error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, conflict = s.Insert(ctx, taken)
		}()
		go func() {
			defer wg.Done()
			_, created = s.Insert(ctx, note(fmt.Sprintf("free-%d", i), "second"))
		}()
		wg.Wait()

		assert.ErrorIs(t, conflict, store.ErrConflict)
		assert.NoError(t, created)
	}
}

func TestOutcomeOf(t *testing.T) {
	intent := models.Insert(note("n1", "first"), false)
	match := outcomeOf(intent, models.OperationInsert)
	boom := errors.New("boom")

	tests := []struct {
		name   string
		action models.Notification
		want   bool
	}{
		{name: "confirmed", action: models.Insert(note("n1", "stored"), false), want: true},
		{name: "failure of same identity", action: models.Failed(boom, models.OperationInsert, "n1"), want: true},
		{name: "failure of other identity", action: models.Failed(boom, models.OperationInsert, "n2")},
		{name: "failure without identities", action: models.Failed(boom, models.OperationInsert)},
		{name: "failure of other operation", action: models.Failed(boom, models.OperationUpdate, "n1")},
		{name: "remote echo", action: models.Insert(note("n1", "stored"), true)},
		{name: "other identity confirmed", action: models.Insert(note("n2", "stored"), false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, match(tt.action))
		})
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s, err := Open(context.Background(), newLocalConfig("p1"), logger.Nop())
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

// ─────────────────────────────────────────────
// Remote sessions
// ─────────────────────────────────────────────

func TestSession_RemoteLoadsSnapshot(t *testing.T) {
	srv, backend := newStoreServer(t, nil)
	ctx := context.Background()

	_, err := backend.Put(ctx, note("n1", "seeded"))
	require.NoError(t, err)
	_, err = backend.Put(ctx, models.Document{ID: "t1", Kind: "task"})
	require.NoError(t, err)
	_, err = backend.Put(ctx, models.Document{ID: "x1", Kind: "other"})
	require.NoError(t, err)

	s := openSession(t, newRemoteConfig(srv.URL, "p1"))

	assert.Equal(t, []string{"n1"}, itemIDs(view(t, s, "note")))
	assert.Equal(t, []string{"t1"}, itemIDs(view(t, s, "task")))
	assert.Equal(t, 2, s.reconciler.Index().Len())
}

func TestSession_RemoteReplication(t *testing.T) {
	srv, _ := newStoreServer(t, nil)

	writer := openSession(t, newRemoteConfig(srv.URL, "p1"))
	reader := openSession(t, newRemoteConfig(srv.URL, "p2"))
	ctx := context.Background()

	inserted, err := writer.Insert(ctx, note("n1", "shared"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(view(t, reader, "note").State().Items) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, writer.Remove(ctx, inserted.Ref(), "note"))
	require.Eventually(t, func() bool {
		return len(view(t, reader, "note").State().Items) == 0
	}, 5*time.Second, 10*time.Millisecond)

	// the writer's own echo must not duplicate or resurrect anything
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, view(t, writer, "note").State().Items)
}

func TestSession_RemoteLoadFailure(t *testing.T) {
	cfg := &config.ServerConfig{Server: config.Server{ChangesBuffer: 16}}
	h := myHTTP.NewHandler(store.NewMemoryStore(logger.Nop()), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())
	routes := h.Init()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/docs" {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		routes.ServeHTTP(w, r)
	}))
	defer func() {
		h.Shutdown()
		srv.Close()
	}()

	s, err := Open(context.Background(), newRemoteConfig(srv.URL, "p1"), logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	err = s.Ready(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, adapter.ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "boom")

	for _, v := range s.Views() {
		assert.False(t, v.State().Ready)
	}
}

func TestOpen_RemoteUnauthorized(t *testing.T) {
	srv, _ := newStoreServer(t, &config.ServerConfig{
		Auth:   config.Auth{TokenSignKey: "secret", TokenIssuer: "go-doc-sync", TokenDuration: time.Hour},
		Server: config.Server{ChangesBuffer: 16},
	})

	_, err := Open(context.Background(), newRemoteConfig(srv.URL, "p1"), logger.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrUnauthorized)
}
