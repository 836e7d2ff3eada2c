// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records every delivered changeset.
type collector struct {
	mu   sync.Mutex
	sets []models.Changeset
}

func (c *collector) add(cs models.Changeset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = append(c.sets, cs)
}

func (c *collector) all() []models.Changeset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Changeset(nil), c.sets...)
}

var fastBackoff = config.Workers{ReconnectBackoff: 10 * time.Millisecond, MaxReconnectBackoff: 50 * time.Millisecond}

// runFeed starts f and returns a stop function that waits for Run to return.
func runFeed(t *testing.T, f *ChangesFeed) (stop func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx) }()

	return func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("change feed did not stop")
			return nil
		}
	}
}

func waitReady(t *testing.T, f *ChangesFeed) {
	t.Helper()
	select {
	case <-f.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("change feed did not connect")
	}
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080", websocketURL("http://localhost:8080"))
	assert.Equal(t, "wss://example.com", websocketURL("https://example.com"))
}

func TestChangesFeed_Directions(t *testing.T) {
	srv, _ := newStoreServer(t, newServerConfig())
	adapterCfg := config.Adapter{HTTPAddress: srv.URL}

	own, err := NewChangesFeed(adapterCfg, fastBackoff, "p1", logger.Nop())
	require.NoError(t, err)
	other, err := NewChangesFeed(adapterCfg, fastBackoff, "p2", logger.Nop())
	require.NoError(t, err)

	var ownSets, otherSets collector
	own.Subscribe(ownSets.add)
	other.Subscribe(otherSets.add)

	stopOwn := runFeed(t, own)
	stopOther := runFeed(t, other)
	waitReady(t, own)
	waitReady(t, other)

	writer := newTestStore(t, srv.URL, "p1")
	results, err := writer.BulkDocs(context.Background(), []models.Document{note("a", "", "a"), note("b", "", "b")})
	require.NoError(t, err)
	_, err = writer.Remove(context.Background(), models.DocRef{ID: "a", Rev: results[0].Rev})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(ownSets.all()) == 2 && len(otherSets.all()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	for _, cs := range ownSets.all() {
		assert.Equal(t, models.Push, cs.Direction)
	}
	for _, cs := range otherSets.all() {
		assert.Equal(t, models.Pull, cs.Direction)
	}

	sets := otherSets.all()
	assert.Len(t, sets[0].Docs, 2)
	require.Len(t, sets[1].Docs, 1)
	assert.True(t, sets[1].Docs[0].Deleted)
	assert.Equal(t, "a", sets[1].Docs[0].ID)

	assert.NoError(t, stopOwn())
	assert.NoError(t, stopOther())
}

func TestChangesFeed_Unsubscribe(t *testing.T) {
	f, err := NewChangesFeed(config.Adapter{HTTPAddress: "localhost:1"}, fastBackoff, "p1", logger.Nop())
	require.NoError(t, err)

	var first, second collector
	cancel := f.Subscribe(first.add)
	f.Subscribe(second.add)

	f.deliver(models.Changeset{Direction: models.Pull})
	cancel()
	cancel()
	f.deliver(models.Changeset{Direction: models.Push})

	assert.Len(t, first.all(), 1)
	assert.Len(t, second.all(), 2)
}

func TestChangesFeed_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f, err := NewChangesFeed(config.Adapter{HTTPAddress: srv.URL}, fastBackoff, "p1", logger.Nop())
	require.NoError(t, err)

	err = f.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChangesFeed_Reconnects(t *testing.T) {
	var (
		attempts atomic.Int32
		upgrader websocket.Upgrader
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			// first dial fails before the upgrade
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(models.Changeset{
			Direction: models.Pull,
			Docs:      []models.Document{note("n", "1-a", "from connection")},
		})
		if n == 2 {
			// drop the second connection to force a reconnect
			return
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	f, err := NewChangesFeed(config.Adapter{HTTPAddress: srv.URL}, fastBackoff, "p1", logger.Nop())
	require.NoError(t, err)

	var sets collector
	f.Subscribe(sets.add)
	stop := runFeed(t, f)

	require.Eventually(t, func() bool {
		return len(sets.all()) >= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, attempts.Load(), int32(3))

	assert.NoError(t, stop())
}

func TestChangesFeed_StopsWhileDialing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, err := NewChangesFeed(config.Adapter{HTTPAddress: srv.URL}, fastBackoff, "p1", logger.Nop())
	require.NoError(t, err)

	stop := runFeed(t, f)
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, stop())

	select {
	case <-f.Ready():
		t.Fatal("feed must not report ready without a connection")
	default:
	}
}
