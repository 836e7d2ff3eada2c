// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChanges(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/changes"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readChangeset(t *testing.T, conn *websocket.Conn) models.Changeset {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var cs models.Changeset
	require.NoError(t, conn.ReadJSON(&cs))
	return cs
}

func TestChanges_DirectionPerPeer(t *testing.T) {
	h := newTestHandler()
	srv := newTestServer(t, h)

	conn, _, err := dialChanges(t, srv, http.Header{utils.PeerIDHeader: {"peer-a"}})
	require.NoError(t, err)

	resp := doRequest(t, srv, http.MethodPut, "/api/docs/1234", "peer-a", `{"kind":"todo","title":"mine"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodPut, "/api/docs/2345", "peer-b", `{"kind":"todo","title":"theirs"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	own := readChangeset(t, conn)
	assert.Equal(t, models.Push, own.Direction)
	require.Len(t, own.Docs, 1)
	assert.Equal(t, "1234", own.Docs[0].ID)

	foreign := readChangeset(t, conn)
	assert.Equal(t, models.Pull, foreign.Direction)
	require.Len(t, foreign.Docs, 1)
	assert.Equal(t, "2345", foreign.Docs[0].ID)
	assert.Equal(t, "theirs", foreign.Docs[0].Fields["title"])
}

func TestChanges_BulkWriteIsOneChangeset(t *testing.T) {
	h := newTestHandler()
	srv := newTestServer(t, h)

	conn, _, err := dialChanges(t, srv, http.Header{utils.PeerIDHeader: {"peer-a"}})
	require.NoError(t, err)

	ctx := utils.WithPeerID(context.Background(), "peer-b")
	_, err = h.store.BulkDocs(ctx, []models.Document{
		{ID: "a", Kind: "todo"},
		{ID: "b", Kind: "todo"},
	})
	require.NoError(t, err)

	cs := readChangeset(t, conn)
	assert.Equal(t, models.Pull, cs.Direction)
	assert.Len(t, cs.Docs, 2)
}

func TestChanges_TombstoneIsStreamed(t *testing.T) {
	h := newTestHandler()
	srv := newTestServer(t, h)

	ctx := utils.WithPeerID(context.Background(), "peer-b")
	rev, err := h.store.Put(ctx, models.Document{ID: "1234", Kind: "todo"})
	require.NoError(t, err)

	conn, _, err := dialChanges(t, srv, http.Header{utils.PeerIDHeader: {"peer-a"}})
	require.NoError(t, err)

	_, err = h.store.Remove(ctx, models.DocRef{ID: "1234", Rev: rev})
	require.NoError(t, err)

	cs := readChangeset(t, conn)
	require.Len(t, cs.Docs, 1)
	assert.True(t, cs.Docs[0].Deleted)
	assert.Empty(t, cs.Docs[0].Kind)
}

func TestChanges_Unauthorized(t *testing.T) {
	srv := newTestServer(t, newTestHandler())

	_, resp, err := dialChanges(t, srv, nil)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChanges_ShutdownClosesStreams(t *testing.T) {
	h := newTestHandler()
	srv := newTestServer(t, h)

	conn, _, err := dialChanges(t, srv, http.Header{utils.PeerIDHeader: {"peer-a"}})
	require.NoError(t, err)

	h.Shutdown()
	h.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
