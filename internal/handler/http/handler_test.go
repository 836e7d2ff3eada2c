package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func newTestConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Auth: config.Auth{
			TokenIssuer:   "go-doc-sync",
			TokenDuration: time.Hour,
		},
		Server: config.Server{
			HTTPAddress:    "localhost:0",
			RequestTimeout: 5 * time.Second,
			ChangesBuffer:  16,
		},
	}
}

func newTestHandlerWithConfig(cfg *config.ServerConfig) *Handler {
	return NewHandler(
		store.NewMemoryStore(logger.Nop()),
		cfg,
		models.NewAppBuildInfo("v1.2.3", "2026-01-01", "abc123"),
		logger.Nop(),
	)
}

func newTestHandler() *Handler {
	return newTestHandlerWithConfig(newTestConfig())
}

func newTestServer(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h.Init())
	t.Cleanup(srv.Close)
	return srv
}

// doRequest sends body as JSON on behalf of peerID (no peer header when empty).
func doRequest(t *testing.T, srv *httptest.Server, method, path, peerID string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(b))
		reader = buf
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if peerID != "" {
		req.Header.Set(utils.PeerIDHeader, peerID)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// ─────────────────────────────────────────────
// NewHandler
// ─────────────────────────────────────────────

func TestNewHandler(t *testing.T) {
	cfg := newTestConfig()
	s := store.NewMemoryStore(logger.Nop())
	log := logger.Nop()

	h := NewHandler(s, cfg, models.NewAppBuildInfo("", "", ""), log)

	require.NotNil(t, h)
	assert.Same(t, s, h.store)
	assert.Equal(t, cfg.Auth, h.auth)
	assert.Equal(t, cfg.Server, h.server)
	assert.Equal(t, log, h.logger)
	assert.Equal(t, "N/A", h.buildInfo.BuildVersion())
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrInvalidDocument, http.StatusBadRequest},
		{models.ErrMalformedDocument, http.StatusBadRequest},
		{ErrInvalidJSON, http.StatusBadRequest},
		{ErrMissingRevision, http.StatusBadRequest},
		{ErrInvalidToken, http.StatusUnauthorized},
		{utils.ErrInvalidAuthorizationHeader, http.StatusUnauthorized},
		{store.ErrExecutingQuery, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}
