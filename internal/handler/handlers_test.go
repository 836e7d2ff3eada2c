package handler

import (
	"testing"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() store.Store {
	return store.NewMemoryStore(logger.Nop())
}

// TestNewHandlers_HTTP verifies that an HTTP address enables the HTTP handler.
func TestNewHandlers_HTTP(t *testing.T) {
	cfg := &config.ServerConfig{Server: config.Server{HTTPAddress: ":8080"}}

	h, err := NewHandlers(newTestStore(), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())

	require.NoError(t, err)
	require.NotNil(t, h)
	assert.NotNil(t, h.HTTP)
}

// TestNewHandlers_NoAddresses verifies that a configuration without any
// address is rejected.
func TestNewHandlers_NoAddresses(t *testing.T) {
	h, err := NewHandlers(newTestStore(), &config.ServerConfig{}, models.NewAppBuildInfo("", "", ""), logger.Nop())

	require.ErrorIs(t, err, errNoHandlersAreCreated)
	assert.Nil(t, h)
}

// TestNewHandlers_IndependentInstances verifies that two calls produce
// independent handlers.
func TestNewHandlers_IndependentInstances(t *testing.T) {
	cfg := &config.ServerConfig{Server: config.Server{HTTPAddress: ":8080"}}

	h1, err1 := NewHandlers(newTestStore(), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())
	h2, err2 := NewHandlers(newTestStore(), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotSame(t, h1, h2)
	assert.NotSame(t, h1.HTTP, h2.HTTP)
}
