package http

import (
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/internal/validators"
	"github.com/MKhiriev/go-doc-sync/models"
)

// Handler serves the store API on top of one [store.Store].
type Handler struct {
	store     store.Store
	auth      config.Auth
	server    config.Server
	buildInfo models.AppBuildInfo
	ids       *utils.UUIDGenerator
	validator validators.Validator

	// closing ends every open change feed stream
	closing   chan struct{}
	closeOnce sync.Once

	logger *logger.Logger
}

func NewHandler(s store.Store, cfg *config.ServerConfig, buildInfo models.AppBuildInfo, logger *logger.Logger) *Handler {
	logger.Info().Bool("token_auth", cfg.Auth.TokenSignKey != "").Msg("http handler created")
	return &Handler{
		store:     s,
		auth:      cfg.Auth,
		server:    cfg.Server,
		buildInfo: buildInfo,
		ids:       utils.NewUUIDGenerator(),
		validator: validators.NewDocumentValidator(),
		closing:   make(chan struct{}),
		logger:    logger,
	}
}

// Shutdown closes every open change feed with CloseGoingAway. Hijacked
// websocket connections are not tracked by the net/http server, so the
// server registers this with RegisterOnShutdown. It is safe to call twice.
func (h *Handler) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.closing)
	})
}
