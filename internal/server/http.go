package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	myHTTP "github.com/MKhiriev/go-doc-sync/internal/handler/http"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

type httpServer struct {
	server          *http.Server
	shutdownTimeout time.Duration

	logger *logger.Logger
}

func newHTTPServer(handler *myHTTP.Handler, cfg config.Server, logger *logger.Logger) *httpServer {
	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           handler.Init(),
		ReadHeaderTimeout: cfg.RequestTimeout,
	}
	server.RegisterOnShutdown(handler.Shutdown)

	return &httpServer{
		server:          server,
		shutdownTimeout: cfg.RequestTimeout,
		logger:          logger,
	}
}

func (h *httpServer) listen() (net.Listener, error) {
	return net.Listen("tcp", h.server.Addr)
}

// serve blocks until the server stops. A graceful shutdown is not an error.
func (h *httpServer) serve(ln net.Listener) error {
	if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *httpServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Err(err).Str("func", "*httpServer.Shutdown").Msg("HTTP server Shutdown")
	}
}
