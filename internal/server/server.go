package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/handler"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

type server struct {
	httpServer *httpServer
	logger     *logger.Logger
}

func NewServer(handlers *handler.Handlers, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")

	if handlers == nil || handlers.HTTP == nil || cfg.HTTPAddress == "" {
		return nil, errNoServersAreCreated
	}

	return &server{
		httpServer: newHTTPServer(handlers.HTTP, cfg, logger),
		logger:     logger,
	}, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.Run(ctx); err != nil {
		s.logger.Err(err).Msg("error running server")
	}
}

func (s *server) Run(ctx context.Context) error {
	ln, err := s.httpServer.listen()
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", s.httpServer.server.Addr, err)
	}

	served := make(chan error, 1)
	go func() {
		served <- s.httpServer.serve(ln)
	}()
	s.logger.Info().Str("address", ln.Addr().String()).Msg("Launching HTTP server")

	select {
	case <-ctx.Done():
		s.Shutdown()
		if err = <-served; err != nil {
			return err
		}
		s.logger.Info().Msg("server Shutdown gracefully")
		return nil
	case err = <-served:
		return fmt.Errorf("HTTP server stopped: %w", err)
	}
}

func (s *server) Shutdown() {
	s.httpServer.Shutdown()
}
