package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/handler"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/server"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	printBuildInfo(buildInfo)

	log := logger.NewLogger("go-doc-sync-server")
	cfg, err := config.GetServerConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().
		Str("driver", cfg.Storage.DB.Driver).
		Str("address", cfg.Server.HTTPAddress).
		Bool("token_auth", cfg.Auth.TokenSignKey != "").
		Msg("received configs")

	docStore, err := store.NewStore(context.Background(), cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating store")
	}
	defer func() {
		if err := docStore.Close(); err != nil {
			log.Err(err).Msg("error closing store")
		}
	}()

	handlers, err := handler.NewHandlers(docStore, cfg, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo(info models.AppBuildInfo) {
	fmt.Printf("Build version: %s\n", info.BuildVersion())
	fmt.Printf("Build date: %s\n", info.BuildDate())
	fmt.Printf("Build commit: %s\n", info.BuildCommit())
}
