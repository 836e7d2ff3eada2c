package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// NewStore opens the store selected by cfg.Driver, migrating SQL schemas.
func NewStore(ctx context.Context, cfg config.DB, log *logger.Logger) (Store, error) {
	if cfg.Driver == config.DriverMemory || cfg.Driver == "" {
		return NewMemoryStore(log), nil
	}

	db, err := NewConnect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewStore").Str("driver", cfg.Driver).Msg("failed to migrate database")
		db.Close()
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return NewSQLStore(db, log), nil
}
