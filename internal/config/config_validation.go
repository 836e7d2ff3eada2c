// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"slices"
)

func (db DB) validate() error {
	switch db.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite, DriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("%w: empty DSN for driver %q", ErrInvalidStorageConfigs, db.Driver)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, db.Driver)
	}
}

func (a Auth) validate() error {
	if a.TokenSignKey == "" {
		return nil
	}
	if a.TokenIssuer == "" || a.TokenDuration <= 0 {
		return ErrInvalidAuthConfigs
	}
	return nil
}

func (cfg *ServerConfig) validate() error {
	if err := cfg.Storage.DB.validate(); err != nil {
		return err
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 || cfg.Server.ChangesBuffer <= 0 {
		return ErrInvalidServerConfigs
	}

	return cfg.Auth.validate()
}

func (cfg *ClientConfig) validate() error {
	if len(cfg.App.Categories) == 0 || slices.Contains(cfg.App.Categories, "") {
		return fmt.Errorf("%w: at least one non-empty category is required", ErrInvalidAppConfigs)
	}

	if err := cfg.Auth.validate(); err != nil {
		return err
	}

	if !cfg.Remote() {
		return cfg.Storage.DB.validate()
	}

	if cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.ReconnectBackoff <= 0 || cfg.Workers.MaxReconnectBackoff < cfg.Workers.ReconnectBackoff {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
