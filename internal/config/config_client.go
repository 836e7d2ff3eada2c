package config

import (
	"fmt"
)

// ClientConfig is the client's view of [StructuredConfig].
type ClientConfig struct {
	// App contains the reconciliation session settings.
	App App
	// Auth is used by the CLI to mint peer tokens.
	Auth Auth
	// Storage selects the local store when no adapter address is set.
	Storage Storage
	// Adapter contains the remote store server connection.
	Adapter Adapter
	// Workers contains change feed reconnect settings.
	Workers Workers
}

// Remote reports whether the client talks to a store server.
func (cfg *ClientConfig) Remote() bool {
	return cfg.Adapter.HTTPAddress != ""
}

// GetClientConfig builds and validates the client configuration. overlay
// carries values of the CLI's own flags and has the highest priority; it may
// be nil.
func GetClientConfig(overlay *StructuredConfig) (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withDefaults().
		withEnv().
		withOverlay(overlay).
		withFile().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App:     cfg.App,
		Auth:    cfg.Auth,
		Storage: cfg.Storage,
		Adapter: cfg.Adapter,
		Workers: cfg.Workers,
	}

	if err = clientCfg.validate(); err != nil {
		return nil, err
	}
	return clientCfg, nil
}

// GetTokenConfig builds the peer token settings used by the CLI to mint
// tokens. A sign key is required.
func GetTokenConfig(overlay *StructuredConfig) (Auth, error) {
	cfg, err := newConfigBuilder().
		withDefaults().
		withEnv().
		withOverlay(overlay).
		withFile().
		build()
	if err != nil {
		return Auth{}, fmt.Errorf("error get structured config: %w", err)
	}

	if cfg.Auth.TokenSignKey == "" {
		return Auth{}, fmt.Errorf("%w: empty token sign key", ErrInvalidAuthConfigs)
	}
	if err = cfg.Auth.validate(); err != nil {
		return Auth{}, err
	}
	return cfg.Auth, nil
}
