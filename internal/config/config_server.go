package config

import "fmt"

// ServerConfig is the store server's view of [StructuredConfig].
type ServerConfig struct {
	Auth    Auth
	Storage Storage
	Server  Server
}

// GetServerConfig loads defaults, the config file, the environment and the
// flags in args, and validates the store server settings.
func GetServerConfig(args []string) (*ServerConfig, error) {
	cfg, err := newConfigBuilder().
		withDefaults().
		withEnv().
		withFlags(args).
		withFile().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		Auth:    cfg.Auth,
		Storage: cfg.Storage,
		Server:  cfg.Server,
	}

	if err = serverCfg.validate(); err != nil {
		return nil, err
	}
	return serverCfg, nil
}
