package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

// configBuilder collects configuration layers and merges them by priority:
// defaults < file < env < flags.
type configBuilder struct {
	defaults *StructuredConfig
	file     *StructuredConfig
	env      *StructuredConfig
	flags    *StructuredConfig
	err      error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{}
}

func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(StructuredConfig)
	for _, cfg := range []*StructuredConfig{b.defaults, b.file, b.env, b.flags} {
		if cfg == nil {
			continue
		}
		if err := mergo.Merge(config, cfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, nil
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.defaults = defaults()
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &StructuredConfig{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.env = envCfg
	return b
}

func (b *configBuilder) withFlags(args []string) *configBuilder {
	flagsCfg, err := ParseFlags(args)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.flags = flagsCfg
	return b
}

// withOverlay sets cfg as the highest-priority layer. The CLI uses it for
// values bound to its own command flags.
func (b *configBuilder) withOverlay(cfg *StructuredConfig) *configBuilder {
	b.flags = cfg
	return b
}

// withFile loads the config file named by the flags or env layer, flags first.
func (b *configBuilder) withFile() *configBuilder {
	var path string
	for _, cfg := range []*StructuredConfig{b.flags, b.env} {
		if cfg != nil && cfg.ConfigFilePath != "" {
			path = cfg.ConfigFilePath
			break
		}
	}
	if path == "" {
		return b
	}

	fileCfg, err := parseFile(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.file = fileCfg
	return b
}
