package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StructuredFileConfig is the on-disk form of [StructuredConfig].
// The same shape is read from JSON and YAML files.
type StructuredFileConfig struct {
	App struct {
		SessionName string   `json:"session_name" yaml:"session_name"`
		Categories  []string `json:"categories" yaml:"categories"`
		PeerID      string   `json:"peer_id" yaml:"peer_id"`
		LogFile     string   `json:"log_file" yaml:"log_file"`
	} `json:"app,omitempty" yaml:"app,omitempty"`

	Auth struct {
		TokenSignKey  string   `json:"token_sign_key" yaml:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer" yaml:"token_issuer"`
		TokenDuration Duration `json:"token_duration" yaml:"token_duration"`
	} `json:"auth,omitempty" yaml:"auth,omitempty"`

	Storage struct {
		DB struct {
			Driver string `json:"driver" yaml:"driver"`
			DSN    string `json:"dsn" yaml:"dsn"`
		} `json:"db,omitempty" yaml:"db,omitempty"`
	} `json:"storage,omitempty" yaml:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
		ChangesBuffer  int      `json:"changes_buffer" yaml:"changes_buffer"`
	} `json:"server,omitempty" yaml:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
		Token          string   `json:"token" yaml:"token"`
	} `json:"adapter,omitempty" yaml:"adapter,omitempty"`

	Workers struct {
		ReconnectBackoff    Duration `json:"reconnect_backoff" yaml:"reconnect_backoff"`
		MaxReconnectBackoff Duration `json:"max_reconnect_backoff" yaml:"max_reconnect_backoff"`
	} `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// parseFile reads a config file, choosing the decoder by extension:
// ".yaml" and ".yml" are YAML, anything else is JSON.
func parseFile(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a config file: %w", err)
	}

	var fileCfg StructuredFileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fileCfg)
		if err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		err = json.Unmarshal(data, &fileCfg)
		if err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	}

	return fileCfg.structured(), nil
}

func (f *StructuredFileConfig) structured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			SessionName: f.App.SessionName,
			Categories:  f.App.Categories,
			PeerID:      f.App.PeerID,
			LogFile:     f.App.LogFile,
		},
		Auth: Auth{
			TokenSignKey:  f.Auth.TokenSignKey,
			TokenIssuer:   f.Auth.TokenIssuer,
			TokenDuration: time.Duration(f.Auth.TokenDuration),
		},
		Storage: Storage{
			DB: DB{
				Driver: f.Storage.DB.Driver,
				DSN:    f.Storage.DB.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    f.Server.HTTPAddress,
			RequestTimeout: time.Duration(f.Server.RequestTimeout),
			ChangesBuffer:  f.Server.ChangesBuffer,
		},
		Adapter: Adapter{
			HTTPAddress:    f.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(f.Adapter.RequestTimeout),
			Token:          f.Adapter.Token,
		},
		Workers: Workers{
			ReconnectBackoff:    time.Duration(f.Workers.ReconnectBackoff),
			MaxReconnectBackoff: time.Duration(f.Workers.MaxReconnectBackoff),
		},
	}
}

// Duration is a wrapper around time.Duration that decodes from strings like
// "1h" or "30s" as well as from integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if ns, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(ns)
		return nil
	}

	tmp, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
