package main

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/client"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath  string
	address     string
	token       string
	peerID      string
	sessionName string
	categories  []string
	driver      string
	dsn         string
	logFile     string
	timeout     time.Duration
}

// overlay turns the flags into the highest-priority configuration layer.
func (o *options) overlay() *config.StructuredConfig {
	return &config.StructuredConfig{
		App: config.App{
			SessionName: o.sessionName,
			Categories:  o.categories,
			PeerID:      o.peerID,
			LogFile:     o.logFile,
		},
		Storage: config.Storage{DB: config.DB{Driver: o.driver, DSN: o.dsn}},
		Adapter: config.Adapter{
			HTTPAddress:    o.address,
			RequestTimeout: o.timeout,
			Token:          o.token,
		},
		ConfigFilePath: o.configPath,
	}
}

// openSession loads the client configuration, opens a session and waits for
// its initial load. The returned cleanup closes the session and the log file.
func (o *options) openSession(ctx context.Context) (*client.Session, func(), error) {
	cfg, err := config.GetClientConfig(o.overlay())
	if err != nil {
		return nil, nil, err
	}

	log, closeLog, err := newLogger(cfg.App.LogFile)
	if err != nil {
		return nil, nil, err
	}

	session, err := client.Open(ctx, cfg, log)
	if err != nil {
		_ = closeLog.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := session.Close(); err != nil {
			log.Err(err).Msg("error closing session")
		}
		_ = closeLog.Close()
	}

	if err = session.Ready(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return session, cleanup, nil
}

// newLogger writes to path, or nowhere when path is empty, so that logs never
// interleave with command output.
func newLogger(path string) (*logger.Logger, io.Closer, error) {
	if path == "" {
		return logger.Nop(), io.NopCloser(nil), nil
	}
	return logger.NewFileLogger("go-doc-sync-client", path)
}

func newRootCmd(buildInfo models.AppBuildInfo) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "docsync",
		Short:         "Reconcile local document intents with a replicated document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "JSON or YAML config file")
	flags.StringVarP(&opts.address, "address", "a", "", "store server address; a local store is used when empty")
	flags.StringVar(&opts.token, "token", "", "peer token for a store server with token authentication")
	flags.StringVar(&opts.peerID, "peer", "", "peer identifier, generated when empty")
	flags.StringVar(&opts.sessionName, "session", "", "session name reported when the initial load finishes")
	flags.StringSliceVarP(&opts.categories, "categories", "k", nil, "synchronized categories (comma separated)")
	flags.StringVar(&opts.driver, "driver", "", "local store driver: memory, sqlite3 or pgx")
	flags.StringVar(&opts.dsn, "dsn", "", "local store DSN")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.DurationVar(&opts.timeout, "timeout", 0, "store server request timeout")

	root.AddCommand(
		newWatchCmd(opts),
		newListCmd(opts),
		newPutCmd(opts),
		newRemoveCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(buildInfo),
	)
	return root
}
