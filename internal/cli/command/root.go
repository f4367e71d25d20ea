package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/pathmark-go/internal/cli/config"
	"github.com/yndnr/pathmark-go/internal/cli/output"
	"github.com/yndnr/pathmark-go/internal/core/codec"
	"github.com/yndnr/pathmark-go/internal/core/service"
	"github.com/yndnr/pathmark-go/internal/infra/buildinfo"
	"github.com/yndnr/pathmark-go/internal/settings"
	"github.com/yndnr/pathmark-go/internal/store"
	"github.com/yndnr/pathmark-go/internal/telemetry/logger"
	"github.com/yndnr/pathmark-go/internal/telemetry/metric"
	"github.com/yndnr/pathmark-go/internal/trash"
	"github.com/yndnr/pathmark-go/pkg/crypto/adaptive"
)

// settingsSalt is the fixed Argon2 salt for deriving the sealing key
// from the configured passphrase. Changing it invalidates existing
// sealed stores.
const settingsSalt = "pathmark/settings/v1"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "pathmark",
		Usage:   "durable bookmarks for file-system entries",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BookmarkCommand(),
			EntryCommand(),
			WatchCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
			EnvVars: []string{"PATHMARK_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Override the data directory",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
	}
}

// env holds the wired-up collaborators a command action needs.
type env struct {
	cfg     *config.Config
	store   *store.Store
	bin     *trash.Bin
	deps    service.Deps
	metrics *metric.Registry
	out     output.Formatter
}

// openEnv loads configuration and opens the settings store, codec,
// trash, and bookmark store. The returned close function must be
// called when the command finishes.
func openEnv(c *cli.Context) (*env, func() error, error) {
	overrides := map[string]any{}
	if v := c.String("data-dir"); v != "" {
		overrides["data_dir"] = v
	}
	if v := c.String("log-level"); v != "" {
		overrides["log.level"] = v
	}

	cfg, err := config.Load(c.String("config"), overrides)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)

	var cipher adaptive.Cipher
	if cfg.Store.Passphrase != "" {
		key, err := adaptive.DeriveKey([]byte(cfg.Store.Passphrase), []byte(settingsSalt))
		if err != nil {
			return nil, nil, err
		}
		if cipher, err = adaptive.New(key); err != nil {
			return nil, nil, err
		}
	}

	settingsCfg := settings.DefaultConfig(filepath.Join(cfg.DataDir, "settings"))
	settingsCfg.SyncWrites = cfg.Store.SyncWrites
	settingsCfg.GCInterval = cfg.Store.GCInterval
	settingsCfg.Cipher = cipher
	settingsCfg.Logger = log

	st, err := settings.Open(settingsCfg)
	if err != nil {
		return nil, nil, err
	}

	bin, err := trash.Open(cfg.Trash.Dir, trash.WithLogger(log))
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	// When roots are restricted the trash must stay reachable, or a
	// trashed entry could not be rebound.
	roots := cfg.Scope.Roots
	if len(roots) > 0 {
		roots = append(append([]string{}, roots...), bin.Root())
	}

	metrics := metric.New()
	cdc := codec.New(
		codec.WithRoots(roots...),
		codec.WithRelocationScan(cfg.Scope.ScanRoot, cfg.Scope.ScanDepth),
		codec.WithLogger(log),
		codec.WithMetrics(metrics),
	)

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		st.Close()
		return nil, nil, err
	}
	st.RegisterMetrics(reg)

	bookmarks := store.New(st, cdc,
		store.WithLogger(log),
		store.WithMetrics(metrics),
	)

	e := &env{
		cfg:   cfg,
		store: bookmarks,
		bin:   bin,
		deps: service.Deps{
			Bookmarks: bookmarks,
			Codec:     cdc,
			Trash:     bin,
			Logger:    log,
			Metrics:   metrics,
		},
		metrics: metrics,
		out:     output.NewFormatter(output.Format(c.String("output"))),
	}
	return e, st.Close, nil
}

// PrintError writes an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
