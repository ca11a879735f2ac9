// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the bloodbridge command line.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/bloodbridge-tui/internal/api"
	"github.com/jeranaias/bloodbridge-tui/internal/config"
	"github.com/jeranaias/bloodbridge-tui/internal/logging"
	"github.com/jeranaias/bloodbridge-tui/internal/session"
	"github.com/jeranaias/bloodbridge-tui/internal/storage"
)

// Options carries process-level dependencies into the command tree.
type Options struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Version string

	// Store replaces the configured storage driver when set.
	Store storage.Store
}

// App is the runtime shared by every command. It is assembled by the root
// command's pre-run hook once flags are parsed.
type App struct {
	opts Options

	// Global flags
	configPath string
	apiBase    string
	jsonOutput bool
	debug      bool

	Config  *config.Config
	Logger  *zap.Logger
	Store   storage.Store
	Session *session.Manager
	API     *api.Client

	ownsStore bool
	reader    *bufio.Reader
}

func newApp(opts Options) *App {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &App{opts: opts}
}

// Out returns the command output writer.
func (a *App) Out() io.Writer { return a.opts.Stdout }

// Err returns the diagnostics writer.
func (a *App) Err() io.Writer { return a.opts.Stderr }

// In returns the input reader.
func (a *App) In() io.Reader { return a.opts.Stdin }

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "bloodbridge",
		Short:         "Terminal client for the blood-donation platform",
		Long:          "bloodbridge signs you in to the blood-donation platform, chats with its assistant and manages donors, campaigns, stock, appointments and blood requests.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd.Context())
		},
	}
	root.SetIn(app.In())
	root.SetOut(app.Out())
	root.SetErr(app.Err())

	pf := root.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "config file (default ~/.bloodbridge/config.toml)")
	pf.StringVar(&app.apiBase, "api-base", "", "API base URL, overrides config and BLOODBRIDGE_API_BASE")
	pf.BoolVar(&app.jsonOutput, "json", false, "print machine-readable JSON")
	pf.BoolVar(&app.debug, "debug", false, "log debug output to stderr")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newChatCmd(app),
		newDonorCmd(app),
		newHospitalsCmd(app),
		newCampaignsCmd(app),
		newStockCmd(app),
		newAppointmentsCmd(app),
		newRequestsCmd(app),
		newVersionCmd(app),
	)
	return root
}

// setup loads config, builds the logger and store, and restores the
// session.
func (a *App) setup(ctx context.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.apiBase != "" {
		cfg.API.BaseURL = a.apiBase
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.Config = cfg

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = config.DefaultLogPath()
	}
	level := cfg.Log.Level
	if a.debug {
		level = "debug"
	}
	a.Logger, err = logging.New(logging.Options{Level: level, File: logFile, Stderr: a.debug})
	if err != nil {
		return err
	}

	color.NoColor = !ColorsEnabled()

	if a.opts.Store != nil {
		a.Store = a.opts.Store
	} else {
		a.Store, err = openStore(cfg, a.Logger)
		if err != nil {
			return err
		}
		a.ownsStore = true
	}

	a.Session = session.New(cfg.API.BaseURL, a.Store, session.WithLogger(a.Logger))
	if err := a.Session.Initialize(ctx); err != nil {
		return err
	}
	a.API = api.New(a.Session,
		api.WithTimeout(cfg.Timeout()),
		api.WithRateLimit(cfg.API.RateLimitRPS),
		api.WithLogger(a.Logger),
	)
	a.Logger.Debug("runtime ready",
		zap.String("api", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("authenticated", a.Session.Authenticated()))
	return nil
}

// openStore builds the configured storage driver.
func openStore(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	opts := []storage.Option{
		storage.WithPath(cfg.Storage.Path),
		storage.WithLogger(logger),
	}
	if cfg.Storage.Driver == config.DriverRedis {
		opts = append(opts,
			storage.WithRedisClient(redis.NewClient(&redis.Options{
				Addr: cfg.Storage.RedisAddr,
				DB:   cfg.Storage.RedisDB,
			})),
			storage.WithRedisTTL(cfg.RedisTTL()),
		)
	}
	store, err := storage.New(storage.Driver(cfg.Storage.Driver), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

func (a *App) close() {
	if a.Store != nil && a.ownsStore {
		if err := a.Store.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
			a.Logger.Warn("failed to close session store", zap.Error(err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	app := newApp(opts)
	defer app.close()

	root := NewRootCommand(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		app.reportError(root, err)
		return ExitFailure
	}
	return ExitSuccess
}
