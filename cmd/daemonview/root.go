// Package main provides the CLI entrypoint for daemonview.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/daemonview/internal/client"
	"github.com/jmylchreest/daemonview/internal/config"
	"github.com/jmylchreest/daemonview/internal/model"
	"github.com/jmylchreest/daemonview/internal/router"
	"github.com/jmylchreest/daemonview/internal/view"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		url        string
		demo       bool
	}
	logger *slog.Logger
)

// backend is what the commands need from a collaborator.
type backend interface {
	view.Collaborator
	ReloadState(ctx context.Context, name string) (model.DaemonReloadState, error)
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "daemonview",
	Short: "Console for the daemons managed by an OpenNMS backend",
	Long: `daemonview lists the background daemons of a network-management backend
and lets you request a configuration reload of any of them.

Running daemonview without a subcommand launches the interactive TUI.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.url != "" {
			cfg.Backend.BaseURL = globalOpts.url
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/daemonview/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.url, "url", "",
		"Backend base URL (overrides backend.base_url)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.demo, "demo", false,
		"Serve a built-in demo list instead of contacting a backend")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// newBackend returns the collaborator selected by the global flags.
func newBackend() (backend, error) {
	if globalOpts.demo {
		logger.Debug("using demo backend")
		return client.NewStatic(client.DemoDaemons), nil
	}

	c, err := client.New(cfg.Backend.BaseURL,
		client.WithTimeout(cfg.Backend.Timeout.Duration()),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("using backend", "url", c.BaseURL())
	return c, nil
}

// newRouter returns a router with the daemon list page registered against b.
func newRouter(b view.Collaborator, opts ...view.Option) (*router.Router, error) {
	r := router.New(router.WithLogger(logger))

	opts = append([]view.Option{
		view.WithCommandTimeout(cfg.Backend.CommandTimeout.Duration()),
		view.WithLogger(logger),
	}, opts...)
	if err := view.Register(r, b, opts...); err != nil {
		return nil, err
	}
	return r, nil
}

// activate enters the daemon list page and returns its controller.
func activate(ctx context.Context, r *router.Router) (*router.Instance, *view.DaemonListView, error) {
	inst, err := r.Activate(view.StateName)
	if err != nil {
		return nil, nil, err
	}
	page, ok := view.Controller(inst)
	if !ok {
		return nil, nil, fmt.Errorf("state %q is not a daemon list", view.StateName)
	}
	if href, err := r.Href(view.StateName); err == nil {
		logger.Debug("entering page", "href", href)
	}
	if err := inst.Enter(ctx); err != nil {
		return nil, nil, err
	}
	return inst, page, nil
}
