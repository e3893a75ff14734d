package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/daemonview/internal/output"
)

var reloadStateOpts struct {
	format string
}

var reloadStateCmd = &cobra.Command{
	Use:   "reload-state NAME",
	Short: "Show the outcome of a daemon's last reload",
	Long: `Show the state of the last reload of the named daemon:
Unknown, Reloading, Success or Failed, with the request and response times.`,
	Args: cobra.ExactArgs(1),
	RunE: runReloadState,
}

func init() {
	rootCmd.AddCommand(reloadStateCmd)

	reloadStateCmd.Flags().StringVarP(&reloadStateOpts.format, "format", "f", "",
		"Output format (plain, json, yaml, names)")
}

func runReloadState(cmd *cobra.Command, args []string) error {
	name := args[0]

	b, err := newBackend()
	if err != nil {
		return err
	}

	ctx, cancel := withCommandTimeout(cmd)
	defer cancel()

	state, err := b.ReloadState(ctx, name)
	if err != nil {
		return err
	}

	format := output.FormatType(reloadStateOpts.format)
	if format == "" {
		format = output.FormatPlain
	}
	return output.FormatReloadState(cmd.OutOrStdout(), format, name, state)
}

// withCommandTimeout bounds a single backend command by the configured timeout.
func withCommandTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if d := cfg.Backend.CommandTimeout.Duration(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
