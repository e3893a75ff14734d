package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/daemonview/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive daemon console",
	Long: `Launch the interactive terminal user interface for the daemon list.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter, l    Reload the selected daemon
  r           Refresh the list
  s           Show the reload state of the selected daemon
  y           Copy the selected daemon's name to the clipboard
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	b, err := newBackend()
	if err != nil {
		return err
	}
	r, err := newRouter(b)
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), tui.RunOptions{
		Config: cfg,
		Router: r,
		States: b,
	})
}
