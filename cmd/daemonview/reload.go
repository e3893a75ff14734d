package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/daemonview/internal/view"
)

var reloadOpts struct {
	wait bool
}

var reloadCmd = &cobra.Command{
	Use:   "reload NAME",
	Short: "Request a configuration reload of a daemon",
	Long: `Request a configuration reload of the named daemon.

Like the reload button of the console, the request is sent and its outcome is
not reported. Use --wait to wait for the backend's answer and fail when the
daemon is unknown, not reloadable, or was reloaded too recently. Use
reload-state to see how the last reload went.`,
	Args: cobra.ExactArgs(1),
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)

	reloadCmd.Flags().BoolVarP(&reloadOpts.wait, "wait", "w", false,
		"Wait for the backend to answer and report failures")
}

func runReload(cmd *cobra.Command, args []string) error {
	name := args[0]
	w := cmd.OutOrStdout()

	b, err := newBackend()
	if err != nil {
		return err
	}

	if reloadOpts.wait {
		ctx, cancel := withCommandTimeout(cmd)
		defer cancel()
		if err := b.Reload(ctx, name); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Reload accepted for %s\n", name)
		return err
	}

	// Keep the process alive until the dispatched request is sent.
	var wg sync.WaitGroup
	r, err := newRouter(b, view.WithDispatcher(func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}))
	if err != nil {
		return err
	}
	defer r.Deactivate()

	inst, err := r.Activate(view.StateName)
	if err != nil {
		return err
	}
	page, ok := view.Controller(inst)
	if !ok {
		return fmt.Errorf("state %q is not a daemon list", view.StateName)
	}

	page.ReloadPressed(name)
	wg.Wait()

	_, err = fmt.Fprintf(w, "Reload requested for %s\n", name)
	return err
}
