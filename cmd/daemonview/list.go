package main

import (
	"fmt"
	"slices"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/daemonview/internal/config"
	"github.com/jmylchreest/daemonview/internal/core"
	"github.com/jmylchreest/daemonview/internal/output"
	"github.com/jmylchreest/daemonview/internal/view"
)

var listOpts struct {
	format   string
	template string
	filter   string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the daemon list",
	Long: `Load the daemon list once and print it.

The plain format renders the page's list template. --template takes either
the name of a template from the [templates.custom] config table or the
template text itself; it implies the plain format.

Examples:
  # Table of all daemons
  daemonview list

  # Names only, for scripting
  daemonview list --format names

  # Enabled daemons that are not fully running
  daemonview list --filter 'enabled=true,status!=Running'

  # Custom template
  daemonview list --template '{{range .Daemons}}{{.Name}}={{.Status}}{{"\n"}}{{end}}'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "",
		fmt.Sprintf("Output format %v (default from config)", config.Formats))
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Template name from config, or Go template text")
	listCmd.Flags().StringVar(&listOpts.filter, "filter", "",
		"Filter expression (e.g., 'status!=Running,name~poll')")
}

func runList(cmd *cobra.Command, args []string) error {
	format := listOpts.format
	if format == "" {
		format = cfg.Output.Format
	}
	if listOpts.template != "" {
		format = string(output.FormatPlain)
	}
	if !slices.Contains(config.Formats, format) {
		return fmt.Errorf("invalid format %q, must be one of: %v", format, config.Formats)
	}

	var tmpl *template.Template
	if listOpts.template != "" {
		text := cfg.GetTemplate(listOpts.template)
		if text == "" {
			text = listOpts.template
		}
		var err error
		tmpl, err = view.ParseTemplate(text)
		if err != nil {
			return err
		}
	}

	filter, err := core.ParseFilter(listOpts.filter)
	if err != nil {
		return err
	}

	b, err := newBackend()
	if err != nil {
		return err
	}
	r, err := newRouter(b)
	if err != nil {
		return err
	}
	defer r.Deactivate()

	inst, page, err := activate(cmd.Context(), r)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if output.FormatType(format) == output.FormatPlain && tmpl == nil {
		if len(filter.Conditions) == 0 {
			return inst.Render(w)
		}
		tmpl = view.ListTemplate()
	}

	formatter, err := output.NewFormatter(output.FormatType(format), tmpl)
	if err != nil {
		return err
	}
	daemons := core.FilterWithExpr(page.Daemons(), filter)
	logger.Debug("listing daemons", "count", len(daemons), "format", format)
	return formatter.Format(w, daemons)
}
