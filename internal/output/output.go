// Package output provides non-interactive renderers for the daemon list.
package output

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/jmylchreest/daemonview/internal/model"
)

// Formatter formats daemons for output.
type Formatter interface {
	// Format writes formatted daemons to the writer.
	Format(w io.Writer, daemons []model.Daemon) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatTable FormatType = "table"
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatNames FormatType = "names"
)

// NewFormatter creates a formatter for the specified format type.
// tmpl is used by the plain format and may be nil for the others.
func NewFormatter(format FormatType, tmpl *template.Template) (Formatter, error) {
	switch format {
	case FormatTable:
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatNames:
		return NewNamesFormatter(), nil
	case FormatPlain:
		if tmpl == nil {
			return nil, fmt.Errorf("format %q needs a template", format)
		}
		return NewTemplateFormatter(tmpl), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// NamesFormatter outputs daemon names, one per line.
// Useful for piping to other commands (e.g., xargs daemonview reload).
type NamesFormatter struct{}

// NewNamesFormatter creates a new names formatter.
func NewNamesFormatter() *NamesFormatter {
	return &NamesFormatter{}
}

// Format writes daemon names to the writer, one per line.
func (f *NamesFormatter) Format(w io.Writer, daemons []model.Daemon) error {
	for _, d := range daemons {
		if _, err := fmt.Fprintln(w, d.Name); err != nil {
			return err
		}
	}
	return nil
}

// TemplateFormatter renders daemons through a list template.
type TemplateFormatter struct {
	template *template.Template
}

// NewTemplateFormatter creates a formatter executing tmpl.
func NewTemplateFormatter(tmpl *template.Template) *TemplateFormatter {
	return &TemplateFormatter{template: tmpl}
}

// templateData has the same shape the list templates see on the live view.
type templateData struct {
	Daemons     []model.Daemon
	Loading     bool
	RefreshedAt time.Time
}

// Format executes the template once for the whole list.
func (f *TemplateFormatter) Format(w io.Writer, daemons []model.Daemon) error {
	return f.template.Execute(w, templateData{
		Daemons:     daemons,
		RefreshedAt: time.Now(),
	})
}
