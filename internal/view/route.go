package view

import (
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/daemonview/internal/router"
)

// StateName is the router state of the daemon list page.
const StateName = "daemons"

//go:embed templates/daemons.tmpl
var templateFS embed.FS

const listTemplateName = "daemons.tmpl"

var listTemplate = template.Must(
	template.New(listTemplateName).Funcs(TemplateFuncs()).ParseFS(templateFS, "templates/"+listTemplateName),
)

// TemplateFuncs returns the helpers available to list templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"enabled": func(b bool) string {
			if b {
				return "yes"
			}
			return "no"
		},
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return humanize.Time(t)
		},
	}
}

// ListTemplate returns the built-in list template.
func ListTemplate() *template.Template {
	return listTemplate
}

// ParseTemplate parses a user supplied list template. The template receives
// the view, so {{range .Daemons}} iterates the records.
func ParseTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("custom").Funcs(TemplateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return tmpl, nil
}

// Register adds the daemon list state to r. Every activation gets a new
// DaemonListView bound to backend.
func Register(r *router.Router, backend Collaborator, opts ...Option) error {
	return r.Register(router.State{
		Name: StateName,
		URL:  "",
		Controller: func() router.Controller {
			return New(backend, opts...)
		},
		Template: listTemplate,
	})
}

// Controller returns the daemon list view of an active instance.
func Controller(inst *router.Instance) (*DaemonListView, bool) {
	if inst == nil {
		return nil, false
	}
	v, ok := inst.Controller.(*DaemonListView)
	return v, ok
}
