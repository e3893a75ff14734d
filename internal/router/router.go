// Package router maps named console states to their controllers and templates.
//
// A Router has no package-level instance: every page registers its states on
// the Router it is handed, and at most one state is active at a time.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"text/template"
)

// DefaultHashPrefix is prepended to state URLs in generated links.
const DefaultHashPrefix = "!"

// Router errors.
var (
	ErrInvalidState   = errors.New("invalid state")
	ErrDuplicateState = errors.New("state already registered")
	ErrUnknownState   = errors.New("unknown state")
	ErrNoTemplate     = errors.New("state has no template")
)

// Controller is the per-activation logic of a state.
type Controller interface {
	// Enter runs once after the state becomes active.
	Enter(ctx context.Context) error
	// Exit runs when the state is left. Results arriving later must be ignored.
	Exit()
}

// State describes one routable console state.
type State struct {
	Name       string
	URL        string // suffix under the router base; "" is the base itself
	Controller func() Controller
	Template   *template.Template
}

// Instance is an active state with its own controller.
type Instance struct {
	State      State
	Controller Controller
}

// Enter runs the controller's entry hook.
func (i *Instance) Enter(ctx context.Context) error {
	return i.Controller.Enter(ctx)
}

// Render executes the state template with the controller as data.
func (i *Instance) Render(w io.Writer) error {
	if i.State.Template == nil {
		return fmt.Errorf("%w: %s", ErrNoTemplate, i.State.Name)
	}
	return i.State.Template.Execute(w, i.Controller)
}

// Router holds registered states and the currently active instance.
type Router struct {
	mu         sync.Mutex
	base       string
	hashPrefix string
	states     map[string]State
	active     *Instance
	logger     *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithBase sets the path the state URLs hang off, e.g. "admin/daemons/".
func WithBase(base string) Option {
	return func(r *Router) {
		r.base = base
	}
}

// WithHashPrefix sets the hash prefix used by Href.
func WithHashPrefix(prefix string) Option {
	return func(r *Router) {
		r.hashPrefix = prefix
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{
		hashPrefix: DefaultHashPrefix,
		states:     make(map[string]State),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a state. Names must be unique and a controller factory is required.
func (r *Router) Register(s State) error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidState)
	}
	if s.Controller == nil {
		return fmt.Errorf("%w: %s has no controller", ErrInvalidState, s.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.states[s.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateState, s.Name)
	}
	for _, other := range r.states {
		if other.URL == s.URL {
			return fmt.Errorf("%w: %s and %s share url %q", ErrInvalidState, other.Name, s.Name, s.URL)
		}
	}
	r.states[s.Name] = s
	return nil
}

// States returns the registered state names, sorted.
func (r *Router) States() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.states))
	for name := range r.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Href returns the link for a registered state.
func (r *Router) Href(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownState, name)
	}
	return r.base + "#" + r.hashPrefix + s.URL, nil
}

// Activate leaves the current state, if any, and makes name active with a
// fresh controller. The caller runs Instance.Enter.
func (r *Router) Activate(name string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, name)
	}
	r.exitLocked()

	inst := &Instance{State: s, Controller: s.Controller()}
	r.active = inst
	r.logger.Debug("state activated", "state", name)
	return inst, nil
}

// Deactivate leaves the current state.
func (r *Router) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exitLocked()
}

// Active returns the active instance, or nil.
func (r *Router) Active() *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Router) exitLocked() {
	if r.active == nil {
		return
	}
	r.active.Controller.Exit()
	r.logger.Debug("state deactivated", "state", r.active.State.Name)
	r.active = nil
}
