// Package view implements the daemon list page: its controller, route
// registration and list template.
package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/daemonview/internal/client"
	"github.com/jmylchreest/daemonview/internal/model"
)

// DefaultCommandTimeout bounds a dispatched reload.
const DefaultCommandTimeout = 30 * time.Second

// ErrInactive is returned when a response arrives after the view was left.
var ErrInactive = errors.New("daemon list view is no longer active")

// Lister fetches the daemon list.
type Lister interface {
	ListDaemons(ctx context.Context) ([]model.Daemon, error)
}

// Reloader sends a reload command for one daemon.
type Reloader interface {
	Reload(ctx context.Context, name string) error
}

// Collaborator is the HTTP-capable backend the view talks to.
type Collaborator interface {
	Lister
	Reloader
}

// Phase is the load state of the view.
type Phase int

const (
	// PhaseLoading lasts until the first successful refresh.
	PhaseLoading Phase = iota
	// PhasePopulated is final for the lifetime of the view.
	PhasePopulated
)

func (p Phase) String() string {
	if p == PhasePopulated {
		return "populated"
	}
	return "loading"
}

// Dispatcher runs a command without the caller waiting for it.
type Dispatcher func(func())

func goDispatch(f func()) {
	go f()
}

// DaemonListView is the controller of the daemon list page.
// One instance lives for exactly one activation of the page.
type DaemonListView struct {
	backend        Collaborator
	dispatch       Dispatcher
	commandTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time

	mu          sync.RWMutex
	daemons     []model.Daemon
	phase       Phase
	refreshedAt time.Time
	active      bool
}

// Option configures a DaemonListView.
type Option func(*DaemonListView)

// WithDispatcher sets how reload commands are dispatched.
func WithDispatcher(d Dispatcher) Option {
	return func(v *DaemonListView) {
		if d != nil {
			v.dispatch = d
		}
	}
}

// WithCommandTimeout bounds each dispatched reload.
func WithCommandTimeout(d time.Duration) Option {
	return func(v *DaemonListView) {
		if d > 0 {
			v.commandTimeout = d
		}
	}
}

// WithLogger sets the view logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *DaemonListView) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClock overrides the time source used for RefreshedAt.
func WithClock(now func() time.Time) Option {
	return func(v *DaemonListView) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates an active view with an empty list.
func New(backend Collaborator, opts ...Option) *DaemonListView {
	v := &DaemonListView{
		backend:        backend,
		dispatch:       goDispatch,
		commandTimeout: DefaultCommandTimeout,
		logger:         slog.Default(),
		now:            time.Now,
		daemons:        []model.Daemon{},
		phase:          PhaseLoading,
		active:         true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Enter performs the initial load.
func (v *DaemonListView) Enter(ctx context.Context) error {
	return v.RefreshDaemonList(ctx)
}

// Exit marks the view as left; later responses are discarded.
func (v *DaemonListView) Exit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = false
}

// Active reports whether the view has not been left yet.
func (v *DaemonListView) Active() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active
}

// RefreshDaemonList replaces the list with the backend's current snapshot.
// On failure the previous list is kept and a *client.FetchError is returned.
func (v *DaemonListView) RefreshDaemonList(ctx context.Context) error {
	if !v.Active() {
		return ErrInactive
	}

	daemons, err := v.backend.ListDaemons(ctx)
	if err != nil {
		v.logger.Debug("daemon list refresh failed", "error", err)
		return client.AsFetchError("list daemons", err)
	}
	if daemons == nil {
		daemons = []model.Daemon{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active {
		v.logger.Debug("discarding daemon list for inactive view", "count", len(daemons))
		return ErrInactive
	}
	v.daemons = daemons
	v.phase = PhasePopulated
	v.refreshedAt = v.now()
	return nil
}

// ReloadPressed dispatches a reload of the named daemon and returns at once.
// The outcome is not observed and the list is not touched.
func (v *DaemonListView) ReloadPressed(name string) {
	backend := v.backend
	timeout := v.commandTimeout
	logger := v.logger

	v.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := backend.Reload(ctx, name); err != nil {
			logger.Debug("reload command dropped", "daemon", name, "error", err)
		}
	})
}

// Daemons returns a copy of the current list in server order.
func (v *DaemonListView) Daemons() []model.Daemon {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]model.Daemon, len(v.daemons))
	copy(out, v.daemons)
	return out
}

// Phase returns the load phase.
func (v *DaemonListView) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

// Loading reports whether no refresh has succeeded yet.
func (v *DaemonListView) Loading() bool {
	return v.Phase() == PhaseLoading
}

// RefreshedAt returns the time of the last successful refresh.
func (v *DaemonListView) RefreshedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.refreshedAt
}
