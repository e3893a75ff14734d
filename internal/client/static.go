package client

import (
	"context"
	"slices"
	"sync"

	"github.com/jmylchreest/daemonview/internal/model"
)

// DemoDaemons is the fixture list served in demo mode.
var DemoDaemons = []model.Daemon{
	{ID: 20, Name: "Das_1", Enabled: true, Status: model.StatusPartiallyRunning},
	{ID: 21, Name: "Das_2", Enabled: false, Status: model.StatusRunning},
	{ID: 22, Name: "Das_3", Enabled: true, Status: model.StatusStopped},
}

// Static is an in-memory collaborator serving a fixed daemon list.
// It records reload requests instead of sending them anywhere.
type Static struct {
	mu      sync.Mutex
	daemons []model.Daemon
	reloads []string
}

// NewStatic returns a collaborator serving a copy of daemons.
func NewStatic(daemons []model.Daemon) *Static {
	return &Static{daemons: slices.Clone(daemons)}
}

// ListDaemons returns the fixed list.
func (s *Static) ListDaemons(ctx context.Context) ([]model.Daemon, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Op: "list daemons", URL: "static", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Daemon, len(s.daemons))
	copy(out, s.daemons)
	return out, nil
}

// Reload records the request. Unknown names fail like the backend's 404.
func (s *Static) Reload(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads = append(s.reloads, name)
	if _, ok := model.Find(s.daemons, name); !ok {
		return &CommandError{Op: "reload", Daemon: name, Err: ErrDaemonNotFound}
	}
	return nil
}

// ReloadState reports Success for daemons that were reloaded, Unknown otherwise.
func (s *Static) ReloadState(ctx context.Context, name string) (model.DaemonReloadState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := model.Find(s.daemons, name); !ok {
		return model.DaemonReloadState{}, &FetchError{Op: "check reload state", URL: "static", Err: ErrDaemonNotFound}
	}
	if slices.Contains(s.reloads, name) {
		return model.DaemonReloadState{ReloadState: model.ReloadSuccess}, nil
	}
	return model.DaemonReloadState{ReloadState: model.ReloadUnknown}, nil
}

// Reloads returns the names passed to Reload, in call order.
func (s *Static) Reloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reloads)
}
