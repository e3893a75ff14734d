package view

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/daemonview/internal/client"
	"github.com/jmylchreest/daemonview/internal/model"
	"github.com/jmylchreest/daemonview/internal/router"
)

// fakeBackend is a scriptable collaborator.
type fakeBackend struct {
	mu      sync.Mutex
	lists   [][]model.Daemon
	errs    []error
	calls   int
	reloads []string
	gate    chan struct{} // when set, ListDaemons blocks until closed
}

func (f *fakeBackend) ListDaemons(ctx context.Context) ([]model.Daemon, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.lists) {
		return f.lists[i], nil
	}
	return nil, nil
}

func (f *fakeBackend) Reload(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads = append(f.reloads, name)
	return errors.New("backend unavailable")
}

func syncDispatch(fn func()) { fn() }

var seeded = []model.Daemon{
	{ID: 20, Name: "Das_1", Enabled: true, Status: model.StatusPartiallyRunning},
	{ID: 21, Name: "Das_2", Enabled: false, Status: model.StatusRunning},
	{ID: 22, Name: "Das_3", Enabled: true, Status: model.StatusStopped},
}

func TestNew_StartsEmptyAndLoading(t *testing.T) {
	v := New(&fakeBackend{})
	assert.Empty(t, v.Daemons())
	assert.NotNil(t, v.Daemons())
	assert.Equal(t, PhaseLoading, v.Phase())
	assert.True(t, v.Loading())
	assert.True(t, v.RefreshedAt().IsZero())
}

func TestRefreshDaemonList_PreservesOrder(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	v := New(&fakeBackend{lists: [][]model.Daemon{seeded}}, WithClock(func() time.Time { return now }))

	require.NoError(t, v.RefreshDaemonList(context.Background()))
	assert.Equal(t, seeded, v.Daemons())
	assert.Equal(t, PhasePopulated, v.Phase())
	assert.Equal(t, now, v.RefreshedAt())
}

func TestRefreshDaemonList_EmptyResponse(t *testing.T) {
	v := New(&fakeBackend{lists: [][]model.Daemon{seeded, {}}})

	require.NoError(t, v.RefreshDaemonList(context.Background()))
	require.NoError(t, v.RefreshDaemonList(context.Background()))
	assert.Empty(t, v.Daemons())
	assert.Equal(t, PhasePopulated, v.Phase())
}

func TestRefreshDaemonList_FailureKeepsPreviousList(t *testing.T) {
	backend := &fakeBackend{
		lists: [][]model.Daemon{seeded},
		errs:  []error{nil, errors.New("connection refused")},
	}
	v := New(backend)

	require.NoError(t, v.RefreshDaemonList(context.Background()))
	err := v.RefreshDaemonList(context.Background())

	var fe *client.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, seeded, v.Daemons())
	assert.Equal(t, PhasePopulated, v.Phase())
}

func TestRefreshDaemonList_FailureBeforeFirstLoadStaysLoading(t *testing.T) {
	fetchErr := &client.FetchError{Op: "list daemons", StatusCode: 500, Err: errors.New("boom")}
	v := New(&fakeBackend{errs: []error{fetchErr}})

	err := v.RefreshDaemonList(context.Background())
	assert.Same(t, fetchErr, err)
	assert.Equal(t, PhaseLoading, v.Phase())
	assert.Empty(t, v.Daemons())
}

func TestRefreshDaemonList_UnknownStatusRetained(t *testing.T) {
	v := New(&fakeBackend{lists: [][]model.Daemon{{{ID: 1, Name: "eventd", Enabled: true, Status: "Degraded"}}}})

	require.NoError(t, v.RefreshDaemonList(context.Background()))
	assert.Equal(t, model.Status("Degraded"), v.Daemons()[0].Status)
}

func TestRefreshDaemonList_LateResponseIgnoredAfterExit(t *testing.T) {
	backend := &fakeBackend{lists: [][]model.Daemon{seeded}, gate: make(chan struct{})}
	v := New(backend)

	done := make(chan error, 1)
	go func() {
		done <- v.RefreshDaemonList(context.Background())
	}()

	v.Exit()
	close(backend.gate)

	assert.ErrorIs(t, <-done, ErrInactive)
	assert.Empty(t, v.Daemons())
	assert.Equal(t, PhaseLoading, v.Phase())
}

func TestRefreshDaemonList_InactiveDoesNotFetch(t *testing.T) {
	backend := &fakeBackend{lists: [][]model.Daemon{seeded}}
	v := New(backend)
	v.Exit()

	assert.ErrorIs(t, v.RefreshDaemonList(context.Background()), ErrInactive)
	assert.Zero(t, backend.calls)
}

func TestReloadPressed_DispatchesWithoutTouchingState(t *testing.T) {
	backend := &fakeBackend{lists: [][]model.Daemon{seeded}}
	v := New(backend, WithDispatcher(syncDispatch))
	require.NoError(t, v.RefreshDaemonList(context.Background()))

	v.ReloadPressed("Das_1")

	assert.Equal(t, []string{"Das_1"}, backend.reloads)
	assert.Equal(t, seeded, v.Daemons())
	assert.Equal(t, 1, backend.calls, "reload does not trigger a refresh")
}

func TestReloadPressed_DoesNotWait(t *testing.T) {
	var queued []func()
	backend := &fakeBackend{}
	v := New(backend, WithDispatcher(func(fn func()) { queued = append(queued, fn) }))

	v.ReloadPressed("Das_1")
	assert.Empty(t, backend.reloads, "nothing is sent until the dispatcher runs the command")
	require.Len(t, queued, 1)

	queued[0]()
	assert.Equal(t, []string{"Das_1"}, backend.reloads)
}

func TestReloadPressed_DefaultDispatcherRunsAsync(t *testing.T) {
	hits := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	v := New(c)
	v.ReloadPressed("Das_1")

	select {
	case got := <-hits:
		assert.Equal(t, "POST /rest/daemons/reload/Das_1/", got)
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not dispatched")
	}
}

func TestEndToEnd_ActivateAndReload(t *testing.T) {
	var mu sync.Mutex
	var posts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":20,"name":"Das_1","status":"PartiallyRunning","enabled":true}]`))
		case http.MethodPost:
			mu.Lock()
			posts = append(posts, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	r := router.New()
	require.NoError(t, Register(r, c, WithDispatcher(syncDispatch)))

	inst, err := r.Activate(StateName)
	require.NoError(t, err)
	require.NoError(t, inst.Enter(context.Background()))

	v, ok := Controller(inst)
	require.True(t, ok)
	want := []model.Daemon{{ID: 20, Name: "Das_1", Status: model.StatusPartiallyRunning, Enabled: true}}
	assert.Equal(t, want, v.Daemons())

	v.ReloadPressed("Das_1")

	mu.Lock()
	assert.Equal(t, []string{"/rest/daemons/reload/Das_1/"}, posts)
	mu.Unlock()
	assert.Equal(t, want, v.Daemons())
}

func TestRegister_FreshStatePerActivation(t *testing.T) {
	backend := &fakeBackend{lists: [][]model.Daemon{seeded, seeded}}
	r := router.New()
	require.NoError(t, Register(r, backend))

	first, err := r.Activate(StateName)
	require.NoError(t, err)
	require.NoError(t, first.Enter(context.Background()))
	firstView, _ := Controller(first)

	second, err := r.Activate(StateName)
	require.NoError(t, err)
	secondView, _ := Controller(second)

	assert.False(t, firstView.Active())
	assert.True(t, secondView.Active())
	assert.Empty(t, secondView.Daemons(), "a new activation starts from an empty list")
	assert.Equal(t, PhaseLoading, secondView.Phase())
}

func TestListTemplate(t *testing.T) {
	tests := []struct {
		name   string
		lists  [][]model.Daemon
		enter  bool
		expect string
	}{
		{
			name:   "loading",
			expect: "Loading daemons...\n",
		},
		{
			name:   "empty",
			lists:  [][]model.Daemon{{}},
			enter:  true,
			expect: "No daemons configured.\n",
		},
		{
			name:  "populated",
			lists: [][]model.Daemon{{{ID: 20, Name: "Das_1", Enabled: true, Status: "Degraded"}}},
			enter: true,
			expect: "ID     NAME                     ENABLED  STATUS\n" +
				"20     Das_1                    yes      Degraded\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := router.New()
			require.NoError(t, Register(r, &fakeBackend{lists: tt.lists}))
			inst, err := r.Activate(StateName)
			require.NoError(t, err)
			if tt.enter {
				require.NoError(t, inst.Enter(context.Background()))
			}

			var buf bytes.Buffer
			require.NoError(t, inst.Render(&buf))
			assert.Equal(t, tt.expect, buf.String())
		})
	}
}

func TestParseTemplate(t *testing.T) {
	v := New(&fakeBackend{lists: [][]model.Daemon{seeded}})
	require.NoError(t, v.RefreshDaemonList(context.Background()))

	tmpl, err := ParseTemplate("{{range .Daemons}}{{.Name}}={{enabled .Enabled}};{{end}}")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, v))
	assert.Equal(t, "Das_1=yes;Das_2=no;Das_3=yes;", buf.String())

	_, err = ParseTemplate("{{range}")
	assert.Error(t, err)
}
