package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/daemonview/internal/client"
	"github.com/jmylchreest/daemonview/internal/config"
	"github.com/jmylchreest/daemonview/internal/model"
	"github.com/jmylchreest/daemonview/internal/router"
	"github.com/jmylchreest/daemonview/internal/view"
)

// flakyBackend fails list requests while failList is set.
type flakyBackend struct {
	*client.Static
	failList bool
}

func (f *flakyBackend) ListDaemons(ctx context.Context) ([]model.Daemon, error) {
	if f.failList {
		return nil, &client.FetchError{Op: "list daemons", StatusCode: 500, Err: errors.New("unexpected status 500")}
	}
	return f.Static.ListDaemons(ctx)
}

func newTestModel(t *testing.T, backend view.Collaborator, states ReloadStater) (Model, *router.Router) {
	t.Helper()

	r := router.New()
	require.NoError(t, view.Register(r, backend, view.WithDispatcher(func(f func()) { f() })))

	m, err := New(context.Background(), config.DefaultConfig(), r, states)
	require.NoError(t, err)

	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30}), r
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	return update(t, m, m.Init()())
}

func TestModel_InitialLoad(t *testing.T) {
	m, r := newTestModel(t, client.NewStatic(client.DemoDaemons), nil)

	assert.NotNil(t, r.Active())
	assert.Contains(t, m.View(), "Loading daemons...")

	m = loaded(t, m)

	rows := m.table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, table.Row{"20", "Das_1", "yes", "◐ PartiallyRunning"}, rows[0])
	assert.Equal(t, table.Row{"21", "Das_2", "no", "● Running"}, rows[1])
	assert.Equal(t, table.Row{"22", "Das_3", "yes", "○ Stopped"}, rows[2])

	view := m.View()
	assert.Contains(t, view, "Das_1")
	assert.Contains(t, view, "refreshed")
}

func TestModel_EmptyList(t *testing.T) {
	m, _ := newTestModel(t, client.NewStatic(nil), nil)
	m = loaded(t, m)

	assert.Empty(t, m.table.Rows())
	assert.Contains(t, m.View(), "No daemons configured.")
}

func TestModel_RefreshFailureKeepsRows(t *testing.T) {
	backend := &flakyBackend{Static: client.NewStatic(client.DemoDaemons)}
	m, _ := newTestModel(t, backend, nil)
	m = loaded(t, m)
	require.Len(t, m.table.Rows(), 3)

	backend.failList = true
	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	assert.True(t, m.refreshing)

	next, statusCmd := m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.refreshing)
	assert.Len(t, m.table.Rows(), 3)

	require.NotNil(t, statusCmd)
	m = update(t, m, statusCmd())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "Refresh failed")
	assert.Contains(t, m.View(), "Das_1")
}

func TestModel_RefreshIgnoredWhileRefreshing(t *testing.T) {
	m, _ := newTestModel(t, client.NewStatic(client.DemoDaemons), nil)
	require.True(t, m.refreshing)

	_, cmd := press(t, m, "r")
	assert.Nil(t, cmd)
}

func TestModel_ReloadSelectedRow(t *testing.T) {
	backend := client.NewStatic(client.DemoDaemons)
	m, _ := newTestModel(t, backend, nil)
	m = loaded(t, m)

	m, _ = press(t, m, "down")
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)

	assert.Equal(t, []string{"Das_2"}, backend.Reloads())
	assert.Len(t, m.table.Rows(), 3)

	m = update(t, m, cmd())
	assert.Equal(t, "Reload requested for Das_2", m.statusMsg)
	assert.False(t, m.statusErr)
	assert.Contains(t, m.View(), "Reload requested for Das_2")
}

func TestModel_ReloadWithNoRows(t *testing.T) {
	backend := client.NewStatic(nil)
	m, _ := newTestModel(t, backend, nil)
	m = loaded(t, m)

	_, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Empty(t, backend.Reloads())
}

func TestModel_ReloadState(t *testing.T) {
	backend := client.NewStatic(client.DemoDaemons)
	m, _ := newTestModel(t, backend, backend)
	m = loaded(t, m)

	m, _ = press(t, m, "enter")

	m, cmd := press(t, m, "s")
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, reloadStateMsg{}, msg)

	next, statusCmd := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, statusCmd)
	m = update(t, m, statusCmd())
	assert.Equal(t, "Das_1: Success", m.statusMsg)
	assert.False(t, m.statusErr)
}

func TestModel_ReloadStateDisabledWithoutLookup(t *testing.T) {
	m, _ := newTestModel(t, client.NewStatic(client.DemoDaemons), nil)
	m = loaded(t, m)

	assert.False(t, m.keys.ReloadState.Enabled())
	_, cmd := press(t, m, "s")
	assert.Nil(t, cmd)
}

func TestModel_ClearStatus(t *testing.T) {
	m, _ := newTestModel(t, client.NewStatic(client.DemoDaemons), nil)

	m = update(t, m, statusMsg{text: "first"})
	m = update(t, m, statusMsg{text: "second", isErr: true})

	m = update(t, m, clearStatusMsg{text: "first"})
	assert.Equal(t, "second", m.statusMsg)

	m = update(t, m, clearStatusMsg{text: "second"})
	assert.Empty(t, m.statusMsg)
	assert.False(t, m.statusErr)
}

func TestModel_LateRefreshAfterQuit(t *testing.T) {
	m, r := newTestModel(t, client.NewStatic(client.DemoDaemons), nil)
	load := m.Init()

	m, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, r.Active())

	m = update(t, m, load())
	assert.Empty(t, m.table.Rows())
	assert.Empty(t, m.statusMsg)
}

func TestModel_HelpMode(t *testing.T) {
	m, _ := newTestModel(t, client.NewStatic(client.DemoDaemons), nil)

	m, _ = press(t, m, "?")
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(t, m, "esc")
	assert.Equal(t, ModeList, m.mode)
}

func TestModel_ViewBeforeReady(t *testing.T) {
	r := router.New()
	require.NoError(t, view.Register(r, client.NewStatic(nil)))
	m, err := New(context.Background(), nil, r, nil)
	require.NoError(t, err)

	assert.Equal(t, "Initializing...", m.View())
}

func TestNew_UnknownState(t *testing.T) {
	_, err := New(context.Background(), nil, router.New(), nil)
	assert.Error(t, err)
}

func TestStatusLabel_Unknown(t *testing.T) {
	assert.Equal(t, "Degraded", statusLabel(model.Status("Degraded")))
}

func TestDetectClipboardCommand_Configured(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Clipboard.Command = "cat"
	assert.Equal(t, "cat", detectClipboardCommand(cfg))
}
