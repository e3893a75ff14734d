// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/daemonview/internal/config"
	"github.com/jmylchreest/daemonview/internal/model"
	"github.com/jmylchreest/daemonview/internal/router"
	"github.com/jmylchreest/daemonview/internal/view"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeHelp
)

// ReloadStater looks up the outcome of a daemon's last reload.
type ReloadStater interface {
	ReloadState(ctx context.Context, name string) (model.DaemonReloadState, error)
}

// Model is the main TUI model.
type Model struct {
	// Configuration
	cfg    *config.Config
	ctx    context.Context
	router *router.Router
	states ReloadStater

	// Active page
	inst *router.Instance
	page *view.DaemonListView

	// Current mode
	mode Mode

	// Components
	table table.Model
	help  help.Model

	width  int
	height int
	ready  bool

	refreshing bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool
}

var tableColumns = []table.Column{
	{Title: "ID", Width: 6},
	{Title: "Name", Width: 28},
	{Title: "Enabled", Width: 8},
	{Title: "Status", Width: 20},
}

// New creates a new TUI model and activates the daemon list page on r.
// states may be nil, in which case the reload state key is disabled.
func New(ctx context.Context, cfg *config.Config, r *router.Router, states ReloadStater) (Model, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	inst, err := r.Activate(view.StateName)
	if err != nil {
		return Model{}, err
	}
	page, ok := view.Controller(inst)
	if !ok {
		r.Deactivate()
		return Model{}, fmt.Errorf("state %q is not a daemon list", view.StateName)
	}

	t := table.New(
		table.WithColumns(tableColumns),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12"))
	t.SetStyles(styles)

	keys := DefaultKeyMap()
	if states == nil {
		keys.ReloadState.SetEnabled(false)
	}

	return Model{
		cfg:        cfg,
		ctx:        ctx,
		router:     r,
		states:     states,
		inst:       inst,
		page:       page,
		mode:       ModeList,
		table:      t,
		help:       help.New(),
		keys:       keys,
		refreshing: true,
	}, nil
}

// Init runs the initial load of the page.
func (m Model) Init() tea.Cmd {
	return m.enterPage
}

type refreshedMsg struct {
	err error
}

// enterPage runs the page's activation hook off the update loop.
func (m Model) enterPage() tea.Msg {
	return refreshedMsg{err: m.inst.Enter(m.ctx)}
}

// refreshPage re-fetches the list off the update loop.
func (m Model) refreshPage() tea.Msg {
	return refreshedMsg{err: m.page.RefreshDaemonList(m.ctx)}
}

type reloadStateMsg struct {
	name  string
	state model.DaemonReloadState
	err   error
}

func (m Model) fetchReloadState(name string) tea.Cmd {
	states := m.states
	ctx := m.ctx
	return func() tea.Msg {
		state, err := states.ReloadState(ctx, name)
		return reloadStateMsg{name: name, state: state, err: err}
	}
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct {
	text string
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-4, 3))
		return m, nil

	case refreshedMsg:
		m.refreshing = false
		if errors.Is(msg.err, view.ErrInactive) {
			return m, nil
		}
		if msg.err != nil {
			return m, status("Refresh failed: "+msg.err.Error(), true)
		}
		m.table.SetRows(buildRows(m.page.Daemons()))
		return m, nil

	case reloadStateMsg:
		if msg.err != nil {
			return m, status("Reload state of "+msg.name+" failed: "+msg.err.Error(), true)
		}
		return m, status(describeReloadState(msg.name, msg.state), msg.state.ReloadState == model.ReloadFailed)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		text := msg.text
		return m, tea.Tick(m.cfg.TUI.StatusTimeout.Duration(), func(time.Time) tea.Msg {
			return clearStatusMsg{text: text}
		})

	case clearStatusMsg:
		// A newer message may have replaced the one this tick belongs to.
		if msg.text == m.statusMsg {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.router.Deactivate()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Reload):
		name, ok := m.selectedName()
		if !ok {
			return m, nil
		}
		m.page.ReloadPressed(name)
		return m, status("Reload requested for "+name, false)

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.refreshPage

	case key.Matches(msg, m.keys.ReloadState):
		name, ok := m.selectedName()
		if !ok {
			return m, nil
		}
		return m, m.fetchReloadState(name)

	case key.Matches(msg, m.keys.CopyName):
		name, ok := m.selectedName()
		if !ok {
			return m, nil
		}
		return m, copyName(name, m.cfg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selectedName returns the name of the highlighted row.
func (m Model) selectedName() (string, bool) {
	row := m.table.SelectedRow()
	if len(row) < 2 || row[1] == "" {
		return "", false
	}
	return row[1], true
}

// buildRows converts daemons to table rows in list order.
func buildRows(daemons []model.Daemon) []table.Row {
	rows := make([]table.Row, len(daemons))
	for i, d := range daemons {
		enabled := "no"
		if d.Enabled {
			enabled = "yes"
		}
		rows[i] = table.Row{
			strconv.FormatInt(d.ID, 10),
			d.Name,
			enabled,
			statusLabel(d.Status),
		}
	}
	return rows
}

// statusLabel prefixes known statuses with a marker; unknown ones are shown as is.
func statusLabel(s model.Status) string {
	switch s {
	case model.StatusRunning:
		return "● " + s.String()
	case model.StatusPartiallyRunning:
		return "◐ " + s.String()
	case model.StatusStopped:
		return "○ " + s.String()
	default:
		return s.String()
	}
}

func describeReloadState(name string, s model.DaemonReloadState) string {
	text := fmt.Sprintf("%s: %s", name, s.ReloadState)
	if at, ok := s.RequestedAt(); ok {
		text += ", requested " + humanize.Time(at)
	}
	if at, ok := s.AnsweredAt(); ok {
		text += ", answered " + humanize.Time(at)
	}
	return text
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeHelp:
		return m.viewHelp()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Daemons"))
	b.WriteString(dimStyle.Render(m.subtitle()))
	b.WriteString("\n")

	switch {
	case m.page.Loading():
		b.WriteString(dimStyle.Render("  Loading daemons..."))
		b.WriteString("\n")
	case len(m.table.Rows()) == 0:
		b.WriteString(dimStyle.Render("  No daemons configured."))
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		b.WriteString(statusStyle.Render(m.statusMsg))
	} else if m.cfg.TUI.ShowHelp {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

// subtitle describes the freshness of the list.
func (m Model) subtitle() string {
	if m.refreshing {
		return "refreshing..."
	}
	at := m.page.RefreshedAt()
	if at.IsZero() {
		return "not loaded"
	}
	return "refreshed " + humanize.Time(at)
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"
	s += m.help.FullHelpView(m.keys.FullHelp())
	s += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")
	return s
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config *config.Config
	Router *router.Router
	States ReloadStater
}

// Run starts the TUI with the given options.
func Run(ctx context.Context, opts RunOptions) error {
	m, err := New(ctx, opts.Config, opts.Router, opts.States)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	// Leave the page even when the program ended without the quit key.
	opts.Router.Deactivate()
	return err
}
