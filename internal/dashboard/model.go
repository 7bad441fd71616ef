package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultInterval is the refresh interval used when none is configured.
const DefaultInterval = 2 * time.Second

// Options configures the dashboard.
type Options struct {
	// Interval between refreshes.
	Interval time.Duration

	// Duration ends the dashboard after this long. Zero runs until exit input.
	Duration time.Duration

	// Changes triggers an immediate refresh, typically from a Watcher.
	Changes <-chan struct{}

	// Controller handles start and stop keys. Nil disables them.
	Controller Controller

	// StopTimeout is passed to Controller.Stop.
	StopTimeout time.Duration

	// Now replaces time.Now in tests.
	Now func() time.Time
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultInterval
	}
	return o.Interval
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

type (
	tickMsg     time.Time
	changeMsg   struct{}
	deadlineMsg struct{}

	snapshotMsg struct {
		snap Snapshot
		err  error
	}

	actionMsg struct {
		verb string
		name string
		err  error
	}
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx     context.Context
	source  Source
	opts    Options
	table   table.Model
	help    help.Model
	keys    keyMap
	width   int
	current Snapshot

	refreshes   int
	lastRefresh time.Time
	err         error
	quitting    bool

	// actionErr and notice hold the outcome of the last start or stop.
	// Only the next action replaces them.
	actionErr error
	notice    string
}

var columns = []table.Column{
	{Title: "NAME", Width: 20},
	{Title: "BACKEND", Width: 8},
	{Title: "STATUS", Width: 13},
	{Title: "UPTIME", Width: 10},
	{Title: "RESTARTS", Width: 8},
	{Title: "PROBE", Width: 6},
	{Title: "INSTANCE", Width: 8},
}

// NewModel creates a dashboard model reading from src.
func NewModel(ctx context.Context, src Source, opts Options) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		ctx:    ctx,
		source: src,
		opts:   opts,
		table:  t,
		help:   help.New(),
		keys:   keys,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refresh(), m.tick(), m.waitForChange()}
	if m.opts.Duration > 0 {
		cmds = append(cmds, tea.Tick(m.opts.Duration, func(time.Time) tea.Msg { return deadlineMsg{} }))
	}
	return tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.opts.interval())
		defer cancel()
		snap, err := m.source.Snapshot(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	ch := m.opts.Changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changeMsg{}
	}
}

func (m Model) action(verb string) tea.Cmd {
	if m.opts.Controller == nil {
		return nil
	}
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return nil
	}
	name := row[0]
	ctrl := m.opts.Controller
	timeout := m.opts.StopTimeout
	ctx := m.ctx
	return func() tea.Msg {
		var err error
		switch verb {
		case "start":
			err = ctrl.Start(ctx, name)
		case "stop":
			err = ctrl.Stop(ctx, name, timeout)
		}
		return actionMsg{verb: verb, name: name, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case changeMsg:
		return m, tea.Batch(m.refresh(), m.waitForChange())

	case deadlineMsg:
		m.quitting = true
		return m, tea.Quit

	case snapshotMsg:
		m.refreshes++
		m.lastRefresh = m.opts.now()
		m.err = msg.err
		if msg.err == nil {
			m.current = msg.snap
			m.table.SetRows(rows(msg.snap))
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.actionErr = fmt.Errorf("%s %s: %w", msg.verb, msg.name, msg.err)
			m.notice = ""
		} else {
			m.actionErr = nil
			m.notice = fmt.Sprintf("%s %s: ok", msg.verb, msg.name)
		}
		return m, m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()
		case key.Matches(msg, m.keys.Start):
			return m, m.action("start")
		case key.Matches(msg, m.keys.Stop):
			return m, m.action("stop")
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("conduit-console"))
	b.WriteString("\n\n")

	if len(m.current.Results) == 0 && m.refreshes > 0 {
		b.WriteString("No conduits found. Create one with: conduit-console create <name> --backend docker --image <image>\n")
	} else {
		b.WriteString(baseStyle.Render(m.table.View()))
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render(m.footer()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.actionErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.actionErr.Error()))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) footer() string {
	last := "never"
	if !m.lastRefresh.IsZero() {
		last = m.lastRefresh.Format("15:04:05")
	}
	return fmt.Sprintf("Refreshes: %d  Last refresh: %s  Interval: %s  Conduits: %d",
		m.refreshes, last, m.opts.interval(), len(m.current.Results))
}

// Refreshes returns the number of completed refreshes.
func (m Model) Refreshes() int {
	return m.refreshes
}

// LastRefresh returns the time of the latest refresh.
func (m Model) LastRefresh() time.Time {
	return m.lastRefresh
}

func rows(snap Snapshot) []table.Row {
	out := make([]table.Row, 0, len(snap.Results))
	for _, r := range snap.Results {
		out = append(out, table.Row{
			r.Conduit,
			string(r.Backend),
			formatStatus(r.Status),
			dash(r.Uptime),
			strconv.Itoa(r.RestartCount),
			dash(string(r.HealthProbe)),
			shortID(r.InstanceID),
		})
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return dash(id)
}
