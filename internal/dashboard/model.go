package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/serialmon/internal/errors"
	"github.com/rileyhilliard/serialmon/internal/session"
)

// Controller is the part of a session the dashboard drives.
type Controller interface {
	Snapshot() session.Snapshot
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ClearAll()
	Subscribe() (<-chan struct{}, func())
}

// Options configures the dashboard.
type Options struct {
	Version string
	// Interval is the idle refresh period; changes redraw immediately.
	Interval time.Duration
	// AutoConnect connects as soon as the program starts.
	AutoConnect bool
}

// DefaultInterval is used when Options.Interval is zero.
const DefaultInterval = 250 * time.Millisecond

// Layout reservations, in lines.
const (
	headerHeight = 3
	footerHeight = 1
	// A widget card is its header, two content lines and its footer.
	widgetRowHeight = 4
	minLogHeight    = 3
)

type action int

const (
	actionConnect action = iota
	actionDisconnect
)

func (a action) String() string {
	if a == actionConnect {
		return "connect"
	}
	return "disconnect"
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// changeMsg signals that the session changed.
type changeMsg struct{}

// closedMsg signals that the session was disposed.
type closedMsg struct{}

// actionResultMsg carries the outcome of a connect or disconnect.
type actionResultMsg struct {
	action action
	err    error
}

// Model is the Bubble Tea model for the serial monitor dashboard.
type Model struct {
	ctrl    Controller
	version string

	changes   <-chan struct{}
	unsub     func()
	interval  time.Duration
	autoStart bool

	snap       session.Snapshot
	lastUpdate time.Time

	logs          viewport.Model
	viewportReady bool
	width         int
	height        int

	busy     bool
	notice   string
	follow   bool
	showHelp bool
	quitting bool
	closed   bool
}

// NewModel subscribes to ctrl and takes an initial snapshot. Call Close once
// the program has exited.
func NewModel(ctrl Controller, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	changes, unsub := ctrl.Subscribe()

	m := Model{
		ctrl:      ctrl,
		version:   opts.Version,
		changes:   changes,
		unsub:     unsub,
		interval:  opts.Interval,
		autoStart: opts.AutoConnect,
		follow:    true,
		logs:      viewport.New(80, minLogHeight),
	}
	m.refresh()
	return m
}

// Close releases the session subscription.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Init starts the tick timer and waits for the first change.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd(), waitForChange(m.changes)}
	if m.autoStart {
		cmds = append(cmds, m.actionCmd(actionConnect))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		var vpCmd tea.Cmd
		m.logs, vpCmd = m.logs.Update(msg)
		m.follow = m.logs.AtTop()
		return m, vpCmd

	case tea.MouseMsg:
		var vpCmd tea.Cmd
		m.logs, vpCmd = m.logs.Update(msg)
		m.follow = m.logs.AtTop()
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.viewportReady = true
		m.setLogContent()

	case tickMsg:
		m.refresh()
		return m, m.tickCmd()

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case closedMsg:
		m.closed = true
		m.refresh()

	case actionResultMsg:
		m.busy = false
		if msg.err != nil && !errors.IsAbort(msg.err) {
			m.notice = msg.action.String() + ": " + errors.Summarize(msg.err)
		}
		m.refresh()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// tickCmd returns a command that sends a tick after the refresh interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks on the subscription. The signal channel coalesces,
// so at most one change is ever pending.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return closedMsg{}
		}
		return changeMsg{}
	}
}

// actionCmd runs a lifecycle command off the UI goroutine.
func (m Model) actionCmd(a action) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if a == actionConnect {
			err = ctrl.Connect(ctx)
		} else {
			err = ctrl.Disconnect(ctx)
		}
		return actionResultMsg{action: a, err: err}
	}
}

// refresh pulls a fresh snapshot and rebuilds the log pane.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	m.lastUpdate = time.Now()
	m.resize()
	m.setLogContent()
}

func (m *Model) setLogContent() {
	m.logs.SetContent(renderLogLines(m.snap.Logs, m.logs.Width))
	if m.follow {
		m.logs.GotoTop()
	}
}

// resize fits the log pane into whatever the header, widgets and footer leave.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	rows := m.widgetRows()
	// Section header and footer around the log pane take two lines.
	h := m.height - headerHeight - footerHeight - rows*widgetRowHeight - 2
	if h < minLogHeight {
		h = minLogHeight
	}
	m.logs.Width = m.width - 4
	m.logs.Height = h
}

// Snapshot returns the snapshot currently on screen.
func (m Model) Snapshot() session.Snapshot { return m.snap }

// Busy reports whether a connect or disconnect is in flight.
func (m Model) Busy() bool { return m.busy }

// Notice is the last command error shown in the header.
func (m Model) Notice() string { return m.notice }
