// Package lttui is the interactive terminal front end. One bubbletea program
// owns the session: keystrokes, log channel changes, delivery results and
// shutdown all arrive as messages on its loop.
package lttui

import (
	"context"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltlogger"
	"github.com/txn2/linkterm/pkg/ltsession"
	"github.com/txn2/linkterm/pkg/lttui/components"
	"github.com/txn2/linkterm/pkg/lttui/styles"
)

// Options configures the terminal front end
type Options struct {
	Session *ltsession.Session
	Version string
	// Theme is "dark", "light" or "auto"
	Theme string
	// InputTTY reads keys from the controlling terminal, for when stdin
	// carries a node's log stream
	InputTTY bool
}

// Manager manages the TUI lifecycle
type Manager struct {
	program  *tea.Program
	model    *RootModel
	opts     Options
	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	stopOnce sync.Once
	doneChan chan struct{}
}

// New creates a TUI manager for a session
func New(opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	m.model = NewRootModel(ctx, opts.Session, opts.Version, m.stopChan)
	return m
}

// Run starts the TUI application and blocks until the operator quits or Stop
// is called. Console logging is routed into the Remote tab while it runs.
func (m *Manager) Run() error {
	defer close(m.doneChan)
	defer m.cancel()

	if os.Getenv("TERM") == "" {
		_ = os.Setenv("TERM", "xterm-256color")
	}
	styles.SetDarkTheme(styles.DetectDark(m.opts.Theme, os.Stdout))

	restore := ltlogger.Quiet()
	defer restore()

	logger := log.StandardLogger()
	hooks := make(log.LevelHooks)
	for level, hs := range logger.Hooks {
		hooks[level] = append(hooks[level], hs...)
	}
	logger.AddHook(ltlogger.NewChannelHook(m.opts.Session.Logs().Channel(ltlog.Remote)))
	defer logger.ReplaceHooks(hooks)

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(m.ctx)}
	if m.opts.InputTTY {
		opts = append(opts, tea.WithInputTTY())
	}
	m.program = tea.NewProgram(m.model, opts...)

	_, err := m.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	m.opts.Session.Close()
	return err
}

// Stop asks the TUI to shut down. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Done returns a channel that closes when Run has returned
func (m *Manager) Done() <-chan struct{} {
	return m.doneChan
}

// RootModel is the main bubbletea model
type RootModel struct {
	header    components.HeaderModel
	logs      components.LogsModel
	input     components.InputModel
	statusBar components.StatusBarModel
	help      components.HelpModel
	history   components.HistoryModel

	session *ltsession.Session
	ctx     context.Context
	stopCh  <-chan struct{}

	width    int
	height   int
	quitting bool
}

// NewRootModel creates the model for a session
func NewRootModel(ctx context.Context, session *ltsession.Session, version string, stopCh <-chan struct{}) *RootModel {
	m := &RootModel{
		header:    components.NewHeaderModel(version),
		logs:      components.NewLogsModel(),
		input:     components.NewInputModel(),
		statusBar: components.NewStatusBarModel(),
		help:      components.NewHelpModel(),
		history:   components.NewHistoryModel(),
		session:   session,
		ctx:       ctx,
		stopCh:    stopCh,
	}
	m.refresh()
	return m
}

// Init starts one change listener per node and the shutdown listener
func (m *RootModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(ltlog.Nodes)+1)
	for _, n := range ltlog.Nodes {
		cmds = append(cmds, m.listen(n))
	}
	cmds = append(cmds, ListenShutdown(m.stopCh))
	return tea.Batch(cmds...)
}

func (m *RootModel) listen(n ltlog.Node) tea.Cmd {
	return ListenChanges(n, m.session.Logs().Channel(n).Changed(), m.stopCh)
}

// Update handles messages
func (m *RootModel) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	// a panic must not leave the terminal in raw mode
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("TUI Update panic recovered: %v", r)
			model = m
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSizeMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case LogChangedMsg:
		if msg.Node == m.session.Machine().Tab() {
			m.refresh()
		}
		return m, m.listen(msg.Node)
	case DeliveredMsg:
		m.session.Complete(msg.Delivery, msg.Err)
		if m.history.IsVisible() {
			m.history.SetEntries(m.session.History().List(0))
		}
		m.refresh()
	case ShutdownMsg:
		m.quitting = true
		m.session.Close()
		return m, tea.Quit
	}

	return m, nil
}

func (m *RootModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.header.SetWidth(msg.Width)
	m.input.SetWidth(msg.Width)
	m.statusBar.SetWidth(msg.Width)
	m.help, _ = m.help.Update(msg)
	m.history.SetSize(msg.Width, msg.Height)
	m.refresh()
}

func (m *RootModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// overlays take every key except Ctrl+C
	if msg.Type != tea.KeyCtrlC {
		if m.help.IsVisible() {
			m.help, _ = m.help.Update(msg)
			return m, nil
		}
		if m.history.IsVisible() {
			var cmd tea.Cmd
			m.history, cmd = m.history.Update(msg)
			return m, cmd
		}
	}

	var (
		cmds    []tea.Cmd
		handled = true
	)
	for _, k := range TranslateKey(msg) {
		out, d := m.session.HandleKey(k)
		if d != nil {
			cmds = append(cmds, Deliver(m.ctx, m.session, d))
		}
		if out.Quit {
			m.quitting = true
			if len(cmds) == 0 {
				return m, tea.Quit
			}
			// pending deliveries complete before the program exits
			return m, tea.Sequence(tea.Batch(cmds...), tea.Quit)
		}
		handled = handled && out.Handled
	}

	if !handled {
		m.handleFrontEndKey(msg)
	}
	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleFrontEndKey routes keys the session leaves to the front end
func (m *RootModel) handleFrontEndKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "?":
		m.help.Toggle()
	case "h":
		m.history.Show(m.session.History().List(0))
	default:
		m.logs.HandleKey(msg)
	}
}

// refresh pulls the session view into the components
func (m *RootModel) refresh() {
	v := m.session.View()
	m.header.SetState(v.State.Tab, v.State.Mode)
	m.input.SetState(v.State)

	logsHeight := m.height - 1 - m.input.Height() - 1
	if logsHeight < 1 {
		logsHeight = 1
	}
	if logsHeight != m.logs.Height() || m.width != m.logs.Width() {
		m.logs.SetSize(m.width, logsHeight)
	}
	m.logs.SetLines(v.State.Tab, v.Lines)

	capacity := m.session.Logs().Channel(v.State.Tab).Cap()
	m.statusBar.Update(v, capacity, m.logs.Following())
}

// View renders the UI
func (m *RootModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	if m.help.IsVisible() {
		return m.help.View()
	}
	if m.history.IsVisible() {
		return m.history.View()
	}

	logs := lipgloss.NewStyle().Height(m.logs.Height()).Render(m.logs.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		logs,
		m.input.View(),
		m.statusBar.View(),
	)
}
