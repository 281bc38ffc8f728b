package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/txn2/linkterm/pkg/lttui/styles"
	"github.com/txn2/linkterm/pkg/ltlog"
)

// LogsModel displays the scrollable log of the active node. It follows new
// lines while scrolled to the bottom.
type LogsModel struct {
	viewport viewport.Model
	lines    []ltlog.Line
	node     ltlog.Node
	width    int
	height   int
	ready    bool
}

// NewLogsModel creates a new logs model
func NewLogsModel() LogsModel {
	return LogsModel{}
}

// SetSize updates the viewport dimensions
func (m *LogsModel) SetSize(width, height int) {
	follow := m.Following()
	m.width = width
	m.height = height
	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.viewport.Style = lipgloss.NewStyle()
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.updateContent(follow)
}

// SetLines replaces the displayed lines. Switching node jumps to the bottom.
func (m *LogsModel) SetLines(node ltlog.Node, lines []ltlog.Line) {
	follow := node != m.node || !m.ready || m.viewport.AtBottom()
	m.node = node
	m.lines = lines
	m.updateContent(follow)
}

// Width returns the viewport width
func (m *LogsModel) Width() int {
	return m.width
}

// Height returns the viewport height
func (m *LogsModel) Height() int {
	return m.height
}

// Lines returns the displayed lines
func (m *LogsModel) Lines() []ltlog.Line {
	return m.lines
}

// Following reports whether the view sticks to the newest line
func (m *LogsModel) Following() bool {
	return !m.ready || m.viewport.AtBottom()
}

// HandleKey scrolls the viewport. It reports false for keys it does not use.
func (m *LogsModel) HandleKey(msg tea.KeyMsg) bool {
	if !m.ready {
		return false
	}
	switch msg.String() {
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "g", "home":
		m.viewport.GotoTop()
	case "G", "end":
		m.viewport.GotoBottom()
	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
	default:
		return false
	}
	return true
}

func (m *LogsModel) updateContent(follow bool) {
	if !m.ready {
		return
	}

	var sb strings.Builder
	for i, line := range m.lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(formatLine(line))
	}
	m.viewport.SetContent(sb.String())

	if follow {
		m.viewport.GotoBottom()
	}
}

func formatLine(line ltlog.Line) string {
	timestamp := styles.LogTimestampStyle.Render(line.Time.Format("[15:04:05]"))
	return timestamp + " " + levelStyle(line.Level).Render(line.Text)
}

func levelStyle(level ltlog.Level) lipgloss.Style {
	switch level {
	case ltlog.LevelError:
		return styles.LogErrorStyle
	case ltlog.LevelWarn:
		return styles.LogWarnStyle
	case ltlog.LevelInfo:
		return styles.LogInfoStyle
	case ltlog.LevelDebug:
		return styles.LogDebugStyle
	case ltlog.LevelTrace:
		return styles.LogTraceStyle
	default:
		return styles.LogTextStyle
	}
}

// View renders the log viewport
func (m LogsModel) View() string {
	if !m.ready {
		return ""
	}
	if len(m.lines) == 0 {
		return styles.StatusBarHelpStyle.Render(" Waiting for " + m.node.Title() + " output...")
	}
	return m.viewport.View()
}
