package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/txn2/linkterm/pkg/lttui/styles"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// HeaderModel displays the title, the node tabs and the input mode
type HeaderModel struct {
	version string
	width   int
	tab     ltlog.Node
	mode    ltsession.Mode
}

// NewHeaderModel creates a new header model
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{version: version}
}

// Update handles messages for the header
func (m *HeaderModel) Update(msg tea.Msg) (HeaderModel, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
	}
	return *m, nil
}

// SetState updates the active tab and mode
func (m *HeaderModel) SetState(tab ltlog.Node, mode ltsession.Mode) {
	m.tab = tab
	m.mode = mode
}

// SetWidth updates the header width
func (m *HeaderModel) SetWidth(width int) {
	m.width = width
}

// View renders the header
func (m *HeaderModel) View() string {
	title := styles.HeaderTitleStyle.Render("linkterm")
	version := styles.HeaderVersionStyle.Render(" v" + m.version)

	tabs := make([]string, 0, len(ltlog.Nodes))
	for i, n := range ltlog.Nodes {
		label := fmt.Sprintf("%d %s", i+1, n.Title())
		if n == m.tab {
			tabs = append(tabs, styles.TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactiveStyle.Render(label))
		}
	}

	leftPart := fmt.Sprintf(" %s%s  %s", title, version, strings.Join(tabs, " "))

	modeStyle := styles.ModeBrowseStyle
	if m.mode == ltsession.Authoring {
		modeStyle = styles.ModeInsertStyle
	}
	rightPart := modeStyle.Render(m.mode.String())

	spacing := m.width - lipgloss.Width(leftPart) - lipgloss.Width(rightPart) - 1
	if spacing < 1 {
		spacing = 1
	}

	return leftPart + strings.Repeat(" ", spacing) + rightPart
}
