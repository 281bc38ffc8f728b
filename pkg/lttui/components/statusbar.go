package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/txn2/linkterm/pkg/lttui/styles"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// StatusBarModel displays the last delivery and the link state
type StatusBarModel struct {
	lastSent *ltsession.Entry
	sendErr  *ltsession.SendError
	lines    int
	capacity int
	follow   bool
	width    int
}

// NewStatusBarModel creates a new status bar model
func NewStatusBarModel() StatusBarModel {
	return StatusBarModel{follow: true}
}

// Update refreshes the displayed values
func (m *StatusBarModel) Update(v ltsession.View, capacity int, follow bool) {
	m.lastSent = v.LastSent
	m.sendErr = v.SendErr
	m.lines = len(v.Lines)
	m.capacity = capacity
	m.follow = follow
}

// SetWidth updates the status bar width
func (m *StatusBarModel) SetWidth(width int) {
	m.width = width
}

// View renders the status bar
func (m *StatusBarModel) View() string {
	lines := fmt.Sprintf("Lines: %d/%d", m.lines, m.capacity)
	if !m.follow {
		lines += " (scrolled)"
	}

	var last string
	switch {
	case m.sendErr != nil:
		last = styles.StatusBarErrorStyle.Render(m.sendErr.Error())
	case m.lastSent != nil:
		last = fmt.Sprintf("Sent: %s (%s)", m.lastSent.Text, m.lastSent.Duration().Round(100*time.Microsecond))
	default:
		last = "Sent: -"
	}

	help := styles.StatusBarHelpStyle.Render("? help  h history  q quit")
	left := fmt.Sprintf(" %s | %s", lines, last)

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(help) - 2
	if padding < 1 {
		padding = 1
	}
	spacer := lipgloss.NewStyle().Width(padding).Render("")

	return styles.StatusBarStyle.Render(left + spacer + help + " ")
}
