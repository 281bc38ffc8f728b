package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/txn2/linkterm/pkg/lttui/styles"
	"github.com/txn2/linkterm/pkg/ltsession"
)

const (
	colKeyTime    = "time"
	colKeyMessage = "message"
	colKeyStatus  = "status"
	colKeyLatency = "latency"
	colKeyError   = "error"
)

// HistoryModel lists sent messages, most recent first
type HistoryModel struct {
	table   table.Model
	entries []ltsession.Entry
	visible bool
	width   int
	height  int
}

// NewHistoryModel creates a new history model
func NewHistoryModel() HistoryModel {
	columns := []table.Column{
		table.NewColumn(colKeyTime, "Time", 10),
		table.NewFlexColumn(colKeyMessage, "Message", 3),
		table.NewColumn(colKeyStatus, "Status", 9),
		table.NewColumn(colKeyLatency, "Latency", 10),
		table.NewFlexColumn(colKeyError, "Error", 2),
	}

	return HistoryModel{
		table: table.New(columns).
			WithBaseStyle(lipgloss.NewStyle().Padding(0, 1)).
			BorderRounded().
			HeaderStyle(styles.TableHeaderStyle).
			HighlightStyle(styles.TableSelectedStyle).
			Focused(true).
			WithPageSize(10).
			WithFooterVisibility(false),
	}
}

// Show opens the overlay with the given entries
func (m *HistoryModel) Show(entries []ltsession.Entry) {
	m.visible = true
	m.SetEntries(entries)
}

// Hide closes the overlay
func (m *HistoryModel) Hide() {
	m.visible = false
}

// IsVisible returns whether the overlay is open
func (m *HistoryModel) IsVisible() bool {
	return m.visible
}

// Entries returns the displayed entries
func (m *HistoryModel) Entries() []ltsession.Entry {
	return m.entries
}

// SetEntries replaces the table rows
func (m *HistoryModel) SetEntries(entries []ltsession.Entry) {
	m.entries = entries
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		latency := "-"
		if e.Status != ltsession.StatusPending {
			latency = e.Duration().Round(100 * time.Microsecond).String()
		}
		rows = append(rows, table.NewRow(table.RowData{
			colKeyTime:    e.Queued.Format("15:04:05"),
			colKeyMessage: e.Text,
			colKeyStatus:  table.NewStyledCell(string(e.Status), statusStyle(e.Status)),
			colKeyLatency: latency,
			colKeyError:   e.Error,
		}))
	}
	m.table = m.table.WithRows(rows)
}

func statusStyle(s ltsession.Status) lipgloss.Style {
	switch s {
	case ltsession.StatusSent:
		return styles.StatusSentStyle
	case ltsession.StatusFailed:
		return styles.StatusFailedStyle
	default:
		return styles.StatusPendingStyle
	}
}

// SetSize updates the overlay dimensions
func (m *HistoryModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table = m.table.WithTargetWidth(width - 4)
	// border (2) + header (1) + separator (1) + title (2)
	pageSize := height - 6
	if pageSize < 1 {
		pageSize = 1
	}
	m.table = m.table.WithPageSize(pageSize)
}

// Update handles navigation and closing
func (m *HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	if !m.visible {
		return *m, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "h", "q", "esc":
			m.visible = false
			return *m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return *m, cmd
}

// View renders the overlay
func (m *HistoryModel) View() string {
	if !m.visible {
		return ""
	}
	title := styles.SectionTitleStyle.Render(fmt.Sprintf(" Sent messages (%d)", len(m.entries)))
	return lipgloss.JoinVertical(lipgloss.Left, title, "", m.table.View())
}
