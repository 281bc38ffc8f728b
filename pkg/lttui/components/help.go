package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/txn2/linkterm/pkg/lttui/styles"
)

// HelpModel displays keyboard shortcuts
type HelpModel struct {
	visible bool
	width   int
	height  int
}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Update handles messages for the help modal
func (m *HelpModel) Update(msg tea.Msg) (HelpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if m.visible {
			switch msg.String() {
			case "?", "q", "esc":
				m.visible = false
			}
		}
	}
	return *m, nil
}

// Toggle toggles the help visibility
func (m *HelpModel) Toggle() {
	m.visible = !m.visible
}

// IsVisible returns whether help is visible
func (m *HelpModel) IsVisible() bool {
	return m.visible
}

var helpItems = []struct {
	key  string
	desc string
}{
	{"Tabs", ""},
	{"1 / 2 / 3", "Remote / Relay / Drone"},
	{"Tab", "Next node"},
	{"", ""},
	{"Logs", ""},
	{"j / ↓", "Scroll down"},
	{"k / ↑", "Scroll up"},
	{"g / G", "Top / follow newest"},
	{"PgDn / PgUp", "Half page down/up"},
	{"", ""},
	{"Commands", ""},
	{"i", "Type a command"},
	{"Enter", "Send command"},
	{"Esc", "Discard command"},
	{"p", "Send Ping"},
	{"h", "Sent message history"},
	{"", ""},
	{"Syntax", ""},
	{"Ping", ""},
	{"SetArm(true)", ""},
	{"SetThrust(0.5)", ""},
	{"SetTarget([0 0 1])", ""},
	{"SetTune(kp: [1, 1, 1], ki: [0, 0, 0], kd: [0, 0, 0])", ""},
	{"", ""},
	{"?", "Toggle help"},
	{"q / Esc", "Quit"},
}

// View renders the help modal
func (m *HelpModel) View() string {
	if !m.visible {
		return ""
	}

	var lines []string
	section := ""
	for _, item := range helpItems {
		switch {
		case item.key == "" && item.desc == "":
			lines = append(lines, "")
		case item.desc == "" && section == "Syntax":
			lines = append(lines, "  "+styles.HelpDescStyle.Render(item.key))
		case item.desc == "":
			section = item.key
			lines = append(lines, styles.HelpTitleStyle.Render(item.key))
		default:
			lines = append(lines, styles.HelpKeyStyle.Render(item.key)+styles.HelpDescStyle.Render(item.desc))
		}
	}

	return center(styles.HelpModalStyle.Render(strings.Join(lines, "\n")), m.width, m.height)
}
