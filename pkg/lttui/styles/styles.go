// Package styles holds the console palette. All styles are package variables
// rebuilt by SetDarkTheme.
package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// color returns a lipgloss.Color, choosing light or dark variant based on the
// current theme set by SetDarkTheme.
func color(light, dark string) lipgloss.Color {
	if isDark {
		return lipgloss.Color(dark)
	}
	return lipgloss.Color(light)
}

var isDark = true

// SetDarkTheme switches the color palette. Call this before the TUI starts.
func SetDarkTheme(dark bool) {
	isDark = dark
	applyTheme()
}

// IsDarkTheme returns the current theme setting.
func IsDarkTheme() bool {
	return isDark
}

// DetectDark resolves a theme name to a palette. "dark" and "light" are
// taken literally; anything else asks the terminal behind w for its
// background color.
func DetectDark(theme string, w io.Writer) bool {
	switch theme {
	case "dark":
		return true
	case "light":
		return false
	}
	return termenv.NewOutput(w).HasDarkBackground()
}

func applyTheme() {
	colorYellow := color("136", "226")
	colorBlue := color("27", "39")
	colorGreen := color("28", "42")
	colorRed := color("160", "196")
	colorOrange := color("166", "208")
	colorGray := color("243", "240")
	colorWhite := color("16", "255")
	colorFocused := color("62", "62")
	colorCyan := color("30", "51")
	colorSelectedBg := color("254", "237")
	colorTabActiveFg := color("255", "255")

	// header
	HeaderTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	HeaderVersionStyle = lipgloss.NewStyle().Foreground(colorWhite)
	HeaderHintStyle = lipgloss.NewStyle().Foreground(colorGray)
	TabActiveStyle = lipgloss.NewStyle().Foreground(colorTabActiveFg).Background(colorBlue).Bold(true).Padding(0, 1)
	TabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
	ModeBrowseStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	ModeInsertStyle = lipgloss.NewStyle().Foreground(colorOrange).Bold(true)

	// log levels
	LogErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	LogWarnStyle = lipgloss.NewStyle().Foreground(colorYellow)
	LogInfoStyle = lipgloss.NewStyle().Foreground(colorGreen)
	LogDebugStyle = lipgloss.NewStyle().Foreground(colorBlue)
	LogTraceStyle = lipgloss.NewStyle().Foreground(colorGray)
	LogTimestampStyle = lipgloss.NewStyle().Foreground(colorGray)
	LogTextStyle = lipgloss.NewStyle().Foreground(colorWhite)

	// command input, bordered by preview result
	InputEmptyStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorWhite).Padding(0, 1)
	InputValidStyle = InputEmptyStyle.BorderForeground(colorGreen)
	InputInvalidStyle = InputEmptyStyle.BorderForeground(colorRed)
	InputIdleStyle = InputEmptyStyle.BorderForeground(colorGray)
	InputCursorStyle = lipgloss.NewStyle().Reverse(true)
	InputErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	InputPreviewStyle = lipgloss.NewStyle().Foreground(colorGreen)
	InputHintStyle = lipgloss.NewStyle().Foreground(colorGray)

	// table
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	TableSelectedStyle = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorWhite)
	StatusSentStyle = lipgloss.NewStyle().Foreground(colorGreen)
	StatusFailedStyle = lipgloss.NewStyle().Foreground(colorRed)
	StatusPendingStyle = lipgloss.NewStyle().Foreground(colorGray)

	// status bar
	StatusBarStyle = lipgloss.NewStyle().Foreground(colorWhite)
	StatusBarErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	StatusBarHelpStyle = lipgloss.NewStyle().Foreground(colorGray)

	// help modal
	HelpModalStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFocused).Padding(1, 2)
	HelpTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow).MarginBottom(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(colorBlue).Width(14)
	HelpDescStyle = lipgloss.NewStyle().Foreground(colorWhite)

	SectionTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
}

var (
	// Header styles
	HeaderTitleStyle   lipgloss.Style
	HeaderVersionStyle lipgloss.Style
	HeaderHintStyle    lipgloss.Style
	TabActiveStyle     lipgloss.Style
	TabInactiveStyle   lipgloss.Style
	ModeBrowseStyle    lipgloss.Style
	ModeInsertStyle    lipgloss.Style

	// Log level styles
	LogErrorStyle     lipgloss.Style
	LogWarnStyle      lipgloss.Style
	LogInfoStyle      lipgloss.Style
	LogDebugStyle     lipgloss.Style
	LogTraceStyle     lipgloss.Style
	LogTimestampStyle lipgloss.Style
	LogTextStyle      lipgloss.Style

	// Input styles
	InputEmptyStyle   lipgloss.Style
	InputValidStyle   lipgloss.Style
	InputInvalidStyle lipgloss.Style
	InputIdleStyle    lipgloss.Style
	InputCursorStyle  lipgloss.Style
	InputErrorStyle   lipgloss.Style
	InputPreviewStyle lipgloss.Style
	InputHintStyle    lipgloss.Style

	// Table styles
	TableHeaderStyle   lipgloss.Style
	TableSelectedStyle lipgloss.Style
	StatusSentStyle    lipgloss.Style
	StatusFailedStyle  lipgloss.Style
	StatusPendingStyle lipgloss.Style

	// Status bar styles
	StatusBarStyle      lipgloss.Style
	StatusBarErrorStyle lipgloss.Style
	StatusBarHelpStyle  lipgloss.Style

	// Help modal styles
	HelpModalStyle lipgloss.Style
	HelpTitleStyle lipgloss.Style
	HelpKeyStyle   lipgloss.Style
	HelpDescStyle  lipgloss.Style

	SectionTitleStyle lipgloss.Style
)

func init() {
	applyTheme()
}
