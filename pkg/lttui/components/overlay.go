package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// center places a rendered block in the middle of a width x height area
func center(block string, width, height int) string {
	horizontal := (width - lipgloss.Width(block)) / 2
	vertical := (height - lipgloss.Height(block)) / 2
	if horizontal < 0 {
		horizontal = 0
	}
	if vertical < 0 {
		vertical = 0
	}

	var sb strings.Builder
	for range vertical {
		sb.WriteString("\n")
	}
	leftPad := strings.Repeat(" ", horizontal)
	for _, line := range strings.Split(block, "\n") {
		sb.WriteString(leftPad + line + "\n")
	}
	return sb.String()
}
