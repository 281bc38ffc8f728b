package components

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/txn2/linkterm/pkg/ltlang"
	"github.com/txn2/linkterm/pkg/lttui/styles"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// InputModel renders the command line. The border is green while the buffer
// parses, red while it does not and white when it is empty.
type InputModel struct {
	state ltsession.State
	width int
}

// NewInputModel creates a new input model
func NewInputModel() InputModel {
	return InputModel{}
}

// SetState updates the rendered session state
func (m *InputModel) SetState(st ltsession.State) {
	m.state = st
}

// SetWidth updates the input width
func (m *InputModel) SetWidth(width int) {
	m.width = width
}

// Height returns the number of rows View produces
func (m *InputModel) Height() int {
	return lipgloss.Height(m.View())
}

// BorderStyle returns the box style for the current buffer
func (m *InputModel) BorderStyle() lipgloss.Style {
	st := m.state
	switch {
	case st.Mode != ltsession.Authoring:
		return styles.InputIdleStyle
	case st.ParseErr != nil, st.PreviewErr != nil:
		return styles.InputInvalidStyle
	case st.Preview != nil:
		return styles.InputValidStyle
	default:
		return styles.InputEmptyStyle
	}
}

// View renders the input box and the line under it
func (m *InputModel) View() string {
	st := m.state
	box := m.BorderStyle()
	if m.width > 4 {
		box = box.Width(m.width - 2)
	}

	if st.Mode != ltsession.Authoring {
		hint := styles.InputHintStyle.Render("i: type a command   p: ping   ?: help")
		return box.Render(hint)
	}

	body := box.Render("> " + renderBuffer(st.Buffer, st.Cursor))
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m *InputModel) statusLine() string {
	st := m.state
	switch {
	case st.ParseErr != nil:
		return caretLine(st.Buffer, st.ParseErr)
	case st.PreviewErr != nil:
		return styles.InputHintStyle.Render("  " + st.PreviewErr.Error())
	case st.Preview != nil:
		return styles.InputPreviewStyle.Render("  = " + st.Preview.String())
	default:
		return styles.InputHintStyle.Render("  Enter: send   Esc: cancel")
	}
}

// caretLine points at the failing offset. The box adds a border column, one
// column of padding and the "> " prompt before the buffer.
func caretLine(buffer string, pe *ltlang.ParseError) string {
	offset := pe.Offset
	if offset > len(buffer) {
		offset = len(buffer)
	}
	col := 4 + utf8.RuneCountInString(buffer[:offset])
	return styles.InputErrorStyle.Render(strings.Repeat(" ", col) + "^ " + pe.Error())
}

func renderBuffer(buffer string, cursor int) string {
	runes := []rune(buffer)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	under := " "
	rest := ""
	if cursor < len(runes) {
		under = string(runes[cursor])
		rest = string(runes[cursor+1:])
	}
	return string(runes[:cursor]) + styles.InputCursorStyle.Render(under) + rest
}
