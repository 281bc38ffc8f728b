// Package ltsession implements the operator session: the modal state
// machine that switches between browsing node logs and authoring a command,
// and the delivery of committed commands to the drone link.
package ltsession

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/txn2/linkterm/pkg/ltlang"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

// Mode is the session's top-level state
type Mode int

const (
	Browsing Mode = iota
	Authoring
	Terminated
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "BROWSE"
	case Authoring:
		return "INSERT"
	case Terminated:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Outcome is what a key press did
type Outcome struct {
	// Handled is false for keys the machine does not own in the current
	// mode; the caller may route them elsewhere (scrolling, overlays).
	Handled bool
	// Send is the message to deliver, set on a successful commit or the
	// ping shortcut.
	Send ltmsg.Message
	// Committed is the operator text that produced Send, empty for shortcuts
	Committed string
	// ParseErr is set when a commit was rejected
	ParseErr *ltlang.ParseError
	// Quit is set when the key ended the session
	Quit bool
}

// State is a read-only copy of the machine for rendering
type State struct {
	Mode     Mode
	Tab      ltlog.Node
	Buffer   string
	Cursor   int
	ParseErr *ltlang.ParseError
	// Preview is the live parse of Buffer; at most one of Preview and
	// PreviewErr is set, neither when Buffer is blank.
	Preview    ltmsg.Message
	PreviewErr error
}

// Machine is the session state machine. It is not safe for concurrent use;
// the console loop owns it.
type Machine struct {
	mode       Mode
	tab        ltlog.Node
	buf        []rune
	cursor     int
	parseErr   *ltlang.ParseError
	preview    ltmsg.Message
	previewErr error
}

// NewMachine returns a machine browsing the Remote tab
func NewMachine() *Machine {
	return &Machine{mode: Browsing, tab: ltlog.Remote}
}

// Mode returns the current mode
func (m *Machine) Mode() Mode { return m.mode }

// Tab returns the active tab
func (m *Machine) Tab() ltlog.Node { return m.tab }

// State returns a copy of the machine state
func (m *Machine) State() State {
	return State{
		Mode:       m.mode,
		Tab:        m.tab,
		Buffer:     string(m.buf),
		Cursor:     m.cursor,
		ParseErr:   m.parseErr,
		Preview:    m.preview,
		PreviewErr: m.previewErr,
	}
}

// Terminate ends the session from any state
func (m *Machine) Terminate() {
	m.mode = Terminated
	m.resetBuffer()
}

// Handle applies one key press
func (m *Machine) Handle(k Key) Outcome {
	if k.Type == KeyInterrupt {
		m.Terminate()
		return Outcome{Handled: true, Quit: true}
	}

	switch m.mode {
	case Browsing:
		return m.browse(k)
	case Authoring:
		return m.author(k)
	default:
		return Outcome{Handled: true}
	}
}

func (m *Machine) browse(k Key) Outcome {
	switch k.Type {
	case KeyEsc:
		m.Terminate()
		return Outcome{Handled: true, Quit: true}
	case KeyTab:
		m.tab = m.tab.Next()
		return Outcome{Handled: true}
	case KeyRune:
	default:
		return Outcome{}
	}

	switch k.Rune {
	case '1':
		m.tab = ltlog.Remote
	case '2':
		m.tab = ltlog.Relay
	case '3':
		m.tab = ltlog.Drone
	case 'i':
		m.mode = Authoring
		m.resetBuffer()
	case 'q':
		m.Terminate()
		return Outcome{Handled: true, Quit: true}
	case 'p':
		return Outcome{Handled: true, Send: ltmsg.Ping{}}
	default:
		return Outcome{}
	}
	return Outcome{Handled: true}
}

func (m *Machine) author(k Key) Outcome {
	switch k.Type {
	case KeyRune:
		if !unicode.IsPrint(k.Rune) {
			return Outcome{Handled: true}
		}
		m.buf = append(m.buf, 0)
		copy(m.buf[m.cursor+1:], m.buf[m.cursor:])
		m.buf[m.cursor] = k.Rune
		m.cursor++
	case KeyBackspace:
		if m.cursor == 0 {
			return Outcome{Handled: true}
		}
		m.buf = append(m.buf[:m.cursor-1], m.buf[m.cursor:]...)
		m.cursor--
	case KeyDelete:
		if m.cursor == len(m.buf) {
			return Outcome{Handled: true}
		}
		m.buf = append(m.buf[:m.cursor], m.buf[m.cursor+1:]...)
	case KeyLeft:
		if m.cursor > 0 {
			m.cursor--
		}
		return Outcome{Handled: true}
	case KeyRight:
		if m.cursor < len(m.buf) {
			m.cursor++
		}
		return Outcome{Handled: true}
	case KeyHome:
		m.cursor = 0
		return Outcome{Handled: true}
	case KeyEnd:
		m.cursor = len(m.buf)
		return Outcome{Handled: true}
	case KeyEsc:
		m.mode = Browsing
		m.resetBuffer()
		return Outcome{Handled: true}
	case KeyEnter:
		return m.commit()
	default:
		return Outcome{Handled: true}
	}

	m.parseErr = nil
	m.refreshPreview()
	return Outcome{Handled: true}
}

func (m *Machine) commit() Outcome {
	text := string(m.buf)
	if strings.TrimSpace(text) == "" {
		m.mode = Browsing
		m.resetBuffer()
		return Outcome{Handled: true}
	}

	msg, err := ltlang.ParseString(text)
	if err != nil {
		var pe *ltlang.ParseError
		if !errors.As(err, &pe) {
			pe = &ltlang.ParseError{Kind: ltlang.SyntaxError, Msg: err.Error()}
		}
		m.parseErr = pe
		return Outcome{Handled: true, ParseErr: pe}
	}

	m.mode = Browsing
	m.resetBuffer()
	return Outcome{Handled: true, Send: msg, Committed: text}
}

func (m *Machine) refreshPreview() {
	m.preview, m.previewErr = nil, nil
	text := string(m.buf)
	if strings.TrimSpace(text) == "" {
		return
	}
	m.preview, m.previewErr = ltlang.ParseString(text)
}

func (m *Machine) resetBuffer() {
	m.buf = nil
	m.cursor = 0
	m.parseErr = nil
	m.preview = nil
	m.previewErr = nil
}
