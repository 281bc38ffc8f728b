package ltsession

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txn2/linkterm/pkg/ltlang"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

func feed(m *Machine, keys ...Key) []Outcome {
	outs := make([]Outcome, len(keys))
	for i, k := range keys {
		outs[i] = m.Handle(k)
	}
	return outs
}

func sent(outs []Outcome) []ltmsg.Message {
	var msgs []ltmsg.Message
	for _, o := range outs {
		if o.Send != nil {
			msgs = append(msgs, o.Send)
		}
	}
	return msgs
}

func TestMachineInitialState(t *testing.T) {
	m := NewMachine()
	st := m.State()
	assert.Equal(t, Browsing, st.Mode)
	assert.Equal(t, ltlog.Remote, st.Tab)
	assert.Empty(t, st.Buffer)
}

func TestMachineTabSwitching(t *testing.T) {
	m := NewMachine()

	feed(m, Rune('3'))
	assert.Equal(t, ltlog.Drone, m.Tab())
	feed(m, Rune('2'))
	assert.Equal(t, ltlog.Relay, m.Tab())
	feed(m, Rune('1'))
	assert.Equal(t, ltlog.Remote, m.Tab())

	feed(m, Key{Type: KeyTab}, Key{Type: KeyTab})
	assert.Equal(t, ltlog.Drone, m.Tab())
	feed(m, Key{Type: KeyTab})
	assert.Equal(t, ltlog.Remote, m.Tab())
}

func TestMachineQuitKeys(t *testing.T) {
	for _, k := range []Key{Rune('q'), {Type: KeyEsc}, {Type: KeyInterrupt}} {
		m := NewMachine()
		out := m.Handle(k)
		assert.True(t, out.Quit)
		assert.Equal(t, Terminated, m.Mode())

		out = m.Handle(Rune('i'))
		assert.False(t, out.Quit)
		assert.Equal(t, Terminated, m.Mode())
	}
}

func TestMachineInterruptWhileAuthoring(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('i'), Rune('P'))
	out := m.Handle(Key{Type: KeyInterrupt})
	assert.True(t, out.Quit)
	assert.Equal(t, Terminated, m.Mode())
}

func TestMachineQInAuthoringIsLiteral(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('2'))

	outs := feed(m, Rune('i'), Rune('q'), Rune('q'), Rune('q'), Key{Type: KeyEsc})

	assert.Empty(t, sent(outs))
	for _, o := range outs {
		assert.False(t, o.Quit)
	}
	assert.Equal(t, Browsing, m.Mode())
	assert.Equal(t, ltlog.Relay, m.Tab())
	assert.Empty(t, m.State().Buffer)
}

func TestMachineCommitSends(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('3'), Rune('i'))
	outs := feed(m, Runes("SetArm(true)")...)
	assert.Empty(t, sent(outs))
	assert.Equal(t, "SetArm(true)", m.State().Buffer)

	out := m.Handle(Key{Type: KeyEnter})
	assert.Equal(t, ltmsg.SetArm{Armed: true}, out.Send)
	assert.Equal(t, "SetArm(true)", out.Committed)
	assert.Nil(t, out.ParseErr)

	st := m.State()
	assert.Equal(t, Browsing, st.Mode)
	assert.Equal(t, ltlog.Drone, st.Tab)
	assert.Empty(t, st.Buffer)
}

func TestMachineFailedCommitKeepsBuffer(t *testing.T) {
	tests := []struct {
		input  string
		kind   ltlang.ErrorKind
		offset int
	}{
		{"SetTarget([1 2])", ltlang.SyntaxError, 14},
		{"SetArm(5)", ltlang.TypeError, 7},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := NewMachine()
			feed(m, Rune('i'))
			feed(m, Runes(tt.input)...)

			out := m.Handle(Key{Type: KeyEnter})
			assert.Nil(t, out.Send)
			assert.False(t, out.Quit)
			require.NotNil(t, out.ParseErr)
			assert.Equal(t, tt.kind, out.ParseErr.Kind)
			assert.Equal(t, tt.offset, out.ParseErr.Offset)

			st := m.State()
			assert.Equal(t, Authoring, st.Mode)
			assert.Equal(t, tt.input, st.Buffer)
			assert.Equal(t, len(tt.input), st.Cursor)
			assert.Equal(t, out.ParseErr, st.ParseErr)

			// the next edit clears the error
			m.Handle(Key{Type: KeyBackspace})
			assert.Nil(t, m.State().ParseErr)
		})
	}
}

func TestMachineEmptyCommit(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('i'), Rune(' '), Rune('\t'))
	out := m.Handle(Key{Type: KeyEnter})
	assert.Nil(t, out.Send)
	assert.Nil(t, out.ParseErr)
	assert.Equal(t, Browsing, m.Mode())
}

func TestMachineLineEditing(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('i'))
	feed(m, Runes("Png")...)
	feed(m, Key{Type: KeyLeft}, Key{Type: KeyLeft}, Rune('i'))
	assert.Equal(t, "Ping", m.State().Buffer)
	assert.Equal(t, 2, m.State().Cursor)

	feed(m, Key{Type: KeyHome}, Key{Type: KeyDelete})
	assert.Equal(t, "ing", m.State().Buffer)
	feed(m, Rune('P'), Key{Type: KeyEnd}, Rune('X'), Key{Type: KeyBackspace})
	assert.Equal(t, "Ping", m.State().Buffer)
	assert.Equal(t, 4, m.State().Cursor)

	feed(m, Key{Type: KeyRight}, Key{Type: KeyDelete})
	assert.Equal(t, 4, m.State().Cursor)
	feed(m, Key{Type: KeyHome}, Key{Type: KeyBackspace}, Key{Type: KeyLeft})
	assert.Equal(t, 0, m.State().Cursor)
	assert.Equal(t, "Ping", m.State().Buffer)
}

func TestMachineAuthoringSwallowsNavigation(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('i'))

	for _, k := range []Key{{Type: KeyTab}, {Type: KeyOther}, Rune('\x01')} {
		out := m.Handle(k)
		assert.True(t, out.Handled)
	}
	feed(m, Rune('1'), Rune('3'))
	st := m.State()
	assert.Equal(t, ltlog.Remote, st.Tab)
	assert.Equal(t, "13", st.Buffer)
}

func TestMachineBrowsingReportsUnownedKeys(t *testing.T) {
	m := NewMachine()
	for _, k := range []Key{Rune('?'), Rune('h'), {Type: KeyOther}, {Type: KeyEnter}} {
		assert.False(t, m.Handle(k).Handled)
	}
	assert.Equal(t, Browsing, m.Mode())
}

func TestMachinePingShortcut(t *testing.T) {
	m := NewMachine()
	out := m.Handle(Rune('p'))
	assert.Equal(t, ltmsg.Ping{}, out.Send)
	assert.Empty(t, out.Committed)
	assert.Equal(t, Browsing, m.Mode())
}

func TestMachinePreview(t *testing.T) {
	m := NewMachine()
	feed(m, Rune('i'))
	feed(m, Runes("Ping")...)
	st := m.State()
	assert.Equal(t, ltmsg.Ping{}, st.Preview)
	assert.NoError(t, st.PreviewErr)

	feed(m, Rune('('))
	st = m.State()
	assert.Nil(t, st.Preview)
	assert.Error(t, st.PreviewErr)

	feed(m, Key{Type: KeyHome})
	for i := 0; i < 5; i++ {
		m.Handle(Key{Type: KeyDelete})
	}
	st = m.State()
	assert.Empty(t, st.Buffer)
	assert.Nil(t, st.Preview)
	assert.NoError(t, st.PreviewErr)
}
