package lttui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/txn2/linkterm/pkg/ltsession"
)

var keyTypes = map[tea.KeyType]ltsession.KeyType{
	tea.KeyEnter:     ltsession.KeyEnter,
	tea.KeyEsc:       ltsession.KeyEsc,
	tea.KeyBackspace: ltsession.KeyBackspace,
	tea.KeyDelete:    ltsession.KeyDelete,
	tea.KeyLeft:      ltsession.KeyLeft,
	tea.KeyRight:     ltsession.KeyRight,
	tea.KeyHome:      ltsession.KeyHome,
	tea.KeyEnd:       ltsession.KeyEnd,
	tea.KeyTab:       ltsession.KeyTab,
	tea.KeyCtrlC:     ltsession.KeyInterrupt,
}

// TranslateKey converts a terminal key press into session keys. Pasted text
// arrives as one message and becomes one key per rune.
func TranslateKey(msg tea.KeyMsg) []ltsession.Key {
	switch {
	case msg.Type == tea.KeyRunes && !msg.Alt:
		return ltsession.Runes(string(msg.Runes))
	case msg.Type == tea.KeySpace:
		return []ltsession.Key{ltsession.Rune(' ')}
	}
	if t, ok := keyTypes[msg.Type]; ok {
		return []ltsession.Key{{Type: t}}
	}
	return []ltsession.Key{{Type: ltsession.KeyOther}}
}
