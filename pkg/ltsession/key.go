package ltsession

// KeyType classifies a key press independent of the terminal library
type KeyType int

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyTab
	// KeyInterrupt is Ctrl+C
	KeyInterrupt
	// KeyOther is any key without a dedicated type (arrows, function keys)
	KeyOther
)

// Key is one key press. Rune is set for KeyRune only.
type Key struct {
	Type KeyType
	Rune rune
}

// Rune returns a printable key press
func Rune(r rune) Key { return Key{Type: KeyRune, Rune: r} }

// Runes returns one key press per character of s
func Runes(s string) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, Rune(r))
	}
	return keys
}
