package ltlang

import "fmt"

// ErrorKind classifies a ParseError
type ErrorKind int

const (
	// LexError is an unrecognized character sequence
	LexError ErrorKind = iota
	// SyntaxError is a wrong token, wrong arity, unknown message name or a
	// duplicate/missing named field
	SyntaxError
	// TypeError is a value of the wrong kind, e.g. bool where a number is
	// expected
	TypeError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case SyntaxError:
		return "syntax error"
	case TypeError:
		return "type error"
	default:
		return "error"
	}
}

// ParseError reports the first problem found in operator input
type ParseError struct {
	Kind     ErrorKind
	Offset   int
	Expected string
	Found    string
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s at %d: %s", e.Kind, e.Offset, e.Msg)
	}
	if e.Found == "" {
		return fmt.Sprintf("%s at %d: expected %s", e.Kind, e.Offset, e.Expected)
	}
	return fmt.Sprintf("%s at %d: expected %s, found %s", e.Kind, e.Offset, e.Expected, e.Found)
}
