// Package ltlang implements the operator command language: a lexer and a
// recursive-descent parser producing ltmsg.Message values.
//
// Grammar, with separators between array elements being a comma, whitespace
// or both:
//
//	Ping | Ping()
//	SetArm(bool)
//	ArmConfirm | ArmConfirm()
//	SetThrust(number)
//	SetTarget([number number number])
//	SetTune(kp: [...], ki: [...], kd: [...])   fields in any order, ':' and ',' optional
package ltlang

import (
	"fmt"
	"strconv"
)

// TokenType identifies the kind of a token
type TokenType int

const (
	TokenIdent TokenType = iota
	TokenNumber
	TokenBool
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenColon
	TokenLParen
	TokenRParen
)

// String returns a human readable token type, used in diagnostics
func (t TokenType) String() string {
	switch t {
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenBool:
		return "bool"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenComma:
		return "','"
	case TokenColon:
		return "':'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	default:
		return "unknown"
	}
}

// Token is one lexeme. Offset and End are byte offsets into the input, End
// exclusive.
type Token struct {
	Type   TokenType
	Offset int
	End    int
	Text   string
	Num    float64
	Bool   bool
}

// String describes the token for diagnostics, e.g. "number 5"
func (t Token) String() string {
	switch t.Type {
	case TokenIdent:
		return "identifier " + strconv.Quote(t.Text)
	case TokenNumber:
		return "number " + t.Text
	case TokenBool:
		return fmt.Sprintf("bool %t", t.Bool)
	default:
		return t.Type.String()
	}
}
