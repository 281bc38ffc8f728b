package ltlang

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tokenize splits operator text into tokens. Spaces and tabs separate tokens
// and are otherwise dropped; the offsets on each token keep enough
// information for the parser to know where whitespace was.
func Tokenize(text string) ([]Token, error) {
	lx := lexer{src: text}
	var toks []Token
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.src) {
			return toks, nil
		}
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
}

var punctuation = map[byte]TokenType{
	'[': TokenLBracket,
	']': TokenRBracket,
	',': TokenComma,
	':': TokenColon,
	'(': TokenLParen,
	')': TokenRParen,
}

type lexer struct {
	src string
	pos int
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) && (lx.src[lx.pos] == ' ' || lx.src[lx.pos] == '\t') {
		lx.pos++
	}
}

func (lx *lexer) peekAt(i int) byte {
	if i < len(lx.src) {
		return lx.src[i]
	}
	return 0
}

func (lx *lexer) next() (Token, error) {
	start := lx.pos
	c := lx.src[start]

	if tt, ok := punctuation[c]; ok {
		lx.pos++
		return Token{Type: tt, Offset: start, End: lx.pos, Text: string(c)}, nil
	}

	switch {
	case isDigit(c) || c == '-' || c == '.':
		return lx.number()
	case isIdentStart(c):
		for lx.pos < len(lx.src) && isIdentChar(lx.src[lx.pos]) {
			lx.pos++
		}
		word := lx.src[start:lx.pos]
		tok := Token{Type: TokenIdent, Offset: start, End: lx.pos, Text: word}
		switch word {
		case "true", "false":
			tok.Type = TokenBool
			tok.Bool = word == "true"
		}
		return tok, nil
	}

	return Token{}, &ParseError{
		Kind:   LexError,
		Offset: start,
		Msg:    fmt.Sprintf("unexpected character %q", lx.runeAt(start)),
	}
}

// number scans -?(digits(.digits?)?|.digits). '_' separates digits anywhere
// after the first integer digit and anywhere in the fraction, as long as the
// number holds at least one digit.
func (lx *lexer) number() (Token, error) {
	start := lx.pos
	if lx.src[lx.pos] == '-' {
		lx.pos++
	}
	intDigits := lx.digits(false)
	fracDigits := 0
	if lx.peekAt(lx.pos) == '.' {
		lx.pos++
		fracDigits = lx.digits(true)
	}
	if intDigits == 0 && fracDigits == 0 {
		return Token{}, &ParseError{
			Kind:   LexError,
			Offset: start,
			Msg:    fmt.Sprintf("malformed number %q", lx.src[start:lx.pos]),
		}
	}
	if isIdentStart(lx.peekAt(lx.pos)) || lx.peekAt(lx.pos) == '.' {
		return Token{}, &ParseError{
			Kind:   LexError,
			Offset: lx.pos,
			Msg:    fmt.Sprintf("unexpected character %q after number", lx.runeAt(lx.pos)),
		}
	}

	text := lx.src[start:lx.pos]
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	// out of range values come back as +-Inf and are rejected by the parser
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Token{}, &ParseError{
			Kind:   LexError,
			Offset: start,
			Msg:    fmt.Sprintf("malformed number %q", text),
		}
	}
	return Token{Type: TokenNumber, Offset: start, End: lx.pos, Text: text, Num: v}, nil
}

// digits consumes a digit run and returns how many digits it held. A
// leading '_' is only part of the run when leadingSep is set.
func (lx *lexer) digits(leadingSep bool) int {
	n := 0
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if isDigit(c) {
			n++
		} else if c != '_' || (n == 0 && !leadingSep) {
			break
		}
		lx.pos++
	}
	return n
}

func (lx *lexer) runeAt(i int) rune {
	for _, r := range lx.src[i:] {
		return r
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
