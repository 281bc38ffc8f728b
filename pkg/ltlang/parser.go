package ltlang

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/txn2/linkterm/pkg/ltmsg"
)

const endOfInput = "end of input"

// ParseString tokenizes and parses one command. Errors are always
// *ParseError.
func ParseString(text string) (ltmsg.Message, error) {
	toks, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	p := parser{toks: toks, eof: len(text)}
	return p.message()
}

// Parse parses a token sequence produced by Tokenize. Premature end of input
// is reported at the end offset of the last token.
func Parse(toks []Token) (ltmsg.Message, error) {
	eof := 0
	if len(toks) > 0 {
		eof = toks[len(toks)-1].End
	}
	p := parser{toks: toks, eof: eof}
	return p.message()
}

type parser struct {
	toks []Token
	pos  int
	eof  int
}

func (p *parser) peek() (Token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return Token{}, false
}

func (p *parser) advance() { p.pos++ }

func (p *parser) unexpected(kind ErrorKind, expected string) *ParseError {
	tok, ok := p.peek()
	if !ok {
		return &ParseError{Kind: kind, Offset: p.eof, Expected: expected, Found: endOfInput}
	}
	return &ParseError{Kind: kind, Offset: tok.Offset, Expected: expected, Found: tok.String()}
}

func (p *parser) expect(tt TokenType) error {
	tok, ok := p.peek()
	if !ok || tok.Type != tt {
		return p.unexpected(SyntaxError, tt.String())
	}
	p.advance()
	return nil
}

func (p *parser) message() (ltmsg.Message, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenIdent {
		return nil, p.unexpected(SyntaxError, "message name")
	}
	kind, known := ltmsg.KindFromName(tok.Text)
	if !known {
		return nil, &ParseError{
			Kind:     SyntaxError,
			Offset:   tok.Offset,
			Expected: "message name",
			Found:    tok.String(),
			Msg:      fmt.Sprintf("unknown message %q", tok.Text),
		}
	}
	p.advance()

	var (
		msg ltmsg.Message
		err error
	)
	switch kind {
	case ltmsg.KindPing:
		msg, err = ltmsg.Ping{}, p.optionalUnit()
	case ltmsg.KindArmConfirm:
		msg, err = ltmsg.ArmConfirm{}, p.optionalUnit()
	case ltmsg.KindSetArm:
		msg, err = p.setArm()
	case ltmsg.KindSetThrust:
		msg, err = p.setThrust()
	case ltmsg.KindSetTarget:
		msg, err = p.setTarget()
	case ltmsg.KindSetTune:
		msg, err = p.setTune()
	}
	if err != nil {
		return nil, err
	}

	if _, more := p.peek(); more {
		return nil, p.unexpected(SyntaxError, endOfInput)
	}
	return msg, nil
}

// optionalUnit accepts nothing or "()"
func (p *parser) optionalUnit() error {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenLParen {
		return nil
	}
	p.advance()
	return p.expect(TokenRParen)
}

func (p *parser) setArm() (ltmsg.Message, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	armed, err := p.boolean()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return ltmsg.SetArm{Armed: armed}, nil
}

func (p *parser) setThrust() (ltmsg.Message, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	v, err := p.number()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return ltmsg.SetThrust{Value: v}, nil
}

func (p *parser) setTarget() (ltmsg.Message, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	xyz, err := p.array()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return ltmsg.SetTarget{XYZ: xyz}, nil
}

var tuneFields = []string{"kp", "ki", "kd"}

func (p *parser) setTune() (ltmsg.Message, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var tune ltmsg.SetTune
	seen := map[string]bool{}
	afterField := false
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, p.unexpected(SyntaxError, "field name or ')'")
		}
		switch tok.Type {
		case TokenRParen:
			var missing []string
			for _, f := range tuneFields {
				if !seen[f] {
					missing = append(missing, f)
				}
			}
			if len(missing) > 0 {
				return nil, &ParseError{
					Kind:     SyntaxError,
					Offset:   tok.Offset,
					Expected: "field " + missing[0],
					Found:    tok.String(),
					Msg:      "missing field " + strings.Join(missing, ", "),
				}
			}
			p.advance()
			return tune, nil
		case TokenComma:
			if !afterField {
				return nil, p.unexpected(SyntaxError, "field name")
			}
			afterField = false
			p.advance()
		case TokenIdent:
			var dst *[3]float32
			switch tok.Text {
			case "kp":
				dst = &tune.Kp
			case "ki":
				dst = &tune.Ki
			case "kd":
				dst = &tune.Kd
			default:
				return nil, &ParseError{
					Kind:     SyntaxError,
					Offset:   tok.Offset,
					Expected: "kp, ki or kd",
					Found:    tok.String(),
					Msg:      fmt.Sprintf("unknown field %q", tok.Text),
				}
			}
			if seen[tok.Text] {
				return nil, &ParseError{
					Kind:     SyntaxError,
					Offset:   tok.Offset,
					Expected: "kp, ki or kd",
					Found:    tok.String(),
					Msg:      fmt.Sprintf("duplicate field %q", tok.Text),
				}
			}
			seen[tok.Text] = true
			p.advance()

			if next, ok := p.peek(); ok && next.Type == TokenColon {
				p.advance()
			}
			v, err := p.array()
			if err != nil {
				return nil, err
			}
			*dst = v
			afterField = true
		default:
			return nil, p.unexpected(SyntaxError, "field name or ')'")
		}
	}
}

// array parses "[n n n]". Elements are separated by a comma, whitespace or
// both; a single trailing comma is allowed.
func (p *parser) array() ([3]float32, error) {
	var out [3]float32
	if err := p.expect(TokenLBracket); err != nil {
		return out, err
	}

	n := 0
	comma := false
	prevEnd := 0
	for {
		tok, ok := p.peek()
		if !ok {
			if n < len(out) {
				return out, p.unexpected(SyntaxError, "number")
			}
			return out, p.unexpected(SyntaxError, "']'")
		}
		switch tok.Type {
		case TokenRBracket:
			if n < len(out) {
				return out, &ParseError{
					Kind:     SyntaxError,
					Offset:   tok.Offset,
					Expected: "number",
					Found:    tok.String(),
					Msg:      fmt.Sprintf("expected %d elements, found %d", len(out), n),
				}
			}
			p.advance()
			return out, nil
		case TokenComma:
			if n == 0 || comma {
				return out, p.unexpected(SyntaxError, "number")
			}
			comma = true
			p.advance()
		case TokenNumber:
			if n == len(out) {
				return out, &ParseError{
					Kind:     SyntaxError,
					Offset:   tok.Offset,
					Expected: "']'",
					Found:    tok.String(),
					Msg:      fmt.Sprintf("too many elements, expected %d", len(out)),
				}
			}
			if n > 0 && !comma && prevEnd == tok.Offset {
				return out, p.unexpected(SyntaxError, "',' or whitespace")
			}
			v, err := p.number()
			if err != nil {
				return out, err
			}
			out[n] = v
			n++
			comma = false
			prevEnd = tok.End
		case TokenBool:
			return out, p.unexpected(TypeError, "number")
		default:
			return out, p.unexpected(SyntaxError, "number or ']'")
		}
	}
}

func (p *parser) number() (float32, error) {
	tok, ok := p.peek()
	if !ok {
		return 0, p.unexpected(SyntaxError, "number")
	}
	switch tok.Type {
	case TokenNumber:
	case TokenBool:
		return 0, p.unexpected(TypeError, "number")
	default:
		return 0, p.unexpected(SyntaxError, "number")
	}
	// round once, from the text, at float32 precision
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 32)
	if err != nil || math.IsInf(v, 0) {
		return 0, &ParseError{
			Kind:     TypeError,
			Offset:   tok.Offset,
			Expected: "32-bit float",
			Found:    tok.String(),
			Msg:      fmt.Sprintf("number %s overflows a 32-bit float", tok.Text),
		}
	}
	p.advance()
	return float32(v), nil
}

func (p *parser) boolean() (bool, error) {
	tok, ok := p.peek()
	if !ok {
		return false, p.unexpected(SyntaxError, "bool")
	}
	switch tok.Type {
	case TokenBool:
		p.advance()
		return tok.Bool, nil
	case TokenNumber:
		return false, p.unexpected(TypeError, "bool")
	default:
		return false, p.unexpected(SyntaxError, "bool")
	}
}
