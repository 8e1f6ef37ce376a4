// Package scan tokenizes calculator expressions.
//
// The scanner is a single forward pass over the expression's code points.
// Each call to Next classifies the next position as a digit run, a sign, an
// exponent marker, an operator symbol, a function-name prefix, or a lone
// unrecognized code point. Runs of spaces between tokens are skipped.
//
// Whether '+' and '-' are signs or operators depends on position: they are
// signs wherever an operand is expected (at the start, after an operator,
// after a function prefix and after an exponent marker) and operators
// everywhere else.
package scan

import (
	"fmt"

	"github.com/roach88/gcmp/internal/numeric"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Digits
	Sign
	ExponentMarker
	Operator
	Prefix
	Other
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Digits:
		return "Digits"
	case Sign:
		return "Sign"
	case ExponentMarker:
		return "ExponentMarker"
	case Operator:
		return "Operator"
	case Prefix:
		return "Prefix"
	case Other:
		return "Other"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one classified span of the input. Pos and End are code-point
// offsets.
type Token struct {
	Kind Kind
	Text string
	Op   numeric.Op // Operator and Prefix tokens only
	Pos  int
	End  int
}

// prefixes in match order: three-letter names before "ln".
var prefixes = []string{"sin", "cos", "tan", "log", "ln"}

// Scanner walks an expression. The zero value is not usable; call New.
type Scanner struct {
	src  []rune
	pos  int
	base int
	last Kind // kind of the previous token, EOF before the first
}

// New returns a scanner over src. Digits are recognized in base.
func New(src string, base int) *Scanner {
	return &Scanner{src: []rune(src), base: base, last: EOF}
}

// Pos returns the current offset in code points.
func (s *Scanner) Pos() int {
	return s.pos
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() Token {
	saved := *s
	tok := s.Next()
	*s = saved
	return tok
}

// Next consumes and returns the next token.
func (s *Scanner) Next() Token {
	for s.pos < len(s.src) && s.src[s.pos] == ' ' {
		s.pos++
	}
	if s.pos >= len(s.src) {
		return Token{Kind: EOF, Pos: s.pos, End: s.pos}
	}

	start := s.pos
	r := s.src[s.pos]

	if (r == '+' || r == '-') && s.expectOperand() {
		s.pos++
		return s.emit(Sign, start, numeric.OpNone)
	}

	if r == '.' || numeric.IsDigit(r, s.base) {
		for s.pos < len(s.src) && (s.src[s.pos] == '.' || numeric.IsDigit(s.src[s.pos], s.base)) {
			s.pos++
		}
		return s.emit(Digits, start, numeric.OpNone)
	}

	if r == 'e' && s.last == Digits {
		s.pos++
		return s.emit(ExponentMarker, start, numeric.OpNone)
	}

	for _, name := range prefixes {
		if s.hasPrefix(name) {
			op, _ := numeric.FunctionPrefix(name)
			s.pos += len(name)
			return s.emit(Prefix, start, op)
		}
	}

	if op, ok := numeric.OperatorSymbol(r); ok {
		s.pos++
		return s.emit(Operator, start, op)
	}

	s.pos++
	return s.emit(Other, start, numeric.OpNone)
}

func (s *Scanner) expectOperand() bool {
	switch s.last {
	case EOF, Operator, Prefix, ExponentMarker:
		return true
	}
	return false
}

func (s *Scanner) hasPrefix(name string) bool {
	if s.pos+len(name) > len(s.src) {
		return false
	}
	for i, c := range name {
		if s.src[s.pos+i] != c {
			return false
		}
	}
	return true
}

func (s *Scanner) emit(kind Kind, start int, op numeric.Op) Token {
	s.last = kind
	return Token{Kind: kind, Text: string(s.src[start:s.pos]), Op: op, Pos: start, End: s.pos}
}

// All scans src to the end and returns every token before EOF.
func All(src string, base int) []Token {
	s := New(src, base)
	var toks []Token
	for {
		tok := s.Next()
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}
