package guard

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/gcmp/internal/numeric"
)

// ActionKind is what the guard does to the buffer.
type ActionKind int

const (
	Keep ActionKind = iota
	DeleteLast
	DeleteLastN
)

func (k ActionKind) String() string {
	switch k {
	case Keep:
		return "keep"
	case DeleteLast:
		return "delete_last"
	case DeleteLastN:
		return "delete_last_n"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is the guard's verdict on a buffer. N is the number of trailing
// code points to remove: 0 for Keep, 1 for DeleteLast.
type Action struct {
	Kind ActionKind
	N    int
}

var (
	keep       = Action{Kind: Keep}
	deleteLast = Action{Kind: DeleteLast, N: 1}
)

func deleteLastN(n int) Action {
	return Action{Kind: DeleteLastN, N: n}
}

// Apply returns buffer with the action carried out.
func (a Action) Apply(buffer string) string {
	if a.N <= 0 {
		return buffer
	}
	r := []rune(buffer)
	if a.N >= len(r) {
		return ""
	}
	return string(r[:len(r)-a.N])
}

func (a Action) String() string {
	if a.Kind == DeleteLastN {
		return fmt.Sprintf("%s(%d)", a.Kind, a.N)
	}
	return a.Kind.String()
}

// State is what a rule inspects.
type State struct {
	Buffer   string
	Runes    []rune
	Inserted rune
	Base     int
}

func (s State) last() rune {
	if len(s.Runes) == 0 {
		return 0
	}
	return s.Runes[len(s.Runes)-1]
}

// tail returns the last n runes, or nil when the buffer is shorter.
func (s State) tail(n int) []rune {
	if len(s.Runes) < n {
		return nil
	}
	return s.Runes[len(s.Runes)-n:]
}

// Rule is one predicate-plus-action pair.
type Rule struct {
	Name   string
	Match  func(State) bool
	Action func(State) Action
}

// Guard applies the rules in order.
type Guard struct {
	base  int
	rules []Rule
}

// New returns a Guard for expressions in base. Digit letters valid in base
// are not treated as stray letters.
func New(base int) *Guard {
	return &Guard{base: base, rules: DefaultRules()}
}

// Rules returns the rules in evaluation order.
func (g *Guard) Rules() []Rule {
	return g.rules
}

// Accept returns the action for buffer, which already contains inserted.
func (g *Guard) Accept(buffer string, inserted rune) Action {
	a, _ := g.Check(buffer, inserted)
	return a
}

// Check is Accept that also names the rule that decided. The name is
// "default" when no rule matched.
func (g *Guard) Check(buffer string, inserted rune) (Action, string) {
	st := State{Buffer: buffer, Runes: []rune(buffer), Inserted: inserted, Base: g.base}
	for _, r := range g.rules {
		if r.Match(st) {
			return r.Action(st), r.Name
		}
	}
	return keep, "default"
}

// Rule names.
const (
	RuleTerminal         = "terminal"
	RuleFunctionName     = "function_name"
	RuleLoneNonDigit     = "lone_non_digit"
	RuleStrayLetter      = "stray_letter"
	RuleDoubleOperator   = "double_operator"
	RuleSpecialSymbol    = "special_symbol"
	RuleDoubleExponent   = "double_exponent"
	RuleDanglingExponent = "dangling_exponent"
	RuleSpacing          = "spacing"
)

// functionPartials are the prefixes of function names that may end the
// buffer while a name is being typed.
var functionPartials = []string{
	"sin ", "cos ", "tan ", "log ", "ln ",
	"sin", "cos", "tan", "log",
	"si", "co", "ta", "lo", "ln",
	"s", "c", "t", "l",
}

const (
	operators = "+-*/%^√m"
	specials  = "~!@#$&()_="
)

// DefaultRules returns the correction rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: RuleTerminal,
			Match: func(s State) bool {
				return strings.HasSuffix(s.Buffer, "nan") || strings.HasSuffix(s.Buffer, "inf")
			},
			Action: always(keep),
		},
		{
			Name:   RuleFunctionName,
			Match:  typingFunctionName,
			Action: always(keep),
		},
		{
			Name: RuleLoneNonDigit,
			Match: func(s State) bool {
				return len(s.Runes) == 1 && !numeric.IsDigit(s.Runes[0], s.Base)
			},
			Action: always(deleteLast),
		},
		{
			Name: RuleStrayLetter,
			Match: func(s State) bool {
				r := s.last()
				return unicode.IsLetter(r) && r != 'm' && !numeric.IsDigit(r, s.Base)
			},
			Action: always(deleteLast),
		},
		{
			Name:   RuleDoubleOperator,
			Match:  doubledOperator,
			Action: always(deleteLast),
		},
		{
			Name: RuleSpecialSymbol,
			Match: func(s State) bool {
				return strings.ContainsRune(specials, s.last())
			},
			Action: always(deleteLast),
		},
		{
			Name: RuleDoubleExponent,
			Match: func(s State) bool {
				return doubledExponent(s) > 0
			},
			Action: func(s State) Action {
				return deleteLastN(doubledExponent(s))
			},
		},
		{
			Name: RuleDanglingExponent,
			Match: func(s State) bool {
				return strings.HasPrefix(s.Buffer, "e+") || strings.HasPrefix(s.Buffer, "e-")
			},
			Action: always(deleteLast),
		},
		{
			Name: RuleSpacing,
			Match: func(s State) bool {
				if s.Buffer == " " {
					return true
				}
				for _, bad := range []string{"  ", "..", " .", ". "} {
					if strings.HasSuffix(s.Buffer, bad) {
						return true
					}
				}
				return false
			},
			Action: always(deleteLast),
		},
	}
}

func always(a Action) func(State) Action {
	return func(State) Action { return a }
}

// typingFunctionName reports whether the buffer ends part-way through a
// function name. The partial name must start the buffer or follow a
// character that is not a lower-case letter, and the buffer must not end
// in a doubled letter.
func typingFunctionName(s State) bool {
	for _, d := range []string{"ss", "cc", "tt", "ll"} {
		if strings.HasSuffix(s.Buffer, d) {
			return false
		}
	}
	for _, p := range functionPartials {
		if !strings.HasSuffix(s.Buffer, p) {
			continue
		}
		before := s.Runes[:len(s.Runes)-len(p)]
		if len(before) == 0 {
			return true
		}
		prev := before[len(before)-1]
		if !unicode.IsLower(prev) {
			return true
		}
	}
	return false
}

func isOperator(r rune) bool {
	return strings.ContainsRune(operators, r)
}

// doubledOperator matches two operators in a row, adjacent or separated by
// a single space.
func doubledOperator(s State) bool {
	if t := s.tail(2); t != nil && isOperator(t[0]) && isOperator(t[1]) {
		return true
	}
	if t := s.tail(3); t != nil && isOperator(t[0]) && t[1] == ' ' && isOperator(t[2]) {
		return true
	}
	return false
}

// doubledExponent returns the number of trailing runes that form a second
// exponent marker (including a separating space), or 0.
func doubledExponent(s State) int {
	isMarker := func(r []rune) bool {
		return r[0] == 'e' && (r[1] == '+' || r[1] == '-')
	}
	if t := s.tail(4); t != nil && isMarker(t[:2]) && isMarker(t[2:]) {
		return 2
	}
	if t := s.tail(5); t != nil && isMarker(t[:2]) && t[2] == ' ' && isMarker(t[3:]) {
		return 3
	}
	return 0
}
