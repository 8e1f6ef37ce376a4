package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gcmp/internal/numeric"
)

type tk struct {
	kind Kind
	text string
}

func kinds(toks []Token) []tk {
	out := make([]tk, len(toks))
	for i, t := range toks {
		out[i] = tk{t.Kind, t.Text}
	}
	return out
}

func TestScanner_Classification(t *testing.T) {
	tests := []struct {
		name string
		src  string
		base int
		want []tk
	}{
		{
			name: "simple binary",
			src:  "2 + 3",
			base: 10,
			want: []tk{{Digits, "2"}, {Operator, "+"}, {Digits, "3"}},
		},
		{
			name: "leading sign",
			src:  "-5 + 3",
			base: 10,
			want: []tk{{Sign, "-"}, {Digits, "5"}, {Operator, "+"}, {Digits, "3"}},
		},
		{
			name: "sign after operator",
			src:  "4 * -2",
			base: 10,
			want: []tk{{Digits, "4"}, {Operator, "*"}, {Sign, "-"}, {Digits, "2"}},
		},
		{
			name: "exponent numeral",
			src:  "1.5e-3",
			base: 10,
			want: []tk{{Digits, "1.5"}, {ExponentMarker, "e"}, {Sign, "-"}, {Digits, "3"}},
		},
		{
			name: "unsigned exponent",
			src:  "2e8",
			base: 10,
			want: []tk{{Digits, "2"}, {ExponentMarker, "e"}, {Digits, "8"}},
		},
		{
			name: "function prefixes",
			src:  "sin 90 + ln 2",
			base: 10,
			want: []tk{{Prefix, "sin"}, {Digits, "90"}, {Operator, "+"}, {Prefix, "ln"}, {Digits, "2"}},
		},
		{
			name: "log before ln",
			src:  "log100",
			base: 10,
			want: []tk{{Prefix, "log"}, {Digits, "100"}},
		},
		{
			name: "prefix then sign",
			src:  "cos -60",
			base: 10,
			want: []tk{{Prefix, "cos"}, {Sign, "-"}, {Digits, "60"}},
		},
		{
			name: "root and modulo",
			src:  "27 √ 3 m 4",
			base: 10,
			want: []tk{{Digits, "27"}, {Operator, "√"}, {Digits, "3"}, {Operator, "m"}, {Digits, "4"}},
		},
		{
			name: "hex digits",
			src:  "FF + 1A",
			base: 16,
			want: []tk{{Digits, "FF"}, {Operator, "+"}, {Digits, "1A"}},
		},
		{
			name: "letters outside base",
			src:  "FF",
			base: 10,
			want: []tk{{Other, "F"}, {Other, "F"}},
		},
		{
			name: "other code points",
			src:  "2 ! 3",
			base: 10,
			want: []tk{{Digits, "2"}, {Other, "!"}, {Digits, "3"}},
		},
		{
			name: "multiple spaces skipped",
			src:  "  7   /   2  ",
			base: 10,
			want: []tk{{Digits, "7"}, {Operator, "/"}, {Digits, "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(All(tt.src, tt.base)))
		})
	}
}

func TestScanner_OperatorOps(t *testing.T) {
	toks := All("1+2-3*4/5%6^7m8√9", 10)
	var ops []numeric.Op
	for _, tok := range toks {
		if tok.Kind == Operator {
			ops = append(ops, tok.Op)
		}
	}
	assert.Equal(t, []numeric.Op{
		numeric.OpAdd, numeric.OpSub, numeric.OpMul, numeric.OpDiv,
		numeric.OpPercentOf, numeric.OpPow, numeric.OpMod, numeric.OpNthRoot,
	}, ops)
}

func TestScanner_PrefixOps(t *testing.T) {
	for name, want := range map[string]numeric.Op{
		"sin": numeric.OpSin,
		"cos": numeric.OpCos,
		"tan": numeric.OpTan,
		"ln":  numeric.OpNaturalLog,
		"log": numeric.OpLog10,
	} {
		tok := New(name+" 1", 10).Next()
		require.Equal(t, Prefix, tok.Kind, name)
		assert.Equal(t, want, tok.Op, name)
	}
}

func TestScanner_Positions(t *testing.T) {
	s := New("√ 27", 10)

	tok := s.Next()
	assert.Equal(t, Operator, tok.Kind)
	assert.Equal(t, 0, tok.Pos)
	assert.Equal(t, 1, tok.End, "positions count code points, not bytes")

	tok = s.Next()
	assert.Equal(t, 2, tok.Pos)
	assert.Equal(t, 4, tok.End)
	assert.Equal(t, 4, s.Pos())

	tok = s.Next()
	assert.Equal(t, EOF, tok.Kind)
	assert.Equal(t, EOF, s.Next().Kind, "EOF repeats")
}

func TestScanner_Peek(t *testing.T) {
	s := New("-1 - 2", 10)

	peeked := s.Peek()
	assert.Equal(t, Sign, peeked.Kind)
	assert.Equal(t, 0, s.Pos(), "peek does not advance")

	assert.Equal(t, peeked, s.Next())
	assert.Equal(t, Digits, s.Next().Kind)

	// After an operand, '-' is an operator whether peeked or consumed.
	assert.Equal(t, Operator, s.Peek().Kind)
	assert.Equal(t, Operator, s.Next().Kind)
	assert.Equal(t, Digits, s.Next().Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ExponentMarker", ExponentMarker.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
