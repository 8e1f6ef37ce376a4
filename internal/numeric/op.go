package numeric

import "strings"

// Op is a calculator operation. The set is closed; Engine dispatches on it
// with a single switch.
type Op int

const (
	OpNone Op = iota

	// Binary operations.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpPercentOf
	OpNthRoot

	// Unary (extended) operations.
	OpSquare
	OpCube
	OpNthPower
	OpSquareRoot
	OpCubeRoot
	OpReciprocalSqrt
	OpReciprocal
	OpNaturalLog
	OpLog10
	OpFactorial
	OpSin
	OpCos
	OpTan
	OpPi
	OpEuler
)

var opNames = [...]string{
	OpNone:           "none",
	OpAdd:            "add",
	OpSub:            "sub",
	OpMul:            "mul",
	OpDiv:            "div",
	OpMod:            "mod",
	OpPow:            "pow",
	OpPercentOf:      "percent",
	OpNthRoot:        "root",
	OpSquare:         "sqr",
	OpCube:           "cube",
	OpNthPower:       "npow",
	OpSquareRoot:     "sqrt",
	OpCubeRoot:       "cbrt",
	OpReciprocalSqrt: "rsqrt",
	OpReciprocal:     "recip",
	OpNaturalLog:     "ln",
	OpLog10:          "log",
	OpFactorial:      "fact",
	OpSin:            "sin",
	OpCos:            "cos",
	OpTan:            "tan",
	OpPi:             "pi",
	OpEuler:          "euler",
}

// String returns the short name of the operation.
func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "unknown"
	}
	return opNames[op]
}

// Binary reports whether op takes two operands. OpNthPower and OpNthRoot are
// keypad keys whose second operand is typed after them, so both are binary.
func (op Op) Binary() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow, OpPercentOf, OpNthRoot, OpNthPower:
		return true
	}
	return false
}

// Unary reports whether op is applied to a single operand.
func (op Op) Unary() bool {
	return op >= OpSquare && op <= OpEuler && op != OpNthPower
}

// Constant reports whether op ignores its operand.
func (op Op) Constant() bool {
	return op == OpPi || op == OpEuler
}

// OperatorSymbol maps an expression operator character to its operation.
func OperatorSymbol(r rune) (Op, bool) {
	switch r {
	case '+':
		return OpAdd, true
	case '-':
		return OpSub, true
	case '*':
		return OpMul, true
	case '/':
		return OpDiv, true
	case '%':
		return OpPercentOf, true
	case '^':
		return OpPow, true
	case 'm':
		return OpMod, true
	case '√':
		return OpNthRoot, true
	}
	return OpNone, false
}

// Symbol returns the character used for a binary operation in expression
// text, or 0 when the operation has none.
func (op Op) Symbol() rune {
	switch op {
	case OpAdd:
		return '+'
	case OpSub:
		return '-'
	case OpMul:
		return '*'
	case OpDiv:
		return '/'
	case OpPercentOf:
		return '%'
	case OpPow, OpNthPower:
		return '^'
	case OpMod:
		return 'm'
	case OpNthRoot:
		return '√'
	}
	return 0
}

// FunctionPrefix maps an expression function name (sin, cos, tan, ln, log)
// to its operation.
func FunctionPrefix(name string) (Op, bool) {
	switch name {
	case "sin":
		return OpSin, true
	case "cos":
		return OpCos, true
	case "tan":
		return OpTan, true
	case "ln":
		return OpNaturalLog, true
	case "log":
		return OpLog10, true
	}
	return OpNone, false
}

// ParseUnary resolves a function name as used on the command line.
// Both the short names and a few long aliases are accepted.
func ParseUnary(name string) (Op, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "square":
		return OpSquare, true
	case "cbroot", "cuberoot":
		return OpCubeRoot, true
	case "factorial", "!":
		return OpFactorial, true
	case "gamma", "γ":
		return OpEuler, true
	case "π":
		return OpPi, true
	case "reciprocal", "inv":
		return OpReciprocal, true
	}
	for op := OpSquare; op <= OpEuler; op++ {
		if op.Unary() && opNames[op] == name {
			return op, true
		}
	}
	return OpNone, false
}
