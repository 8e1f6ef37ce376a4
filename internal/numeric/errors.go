package numeric

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes evaluation errors.
type ErrorCode string

const (
	// ErrCodeInvalidOperand indicates a malformed numeral or expression.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeDivideByZero indicates division, modulo or reciprocal of zero.
	ErrCodeDivideByZero ErrorCode = "DIVIDE_BY_ZERO"

	// ErrCodeInvalidRoot indicates a root index of zero or a non-integer index.
	ErrCodeInvalidRoot ErrorCode = "INVALID_ROOT"

	// ErrCodeDomainError indicates an operand outside the function's domain
	// or a result outside the representable range.
	ErrCodeDomainError ErrorCode = "DOMAIN_ERROR"

	// ErrCodePrecisionOutOfRange indicates a requested precision outside
	// 1..1000. Precision is clamped, so this code is only ever logged.
	ErrCodePrecisionOutOfRange ErrorCode = "PRECISION_OUT_OF_RANGE"
)

// EvalError is the error returned by the engine and the evaluator.
//
// EvalError never means the process is in a bad state. The session turns it
// into a terminal display string ("nan", "inf" or "-inf").
type EvalError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed, OpNone for syntax errors.
	Op Op

	// Operand is the offending operand text, if any.
	Operand string

	// Message is a human-readable description.
	Message string

	// Limit is the sign of the infinite limit of a DivideByZero error:
	// +1 or -1 when the result tends to a signed infinity, 0 when undefined
	// (0/0, modulo zero).
	Limit int
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	switch {
	case e.Op != OpNone && e.Operand != "":
		return fmt.Sprintf("%s: %s (op=%s, operand=%q)", e.Code, e.Message, e.Op, e.Operand)
	case e.Op != OpNone:
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	case e.Operand != "":
		return fmt.Sprintf("%s: %s (operand=%q)", e.Code, e.Message, e.Operand)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEvalError creates an EvalError.
func NewEvalError(code ErrorCode, op Op, operand, message string) *EvalError {
	return &EvalError{Code: code, Op: op, Operand: operand, Message: message}
}

// IsCode returns true if err is or wraps an EvalError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// CodeOf returns the code of the EvalError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func invalidOperand(op Op, operand, format string, args ...any) *EvalError {
	return NewEvalError(ErrCodeInvalidOperand, op, operand, fmt.Sprintf(format, args...))
}

func domainError(op Op, operand, format string, args ...any) *EvalError {
	return NewEvalError(ErrCodeDomainError, op, operand, fmt.Sprintf(format, args...))
}

func divideByZero(op Op, operand string, limit int) *EvalError {
	e := NewEvalError(ErrCodeDivideByZero, op, operand, "division by zero")
	e.Limit = limit
	return e
}

func invalidRoot(op Op, operand, format string, args ...any) *EvalError {
	return NewEvalError(ErrCodeInvalidRoot, op, operand, fmt.Sprintf(format, args...))
}
