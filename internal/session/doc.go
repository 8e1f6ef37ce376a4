// Package session is the editing session around the expression buffer.
//
// A Session owns the live buffer and the configuration. Typed characters go
// through the input guard one at a time; keypad actions (sign toggle,
// exponent keys, constants, history recall) edit the buffer directly.
// Equals evaluates the buffer and replaces it with the result, and the
// extended-function keys evaluate the buffer and apply a unary function to
// the result. Both record the evaluation in the history log.
//
// Errors never leave the buffer empty: a failed evaluation replaces the
// buffer with a terminal display string ("inf", "-inf" or "nan"), and the
// next typed character starts a fresh expression.
//
// A Session is not safe for concurrent use. It belongs to one UI loop.
package session
