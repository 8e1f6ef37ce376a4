// Package numeric is the arbitrary-precision engine behind gcmp.
//
// Each call performs exactly one operation: operands arrive as numeral
// strings, are parsed in the configured base, combined at a working precision
// of four times the display digits (never fewer than 16) with
// round-toward-negative-infinity, and the result is returned as a formatted
// string. Engine calls are pure functions of their inputs.
//
// Arithmetic is done with github.com/cockroachdb/apd/v3 decimals. Functions
// apd does not provide (π, γ, sin, cos, tan) are computed here by series at
// the working precision plus guard digits.
//
// # Numerals
//
//	[+|-] digits [. digits] [e [+|-] decimal-digits]
//
// Digits above 9 are the upper-case letters A..Z, so bases 2 through 36 are
// supported. The exponent is written in decimal and scales by a power of the
// base. Lower-case letters never appear inside a numeral other than the e
// marker.
//
// # Output
//
// Results follow the C printf conventions:
//
//   - general (%g): precision significant digits, trailing zeros removed,
//     scientific notation when the exponent is below -4 or at least precision
//   - scientific (%e): d.ddd…e±XX with precision fraction digits
//   - fixed (%f): precision fraction digits
//
// Display rounding is half-to-even. Zero is never printed with a sign.
//
// # Errors
//
// Failures are returned as *EvalError with one of the codes INVALID_OPERAND,
// DIVIDE_BY_ZERO, INVALID_ROOT or DOMAIN_ERROR. The engine never returns
// "nan" or "inf" as a successful result.
package numeric
