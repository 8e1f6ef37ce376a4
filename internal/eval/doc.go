// Package eval reduces calculator expressions strictly left to right.
//
// There is no operator precedence: "2 + 3 * 4" is ((2 + 3) * 4) = 20. Each
// reduction step hands the accumulator and the next operand to the numeric
// engine, and the engine's formatted result becomes the new accumulator, so
// every intermediate value is rounded to the display precision exactly as
// the user would see it.
//
// An operand is a numeral with an optional leading sign and an optional
// function prefix:
//
//	[+|-] [sin|cos|tan|ln|log] [+|-] digits [. digits] [e [+|-] digits]
//
// A sign before the prefix negates the function's result; a sign after it
// belongs to the numeral. Prefixes do not nest.
//
// The evaluator returns typed *numeric.EvalError values for every failure.
// Turning an error into a display string is the caller's job.
package eval
