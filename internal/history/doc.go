// Package history is the append-only record of evaluations.
//
// Every successful evaluation and every extended-function application is
// recorded as an Entry holding the input text and the result text. An
// application also carries the function's name in Op, and its input is the
// buffer the function was applied to. Entries
// are never modified or removed. Order is a logical clock: each entry's Seq
// is strictly greater than the one recorded before it, so reading back by
// Seq reproduces insertion order exactly.
//
// Two implementations are provided. Memory keeps entries in a slice and is
// what a single interactive session needs. Store keeps them in SQLite, so
// several sessions (each tagged with its own session id) can share a file,
// and ":memory:" gives a throwaway database for tests and scenario replay.
package history
