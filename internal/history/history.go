package history

import (
	"context"
	"fmt"
	"sync"
)

// Entry is one recorded evaluation.
type Entry struct {
	Seq       int64  `json:"seq" yaml:"seq"`
	SessionID string `json:"session_id" yaml:"session_id"`
	// Op is the extended function applied to the value of Input, empty for
	// a plain evaluation.
	Op     string `json:"op,omitempty" yaml:"op,omitempty"`
	Input  string `json:"input" yaml:"input"`
	Result string `json:"result" yaml:"result"`
}

// Label renders the entry's computation, "3 + 2" or "sqr(3 + 2)".
func (e Entry) Label() string {
	if e.Op == "" {
		return e.Input
	}
	return e.Op + "(" + e.Input + ")"
}

// Field selects the half of an entry to recall.
type Field string

const (
	FieldInput  Field = "input"
	FieldResult Field = "result"
)

// ParseField parses "input" or "result" (or "i" / "r").
func ParseField(s string) (Field, error) {
	switch s {
	case "input", "i":
		return FieldInput, nil
	case "result", "r":
		return FieldResult, nil
	}
	return "", fmt.Errorf("invalid history field %q (expected input or result)", s)
}

// Get returns the selected half of e.
func (e Entry) Get(f Field) string {
	if f == FieldResult {
		return e.Result
	}
	return e.Input
}

// Log is an append-only history log.
type Log interface {
	// Record appends e and returns it with its Seq assigned. Any Seq
	// already set on e is ignored.
	Record(ctx context.Context, e Entry) (Entry, error)

	// Entries returns the session's entries in insertion order. It returns
	// an empty slice, never nil, when there are none.
	Entries(ctx context.Context, sessionID string) ([]Entry, error)
}

// Memory is an in-process Log.
type Memory struct {
	mu      sync.Mutex
	clock   *Clock
	entries []Entry
}

// NewMemory creates an empty in-process log.
func NewMemory() *Memory {
	return &Memory{clock: NewClock()}
}

// Record implements Log.
func (m *Memory) Record(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.Seq = m.clock.Next()
	m.entries = append(m.entries, e)
	return e, nil
}

// Entries implements Log.
func (m *Memory) Entries(_ context.Context, sessionID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Entry{}
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}
