package harness

import "github.com/roach88/gcmp/internal/history"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64  `json:"seq" yaml:"seq"`
	Action string `json:"action" yaml:"action"`
	Input  string `json:"input" yaml:"input"`
	Buffer string `json:"buffer" yaml:"buffer"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Label returns "action:input", the form trace_order entries may use.
func (e TraceEvent) Label() string {
	return e.Action + ":" + e.Input
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion
	// held.
	Pass bool `json:"pass"`

	// Trace contains every step in order.
	Trace []TraceEvent `json:"trace"`

	// History is the session's history log after the last step.
	History []history.Entry `json:"history"`

	// Buffer is the final buffer.
	Buffer string `json:"buffer"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		History: []history.Entry{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
