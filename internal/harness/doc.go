// Package harness replays keystroke scenarios against a calculator session.
//
// A scenario is a YAML file listing what a user does (type text, press keys,
// apply extended functions, recall history) and what the buffer should look
// like afterwards. The harness drives a real Session over a fresh in-memory
// SQLite history log, records every step in a trace, and evaluates the
// scenario's assertions against the trace and the history table.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_id: demo            # optional, fixed id for golden output
//	config:                     # optional, same keys as the config file
//	  precision: 10
//	  angle_mode: radians
//	steps:
//	  - type: "2 + 3 * 4"
//	    expect: { buffer: "2 + 3 * 4" }
//	  - key: equals
//	    expect: { buffer: "20" }
//	  - apply: sqr
//	  - recall: { index: 0, field: result }
//	assertions:
//	  - type: trace_contains
//	    action: key
//	    input: equals
//	    buffer: "20"
//	  - type: trace_order
//	    actions: ["type", "key:equals", "apply:sqr"]
//	  - type: trace_count
//	    action: apply
//	    count: 1
//	  - type: final_state
//	    table: history
//	    where: { seq: 2 }
//	    expect: { op: sqr, input: "20", result: "400" }
//
// Each step sets exactly one of type, key, apply or recall. A step's expect
// clause checks the buffer after the step and the error code the step
// produced ("" for none).
//
// # Assertion Types
//
//   - trace_contains: a step with the given action (and input/buffer, when set)
//   - trace_order: steps appear in the given order; entries are "action" or
//     "action:input"
//   - trace_count: the number of steps with the given action (and input)
//   - final_state: exactly one row of a history table matches where, and its
//     columns hold the expected values
//
// # Determinism
//
// The session id is fixed (session_id, or "scenario-session"), the trace is
// stamped by a logical clock and history rows carry their own seq, so the
// same scenario always produces the same transcript. Transcripts are JSON
// and are compared against golden files with goldie.
package harness
