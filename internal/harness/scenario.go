package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/history"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/session"
)

// DefaultSessionID is the session id used when a scenario sets none.
const DefaultSessionID = "scenario-session"

// KeyEquals is the step key that evaluates the buffer. It is not a keypad
// editing key, so session.ParseKey does not know it.
const KeyEquals = "equals"

// Scenario is a scripted editing session.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID fixes the session id for deterministic history rows.
	SessionID string `yaml:"session_id,omitempty"`

	// Config overrides configuration defaults. Keys and values follow the
	// config file format and are validated the same way.
	Config map[string]any `yaml:"config,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and history.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one user action. Exactly one of Type, Key, Apply and Recall is set.
type Step struct {
	// Type is text typed key by key through the input guard.
	Type string `yaml:"type,omitempty"`

	// Key is a keypad key name (see session.ParseKey) or "equals".
	Key string `yaml:"key,omitempty"`

	// Apply is an extended function name (see numeric.ParseUnary).
	Apply string `yaml:"apply,omitempty"`

	// Recall appends a history entry's input or result.
	Recall *RecallStep `yaml:"recall,omitempty"`

	// Expect checks the state after the step. If nil, nothing is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// RecallStep selects a history entry.
type RecallStep struct {
	Index int    `yaml:"index"`
	Field string `yaml:"field"`
}

// ExpectClause specifies the expected state after a step.
type ExpectClause struct {
	// Buffer is the expected buffer. Nil skips the check.
	Buffer *string `yaml:"buffer,omitempty"`

	// Error is the expected error code, "" for success.
	Error string `yaml:"error,omitempty"`
}

// Action names used in the trace.
const (
	ActionType   = "type"
	ActionKey    = "key"
	ActionApply  = "apply"
	ActionRecall = "recall"
)

// Action returns the step's action name and its input.
func (s Step) Action() (string, string) {
	switch {
	case s.Type != "":
		return ActionType, s.Type
	case s.Key != "":
		return ActionKey, s.Key
	case s.Apply != "":
		return ActionApply, s.Apply
	case s.Recall != nil:
		return ActionRecall, fmt.Sprintf("%d:%s", s.Recall.Index, s.Recall.Field)
	}
	return "", ""
}

// Assertion validates the trace or the history table.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a step with action (and input/buffer) exists
	// - "trace_order": steps appear in order
	// - "trace_count": a step appears exactly Count times
	// - "final_state": query a table and verify expected values
	Type string `yaml:"type"`

	// Action is the step action (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Input is the step input (trace_contains, trace_count). Empty matches
	// any input.
	Input string `yaml:"input,omitempty"`

	// Buffer is the buffer after the step (trace_contains). Empty matches
	// any buffer.
	Buffer string `yaml:"buffer,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Table is the table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state). All fields must match.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ResolveConfig returns the scenario's configuration: defaults overlaid
// with the config block.
func (s *Scenario) ResolveConfig() (config.Config, error) {
	if len(s.Config) == 0 {
		return config.DefaultConfig(), nil
	}
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("encode config: %w", err)
	}
	return config.Parse(data)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if _, err := s.ResolveConfig(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	if step.Type != "" {
		set++
	}
	if step.Key != "" {
		set++
		if step.Key != KeyEquals {
			if _, err := session.ParseKey(step.Key); err != nil {
				return fmt.Errorf("steps[%d]: %w", index, err)
			}
		}
	}
	if step.Apply != "" {
		set++
		if _, ok := numeric.ParseUnary(step.Apply); !ok {
			return fmt.Errorf("steps[%d]: unknown function %q", index, step.Apply)
		}
	}
	if step.Recall != nil {
		set++
		if _, err := history.ParseField(step.Recall.Field); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		if step.Recall.Index < 0 {
			return fmt.Errorf("steps[%d]: recall index must be non-negative", index)
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of type, key, apply or recall is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
