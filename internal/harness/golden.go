package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gcmp/internal/history"
)

// TraceSnapshot captures everything a scenario run produced that is
// deterministic: the step trace, the history rows and the final buffer.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	SessionID    string          `json:"session_id"`
	Trace        []TraceEvent    `json:"trace"`
	History      []history.Entry `json:"history"`
	Buffer       string          `json:"buffer"`
}

// Snapshot renders a result as indented JSON with a trailing newline.
// HTML characters are not escaped so operators like √ and & stay readable.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	id := scenario.SessionID
	if id == "" {
		id = DefaultSessionID
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		SessionID:    id,
		Trace:        result.Trace,
		History:      result.History,
		Buffer:       result.Buffer,
	}
	if snapshot.Trace == nil {
		snapshot.Trace = []TraceEvent{}
	}
	if snapshot.History == nil {
		snapshot.History = []history.Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
