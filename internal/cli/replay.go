package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/eval"
	"github.com/roach88/gcmp/internal/harness"
	"github.com/roach88/gcmp/internal/history"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/session"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Runs   int    // executions per scenario
	Filter string // scenario filter (glob pattern)
}

// ReplayMismatch describes one divergence found while replaying.
type ReplayMismatch struct {
	Run      int    `json:"run,omitempty"`
	Seq      int64  `json:"seq,omitempty"`
	Input    string `json:"input,omitempty"`
	Recorded string `json:"recorded,omitempty"`
	Replayed string `json:"replayed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ReplayScenarioResult holds the replay result for a single scenario.
type ReplayScenarioResult struct {
	Name          string           `json:"name"`
	Runs          int              `json:"runs"`
	Entries       int              `json:"entries"`
	Reevaluated   bool             `json:"reevaluated"`
	Mismatches    []ReplayMismatch `json:"mismatches,omitempty"`
	Deterministic bool             `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Scenarios        []ReplayScenarioResult `json:"scenarios"`
	TotalScenarios   int                    `json:"total_scenarios"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenarios-dir>",
		Short: "Verify scenarios replay deterministically",
		Long: `Run every keystroke scenario several times, each against a fresh session
and history log, and verify the runs agree.

Two checks are made per scenario:
  - every run produces a byte-identical transcript
  - every history entry of the first run, evaluated again from its input by
    a fresh evaluator under the scenario's configuration, reproduces its
    recorded result

The second check is skipped for scenarios that toggle the angle mode, since
their entries were not all computed under the scenario's configuration.

Exit codes:
  0 - Every scenario replayed deterministically
  1 - One or more scenarios diverged
  2 - Command error (invalid paths, etc.)

Examples:
  gcmp replay ./scenarios
  gcmp replay ./scenarios --runs 5
  gcmp replay ./scenarios --filter "recall*" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Runs, "runs", 2, "executions per scenario")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runReplay(opts *ReplayOptions, scenariosDir string, cmd *cobra.Command) error {
	if opts.Runs < 2 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--runs must be at least 2, got %d", opts.Runs))
	}

	files, err := findScenarioDir(scenariosDir, opts.Filter)
	if err != nil {
		return err
	}

	result := ReplayResult{
		Scenarios:        make([]ReplayScenarioResult, 0, len(files)),
		TotalScenarios:   len(files),
		AllDeterministic: true,
	}

	ev := opts.newEvaluator()
	for _, file := range files {
		sr := replayScenario(opts, ev, file)
		opts.logger().Debug("replayed scenario",
			zap.String("scenario", sr.Name),
			zap.Int("runs", sr.Runs),
			zap.Int("entries", sr.Entries),
			zap.Int("mismatches", len(sr.Mismatches)))
		result.Scenarios = append(result.Scenarios, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(opts, cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayScenario runs one scenario opts.Runs times and checks the runs.
func replayScenario(opts *ReplayOptions, ev *eval.Evaluator, file string) ReplayScenarioResult {
	sr := ReplayScenarioResult{Name: file, Deterministic: true}
	fail := func(m ReplayMismatch) {
		sr.Mismatches = append(sr.Mismatches, m)
		sr.Deterministic = false
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		fail(ReplayMismatch{Error: fmt.Sprintf("failed to load scenario: %v", err)})
		return sr
	}
	sr.Name = scenario.Name

	var first *harness.Result
	var firstSnapshot []byte
	for run := 1; run <= opts.Runs; run++ {
		res, err := harness.Run(scenario, harness.WithLogger(opts.logger()))
		if err != nil {
			fail(ReplayMismatch{Run: run, Error: fmt.Sprintf("execution failed: %v", err)})
			return sr
		}
		snapshot, err := harness.Snapshot(scenario, res)
		if err != nil {
			fail(ReplayMismatch{Run: run, Error: fmt.Sprintf("failed to render transcript: %v", err)})
			return sr
		}
		sr.Runs++

		if first == nil {
			first, firstSnapshot = res, snapshot
			continue
		}
		if !bytes.Equal(snapshot, firstSnapshot) {
			fail(divergence(run, first, res))
		}
	}

	sr.Entries = len(first.History)
	if togglesAngle(scenario) {
		return sr
	}

	cfg, err := scenario.ResolveConfig()
	if err != nil {
		fail(ReplayMismatch{Error: err.Error()})
		return sr
	}
	sr.Reevaluated = true
	for _, e := range first.History {
		replayed, err := replayEntry(ev, cfg, e)
		m := ReplayMismatch{Seq: e.Seq, Input: e.Label(), Recorded: e.Result, Replayed: replayed}
		switch {
		case err != nil:
			m.Error = err.Error()
		case replayed == e.Result:
			continue
		}
		fail(m)
	}
	return sr
}

// divergence describes the first trace event at which run differs from the
// first run.
func divergence(run int, first, other *harness.Result) ReplayMismatch {
	for i := range first.Trace {
		if i >= len(other.Trace) {
			break
		}
		a, b := first.Trace[i], other.Trace[i]
		if a != b {
			return ReplayMismatch{Run: run, Seq: a.Seq, Input: a.Label(), Recorded: a.Buffer, Replayed: b.Buffer,
				Error: "transcript differs from run 1"}
		}
	}
	return ReplayMismatch{Run: run, Error: "transcript differs from run 1"}
}

// togglesAngle reports whether any step presses the angle key.
func togglesAngle(s *harness.Scenario) bool {
	for _, step := range s.Steps {
		if step.Key == "" {
			continue
		}
		if k, err := session.ParseKey(step.Key); err == nil && k == session.KeyAngle {
			return true
		}
	}
	return false
}

// replayEntry recomputes one entry's result. An applied entry re-applies its
// function to the value of its input.
func replayEntry(ev *eval.Evaluator, cfg config.Config, e history.Entry) (string, error) {
	value, err := ev.Evaluate(e.Input, cfg)
	if err != nil || e.Op == "" {
		return value, err
	}
	op, ok := numeric.ParseUnary(e.Op)
	if !ok {
		return "", fmt.Errorf("unknown function %q", e.Op)
	}
	return ev.Engine().Unary(op, value, cfg)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(opts *ReplayOptions, cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayMismatch,
			Message: "replay verification failed",
		}
	}

	if err := opts.formatter(cmd).Response(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalScenarios == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d scenario(s)\n", result.TotalScenarios)
	fmt.Fprintln(w)

	for _, s := range result.Scenarios {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Scenario: %s\n", status, s.Name)
		fmt.Fprintf(w, "  Runs: %d, Entries: %d\n", s.Runs, s.Entries)

		for _, m := range s.Mismatches {
			switch {
			case m.Input == "":
				fmt.Fprintf(w, "  %s\n", m.Error)
			case m.Run > 0:
				fmt.Fprintf(w, "  [run %d, seq %d] %s: buffer %q, run 1 had %q\n", m.Run, m.Seq, m.Input, m.Replayed, m.Recorded)
			default:
				fmt.Fprintf(w, "  [seq %d] %s: recorded %s, replayed %s", m.Seq, m.Input, m.Recorded, m.Replayed)
				if m.Error != "" {
					fmt.Fprintf(w, " (%s)", m.Error)
				}
				fmt.Fprintln(w)
			}
		}
		if verbose && s.Deterministic {
			if s.Reevaluated {
				fmt.Fprintln(w, "  All entries reproduced")
			} else {
				fmt.Fprintln(w, "  Angle mode toggled; entries not re-evaluated")
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All scenarios replayed deterministically")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
