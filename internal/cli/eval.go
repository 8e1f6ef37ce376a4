package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/history"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/session"
)

// EvalOptions holds flags for the eval and apply commands.
type EvalOptions struct {
	*RootOptions
}

// EvalResult is the outcome of one expression.
type EvalResult struct {
	Input  string    `json:"input"`
	Result string    `json:"result"`
	Error  *CLIError `json:"error,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expression>...",
		Short: "Evaluate expressions",
		Long: `Evaluate each argument as an expression, strictly left to right.

Arguments are evaluated exactly as given; the input guard only applies to
typed input (see repl). A failed evaluation prints its display value
("inf", "-inf" or "nan") and the error.

Exit codes:
  0 - All expressions evaluated
  1 - One or more expressions failed
  2 - Command error (bad flags, unreadable config, etc.)

Examples:
  gcmp eval "2 + 3 * 4"
  gcmp eval "sin 90 + 1" "1 / 3" --precision 6
  gcmp eval "FF + 1" --base 16 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args, cmd)
		},
	}

	return cmd
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <function> [expression]",
		Short: "Apply an extended function",
		Long: `Evaluate the expression and apply an extended function to the result.

Functions: sqr, cube, sqrt, cbrt, rsqrt, recip, ln, log, fact, sin, cos,
tan, pi, euler. The constants pi and euler take no expression.

Examples:
  gcmp apply sqrt 2 --precision 50
  gcmp apply fact "3 + 2"
  gcmp apply sin 30
  gcmp apply pi`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := numeric.ParseUnary(args[0])
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown function %q", args[0]))
			}
			expr := ""
			if len(args) == 2 {
				expr = args[1]
			}
			if expr == "" && !op.Constant() {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s needs an expression", op))
			}
			return runApply(opts, op, expr, cmd)
		},
	}

	return cmd
}

// newSession builds a session over the resolved config. Its history is an
// in-memory SQLite log that lives as long as the session; the returned func
// releases it.
func (o *RootOptions) newSession(cfg config.Config) (*session.Session, func(), error) {
	st, err := history.Open(":memory:")
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open history", err)
	}

	s := session.New(o.newEvaluator(), cfg,
		session.WithLogger(o.logger()),
		session.WithRecorder(o.collector()),
		session.WithHistory(st),
	)
	return s, func() { _ = st.Close() }, nil
}

func runEval(opts *EvalOptions, exprs []string, cmd *cobra.Command) error {
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	s, closeFn, err := opts.newSession(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]EvalResult, 0, len(exprs))
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		s.Replace(expr)
		value, err := s.Equals(ctx)
		results = append(results, newEvalResult(expr, value, err))
	}

	return outputEvalResults(opts, cmd, results)
}

func runApply(opts *EvalOptions, op numeric.Op, expr string, cmd *cobra.Command) error {
	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	s, closeFn, err := opts.newSession(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	input := strings.TrimSpace(expr)
	s.Replace(input)
	value, err := s.Apply(ctx, op)
	if input == "" {
		input = op.String()
	} else {
		input = fmt.Sprintf("%s(%s)", op, input)
	}

	return outputEvalResults(opts, cmd, []EvalResult{newEvalResult(input, value, err)})
}

func newEvalResult(input, value string, err error) EvalResult {
	r := EvalResult{Input: input, Result: value}
	if err != nil {
		r.Error = &CLIError{Code: errorCode(err), Message: err.Error()}
	}
	return r
}

func outputEvalResults(opts *EvalOptions, cmd *cobra.Command, results []EvalResult) error {
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}

	formatter := opts.formatter(cmd)
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    results[firstFailure(results)].Error.Code,
				Message: fmt.Sprintf("%d expression(s) failed", failed),
			}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintln(w, r.Result)
			if r.Error != nil {
				fmt.Fprintf(formatter.GetErrWriter(), "Error [%s]: %s\n", r.Error.Code, r.Error.Message)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expression(s) failed", failed))
	}
	return nil
}

func firstFailure(results []EvalResult) int {
	for i, r := range results {
		if r.Error != nil {
			return i
		}
	}
	return 0
}
