package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/gcmp/internal/eval"
	"github.com/roach88/gcmp/internal/history"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/session"
)

// Harness executes one scenario.
type Harness struct {
	session *session.Session
	clock   *history.Clock
	logger  *zap.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger passed to the engine, evaluator and session.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory history database. The
// returned error is reserved for infrastructure failures; a scenario whose
// expectations do not hold returns a Result with Pass false.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := scenario.ResolveConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	st, err := history.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	id := scenario.SessionID
	if id == "" {
		id = DefaultSessionID
	}

	engine := numeric.New(numeric.WithLogger(o.logger))
	ev := eval.New(engine, eval.WithLogger(o.logger))
	h := &Harness{
		session: session.New(ev, cfg,
			session.WithHistory(st),
			session.WithIDGenerator(session.NewFixedGenerator(id)),
			session.WithLogger(o.logger)),
		clock:  history.NewClock(),
		logger: o.logger.With(zap.String("scenario", scenario.Name)),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute steps[%d]: %w", i, err)
		}
	}

	entries, err := h.session.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	result.History = entries
	result.Buffer = h.session.Buffer()

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep performs one step, traces it and checks its expect clause.
// Calculator errors are part of the trace, not failures of the run.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	action, input := step.Action()

	var stepErr error
	switch action {
	case ActionType:
		stepErr = h.session.Type(step.Type)

	case ActionKey:
		if step.Key == KeyEquals {
			_, stepErr = h.session.Equals(ctx)
			break
		}
		key, err := session.ParseKey(step.Key)
		if err != nil {
			return err
		}
		stepErr = h.session.Press(key)

	case ActionApply:
		op, ok := numeric.ParseUnary(step.Apply)
		if !ok {
			return fmt.Errorf("unknown function %q", step.Apply)
		}
		_, stepErr = h.session.Apply(ctx, op)

	case ActionRecall:
		field, err := history.ParseField(step.Recall.Field)
		if err != nil {
			return err
		}
		stepErr = h.session.Recall(ctx, step.Recall.Index, field)

	default:
		return fmt.Errorf("step has no action")
	}

	event := TraceEvent{
		Seq:    h.clock.Next(),
		Action: action,
		Input:  input,
		Buffer: h.session.Buffer(),
		Error:  errorCode(stepErr),
	}
	result.AddTrace(event)
	h.logger.Debug("step",
		zap.Int("index", index),
		zap.String("action", action),
		zap.String("input", input),
		zap.String("buffer", event.Buffer),
		zap.String("error", event.Error))

	if step.Expect == nil {
		return nil
	}
	if step.Expect.Buffer != nil && *step.Expect.Buffer != event.Buffer {
		result.AddError(fmt.Sprintf("steps[%d] (%s %q): buffer = %q, expected %q",
			index, action, input, event.Buffer, *step.Expect.Buffer))
	}
	if step.Expect.Error != event.Error {
		result.AddError(fmt.Sprintf("steps[%d] (%s %q): error = %q, expected %q",
			index, action, input, event.Error, step.Expect.Error))
	}
	return nil
}

// errorCode returns the EvalError code of err, "ERROR" for any other
// error, or "" for nil.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := numeric.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}
