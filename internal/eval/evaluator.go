package eval

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/scan"
)

// Recorder receives one observation per Evaluate call. outcome is "ok" or
// the error code.
type Recorder interface {
	ObserveEvaluation(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(string) {}

// Evaluator evaluates expressions with a numeric engine. It holds no
// per-call state.
type Evaluator struct {
	engine   *numeric.Engine
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for step traces.
func WithLogger(l *zap.Logger) Option {
	return func(ev *Evaluator) {
		if l != nil {
			ev.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(ev *Evaluator) {
		if r != nil {
			ev.recorder = r
		}
	}
}

// New creates an Evaluator backed by engine.
func New(engine *numeric.Engine, opts ...Option) *Evaluator {
	ev := &Evaluator{
		engine:   engine,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// Engine returns the engine the evaluator reduces with.
func (ev *Evaluator) Engine() *numeric.Engine {
	return ev.engine
}

// Evaluate reduces expr left to right and returns the formatted result.
func (ev *Evaluator) Evaluate(expr string, cfg config.Config) (string, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		ev.logger.Warn("configuration clamped", zap.Error(err))
	}

	result, err := ev.evaluate(expr, cfg)
	if err != nil {
		ev.recorder.ObserveEvaluation(string(numeric.CodeOf(err)))
		ev.logger.Debug("evaluation failed", zap.String("expr", expr), zap.Error(err))
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	ev.recorder.ObserveEvaluation("ok")
	return result, nil
}

// operand is one parsed operand before resolution.
type operand struct {
	numeral string
	prefix  numeric.Op
	negate  bool // sign written before the prefix
}

func (ev *Evaluator) evaluate(expr string, cfg config.Config) (string, error) {
	s := scan.New(expr, cfg.Base)

	first, err := readOperand(s, numeric.OpNone)
	if err != nil {
		return "", err
	}
	acc, err := ev.resolve(first, cfg)
	if err != nil {
		return "", err
	}

	steps := 0
	for {
		tok := s.Next()
		if tok.Kind == scan.EOF {
			break
		}
		if tok.Kind != scan.Operator {
			return "", unexpected(tok)
		}

		next, err := readOperand(s, tok.Op)
		if err != nil {
			return "", err
		}
		b, err := ev.resolve(next, cfg)
		if err != nil {
			return "", err
		}

		out, err := ev.engine.Binary(tok.Op, acc, b, cfg)
		if err != nil {
			return "", err
		}
		steps++
		ev.logger.Debug("reduce",
			zap.Int("step", steps),
			zap.Stringer("op", tok.Op),
			zap.String("acc", acc),
			zap.String("operand", b),
			zap.String("result", out))
		acc = out
	}

	if steps == 0 && first.prefix == numeric.OpNone {
		if err := ev.engine.Validate(acc, cfg); err != nil {
			return "", err
		}
	}
	return acc, nil
}

// resolve applies an operand's function prefix, if any.
func (ev *Evaluator) resolve(o operand, cfg config.Config) (string, error) {
	if o.prefix == numeric.OpNone {
		return o.numeral, nil
	}
	out, err := ev.engine.Unary(o.prefix, o.numeral, cfg)
	if err != nil {
		return "", err
	}
	ev.logger.Debug("prefix",
		zap.Stringer("op", o.prefix),
		zap.String("operand", o.numeral),
		zap.String("result", out))
	if o.negate {
		out = numeric.Negate(out)
	}
	return out, nil
}

// readOperand consumes one operand. after is the operator that precedes it,
// OpNone for the first operand.
func readOperand(s *scan.Scanner, after numeric.Op) (operand, error) {
	var o operand

	tok := s.Next()
	sign := ""
	if tok.Kind == scan.Sign {
		sign = tok.Text
		tok = s.Next()
	}

	if tok.Kind == scan.Prefix {
		o.prefix = tok.Op
		o.negate = sign == "-"
		sign = ""

		tok = s.Next()
		if tok.Kind == scan.Sign {
			sign = tok.Text
			tok = s.Next()
		}
		if tok.Kind == scan.Prefix {
			return o, numeric.NewEvalError(numeric.ErrCodeInvalidOperand, o.prefix, tok.Text,
				"nested function prefix")
		}
	}

	switch tok.Kind {
	case scan.Digits:
	case scan.EOF:
		if after != numeric.OpNone {
			return o, numeric.NewEvalError(numeric.ErrCodeInvalidOperand, after, "",
				"operator has no operand")
		}
		return o, numeric.NewEvalError(numeric.ErrCodeInvalidOperand, o.prefix, sign,
			"missing operand")
	default:
		return o, unexpected(tok)
	}
	o.numeral = sign + tok.Text

	if s.Peek().Kind != scan.ExponentMarker {
		return o, nil
	}
	s.Next()
	o.numeral += "e"
	tok = s.Next()
	if tok.Kind == scan.Sign {
		o.numeral += tok.Text
		tok = s.Next()
	}
	if tok.Kind != scan.Digits {
		return o, numeric.NewEvalError(numeric.ErrCodeInvalidOperand, after, o.numeral,
			"exponent has no digits")
	}
	o.numeral += tok.Text
	return o, nil
}

func unexpected(tok scan.Token) error {
	return numeric.NewEvalError(numeric.ErrCodeInvalidOperand, numeric.OpNone, tok.Text,
		fmt.Sprintf("unexpected %s at %d", tok.Kind, tok.Pos))
}
