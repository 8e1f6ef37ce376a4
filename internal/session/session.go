package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/roach88/gcmp/internal/config"
	"github.com/roach88/gcmp/internal/eval"
	"github.com/roach88/gcmp/internal/guard"
	"github.com/roach88/gcmp/internal/history"
	"github.com/roach88/gcmp/internal/numeric"
	"github.com/roach88/gcmp/internal/scan"
)

// Terminal display strings.
const (
	NaN    = "nan"
	Inf    = "inf"
	NegInf = "-inf"
)

// GuardRecorder receives one observation per guarded insertion.
type GuardRecorder interface {
	ObserveGuard(rule, action string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGuard(string, string) {}

// Session is one editing session.
type Session struct {
	id       string
	buffer   string
	cfg      config.Config
	guard    *guard.Guard
	eval     *eval.Evaluator
	engine   *numeric.Engine
	history  history.Log
	logger   *zap.Logger
	recorder GuardRecorder
	ids      IDGenerator
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistory sets the history log. The default is an in-process log.
func WithHistory(h history.Log) Option {
	return func(s *Session) {
		if h != nil {
			s.history = h
		}
	}
}

// WithIDGenerator sets the generator for the session id.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithRecorder sets the guard metrics recorder.
func WithRecorder(r GuardRecorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates a session that evaluates with ev under cfg.
func New(ev *eval.Evaluator, cfg config.Config, opts ...Option) *Session {
	s := &Session{
		eval:     ev,
		engine:   ev.Engine(),
		history:  history.NewMemory(),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.id = s.ids.Generate()
	s.SetConfig(cfg)
	return s
}

// ID returns the session id that tags its history entries.
func (s *Session) ID() string {
	return s.id
}

// Buffer returns the current expression buffer.
func (s *Session) Buffer() string {
	return s.buffer
}

// Config returns the session configuration.
func (s *Session) Config() config.Config {
	return s.cfg
}

// SetConfig replaces the configuration. Out-of-range values are clamped.
func (s *Session) SetConfig(cfg config.Config) {
	cfg, err := cfg.Normalize()
	if err != nil {
		s.logger.Warn("configuration clamped", zap.Error(err))
	}
	if s.guard == nil || cfg.Base != s.cfg.Base {
		s.guard = guard.New(cfg.Base)
	}
	s.cfg = cfg
}

// Replace sets the buffer wholesale. The guard is not consulted.
func (s *Session) Replace(text string) {
	s.buffer = text
}

// Insert adds one typed character through the input guard.
func (s *Session) Insert(r rune) {
	s.startFresh()
	s.buffer += string(r)
	action, rule := s.guard.Check(s.buffer, r)
	s.buffer = action.Apply(s.buffer)
	s.recorder.ObserveGuard(rule, action.Kind.String())
	if action.Kind != guard.Keep {
		s.logger.Debug("guard corrected input",
			zap.String("rule", rule),
			zap.Stringer("action", action),
			zap.String("buffer", s.buffer))
	}
}

// Type inserts text as if typed key by key. The text is NFC-normalized and
// full-width forms are narrowed first. Keypad glyphs (π, γ, ±) press their
// keys, e+/e- after a digit press the exponent keys, and '-' where an
// operand is expected is a sign.
func (s *Session) Type(text string) error {
	runes := []rune(width.Narrow.String(norm.NFC.String(text)))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == 'π':
			if err := s.Press(KeyPi); err != nil {
				return err
			}
		case r == 'γ' || r == 'ε':
			if err := s.Press(KeyEuler); err != nil {
				return err
			}
		case r == '±':
			if err := s.Press(KeySign); err != nil {
				return err
			}
		case r == 'e' && s.afterNumeral():
			var next rune
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			switch next {
			case '+', '-':
				k := KeyExpPlus
				if next == '-' {
					k = KeyExpMinus
				}
				if err := s.Press(k); err != nil {
					return err
				}
				i++
			default:
				s.buffer += "e"
			}
		case r == '-' && s.expectOperand() && !strings.HasSuffix(s.buffer, "-"):
			if err := s.Press(KeySign); err != nil {
				return err
			}
		default:
			s.Insert(r)
		}
	}
	return nil
}

// Press performs a keypad action.
func (s *Session) Press(k Key) error {
	switch k {
	case KeySign:
		s.startFresh()
		if strings.HasSuffix(s.buffer, "-") {
			s.buffer = strings.TrimSuffix(s.buffer, "-")
		} else {
			s.buffer += "-"
		}

	case KeyExpPlus, KeyExpMinus:
		if s.buffer == "" || IsTerminal(s.buffer) || endsWithExponent(s.buffer) {
			return nil
		}
		if k == KeyExpPlus {
			s.buffer += "e+"
		} else {
			s.buffer += "e-"
		}

	case KeyDot:
		s.startFresh()
		if !strings.HasSuffix(s.buffer, ".") {
			s.buffer += "."
		}

	case KeyBackspace:
		if IsTerminal(s.buffer) {
			s.buffer = ""
			return nil
		}
		n := 1
		if strings.HasSuffix(s.buffer, " ") || endsWithExponent(s.buffer) {
			n = 2
		}
		s.buffer = guard.Action{Kind: guard.DeleteLastN, N: n}.Apply(s.buffer)

	case KeyClear:
		s.buffer = ""

	case KeyPow, KeyRoot, KeyMod:
		if s.buffer == "" || IsTerminal(s.buffer) {
			return nil
		}
		for _, t := range []string{" ^ ", " √ ", " m "} {
			if strings.HasSuffix(s.buffer, t) {
				return nil
			}
		}
		s.buffer += k.operatorText()

	case KeyAdd, KeySub, KeyMul, KeyDiv, KeyPercent:
		if s.buffer == "" || IsTerminal(s.buffer) || endsWithOperator(s.buffer) {
			return nil
		}
		s.buffer += k.operatorText()

	case KeyPi, KeyEuler:
		op := numeric.OpPi
		if k == KeyEuler {
			op = numeric.OpEuler
		}
		v, err := s.engine.Unary(op, "0", s.cfg)
		if err != nil {
			return fmt.Errorf("press %s: %w", k, err)
		}
		s.appendWord(v)

	case KeyAngle:
		s.cfg.AngleMode = s.cfg.AngleMode.Toggle()
		s.logger.Debug("angle mode", zap.String("mode", string(s.cfg.AngleMode)))

	default:
		return fmt.Errorf("unknown key %s", k)
	}
	return nil
}

// Equals evaluates the buffer and replaces it with the result. An empty or
// terminal buffer is left alone. On failure the buffer becomes the terminal
// display string and the error is returned alongside it.
func (s *Session) Equals(ctx context.Context) (string, error) {
	input := strings.TrimSpace(s.buffer)
	if input == "" || IsTerminal(input) {
		return s.buffer, nil
	}

	result, err := s.eval.Evaluate(input, s.cfg)
	if err != nil {
		s.buffer = Terminal(err)
		return s.buffer, err
	}

	if _, err := s.history.Record(ctx, history.Entry{SessionID: s.id, Input: input, Result: result}); err != nil {
		return result, fmt.Errorf("equals: %w", err)
	}
	s.buffer = result
	return result, nil
}

// Apply evaluates the buffer and applies the extended function op to the
// result. The history entry keeps the buffer as its input and op apart, so
// recalling the input re-evaluates the expression. Constants (π, γ) are
// appended like their keys instead.
func (s *Session) Apply(ctx context.Context, op numeric.Op) (string, error) {
	switch {
	case op == numeric.OpPi:
		err := s.Press(KeyPi)
		return s.buffer, err
	case op == numeric.OpEuler:
		err := s.Press(KeyEuler)
		return s.buffer, err
	case !op.Unary():
		return s.buffer, numeric.NewEvalError(numeric.ErrCodeInvalidOperand, op, "",
			"not an extended function")
	}

	input := strings.TrimSpace(s.buffer)
	if input == "" || IsTerminal(input) {
		return s.buffer, nil
	}

	value, err := s.eval.Evaluate(input, s.cfg)
	if err == nil {
		value, err = s.engine.Unary(op, value, s.cfg)
	}
	if err != nil {
		s.buffer = Terminal(err)
		return s.buffer, err
	}

	e := history.Entry{SessionID: s.id, Op: op.String(), Input: input, Result: value}
	if _, err := s.history.Record(ctx, e); err != nil {
		return value, fmt.Errorf("apply %s: %w", op, err)
	}
	s.buffer = value
	return value, nil
}

// History returns this session's entries in insertion order.
func (s *Session) History(ctx context.Context) ([]history.Entry, error) {
	return s.history.Entries(ctx, s.id)
}

// Recall appends the input or result of history entry i (0-based) to the
// buffer.
func (s *Session) Recall(ctx context.Context, i int, f history.Field) error {
	entries, err := s.History(ctx)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(entries) {
		return fmt.Errorf("no history entry %d (have %d)", i, len(entries))
	}
	s.appendWord(entries[i].Get(f))
	return nil
}

// startFresh clears a terminal buffer so the next edit starts over.
func (s *Session) startFresh() {
	if IsTerminal(s.buffer) {
		s.buffer = ""
	}
}

// appendWord appends text, separated from existing content by a space.
func (s *Session) appendWord(text string) {
	s.startFresh()
	if s.buffer != "" && !strings.HasSuffix(s.buffer, " ") && !strings.HasSuffix(s.buffer, "-") {
		s.buffer += " "
	}
	s.buffer += text
}

// afterNumeral reports whether the buffer ends inside a numeral's mantissa.
func (s *Session) afterNumeral() bool {
	if s.buffer == "" {
		return false
	}
	r := []rune(s.buffer)
	last := r[len(r)-1]
	return last == '.' || numeric.IsDigit(last, s.cfg.Base)
}

// expectOperand reports whether the next token must start an operand.
func (s *Session) expectOperand() bool {
	if IsTerminal(s.buffer) {
		return true
	}
	toks := scan.All(s.buffer, s.cfg.Base)
	if len(toks) == 0 {
		return true
	}
	switch toks[len(toks)-1].Kind {
	case scan.Operator, scan.Prefix:
		return true
	}
	return false
}

func endsWithExponent(b string) bool {
	return strings.HasSuffix(b, "e+") || strings.HasSuffix(b, "e-")
}

func endsWithOperator(b string) bool {
	t := strings.TrimRight(b, " ")
	if t == "" {
		return false
	}
	r := []rune(t)
	_, ok := numeric.OperatorSymbol(r[len(r)-1])
	return ok
}

// IsTerminal reports whether s is a terminal display string.
func IsTerminal(s string) bool {
	switch strings.TrimSpace(s) {
	case NaN, Inf, NegInf:
		return true
	}
	return false
}

// Terminal maps an evaluation error to its display string: "inf" or "-inf"
// for a division by zero with a signed limit, "nan" for anything else.
func Terminal(err error) string {
	if err == nil {
		return ""
	}
	var ee *numeric.EvalError
	if errors.As(err, &ee) && ee.Code == numeric.ErrCodeDivideByZero {
		switch {
		case ee.Limit > 0:
			return Inf
		case ee.Limit < 0:
			return NegInf
		}
	}
	return NaN
}
