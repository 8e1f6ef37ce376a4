package numeric

import (
	"errors"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"go.uber.org/zap"

	"github.com/roach88/gcmp/internal/config"
)

// Working precision is four times the display precision, never below
// minWorkPrecision digits. Internal series run guardDigits beyond that.
const (
	precisionFactor  = 4
	minWorkPrecision = 16
	guardDigits      = 10
)

// maxSeriesPrecision caps the precision handed to apd's Ln and Exp. Their
// internal term and iteration limits are exceeded from about 2400 digits.
// The cap stays above config.MaxPrecision + guardDigits, so every displayed
// digit is still correct.
const maxSeriesPrecision = 2000

// seriesContext returns ctx with its precision capped at maxSeriesPrecision.
func seriesContext(ctx *apd.Context) *apd.Context {
	if ctx.Precision <= maxSeriesPrecision {
		return ctx
	}
	return ctx.WithPrecision(maxSeriesPrecision)
}

var (
	decimalZero    = apd.New(0, 0)
	decimalOne     = apd.New(1, 0)
	decimalTwo     = apd.New(2, 0)
	decimalHundred = apd.New(100, 0)
)

// Recorder receives one observation per engine operation. outcome is "ok" or
// an ErrorCode.
type Recorder interface {
	ObserveOp(op string, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOp(string, string) {}

// Engine performs single arbitrary-precision operations on numeral strings.
//
// Engine holds no per-call state and is safe for concurrent use. Constants
// computed at a given precision are cached.
type Engine struct {
	logger   *zap.Logger
	recorder Recorder
	consts   *constCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		consts:   newConstCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WorkPrecision returns the number of decimal digits arithmetic runs at for
// a display precision.
func WorkPrecision(digits int) uint32 {
	p := precisionFactor * digits
	if p < minWorkPrecision {
		p = minWorkPrecision
	}
	return uint32(p)
}

// workContext returns the rounding context for one operation. All results
// round toward negative infinity.
func workContext(cfg config.Config) *apd.Context {
	return &apd.Context{
		Precision:   WorkPrecision(cfg.Precision),
		MaxExponent: apd.MaxExponent,
		MinExponent: apd.MinExponent,
		Traps:       apd.DefaultTraps,
		Rounding:    apd.RoundFloor,
	}
}

func (e *Engine) normalize(cfg config.Config) config.Config {
	cfg, err := cfg.Normalize()
	if err != nil {
		e.logger.Warn("configuration clamped", zap.Error(err))
	}
	return cfg
}

// Binary applies a two-operand operation and returns the result formatted
// per cfg.
func (e *Engine) Binary(op Op, a, b string, cfg config.Config) (string, error) {
	cfg = e.normalize(cfg)
	out, err := e.binary(op, a, b, cfg)
	e.observe(op, err)
	if err != nil {
		return "", err
	}
	e.logger.Debug("binary op",
		zap.Stringer("op", op),
		zap.String("a", a),
		zap.String("b", b),
		zap.String("result", out))
	return out, nil
}

func (e *Engine) binary(op Op, a, b string, cfg config.Config) (string, error) {
	if !op.Binary() {
		return "", invalidOperand(op, "", "%s is not a binary operation", op)
	}
	ctx := workContext(cfg)

	x, err := e.operand(op, a, cfg.Base, ctx)
	if err != nil {
		return "", err
	}
	y, err := e.operand(op, b, cfg.Base, ctx)
	if err != nil {
		return "", err
	}

	d := new(apd.Decimal)
	switch op {
	case OpAdd:
		_, err = ctx.Add(d, x, y)
	case OpSub:
		_, err = ctx.Sub(d, x, y)
	case OpMul:
		_, err = ctx.Mul(d, x, y)
	case OpDiv:
		if y.IsZero() {
			return "", divideByZero(op, a, x.Sign())
		}
		_, err = ctx.Quo(d, x, y)
	case OpMod:
		if y.IsZero() {
			return "", divideByZero(op, a, 0)
		}
		err = e.mod(ctx, d, x, y)
	case OpPow, OpNthPower:
		err = e.pow(ctx, op, d, x, y, a)
	case OpPercentOf:
		if _, err = ctx.Mul(d, x, y); err == nil {
			_, err = ctx.Quo(d, d, decimalHundred)
		}
	case OpNthRoot:
		err = e.nthRoot(ctx, d, x, y, b)
	default:
		return "", invalidOperand(op, "", "unsupported operation")
	}
	if err != nil {
		return "", asEvalError(op, a, err)
	}
	return e.format(d, cfg, ctx)
}

// Unary applies a one-operand operation. Constants ignore a.
func (e *Engine) Unary(op Op, a string, cfg config.Config) (string, error) {
	cfg = e.normalize(cfg)
	out, err := e.unary(op, a, cfg)
	e.observe(op, err)
	if err != nil {
		return "", err
	}
	e.logger.Debug("unary op",
		zap.Stringer("op", op),
		zap.String("a", a),
		zap.String("result", out))
	return out, nil
}

func (e *Engine) unary(op Op, a string, cfg config.Config) (string, error) {
	if !op.Unary() {
		return "", invalidOperand(op, "", "%s is not a unary operation", op)
	}
	ctx := workContext(cfg)

	var x *apd.Decimal
	if !op.Constant() {
		var err error
		if x, err = e.operand(op, a, cfg.Base, ctx); err != nil {
			return "", err
		}
	}

	d := new(apd.Decimal)
	var err error
	switch op {
	case OpSquare:
		_, err = ctx.Mul(d, x, x)
	case OpCube:
		if _, err = ctx.Mul(d, x, x); err == nil {
			_, err = ctx.Mul(d, d, x)
		}
	case OpSquareRoot:
		if x.Negative {
			return "", domainError(op, a, "square root of a negative number")
		}
		_, err = ctx.Sqrt(d, x)
	case OpCubeRoot:
		_, err = ctx.Cbrt(d, x)
	case OpReciprocalSqrt:
		switch {
		case x.IsZero():
			return "", divideByZero(op, a, 1)
		case x.Negative:
			return "", domainError(op, a, "square root of a negative number")
		}
		if _, err = ctx.Sqrt(d, x); err == nil {
			_, err = ctx.Quo(d, decimalOne, d)
		}
	case OpReciprocal:
		if x.IsZero() {
			return "", divideByZero(op, a, 1)
		}
		_, err = ctx.Quo(d, decimalOne, x)
	case OpNaturalLog, OpLog10:
		if x.Sign() <= 0 {
			return "", domainError(op, a, "logarithm of a non-positive number")
		}
		sc := seriesContext(ctx)
		if op == OpNaturalLog {
			_, err = sc.Ln(d, x)
		} else {
			_, err = sc.Log10(d, x)
		}
	case OpFactorial:
		err = factorial(ctx, d, x, a)
	case OpSin, OpCos, OpTan:
		err = e.trig(ctx, op, d, x, cfg.AngleMode, a)
	case OpPi:
		var v *apd.Decimal
		if v, err = e.consts.pi(ctx); err == nil {
			d.Set(v)
		}
	case OpEuler:
		var v *apd.Decimal
		if v, err = e.consts.euler(seriesContext(ctx)); err == nil {
			d.Set(v)
		}
	default:
		return "", invalidOperand(op, "", "unsupported operation")
	}
	if err != nil {
		return "", asEvalError(op, a, err)
	}
	return e.format(d, cfg, ctx)
}

// Parse parses a numeral at the working precision for cfg.
func (e *Engine) Parse(s string, cfg config.Config) (*apd.Decimal, error) {
	cfg = e.normalize(cfg)
	return ParseNumeral(s, cfg.Base, workContext(cfg))
}

// Format renders d per cfg.
func (e *Engine) Format(d *apd.Decimal, cfg config.Config) (string, error) {
	cfg = e.normalize(cfg)
	return e.format(d, cfg, workContext(cfg))
}

// Validate reports whether s is a well-formed numeral in cfg's base.
func (e *Engine) Validate(s string, cfg config.Config) error {
	_, err := e.Parse(s, cfg)
	return err
}

func (e *Engine) format(d *apd.Decimal, cfg config.Config, ctx *apd.Context) (string, error) {
	if d.Form != apd.Finite {
		return "", domainError(OpNone, "", "result is not finite")
	}
	// Drop digits beyond the working precision before display rounding.
	r := new(apd.Decimal)
	if _, err := ctx.Round(r, d); err != nil {
		return "", asEvalError(OpNone, "", err)
	}
	return newFormatter(cfg.Base, ctx.Precision).Format(r, cfg)
}

func (e *Engine) operand(op Op, s string, base int, ctx *apd.Context) (*apd.Decimal, error) {
	d, err := ParseNumeral(s, base, ctx)
	if err != nil {
		var ee *EvalError
		if errors.As(err, &ee) {
			ee.Op = op
		}
		return nil, err
	}
	return d, nil
}

func (e *Engine) observe(op Op, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	e.recorder.ObserveOp(op.String(), outcome)
}

// asEvalError maps an apd condition error onto the error taxonomy. Errors
// that are already EvalErrors pass through.
func asEvalError(op Op, operand string, err error) error {
	var ee *EvalError
	if errors.As(err, &ee) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "division by zero") {
		return divideByZero(op, operand, 0)
	}
	return domainError(op, operand, "%s", msg)
}

// Negate flips the sign of a formatted numeral without reparsing it. Zero
// stays unsigned.
func Negate(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return s[1:]
	}
	m := s
	if i := strings.IndexByte(m, 'e'); i >= 0 {
		m = m[:i]
	}
	if strings.Trim(m, "0.+") == "" {
		return strings.TrimPrefix(s, "+")
	}
	return "-" + strings.TrimPrefix(s, "+")
}
