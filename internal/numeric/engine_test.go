package numeric

import (
	"errors"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/gcmp/internal/config"
)

func cfgWith(precision, base int) config.Config {
	cfg := config.DefaultConfig()
	cfg.Precision = precision
	cfg.Base = base
	return cfg
}

func TestEngine_Binary(t *testing.T) {
	e := New()
	cfg := cfgWith(10, 10)

	tests := []struct {
		name string
		op   Op
		a, b string
		want string
	}{
		{"add", OpAdd, "2", "3", "5"},
		{"add fractions", OpAdd, "0.1", "0.2", "0.3"},
		{"sub negative result", OpSub, "3", "5", "-2"},
		{"mul", OpMul, "5", "4", "20"},
		{"div repeating", OpDiv, "1", "3", "0.3333333333"},
		{"div negative", OpDiv, "-2", "3", "-0.6666666667"},
		{"mod", OpMod, "7", "3", "1"},
		{"mod follows dividend sign", OpMod, "-7", "3", "-1"},
		{"mod fractional", OpMod, "5.5", "2", "1.5"},
		{"pow integer", OpPow, "2", "10", "1024"},
		{"pow negative exponent", OpPow, "2", "-2", "0.25"},
		{"pow fractional", OpPow, "2", "0.5", "1.414213562"},
		{"pow negative base odd", OpPow, "-2", "3", "-8"},
		{"pow zero zero", OpPow, "0", "0", "1"},
		{"npow alias", OpNthPower, "3", "3", "27"},
		{"percent", OpPercentOf, "50", "10", "5"},
		{"root cube", OpNthRoot, "27", "3", "3"},
		{"root square", OpNthRoot, "16", "2", "4"},
		{"root fourth", OpNthRoot, "16", "4", "2"},
		{"root odd of negative", OpNthRoot, "-8", "3", "-2"},
		{"root first", OpNthRoot, "7", "1", "7"},
		{"exponent operand", OpMul, "1.5e+3", "2", "3000"},
		{"large result switches to exponent", OpMul, "123456", "1000000", "1.23456e+11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Binary(tt.op, tt.a, tt.b, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_BinaryErrors(t *testing.T) {
	e := New()
	cfg := cfgWith(10, 10)

	tests := []struct {
		name  string
		op    Op
		a, b  string
		code  ErrorCode
		limit int
	}{
		{"div by zero", OpDiv, "5", "0", ErrCodeDivideByZero, 1},
		{"negative div by zero", OpDiv, "-5", "0", ErrCodeDivideByZero, -1},
		{"zero div by zero", OpDiv, "0", "0", ErrCodeDivideByZero, 0},
		{"mod by zero", OpMod, "5", "0", ErrCodeDivideByZero, 0},
		{"zero to negative power", OpPow, "0", "-1", ErrCodeDivideByZero, 1},
		{"negative base fractional exponent", OpPow, "-8", "0.5", ErrCodeDomainError, 0},
		{"root index zero", OpNthRoot, "8", "0", ErrCodeInvalidRoot, 0},
		{"root index fractional", OpNthRoot, "8", "1.5", ErrCodeInvalidRoot, 0},
		{"root index negative", OpNthRoot, "8", "-2", ErrCodeInvalidRoot, 0},
		{"even root of negative", OpNthRoot, "-16", "2", ErrCodeDomainError, 0},
		{"malformed a", OpAdd, "1..2", "1", ErrCodeInvalidOperand, 0},
		{"malformed b", OpAdd, "1", "abc", ErrCodeInvalidOperand, 0},
		{"empty operand", OpAdd, "", "1", ErrCodeInvalidOperand, 0},
		{"dangling exponent", OpAdd, "1e+", "1", ErrCodeInvalidOperand, 0},
		{"not binary", OpSin, "1", "1", ErrCodeInvalidOperand, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Binary(tt.op, tt.a, tt.b, cfg)
			require.Error(t, err)
			assert.True(t, IsCode(err, tt.code), "got %v", err)

			var ee *EvalError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.limit, ee.Limit)
		})
	}
}

func TestEngine_Unary(t *testing.T) {
	e := New()
	cfg := cfgWith(10, 10)

	tests := []struct {
		name string
		op   Op
		a    string
		want string
	}{
		{"square", OpSquare, "12", "144"},
		{"cube", OpCube, "-3", "-27"},
		{"sqrt", OpSquareRoot, "2", "1.414213562"},
		{"sqrt exact", OpSquareRoot, "144", "12"},
		{"cbrt", OpCubeRoot, "27", "3"},
		{"cbrt negative", OpCubeRoot, "-8", "-2"},
		{"rsqrt", OpReciprocalSqrt, "4", "0.5"},
		{"reciprocal", OpReciprocal, "8", "0.125"},
		{"ln one", OpNaturalLog, "1", "0"},
		{"ln", OpNaturalLog, "10", "2.302585093"},
		{"log10", OpLog10, "1000", "3"},
		{"factorial", OpFactorial, "5", "120"},
		{"factorial zero", OpFactorial, "0", "1"},
		{"factorial one", OpFactorial, "1", "1"},
		{"factorial large", OpFactorial, "20", "2.432902008e+18"},
		{"sin 90 degrees", OpSin, "90", "1"},
		{"sin 30 degrees", OpSin, "30", "0.5"},
		{"sin 390 degrees", OpSin, "390", "0.5"},
		{"sin -90 degrees", OpSin, "-90", "-1"},
		{"cos 90 degrees", OpCos, "90", "0"},
		{"cos 180 degrees", OpCos, "180", "-1"},
		{"cos 60 degrees", OpCos, "60", "0.5"},
		{"tan 45 degrees", OpTan, "45", "1"},
		{"tan 180 degrees", OpTan, "180", "0"},
		{"pi", OpPi, "", "3.141592654"},
		{"euler", OpEuler, "", "0.5772156649"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Unary(tt.op, tt.a, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_UnaryRadians(t *testing.T) {
	e := New()
	cfg := cfgWith(10, 10)
	cfg.AngleMode = config.Radians

	got, err := e.Unary(OpSin, "1", cfg)
	require.NoError(t, err)
	assert.Equal(t, "0.8414709848", got)

	got, err = e.Unary(OpCos, "0", cfg)
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	// Reduction modulo 2π keeps large arguments accurate.
	got, err = e.Unary(OpSin, "1000", cfg)
	require.NoError(t, err)
	assert.Equal(t, "0.8268795405", got)
}

func TestEngine_UnaryErrors(t *testing.T) {
	e := New()
	cfg := cfgWith(10, 10)

	tests := []struct {
		name string
		op   Op
		a    string
		code ErrorCode
	}{
		{"sqrt negative", OpSquareRoot, "-4", ErrCodeDomainError},
		{"rsqrt zero", OpReciprocalSqrt, "0", ErrCodeDivideByZero},
		{"rsqrt negative", OpReciprocalSqrt, "-1", ErrCodeDomainError},
		{"reciprocal zero", OpReciprocal, "0", ErrCodeDivideByZero},
		{"ln zero", OpNaturalLog, "0", ErrCodeDomainError},
		{"log negative", OpLog10, "-10", ErrCodeDomainError},
		{"factorial negative", OpFactorial, "-3", ErrCodeDomainError},
		{"factorial fractional", OpFactorial, "2.5", ErrCodeDomainError},
		{"factorial too large", OpFactorial, "1000000", ErrCodeDomainError},
		{"factorial past exponent range", OpFactorial, "25206", ErrCodeDomainError},
		{"tan 90 degrees", OpTan, "90", ErrCodeDomainError},
		{"tan 270 degrees", OpTan, "270", ErrCodeDomainError},
		{"malformed", OpSquare, "x", ErrCodeInvalidOperand},
		{"not unary", OpAdd, "1", ErrCodeInvalidOperand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Unary(tt.op, tt.a, cfg)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), "got %v", err)
		})
	}
}

func TestEngine_DefaultPrecision(t *testing.T) {
	e := New()
	cfg := config.DefaultConfig()

	got, err := e.Unary(OpPi, "", cfg)
	require.NoError(t, err)
	assert.Equal(t, "3.14159265358979323846264", got)

	got, err = e.Unary(OpFactorial, "25", cfg)
	require.NoError(t, err)
	assert.Equal(t, "1.5511210043330985984e+25", got)
}

// Expected digits are the correctly rounded 1000-digit values.
func TestEngine_MaxPrecision(t *testing.T) {
	e := New()
	cfg := cfgWith(config.MaxPrecision, 10)

	tests := []struct {
		name   string
		op     Op
		a, b   string
		prefix string
		suffix string
	}{
		{"ln", OpNaturalLog, "2", "", "0.6931471805599453094172321214581765680755", "56872747782344535348"},
		{"log", OpLog10, "7", "", "0.8450980400142568307122162585926361934835", "76095819192138125846"},
		{"pow fractional", OpPow, "2", "0.5", "1.4142135623730950488016887242096980785696", "58215212822951848847"},
		{"root 32", OpNthRoot, "5", "32", "1.0515811984959769128956602354441826196169", "76532454211750441861"},
		{"root fourth exact", OpNthRoot, "16", "4", "2", "2"},
		{"sin 30 degrees", OpSin, "30", "", "0.5", "0.5"},
		{"pi", OpPi, "", "", "3.1415926535897932384626433832795028841971", "76611195909216420199"},
		{"euler", OpEuler, "", "", "0.5772156649015328606065120900824024310421", "29596133298574739302"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			var err error
			if tt.op.Binary() {
				got, err = e.Binary(tt.op, tt.a, tt.b, cfg)
			} else {
				got, err = e.Unary(tt.op, tt.a, cfg)
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(got, tt.prefix), "got %.50s...", got)
			assert.True(t, strings.HasSuffix(got, tt.suffix), "got ...%s", got[max(0, len(got)-30):])
			if len(tt.suffix) > 5 {
				assert.Len(t, strings.TrimLeft(strings.Replace(got, ".", "", 1), "0"), config.MaxPrecision)
			}
		})
	}
}

func TestSeriesContext(t *testing.T) {
	assert.GreaterOrEqual(t, maxSeriesPrecision, config.MaxPrecision+guardDigits)

	ctx := workContext(cfgWith(config.MaxPrecision, 10))
	sc := seriesContext(ctx)
	assert.Equal(t, uint32(maxSeriesPrecision), sc.Precision)
	assert.Equal(t, ctx.Rounding, sc.Rounding)
	assert.Equal(t, uint32(4*config.MaxPrecision), ctx.Precision, "the caller's context is untouched")

	small := workContext(cfgWith(10, 10))
	assert.Same(t, small, seriesContext(small))
}

func TestConstCache_FailureNotCached(t *testing.T) {
	cc := newConstCache()
	ctx := workContext(cfgWith(10, 10))

	_, err := cc.get(ctx, cc.gamma, OpEuler, func(uint32) (*apd.Decimal, error) {
		return nil, errors.New("too many iterations")
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeDomainError, CodeOf(err))
	assert.Contains(t, err.Error(), "too many iterations")
	assert.Empty(t, cc.gamma)

	calls := 0
	compute := func(prec uint32) (*apd.Decimal, error) {
		calls++
		return computeEuler(prec)
	}
	for i := 0; i < 2; i++ {
		v, err := cc.get(ctx, cc.gamma, OpEuler, compute)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(v.String(), "0.57721566490153286060"), "got %s", v)
	}
	assert.Equal(t, 1, calls)
}

func TestEngine_FactorialLimit(t *testing.T) {
	e := New()
	cfg := cfgWith(10, 10)

	got, err := e.Unary(OpFactorial, "25205", cfg)
	require.NoError(t, err)
	assert.Equal(t, "4.783398549e+99995", got)

	_, err = e.Unary(OpFactorial, "25206", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factorial operand larger than 25205")
}

func TestEngine_Bases(t *testing.T) {
	e := New()

	t.Run("hex", func(t *testing.T) {
		cfg := cfgWith(10, 16)
		got, err := e.Binary(OpAdd, "A", "5", cfg)
		require.NoError(t, err)
		assert.Equal(t, "F", got)

		got, err = e.Binary(OpAdd, "FF", "1", cfg)
		require.NoError(t, err)
		assert.Equal(t, "100", got)

		got, err = e.Binary(OpDiv, "1", "2", cfg)
		require.NoError(t, err)
		assert.Equal(t, "0.8", got)

		got, err = e.Binary(OpMul, "1e+2", "1", cfg)
		require.NoError(t, err)
		assert.Equal(t, "100", got)

		_, err = e.Binary(OpAdd, "G", "1", cfg)
		assert.True(t, IsCode(err, ErrCodeInvalidOperand))
	})

	t.Run("binary", func(t *testing.T) {
		cfg := cfgWith(10, 2)
		got, err := e.Binary(OpAdd, "101", "11", cfg)
		require.NoError(t, err)
		assert.Equal(t, "1000", got)

		got, err = e.Binary(OpDiv, "1", "100", cfg)
		require.NoError(t, err)
		assert.Equal(t, "0.01", got)

		_, err = e.Binary(OpAdd, "2", "1", cfg)
		assert.True(t, IsCode(err, ErrCodeInvalidOperand))
	})
}

func TestEngine_PrecisionClampedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := New(WithLogger(zap.New(core)))

	got, err := e.Binary(OpDiv, "2", "3", cfgWith(0, 10))
	require.NoError(t, err)
	assert.Equal(t, "0.7", got)
	assert.Equal(t, 1, logs.FilterMessage("configuration clamped").Len())
}

type countingRecorder struct {
	ops map[string]int
}

func (r *countingRecorder) ObserveOp(op, outcome string) {
	r.ops[op+"/"+outcome]++
}

func TestEngine_Recorder(t *testing.T) {
	rec := &countingRecorder{ops: map[string]int{}}
	e := New(WithRecorder(rec))
	cfg := cfgWith(10, 10)

	_, _ = e.Binary(OpAdd, "1", "1", cfg)
	_, _ = e.Binary(OpDiv, "1", "0", cfg)
	_, _ = e.Unary(OpSquareRoot, "-1", cfg)

	assert.Equal(t, map[string]int{
		"add/ok":             1,
		"div/DIVIDE_BY_ZERO": 1,
		"sqrt/DOMAIN_ERROR":  1,
	}, rec.ops)
}

func TestEngine_Deterministic(t *testing.T) {
	e := New()
	cfg := cfgWith(30, 10)

	first, err := e.Binary(OpPow, "3", "0.7", cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := e.Binary(OpPow, "3", "0.7", cfg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNegate(t *testing.T) {
	assert.Equal(t, "-5", Negate("5"))
	assert.Equal(t, "5", Negate("-5"))
	assert.Equal(t, "-1.5e+10", Negate("1.5e+10"))
	assert.Equal(t, "0", Negate("0"))
	assert.Equal(t, "0.000", Negate("0.000"))
}

func TestOp(t *testing.T) {
	assert.True(t, OpAdd.Binary())
	assert.True(t, OpNthPower.Binary())
	assert.False(t, OpNthPower.Unary())
	assert.True(t, OpSin.Unary())
	assert.True(t, OpPi.Constant())
	assert.Equal(t, "sqrt", OpSquareRoot.String())

	op, ok := OperatorSymbol('√')
	assert.True(t, ok)
	assert.Equal(t, OpNthRoot, op)
	assert.Equal(t, '√', op.Symbol())

	op, ok = FunctionPrefix("log")
	assert.True(t, ok)
	assert.Equal(t, OpLog10, op)

	op, ok = ParseUnary("Factorial")
	assert.True(t, ok)
	assert.Equal(t, OpFactorial, op)

	op, ok = ParseUnary("rsqrt")
	assert.True(t, ok)
	assert.Equal(t, OpReciprocalSqrt, op)

	_, ok = ParseUnary("add")
	assert.False(t, ok)
}
