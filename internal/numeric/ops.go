package numeric

import (
	"github.com/cockroachdb/apd/v3"
)

// maxFactorial is the largest n whose n! keeps its exponent within
// apd.MaxExponent. 25206! already has 100001 digits.
const maxFactorial = 25205

// mod is the truncated remainder; the result takes the sign of x.
func (e *Engine) mod(ctx *apd.Context, d, x, y *apd.Decimal) error {
	// Rem needs the integer quotient to fit in the context precision.
	p := ctx.Precision
	if n := x.NumDigits() + int64(x.Exponent) - int64(y.Exponent) + 1; n > int64(p) {
		if n > apd.MaxExponent {
			return domainError(OpMod, "", "operands too far apart")
		}
		p = uint32(n)
	}
	rc := *ctx
	rc.Precision = p
	if _, err := rc.Rem(d, x, y); err != nil {
		return err
	}
	_, err := ctx.Round(d, d)
	return err
}

// pow raises x to y. Integer exponents are exact up to rounding; others go
// through exp(y*ln x) at the series precision.
func (e *Engine) pow(ctx *apd.Context, op Op, d, x, y *apd.Decimal, operand string) error {
	if x.IsZero() {
		switch {
		case y.IsZero():
			d.Set(decimalOne)
			return nil
		case y.Negative:
			return divideByZero(op, operand, 1)
		}
	}
	if isInteger(y) {
		_, err := ctx.Pow(d, x, y)
		return err
	}
	if x.Negative {
		return domainError(op, operand, "negative base with a fractional exponent")
	}
	if x.IsZero() {
		d.Set(decimalZero)
		return nil
	}
	return expLog(ctx, d, x, y)
}

// expLog sets d = exp(y*ln x) for x > 0, rounded per ctx but carrying at
// most maxSeriesPrecision digits.
func expLog(ctx *apd.Context, d, x, y *apd.Decimal) error {
	sc := seriesContext(ctx)
	gc := sc.WithPrecision(sc.Precision + guardDigits)
	gc.Rounding = apd.RoundHalfEven
	ed := apd.MakeErrDecimal(gc)

	t := new(apd.Decimal)
	ed.Ln(t, x)
	ed.Mul(t, t, y)
	ed.Exp(d, t)
	if err := ed.Err(); err != nil {
		return err
	}
	_, err := sc.Round(d, d)
	return err
}

// nthRoot takes the index'th root of x. The index must be a positive integer;
// odd roots of negative numbers are real.
func (e *Engine) nthRoot(ctx *apd.Context, d, x, index *apd.Decimal, operand string) error {
	if index.IsZero() {
		return invalidRoot(OpNthRoot, operand, "root index of zero")
	}
	if index.Negative || !isInteger(index) {
		return invalidRoot(OpNthRoot, operand, "root index must be a positive integer")
	}
	n, err := index.Int64()
	if err != nil {
		return invalidRoot(OpNthRoot, operand, "root index too large")
	}

	odd := n%2 == 1
	if x.Negative && !odd {
		return domainError(OpNthRoot, operand, "even root of a negative number")
	}

	abs := new(apd.Decimal).Abs(x)
	switch n {
	case 1:
		d.Set(abs)
	case 2:
		_, err = ctx.Sqrt(d, abs)
	case 3:
		_, err = ctx.Cbrt(d, abs)
	default:
		if abs.IsZero() {
			d.Set(decimalZero)
			break
		}
		inv := new(apd.Decimal)
		gc := seriesContext(ctx)
		gc = gc.WithPrecision(gc.Precision + guardDigits)
		if _, err = gc.Quo(inv, decimalOne, apd.New(n, 0)); err == nil {
			err = expLog(ctx, d, abs, inv)
		}
	}
	if err != nil {
		return err
	}
	if x.Negative {
		d.Neg(d)
	}
	return nil
}

// factorial sets d to x! for a non-negative integer x.
func factorial(ctx *apd.Context, d, x *apd.Decimal, operand string) error {
	if x.Negative && !x.IsZero() {
		return domainError(OpFactorial, operand, "factorial of a negative number")
	}
	if !isInteger(x) {
		return domainError(OpFactorial, operand, "factorial of a non-integer")
	}
	n, err := x.Int64()
	if err != nil || n > maxFactorial {
		return domainError(OpFactorial, operand, "factorial operand larger than %d", maxFactorial)
	}
	if n < 2 {
		d.Set(decimalOne)
		return nil
	}
	f := new(apd.BigInt).MulRange(1, n)
	_, err = ctx.Round(d, apd.NewWithBigInt(f, 0))
	return err
}

func isInteger(x *apd.Decimal) bool {
	if x.Form != apd.Finite {
		return false
	}
	var frac apd.Decimal
	x.Modf(nil, &frac)
	return frac.IsZero()
}
