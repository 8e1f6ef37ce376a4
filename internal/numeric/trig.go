package numeric

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/gcmp/internal/config"
)

var (
	decimal90  = apd.New(90, 0)
	decimal180 = apd.New(180, 0)
	decimal360 = apd.New(360, 0)
)

// trig computes sin, cos or tan of x. In degree mode x is first reduced
// modulo 360 exactly, so multiples of 90 degrees give exact results.
func (e *Engine) trig(ctx *apd.Context, op Op, d, x *apd.Decimal, mode config.AngleMode, operand string) error {
	gc := ctx.WithPrecision(ctx.Precision + guardDigits)
	gc.Rounding = apd.RoundHalfEven

	var rad *apd.Decimal
	if mode == config.Degrees {
		deg, err := reduceDegrees(x)
		if err != nil {
			return err
		}
		if s, c, ok := quadrant(deg); ok {
			return exactTrig(op, d, s, c, operand)
		}
		pi, err := e.consts.pi(gc)
		if err != nil {
			return err
		}
		rad = new(apd.Decimal)
		if _, err := gc.Mul(rad, deg, pi); err != nil {
			return err
		}
		if _, err := gc.Quo(rad, rad, decimal180); err != nil {
			return err
		}
	} else {
		var err error
		if rad, err = e.reduceRadians(gc, x); err != nil {
			return err
		}
	}

	var err error
	switch op {
	case OpSin:
		err = sinSeries(gc, d, rad)
	case OpCos:
		err = cosSeries(gc, d, rad)
	case OpTan:
		s, c := new(apd.Decimal), new(apd.Decimal)
		if err = sinSeries(gc, s, rad); err != nil {
			return err
		}
		if err = cosSeries(gc, c, rad); err != nil {
			return err
		}
		if c.IsZero() {
			return domainError(op, operand, "tangent is undefined")
		}
		_, err = gc.Quo(d, s, c)
	}
	if err != nil {
		return err
	}
	_, err = ctx.Round(d, d)
	return err
}

// reduceDegrees returns x modulo 360 in [0, 360).
func reduceDegrees(x *apd.Decimal) (*apd.Decimal, error) {
	// Rem is exact once the precision covers the integer quotient.
	p := x.NumDigits() + 4
	if p < minWorkPrecision {
		p = minWorkPrecision
	}
	if x.Exponent > 0 {
		p += int64(x.Exponent)
	}
	if p > apd.MaxExponent {
		return nil, domainError(OpNone, "", "angle too large")
	}
	rc := apd.BaseContext.WithPrecision(uint32(p))
	r := new(apd.Decimal)
	if _, err := rc.Rem(r, x, decimal360); err != nil {
		return nil, err
	}
	if r.Negative && !r.IsZero() {
		if _, err := rc.Add(r, r, decimal360); err != nil {
			return nil, err
		}
	}
	r.Negative = false
	return r, nil
}

// quadrant returns the exact sine and cosine of a multiple of 90 degrees.
func quadrant(deg *apd.Decimal) (sin, cos int, ok bool) {
	var q, frac apd.Decimal
	rc := apd.BaseContext.WithPrecision(uint32(deg.NumDigits()) + minWorkPrecision)
	if _, err := rc.Quo(&q, deg, decimal90); err != nil {
		return 0, 0, false
	}
	q.Modf(nil, &frac)
	if !frac.IsZero() {
		return 0, 0, false
	}
	n, err := q.Int64()
	if err != nil {
		return 0, 0, false
	}
	switch n % 4 {
	case 0:
		return 0, 1, true
	case 1:
		return 1, 0, true
	case 2:
		return 0, -1, true
	default:
		return -1, 0, true
	}
}

func exactTrig(op Op, d *apd.Decimal, s, c int, operand string) error {
	switch op {
	case OpSin:
		d.SetInt64(int64(s))
	case OpCos:
		d.SetInt64(int64(c))
	case OpTan:
		if c == 0 {
			return domainError(op, operand, "tangent is undefined")
		}
		d.SetInt64(int64(s * c))
	}
	return nil
}

// reduceRadians returns x - 2πk in [-π, π].
func (e *Engine) reduceRadians(gc *apd.Context, x *apd.Decimal) (*apd.Decimal, error) {
	// Reduction of a large argument loses the digits of x above the
	// precision; add enough to keep the fraction.
	extra := x.NumDigits() + int64(x.Exponent)
	if extra < 0 {
		extra = 0
	}
	if extra > apd.MaxExponent {
		return nil, domainError(OpNone, "", "angle too large")
	}
	rc := gc.WithPrecision(gc.Precision + uint32(extra))

	pi, err := e.consts.pi(rc)
	if err != nil {
		return nil, err
	}
	twoPi := new(apd.Decimal)
	if _, err := rc.Mul(twoPi, pi, decimalTwo); err != nil {
		return nil, err
	}
	k := new(apd.Decimal)
	if _, err := rc.Quo(k, x, twoPi); err != nil {
		return nil, err
	}
	if _, err := rc.RoundToIntegralValue(k, k); err != nil {
		return nil, err
	}
	r := new(apd.Decimal)
	if _, err := rc.Mul(r, k, twoPi); err != nil {
		return nil, err
	}
	if _, err := rc.Sub(r, x, r); err != nil {
		return nil, err
	}
	return r, nil
}

// sinSeries sums the Taylor series of sin(x) for |x| <= π.
func sinSeries(c *apd.Context, d, x *apd.Decimal) error {
	return taylor(c, d, x, x, 2)
}

// cosSeries sums the Taylor series of cos(x) for |x| <= π.
func cosSeries(c *apd.Context, d, x *apd.Decimal) error {
	return taylor(c, d, x, decimalOne, 1)
}

// taylor sums first + Σ term_k where term_k = -term_{k-1} * x² / (n(n+1))
// and n advances by 2 starting at start.
func taylor(c *apd.Context, d, x, first *apd.Decimal, start int64) error {
	ed := apd.MakeErrDecimal(c)
	x2 := new(apd.Decimal)
	ed.Mul(x2, x, x)

	sum := new(apd.Decimal).Set(first)
	term := new(apd.Decimal).Set(first)
	eps := -int64(c.Precision) - 2
	den := new(apd.Decimal)
	for n := start; ; n += 2 {
		ed.Mul(term, term, x2)
		den.SetInt64(n * (n + 1))
		ed.Quo(term, term, den)
		term.Neg(term)
		ed.Add(sum, sum, term)
		if err := ed.Err(); err != nil {
			return err
		}
		if term.IsZero() || term.NumDigits()+int64(term.Exponent) < eps {
			break
		}
	}
	d.Set(sum)
	return nil
}
