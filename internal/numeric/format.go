package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/gcmp/internal/config"
)

// formatter renders finite decimals in a base following the C printf
// conventions %.*g, %.*e and %.*f. Display rounding is half-to-even.
type formatter struct {
	base  int
	exact *apd.Context // precision 0: Mul and Add do not round
	quo   *apd.Context // division when scaling by a negative power of base
	round *apd.Context // half-even rounding to integers
}

func newFormatter(base int, workPrecision uint32) *formatter {
	exact := apd.BaseContext.WithPrecision(0)
	quo := apd.BaseContext.WithPrecision(workPrecision + guardDigits)
	quo.Rounding = apd.RoundHalfEven
	round := apd.BaseContext.WithPrecision(workPrecision + guardDigits)
	round.Rounding = apd.RoundHalfEven
	return &formatter{base: base, exact: exact, quo: quo, round: round}
}

// Format renders d per cfg.OutputFormat with cfg.Precision digits.
func (f *formatter) Format(d *apd.Decimal, cfg config.Config) (string, error) {
	if d.Form != apd.Finite {
		return "", domainError(OpNone, "", "result is not finite")
	}
	p := cfg.Precision
	switch cfg.OutputFormat {
	case config.Scientific:
		return f.scientific(d, p)
	case config.Fixed:
		return f.fixed(d, p)
	default:
		return f.general(d, p)
	}
}

// general is %.*g: p significant digits, scientific notation when the
// exponent is below -4 or at least p, trailing zeros removed.
func (f *formatter) general(d *apd.Decimal, p int) (string, error) {
	if p < 1 {
		p = 1
	}
	if d.IsZero() {
		return "0", nil
	}
	digits, x, err := f.significant(d, p)
	if err != nil {
		return "", err
	}

	var body string
	if x < -4 || x >= int64(p) {
		body = mantissa(trimZeros(digits)) + exponentSuffix(x)
	} else {
		var s string
		if x >= 0 {
			s = digits[:x+1] + "." + digits[x+1:]
		} else {
			s = "0." + strings.Repeat("0", int(-x-1)) + digits
		}
		body = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	}
	return withSign(d.Negative, body), nil
}

// scientific is %.*e: one leading digit, p fraction digits, exponent of at
// least two digits.
func (f *formatter) scientific(d *apd.Decimal, p int) (string, error) {
	if d.IsZero() {
		return mantissa(strings.Repeat("0", p+1)) + exponentSuffix(0), nil
	}
	digits, x, err := f.significant(d, p+1)
	if err != nil {
		return "", err
	}
	return withSign(d.Negative, mantissa(digits)+exponentSuffix(x)), nil
}

// fixed is %.*f: p fraction digits.
func (f *formatter) fixed(d *apd.Decimal, p int) (string, error) {
	abs := new(apd.Decimal).Abs(d)
	s, err := f.scaled(abs, int64(p))
	if err != nil {
		return "", err
	}
	if len(s) < p+1 {
		s = strings.Repeat("0", p+1-len(s)) + s
	}
	body := s
	if p > 0 {
		body = s[:len(s)-p] + "." + s[len(s)-p:]
	}
	zero := strings.Trim(s, "0") == ""
	return withSign(d.Negative && !zero, body), nil
}

// significant returns the first p digits of |d| in the formatter's base,
// rounded, and the base exponent of the leading digit.
func (f *formatter) significant(d *apd.Decimal, p int) (string, int64, error) {
	abs := new(apd.Decimal).Abs(d)
	x, err := f.exponent(abs)
	if err != nil {
		return "", 0, err
	}
	s, err := f.scaled(abs, int64(p-1)-x)
	if err != nil {
		return "", 0, err
	}
	// Rounding carried into a new leading digit.
	if len(s) > p {
		s = s[:p]
		x++
	}
	return s, x, nil
}

// exponent returns X such that base**X <= abs < base**(X+1). abs must be
// positive.
func (f *formatter) exponent(abs *apd.Decimal) (int64, error) {
	e10 := abs.NumDigits() + int64(abs.Exponent) - 1
	if f.base == 10 {
		return e10, nil
	}

	x := int64(math.Floor(float64(e10) * math.Ln10 / math.Log(float64(f.base))))
	for {
		c, err := f.cmpPow(abs, x)
		if err != nil {
			return 0, err
		}
		if c >= 0 {
			break
		}
		x--
	}
	for {
		c, err := f.cmpPow(abs, x+1)
		if err != nil {
			return 0, err
		}
		if c < 0 {
			break
		}
		x++
	}
	return x, nil
}

// cmpPow compares abs with base**k exactly.
func (f *formatter) cmpPow(abs *apd.Decimal, k int64) (int, error) {
	if k >= 0 {
		return abs.Cmp(apd.NewWithBigInt(bigPow(f.base, k), 0)), nil
	}
	scaled := new(apd.Decimal)
	if _, err := f.exact.Mul(scaled, abs, apd.NewWithBigInt(bigPow(f.base, -k), 0)); err != nil {
		return 0, domainError(OpNone, "", "%v", err)
	}
	return scaled.Cmp(decimalOne), nil
}

// scaled returns the digits, in base, of abs * base**shift rounded to an
// integer.
func (f *formatter) scaled(abs *apd.Decimal, shift int64) (string, error) {
	y := new(apd.Decimal)
	switch {
	case f.base == 10:
		e := int64(abs.Exponent) + shift
		if e < math.MinInt32 || e > math.MaxInt32 {
			return "", domainError(OpNone, "", "exponent out of range")
		}
		y.Set(abs)
		y.Exponent = int32(e)
	case shift >= 0:
		if _, err := f.exact.Mul(y, abs, apd.NewWithBigInt(bigPow(f.base, shift), 0)); err != nil {
			return "", domainError(OpNone, "", "%v", err)
		}
	default:
		if _, err := f.quo.Quo(y, abs, apd.NewWithBigInt(bigPow(f.base, -shift), 0)); err != nil {
			return "", domainError(OpNone, "", "%v", err)
		}
	}

	n := new(apd.Decimal)
	if _, err := f.round.RoundToIntegralValue(n, y); err != nil {
		return "", domainError(OpNone, "", "%v", err)
	}
	coeff := new(apd.BigInt).Set(&n.Coeff)
	if n.Exponent > 0 {
		coeff.Mul(coeff, bigPow(10, int64(n.Exponent)))
	}
	return strings.ToUpper(coeff.Text(f.base)), nil
}

// mantissa places the point after the first digit.
func mantissa(digits string) string {
	if len(digits) <= 1 {
		return digits
	}
	return digits[:1] + "." + digits[1:]
}

func trimZeros(digits string) string {
	t := strings.TrimRight(digits, "0")
	if t == "" {
		return "0"
	}
	return t
}

func exponentSuffix(x int64) string {
	sign := "+"
	if x < 0 {
		sign = "-"
		x = -x
	}
	e := strconv.FormatInt(x, 10)
	if len(e) < 2 {
		e = "0" + e
	}
	return "e" + sign + e
}

func withSign(neg bool, body string) string {
	if neg {
		return "-" + body
	}
	return body
}
