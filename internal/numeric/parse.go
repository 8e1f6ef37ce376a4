package numeric

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// maxExponent bounds the exponent written after 'e' in a numeral.
const maxExponent = 100000

// DigitValue returns the value of r as a digit, or -1 if r is not a digit in
// any base. Digits above 9 are the upper-case letters A..Z; lower-case
// letters are reserved for function names and the e and m markers.
func DigitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	}
	return -1
}

// IsDigit reports whether r is a digit in base.
func IsDigit(r rune, base int) bool {
	v := DigitValue(r)
	return v >= 0 && v < base
}

// ParseNumeral parses a numeral of the form
//
//	[+|-] digits [. digits] [e [+|-] decimal-digits]
//
// where digits are in base and the exponent is a power of base. The mantissa
// is read exactly; in bases other than 10 a negative scale is divided out at
// ctx's precision.
func ParseNumeral(s string, base int, ctx *apd.Context) (*apd.Decimal, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, invalidOperand(OpNone, s, "empty operand")
	}

	neg := false
	switch text[0] {
	case '-':
		neg = true
		text = text[1:]
	case '+':
		text = text[1:]
	}

	mant, exp := text, ""
	hasExp := false
	if i := strings.IndexByte(text, 'e'); i >= 0 {
		mant, exp, hasExp = text[:i], text[i+1:], true
	}

	intPart, frac := mant, ""
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		intPart, frac = mant[:i], mant[i+1:]
	}
	digits := intPart + frac
	if digits == "" {
		return nil, invalidOperand(OpNone, s, "no digits")
	}
	for _, r := range digits {
		if !IsDigit(r, base) {
			return nil, invalidOperand(OpNone, s, "invalid digit %q for base %d", r, base)
		}
	}

	var e int64
	if hasExp {
		if exp == "" || exp == "+" || exp == "-" {
			return nil, invalidOperand(OpNone, s, "missing exponent digits")
		}
		n, err := strconv.ParseInt(exp, 10, 64)
		if err != nil {
			return nil, invalidOperand(OpNone, s, "invalid exponent %q", exp)
		}
		if n > maxExponent || n < -maxExponent {
			return nil, domainError(OpNone, s, "exponent %d out of range", n)
		}
		e = n
	}

	coeff, ok := new(apd.BigInt).SetString(digits, base)
	if !ok {
		return nil, invalidOperand(OpNone, s, "invalid numeral")
	}

	scale := e - int64(len(frac))
	var d *apd.Decimal
	switch {
	case base == 10:
		if scale < apd.MinExponent || scale > apd.MaxExponent {
			return nil, domainError(OpNone, s, "exponent out of range")
		}
		d = apd.NewWithBigInt(coeff, int32(scale))
	case scale >= 0:
		coeff.Mul(coeff, bigPow(base, scale))
		d = apd.NewWithBigInt(coeff, 0)
	default:
		d = new(apd.Decimal)
		den := apd.NewWithBigInt(bigPow(base, -scale), 0)
		if _, err := ctx.Quo(d, apd.NewWithBigInt(coeff, 0), den); err != nil {
			return nil, domainError(OpNone, s, "%v", err)
		}
	}

	d.Negative = neg && !d.IsZero()
	return d, nil
}

// bigPow returns base**n for n >= 0.
func bigPow(base int, n int64) *apd.BigInt {
	return new(apd.BigInt).Exp(apd.NewBigInt(int64(base)), apd.NewBigInt(n), nil)
}
