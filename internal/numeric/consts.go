package numeric

import (
	"math"
	"sync"

	"github.com/cockroachdb/apd/v3"
)

// constCache memoizes π and γ per precision.
type constCache struct {
	mu    sync.Mutex
	pis   map[uint32]*apd.Decimal
	gamma map[uint32]*apd.Decimal
}

func newConstCache() *constCache {
	return &constCache{
		pis:   make(map[uint32]*apd.Decimal),
		gamma: make(map[uint32]*apd.Decimal),
	}
}

// pi returns π rounded per c. The result is a fresh copy.
func (cc *constCache) pi(c *apd.Context) (*apd.Decimal, error) {
	return cc.get(c, cc.pis, OpPi, computePi)
}

// euler returns the Euler–Mascheroni constant γ rounded per c.
func (cc *constCache) euler(c *apd.Context) (*apd.Decimal, error) {
	return cc.get(c, cc.gamma, OpEuler, computeEuler)
}

// get returns the cached constant for c's precision, computing it first if
// needed. A failed computation is not cached.
func (cc *constCache) get(c *apd.Context, m map[uint32]*apd.Decimal, op Op, compute func(uint32) (*apd.Decimal, error)) (*apd.Decimal, error) {
	cc.mu.Lock()
	v, ok := m[c.Precision]
	if !ok {
		var err error
		if v, err = compute(c.Precision + guardDigits); err != nil {
			cc.mu.Unlock()
			return nil, domainError(op, "", "cannot compute at precision %d: %v", c.Precision, err)
		}
		m[c.Precision] = v
	}
	cc.mu.Unlock()

	out := new(apd.Decimal)
	if _, err := c.Round(out, v); err != nil {
		return nil, asEvalError(op, "", err)
	}
	return out, nil
}

// computePi uses Machin's formula π = 16·atan(1/5) − 4·atan(1/239).
func computePi(prec uint32) (*apd.Decimal, error) {
	c := apd.BaseContext.WithPrecision(prec)
	c.Rounding = apd.RoundHalfEven
	ed := apd.MakeErrDecimal(c)

	a, err := atanInv(c, 5)
	if err != nil {
		return nil, err
	}
	b, err := atanInv(c, 239)
	if err != nil {
		return nil, err
	}
	pi := new(apd.Decimal)
	ed.Mul(a, a, apd.New(16, 0))
	ed.Mul(b, b, apd.New(4, 0))
	ed.Sub(pi, a, b)
	if err := ed.Err(); err != nil {
		return nil, err
	}
	return pi, nil
}

// atanInv returns atan(1/n) = Σ (-1)^k / ((2k+1)·n^(2k+1)).
func atanInv(c *apd.Context, n int64) (*apd.Decimal, error) {
	ed := apd.MakeErrDecimal(c)
	n2 := apd.New(n*n, 0)

	power := new(apd.Decimal) // 1/n^(2k+1)
	ed.Quo(power, decimalOne, apd.New(n, 0))
	sum := new(apd.Decimal).Set(power)
	term := new(apd.Decimal)
	eps := -int64(c.Precision) - 2
	for k := int64(1); ; k++ {
		ed.Quo(power, power, n2)
		ed.Quo(term, power, apd.New(2*k+1, 0))
		if k%2 == 1 {
			ed.Sub(sum, sum, term)
		} else {
			ed.Add(sum, sum, term)
		}
		if err := ed.Err(); err != nil {
			return nil, err
		}
		if term.IsZero() || term.NumDigits()+int64(term.Exponent) < eps {
			break
		}
	}
	return sum, nil
}

// computeEuler uses the Brent–McMillan algorithm B1:
//
//	A₀ = −ln n, B₀ = 1, U₀ = A₀, V₀ = 1
//	B_k = B_{k−1}·n²/k²
//	A_k = (A_{k−1}·n²/k + B_k)/k
//	γ ≈ U/V where U = ΣA_k, V = ΣB_k
//
// with error O(e^{−4n}).
func computeEuler(prec uint32) (*apd.Decimal, error) {
	c := apd.BaseContext.WithPrecision(prec + guardDigits)
	c.Rounding = apd.RoundHalfEven
	ed := apd.MakeErrDecimal(c)

	n := int64(math.Ceil(float64(prec)*math.Ln10/4)) + 1
	kmax := int64(math.Ceil(3.5911*float64(n))) + 1
	nn := apd.New(n*n, 0)

	a := new(apd.Decimal)
	ed.Ln(a, apd.New(n, 0))
	if err := ed.Err(); err != nil {
		return nil, err
	}
	a.Neg(a)
	b := new(apd.Decimal).Set(decimalOne)
	u := new(apd.Decimal).Set(a)
	v := new(apd.Decimal).Set(decimalOne)

	kd := new(apd.Decimal)
	k2 := new(apd.Decimal)
	for k := int64(1); k <= kmax; k++ {
		kd.SetInt64(k)
		k2.SetInt64(k * k)

		ed.Mul(b, b, nn)
		ed.Quo(b, b, k2)

		ed.Mul(a, a, nn)
		ed.Quo(a, a, kd)
		ed.Add(a, a, b)
		ed.Quo(a, a, kd)

		ed.Add(u, u, a)
		ed.Add(v, v, b)
	}

	g := new(apd.Decimal)
	ed.Quo(g, u, v)
	if err := ed.Err(); err != nil {
		return nil, err
	}
	return g, nil
}
