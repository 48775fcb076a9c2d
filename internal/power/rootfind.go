package power

import (
	"math"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
)

// objective is a scalar function that can fail with a domain error
type objective func(x float64) (float64, error)

var invPhi = (math.Sqrt(5) - 1) / 2

// brent finds a root of f on [a, b], given fa = f(a) and fb = f(b) of
// opposite sign. It stops when |f| <= Tolerance or the bracket is narrower
// than XTolerance relative to the root.
func brent(f objective, a, b, fa, fb float64, bounds domain.SolverBounds) (root float64, iterations int, err error) {
	if fa == 0 {
		return a, 0, nil
	}
	if fb == 0 {
		return b, 0, nil
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return 0, 0, errors.Unattainable("root is not bracketed on [%g, %g] (f=%g, %g)", a, b, fa, fb)
	}

	c, fc := a, fa
	d := b - a
	e := d
	for iterations = 1; iterations <= bounds.MaxIterations; iterations++ {
		if math.Signbit(fb) == math.Signbit(fc) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*math.SmallestNonzeroFloat64 + 0.5*bounds.XTolerance*math.Max(math.Abs(b), 1e-3)
		m := 0.5 * (c - b)
		if math.Abs(fb) <= bounds.Tolerance || math.Abs(m) <= tol {
			return b, iterations, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			// inverse quadratic interpolation, or secant when a == c
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * m * s
				q = 1 - s
			} else {
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = d
			}
		} else {
			d = m
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, m)
		}
		if fb, err = f(b); err != nil {
			return 0, iterations, err
		}
	}

	return 0, bounds.MaxIterations, errors.Convergence("no root within %d iterations (bracket [%g, %g], f=%g)", bounds.MaxIterations, b, c, fb)
}

// goldenMax locates the maximiser of a unimodal f on [a, b]
func goldenMax(f objective, a, b float64, bounds domain.SolverBounds) (x, fx float64, iterations int, err error) {
	x1 := b - invPhi*(b-a)
	x2 := a + invPhi*(b-a)
	f1, err := f(x1)
	if err != nil {
		return 0, 0, 0, err
	}
	f2, err := f(x2)
	if err != nil {
		return 0, 0, 0, err
	}

	for iterations = 1; iterations <= bounds.MaxIterations; iterations++ {
		if b-a <= bounds.XTolerance*math.Max(1, math.Abs(a)+math.Abs(b))+1e-9 {
			if f1 > f2 {
				return x1, f1, iterations, nil
			}
			return x2, f2, iterations, nil
		}
		if f1 < f2 {
			a = x1
			x1, f1 = x2, f2
			x2 = a + invPhi*(b-a)
			if f2, err = f(x2); err != nil {
				return 0, 0, iterations, err
			}
		} else {
			b = x2
			x2, f2 = x1, f1
			x1 = b - invPhi*(b-a)
			if f1, err = f(x1); err != nil {
				return 0, 0, iterations, err
			}
		}
	}

	return 0, 0, bounds.MaxIterations, errors.Convergence("maximum not isolated within %d iterations", bounds.MaxIterations)
}

// expandUpper doubles hi from start until f(hi) >= 0, returning the last
// bracket [lo, hi] with f(lo) < 0 <= f(hi)
func expandUpper(f objective, start float64, bounds domain.SolverBounds) (lo, hi, flo, fhi float64, err error) {
	lo = 0
	if flo, err = f(lo); err != nil {
		return 0, 0, 0, 0, err
	}
	hi = start
	for i := 0; i < bounds.MaxIterations; i++ {
		if fhi, err = f(hi); err != nil {
			return 0, 0, 0, 0, err
		}
		if fhi >= 0 {
			return lo, hi, flo, fhi, nil
		}
		lo, flo = hi, fhi
		hi *= 2
	}
	return 0, 0, 0, 0, errors.Convergence("no upper bracket found within %d doublings", bounds.MaxIterations)
}
