package power

import (
	"math"
	"sort"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
)

// problem is a validated specification: every known field is in design,
// the target field is zero, and power holds the requested power.
type problem struct {
	target    domain.Target
	design    Design
	rule      rule
	power     float64
	maxSample float64
}

// solution holds every root of a search. primary is the value reported
// in the target field.
type solution struct {
	values     []float64
	primary    float64
	iterations int
}

func single(x float64, iterations int) solution {
	return solution{values: []float64{x}, primary: x, iterations: iterations}
}

// powerAt returns f(x) = power(design with x substituted) - requested
func (p problem) powerAt(set func(d *Design, x float64)) objective {
	return func(x float64) (float64, error) {
		d := p.design
		set(&d, x)
		ev, err := evaluate(d, p.rule)
		if err != nil {
			return 0, err
		}
		return ev.Power - p.power, nil
	}
}

func (e *Engine) solve(p problem) (solution, error) {
	switch p.target {
	case domain.TargetPower:
		ev, err := evaluate(p.design, p.rule)
		if err != nil {
			return solution{}, err
		}
		return single(ev.Power, 0), nil
	case domain.TargetN:
		return e.solveN(p)
	case domain.TargetSigLevel:
		return e.solveSigLevel(p)
	case domain.TargetPercentB:
		return e.solvePercentB(p)
	case domain.TargetMeanDiff:
		return e.solveMeanDiff(p)
	default:
		return solution{}, errors.Specification("target %v cannot be solved on a continuous design", p.target)
	}
}

// minSampleFor is the smallest total sample searched when solving for n:
// at least five observations in each group
func minSampleFor(percentB float64) float64 {
	return math.Max(5/percentB, 5/(1-percentB))
}

func (e *Engine) solveN(p problem) (solution, error) {
	f := p.powerAt(func(d *Design, x float64) { d.N = x })

	lo := minSampleFor(p.design.PercentB)
	hi := p.maxSample
	if hi <= lo {
		return solution{}, errors.Unattainable("max_sample %g is below the smallest searchable sample %g", hi, lo)
	}

	flo, err := f(lo)
	if err != nil {
		return solution{}, err
	}
	if flo >= 0 {
		return single(math.Ceil(lo), 0), nil
	}
	fhi, err := f(hi)
	if err != nil {
		return solution{}, err
	}
	if fhi < 0 {
		return solution{}, errors.Unattainable("power %.6g is not reached within max_sample %g (power there is %.6g)", p.power, hi, fhi+p.power)
	}

	root, iters, err := brent(f, lo, hi, flo, fhi, e.bounds)
	if err != nil {
		return solution{}, errors.Wrap(err, "solving for n")
	}
	return single(math.Ceil(root), iters), nil
}

func (e *Engine) solveSigLevel(p problem) (solution, error) {
	f := p.powerAt(func(d *Design, x float64) { d.SigLevel = x })

	lo, hi := e.bounds.AlphaEpsilon, 1-e.bounds.AlphaEpsilon
	flo, err := f(lo)
	if err != nil {
		return solution{}, err
	}
	fhi, err := f(hi)
	if err != nil {
		return solution{}, err
	}
	if flo > 0 || fhi < 0 {
		return solution{}, errors.Unattainable("power %.6g is outside the range [%.6g, %.6g] reachable by sig_level", p.power, flo+p.power, fhi+p.power)
	}

	root, iters, err := brent(f, lo, hi, flo, fhi, e.bounds)
	if err != nil {
		return solution{}, errors.Wrap(err, "solving for sig_level")
	}
	return single(root, iters), nil
}

// solvePercentB isolates the allocation with maximum power, then finds the
// smallest allocation below it and the largest above it that reach the
// requested power. A side whose boundary already reaches it reports the boundary.
func (e *Engine) solvePercentB(p problem) (solution, error) {
	f := p.powerAt(func(d *Design, x float64) { d.PercentB = x })

	lo := math.Max(0.001, e.bounds.MinGroupSize/p.design.N)
	hi := 1 - lo
	if lo >= hi {
		return solution{}, errors.Unattainable("n=%g is too small to allocate %g observations to each group", p.design.N, e.bounds.MinGroupSize)
	}

	peak, fpeak, iters, err := goldenMax(f, lo, hi, e.bounds)
	if err != nil {
		return solution{}, errors.Wrap(err, "locating the most powerful allocation")
	}
	if fpeak < 0 {
		return solution{}, errors.Unattainable("power %.6g exceeds the maximum %.6g achievable at percent_b=%.4f", p.power, fpeak+p.power, peak)
	}

	lower, n1, err := e.sideRoot(f, lo, peak, fpeak, true)
	if err != nil {
		return solution{}, err
	}
	upper, n2, err := e.sideRoot(f, peak, hi, fpeak, false)
	if err != nil {
		return solution{}, err
	}

	sol := solution{primary: lower, iterations: iters + n1 + n2}
	sol.values = dedupe([]float64{lower, upper})
	return sol, nil
}

// sideRoot finds the root between a boundary and the peak. fpeak >= 0.
// When atLower the boundary is a, otherwise b.
func (e *Engine) sideRoot(f objective, a, b, fpeak float64, atLower bool) (float64, int, error) {
	boundary := b
	if atLower {
		boundary = a
	}
	fb, err := f(boundary)
	if err != nil {
		return 0, 0, err
	}
	if fb >= 0 {
		return boundary, 0, nil
	}
	var root float64
	var iters int
	if atLower {
		root, iters, err = brent(f, a, b, fb, fpeak, e.bounds)
	} else {
		root, iters, err = brent(f, a, b, fpeak, fb, e.bounds)
	}
	if err != nil {
		return 0, iters, errors.Wrap(err, "solving for percent_b")
	}
	return root, iters, nil
}

// solveMeanDiff searches the effect magnitude, which power is monotone in,
// and signs it according to the alternative. Two-sided tests yield both signs.
func (e *Engine) solveMeanDiff(p problem) (solution, error) {
	sign := 1.0
	if p.design.Alternative == domain.Less {
		sign = -1
	}
	f := p.powerAt(func(d *Design, x float64) { d.MeanDiff = sign * x })

	nA, nB := GroupSizes(p.design.N, p.design.PercentB)
	if nA <= 1 || nB <= 1 {
		return solution{}, errors.Domain("each group needs more than one observation (n_a=%g, n_b=%g)", nA, nB)
	}
	_, se := WelchDF(nA, nB, p.design.SDA, p.design.SDB)

	f0, err := f(0)
	if err != nil {
		return solution{}, err
	}
	if f0 >= 0 {
		return solution{}, errors.Unattainable("power %.6g does not exceed the power %.6g at zero effect", p.power, f0+p.power)
	}

	lo, hi, flo, fhi, err := expandUpper(f, se, e.bounds)
	if err != nil {
		return solution{}, errors.Wrap(err, "bracketing mean_diff")
	}
	m, iters, err := brent(f, lo, hi, flo, fhi, e.bounds)
	if err != nil {
		return solution{}, errors.Wrap(err, "solving for mean_diff")
	}

	if p.design.Alternative == domain.TwoSided {
		return solution{values: []float64{-m, m}, primary: m, iterations: iters}, nil
	}
	return single(sign*m, iters), nil
}

func dedupe(values []float64) []float64 {
	sort.Float64s(values)
	out := values[:0]
	for i, v := range values {
		if i > 0 && v == out[len(out)-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
