package power

import (
	"math"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
)

// BernoulliSD is the standard deviation of a Bernoulli(p) outcome
func BernoulliSD(p float64) float64 {
	return math.Sqrt(p * (1 - p))
}

// proportionProblem is a validated proportion spec. When the target is a
// proportion the corresponding field of props is zero.
type proportionProblem struct {
	problem
	propA, propB float64
}

// withProportions fills the effect and standard deviations implied by
// the two proportions
func withProportions(d Design, propA, propB float64) Design {
	d.MeanDiff = propB - propA
	d.SDA = BernoulliSD(propA)
	d.SDB = BernoulliSD(propB)
	return d
}

func (e *Engine) solveProportion(p proportionProblem) (solution, error) {
	switch p.target {
	case domain.TargetPropA, domain.TargetPropB:
		return e.solveProportionValue(p)
	default:
		p.design = withProportions(p.design, p.propA, p.propB)
		return e.solve(p.problem)
	}
}

// solveProportionValue root-finds the unknown proportion directly, since
// both the effect and that group's standard deviation move with it. The
// fixed proportion splits (0,1) into two monotone branches.
func (e *Engine) solveProportionValue(p proportionProblem) (solution, error) {
	solvingB := p.target == domain.TargetPropB
	fixed := p.propA
	if !solvingB {
		fixed = p.propB
	}

	f := func(x float64) (float64, error) {
		a, b := p.propA, x
		if !solvingB {
			a, b = x, p.propB
		}
		ev, err := evaluate(withProportions(p.design, a, b), p.rule)
		if err != nil {
			return 0, err
		}
		return ev.Power - p.power, nil
	}

	// which side of the fixed proportion the unknown lies on for a
	// positive (greater) or negative (less) effect
	searchAbove, searchBelow := true, true
	switch p.design.Alternative {
	case domain.Greater:
		// prop_b > prop_a
		searchAbove, searchBelow = solvingB, !solvingB
	case domain.Less:
		searchAbove, searchBelow = !solvingB, solvingB
	}

	eps := e.bounds.PropEpsilon
	ffixed, err := f(fixed)
	if err != nil {
		return solution{}, err
	}

	var roots []float64
	primary := math.NaN()
	total := 0
	if searchBelow {
		root, iters, ok, err := e.branchRoot(f, eps, fixed, ffixed)
		if err != nil {
			return solution{}, err
		}
		total += iters
		if ok {
			roots = append(roots, root)
			primary = root
		}
	}
	if searchAbove {
		root, iters, ok, err := e.branchRoot(f, fixed, 1-eps, ffixed)
		if err != nil {
			return solution{}, err
		}
		total += iters
		if ok {
			roots = append(roots, root)
			primary = root
		}
	}

	if len(roots) == 0 {
		return solution{}, errors.Unattainable("no %v in (0,1) reaches power %.6g with the other proportion fixed at %g", p.target, p.power, fixed)
	}
	return solution{values: dedupe(roots), primary: primary, iterations: total}, nil
}

// branchRoot looks for a root on one branch [a, b] where one end is the
// fixed proportion (power there is the size of the test). ok is false when
// the far end does not reach the requested power either.
func (e *Engine) branchRoot(f objective, a, b, ffixed float64) (root float64, iters int, ok bool, err error) {
	if ffixed >= 0 {
		return 0, 0, false, nil
	}
	fa, err := f(a)
	if err != nil {
		return 0, 0, false, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, 0, false, err
	}
	if fa < 0 && fb < 0 {
		return 0, 0, false, nil
	}
	root, iters, err = brent(f, a, b, fa, fb, e.bounds)
	if err != nil {
		return 0, iters, false, errors.Wrapf(err, "solving for a proportion on [%g, %g]", a, b)
	}
	return root, iters, true, nil
}
