package power

import (
	"math"

	domain "welchpower/domain/power"
	"welchpower/internal/distributions"
	"welchpower/internal/errors"
)

// Design is a fully specified Welch t-test design. N may be fractional
// while a solver is searching over it.
type Design struct {
	N           float64
	PercentB    float64
	MeanDiff    float64
	SDA         float64
	SDB         float64
	SigLevel    float64
	Alternative domain.Alternative
}

// Evaluation is the outcome of one power evaluation
type Evaluation struct {
	Power          float64
	DF             float64
	NCP            float64
	SE             float64
	CriticalValues []float64
}

// rule binds an alternative to its critical values and rejection mass
type rule struct {
	critical func(alpha, df float64) []float64
	mass     func(dist distributions.NoncentralT, critical []float64) float64
}

var rules = map[domain.Alternative]rule{
	domain.TwoSided: {
		critical: func(alpha, df float64) []float64 {
			q := distributions.StudentsTUpperQuantile(alpha/2, df)
			return []float64{-q, q}
		},
		mass: func(dist distributions.NoncentralT, c []float64) float64 {
			return dist.CDF(c[0]) + dist.Survival(c[1])
		},
	},
	domain.Greater: {
		critical: func(alpha, df float64) []float64 {
			return []float64{distributions.StudentsTUpperQuantile(alpha, df)}
		},
		mass: func(dist distributions.NoncentralT, c []float64) float64 {
			return dist.Survival(c[0])
		},
	},
	domain.Less: {
		critical: func(alpha, df float64) []float64 {
			return []float64{distributions.StudentsTQuantile(alpha, df)}
		},
		mass: func(dist distributions.NoncentralT, c []float64) float64 {
			return dist.CDF(c[0])
		},
	},
}

func ruleFor(alt domain.Alternative) (rule, error) {
	r, ok := rules[alt]
	if !ok {
		return rule{}, errors.Specification("alternative must be one of two-sided, greater, less (got %v)", alt)
	}
	return r, nil
}

// GroupSizes splits a total sample into groups A and B
func GroupSizes(n, percentB float64) (nA, nB float64) {
	nB = n * percentB
	return n - nB, nB
}

// WelchDF returns the Welch-Satterthwaite degrees of freedom and the
// standard error of the mean difference
func WelchDF(nA, nB, sdA, sdB float64) (df, se float64) {
	va := sdA * sdA / nA
	vb := sdB * sdB / nB
	pooled := va + vb
	df = pooled * pooled / (va*va/(nA-1) + vb*vb/(nB-1))
	return df, math.Sqrt(pooled)
}

// Evaluate computes the power of a fully specified design
func Evaluate(d Design) (Evaluation, error) {
	r, err := ruleFor(d.Alternative)
	if err != nil {
		return Evaluation{}, err
	}
	return evaluate(d, r)
}

func evaluate(d Design, r rule) (Evaluation, error) {
	for _, v := range []float64{d.N, d.PercentB, d.MeanDiff, d.SDA, d.SDB, d.SigLevel} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Evaluation{}, errors.Domain("design contains a non-finite value: %+v", d)
		}
	}
	if d.SDA <= 0 || d.SDB <= 0 {
		return Evaluation{}, errors.Domain("standard deviations must be positive (sd_a=%g, sd_b=%g)", d.SDA, d.SDB)
	}
	if d.SigLevel <= 0 || d.SigLevel >= 1 {
		return Evaluation{}, errors.Domain("sig_level must lie in (0,1), got %g", d.SigLevel)
	}

	nA, nB := GroupSizes(d.N, d.PercentB)
	if nA <= 1 || nB <= 1 {
		return Evaluation{}, errors.Domain("each group needs more than one observation (n_a=%g, n_b=%g)", nA, nB)
	}

	df, se := WelchDF(nA, nB, d.SDA, d.SDB)
	ncp := d.MeanDiff / se
	critical := r.critical(d.SigLevel, df)
	p := r.mass(distributions.NoncentralT{Nu: df, Ncp: ncp}, critical)
	if math.IsNaN(p) {
		return Evaluation{}, errors.Domain("power is undefined for df=%g, ncp=%g", df, ncp)
	}

	return Evaluation{
		Power:          math.Max(0, math.Min(1, p)),
		DF:             df,
		NCP:            ncp,
		SE:             se,
		CriticalValues: critical,
	}, nil
}
