package power

import (
	"math"
	"strings"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
)

// field is one designated solvable input
type field struct {
	target domain.Target
	unset  bool
}

// singleTarget enforces that exactly one designated field is unknown
func singleTarget(fields []field) (domain.Target, error) {
	var unknown []domain.Target
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.target.String())
		if f.unset {
			unknown = append(unknown, f.target)
		}
	}
	switch len(unknown) {
	case 1:
		return unknown[0], nil
	case 0:
		return 0, errors.Specification("exactly one of %s must be unknown, none is", strings.Join(names, ", "))
	default:
		got := make([]string, len(unknown))
		for i, t := range unknown {
			got[i] = t.String()
		}
		return 0, errors.Specification("exactly one of %s may be unknown, got %s", strings.Join(names, ", "), strings.Join(got, ", "))
	}
}

func checkOpenUnit(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v <= 0 || *v >= 1 {
		return errors.Specification("%s must be between 0 and 1, got %g", name, *v)
	}
	return nil
}

func checkN(n *int) error {
	if n != nil && *n < domain.MinSampleSize {
		return errors.Specification("n must be at least %d, got %d", domain.MinSampleSize, *n)
	}
	return nil
}

func checkSD(name string, sd float64) error {
	if math.IsNaN(sd) || math.IsInf(sd, 0) || sd <= 0 {
		return errors.Specification("%s must be positive, got %g", name, sd)
	}
	return nil
}

func resolveMaxSample(maxSample float64) (float64, error) {
	if maxSample == 0 {
		return domain.DefaultMaxSample, nil
	}
	if math.IsNaN(maxSample) || math.IsInf(maxSample, 0) || maxSample < 0 {
		return 0, errors.Specification("max_sample must be positive, got %g", maxSample)
	}
	return math.Ceil(maxSample), nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// validateTestSpec checks a continuous spec and resolves its target and
// alternative rule
func validateTestSpec(spec domain.TestSpec) (problem, error) {
	target, err := singleTarget([]field{
		{domain.TargetN, spec.N == nil},
		{domain.TargetPercentB, spec.PercentB == nil},
		{domain.TargetMeanDiff, spec.MeanDiff == nil},
		{domain.TargetPower, spec.Power == nil},
		{domain.TargetSigLevel, spec.SigLevel == nil},
	})
	if err != nil {
		return problem{}, err
	}

	r, err := ruleFor(spec.Alternative)
	if err != nil {
		return problem{}, err
	}

	checks := []error{
		checkSD("sd_a", spec.SDA),
		checkSD("sd_b", spec.SDB),
		checkOpenUnit("sig_level", spec.SigLevel),
		checkOpenUnit("power", spec.Power),
		checkN(spec.N),
		checkOpenUnit("percent_b", spec.PercentB),
	}
	for _, err := range checks {
		if err != nil {
			return problem{}, err
		}
	}
	if spec.MeanDiff != nil && (math.IsNaN(*spec.MeanDiff) || math.IsInf(*spec.MeanDiff, 0)) {
		return problem{}, errors.Specification("mean_diff must be finite, got %g", *spec.MeanDiff)
	}

	maxSample, err := resolveMaxSample(spec.MaxSample)
	if err != nil {
		return problem{}, err
	}

	d := Design{
		PercentB:    deref(spec.PercentB),
		MeanDiff:    deref(spec.MeanDiff),
		SDA:         spec.SDA,
		SDB:         spec.SDB,
		SigLevel:    deref(spec.SigLevel),
		Alternative: spec.Alternative,
	}
	if spec.N != nil {
		d.N = float64(*spec.N)
	}

	return problem{
		target:    target,
		design:    d,
		rule:      r,
		power:     deref(spec.Power),
		maxSample: maxSample,
	}, nil
}

// validateProportionSpec checks a proportion spec and resolves its target
// and alternative rule
func validateProportionSpec(spec domain.ProportionSpec) (proportionProblem, error) {
	target, err := singleTarget([]field{
		{domain.TargetN, spec.N == nil},
		{domain.TargetPercentB, spec.PercentB == nil},
		{domain.TargetPropA, spec.PropA == nil},
		{domain.TargetPropB, spec.PropB == nil},
		{domain.TargetPower, spec.Power == nil},
		{domain.TargetSigLevel, spec.SigLevel == nil},
	})
	if err != nil {
		return proportionProblem{}, err
	}

	r, err := ruleFor(spec.Alternative)
	if err != nil {
		return proportionProblem{}, err
	}

	checks := []error{
		checkOpenUnit("prop_a", spec.PropA),
		checkOpenUnit("prop_b", spec.PropB),
		checkOpenUnit("sig_level", spec.SigLevel),
		checkOpenUnit("power", spec.Power),
		checkN(spec.N),
		checkOpenUnit("percent_b", spec.PercentB),
	}
	for _, err := range checks {
		if err != nil {
			return proportionProblem{}, err
		}
	}

	maxSample, err := resolveMaxSample(spec.MaxSample)
	if err != nil {
		return proportionProblem{}, err
	}

	d := Design{
		PercentB:    deref(spec.PercentB),
		SigLevel:    deref(spec.SigLevel),
		Alternative: spec.Alternative,
	}
	if spec.N != nil {
		d.N = float64(*spec.N)
	}

	return proportionProblem{
		problem: problem{
			target:    target,
			design:    d,
			rule:      r,
			power:     deref(spec.Power),
			maxSample: maxSample,
		},
		propA: deref(spec.PropA),
		propB: deref(spec.PropB),
	}, nil
}
