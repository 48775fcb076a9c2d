package power

import (
	domain "welchpower/domain/power"
)

// resolve writes the solved value into the design and returns the power
// reported alongside it
func resolve(p problem, sol solution) (Design, float64) {
	d := p.design
	reported := p.power
	switch p.target {
	case domain.TargetPower:
		reported = sol.primary
	case domain.TargetN:
		d.N = sol.primary
	case domain.TargetPercentB:
		d.PercentB = sol.primary
	case domain.TargetMeanDiff:
		d.MeanDiff = sol.primary
	case domain.TargetSigLevel:
		d.SigLevel = sol.primary
	}
	return d, reported
}

func result(p problem, sol solution, d Design, reported float64) (*domain.PowerResult, error) {
	ev, err := evaluate(d, p.rule)
	if err != nil {
		return nil, err
	}
	return &domain.PowerResult{
		Target:      p.target,
		N:           int(d.N),
		PercentB:    d.PercentB,
		MeanDiff:    d.MeanDiff,
		SDA:         d.SDA,
		SDB:         d.SDB,
		SigLevel:    d.SigLevel,
		Power:       reported,
		Alternative: d.Alternative,
		Method:      domain.Method,
		Solutions:   append([]float64(nil), sol.values...),
		Diagnostics: domain.Diagnostics{
			DF:             ev.DF,
			NCP:            ev.NCP,
			CriticalValues: ev.CriticalValues,
			AchievedPower:  ev.Power,
			Iterations:     sol.iterations,
		},
	}, nil
}

func assemble(p problem, sol solution) (*domain.PowerResult, error) {
	d, reported := resolve(p, sol)
	return result(p, sol, d, reported)
}

func assembleProportion(p proportionProblem, sol solution) (*domain.ProportionResult, error) {
	propA, propB := p.propA, p.propB
	switch p.target {
	case domain.TargetPropA:
		propA = sol.primary
	case domain.TargetPropB:
		propB = sol.primary
	}

	base := p.problem
	base.design = withProportions(base.design, propA, propB)
	d, reported := resolve(base, sol)

	res, err := result(base, sol, d, reported)
	if err != nil {
		return nil, err
	}
	return &domain.ProportionResult{
		PowerResult: *res,
		PropA:       propA,
		PropB:       propB,
	}, nil
}
