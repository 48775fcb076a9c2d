package main

import (
	"github.com/spf13/pflag"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
)

// continuousFlags binds a TestSpec to flags; a flag that is not set on the
// command line leaves its field unknown
type continuousFlags struct {
	n           int
	percentB    float64
	meanDiff    float64
	sdA, sdB    float64
	sigLevel    float64
	power       float64
	alternative string
	maxSample   float64
}

func (f *continuousFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.n, "n", 0, "Total sample size across both groups")
	fs.Float64Var(&f.percentB, "percent-b", 0, "Share of the sample in group B")
	fs.Float64Var(&f.meanDiff, "mean-diff", 0, "Difference in means, mean_B - mean_A")
	fs.Float64Var(&f.sdA, "sd-a", domain.DefaultSD, "Standard deviation of group A")
	fs.Float64Var(&f.sdB, "sd-b", domain.DefaultSD, "Standard deviation of group B")
	fs.Float64Var(&f.sigLevel, "sig-level", 0, "Significance level")
	fs.Float64Var(&f.power, "power", 0, "Power of the test")
	fs.StringVar(&f.alternative, "alternative", "two-sided", "two-sided, greater or less")
	fs.Float64Var(&f.maxSample, "max-sample", 0, "Largest n searched when solving for n; 0 uses POWER_MAX_SAMPLE")
}

// base fills every flag that was set, leaving power unknown
func (f *continuousFlags) base(fs *pflag.FlagSet) (domain.TestSpec, error) {
	alt, err := domain.ParseAlternative(f.alternative)
	if err != nil {
		return domain.TestSpec{}, errors.Specification("%v", err)
	}
	spec := domain.DefaultTestSpec()
	spec.SDA, spec.SDB = f.sdA, f.sdB
	spec.Alternative = alt
	spec.MaxSample = f.maxSample
	if fs.Changed("n") {
		spec.N = domain.Int(f.n)
	}
	if fs.Changed("percent-b") {
		spec.PercentB = domain.Float(f.percentB)
	}
	if fs.Changed("mean-diff") {
		spec.MeanDiff = domain.Float(f.meanDiff)
	}
	if fs.Changed("sig-level") {
		spec.SigLevel = domain.Float(f.sigLevel)
	}
	return spec, nil
}

func (f *continuousFlags) spec(fs *pflag.FlagSet) (domain.TestSpec, error) {
	spec, err := f.base(fs)
	if err != nil {
		return spec, err
	}
	if fs.Changed("power") {
		spec.Power = domain.Float(f.power)
	}
	return spec, nil
}

type proportionFlags struct {
	propA, propB float64
	n            int
	percentB     float64
	sigLevel     float64
	power        float64
	alternative  string
	maxSample    float64
}

func (f *proportionFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.propA, "prop-a", 0, "Proportion in group A")
	fs.Float64Var(&f.propB, "prop-b", 0, "Proportion in group B")
	fs.IntVar(&f.n, "n", 0, "Total sample size across both groups")
	fs.Float64Var(&f.percentB, "percent-b", 0, "Share of the sample in group B")
	fs.Float64Var(&f.sigLevel, "sig-level", 0, "Significance level")
	fs.Float64Var(&f.power, "power", 0, "Power of the test")
	fs.StringVar(&f.alternative, "alternative", "two-sided", "two-sided, greater or less")
	fs.Float64Var(&f.maxSample, "max-sample", 0, "Largest n searched when solving for n; 0 uses POWER_MAX_SAMPLE")
}

func (f *proportionFlags) spec(fs *pflag.FlagSet) (domain.ProportionSpec, error) {
	alt, err := domain.ParseAlternative(f.alternative)
	if err != nil {
		return domain.ProportionSpec{}, errors.Specification("%v", err)
	}
	spec := domain.ProportionSpec{Alternative: alt, MaxSample: f.maxSample}
	if fs.Changed("prop-a") {
		spec.PropA = domain.Float(f.propA)
	}
	if fs.Changed("prop-b") {
		spec.PropB = domain.Float(f.propB)
	}
	if fs.Changed("n") {
		spec.N = domain.Int(f.n)
	}
	if fs.Changed("percent-b") {
		spec.PercentB = domain.Float(f.percentB)
	}
	if fs.Changed("sig-level") {
		spec.SigLevel = domain.Float(f.sigLevel)
	}
	if fs.Changed("power") {
		spec.Power = domain.Float(f.power)
	}
	return spec, nil
}
