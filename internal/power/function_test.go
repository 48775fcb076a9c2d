package power

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	domain "welchpower/domain/power"
	apperrors "welchpower/internal/errors"
)

func scenarioA() Design {
	return Design{
		N:           3000,
		PercentB:    0.3,
		MeanDiff:    0.15,
		SDA:         1,
		SDB:         2,
		SigLevel:    0.05,
		Alternative: domain.TwoSided,
	}
}

// TestEvaluate_ScenarioA checks the two-sided power of a known unequal-variance design
func TestEvaluate_ScenarioA(t *testing.T) {
	ev, err := Evaluate(scenarioA())
	require.NoError(t, err)

	assert.InDelta(t, 0.5700792, ev.Power, 1e-5)
	require.Len(t, ev.CriticalValues, 2)
	assert.InDelta(t, -ev.CriticalValues[0], ev.CriticalValues[1], 1e-12)
	assert.Greater(t, ev.DF, 1000.0)
	assert.Less(t, ev.DF, 3000.0)

	// se = sqrt(1/2100 + 4/900)
	assert.InDelta(t, 0.15/math.Sqrt(1.0/2100+4.0/900), ev.NCP, 1e-12)
}

// TestEvaluate_WelchDF checks the Welch-Satterthwaite formula against a hand computation
func TestEvaluate_WelchDF(t *testing.T) {
	df, se := WelchDF(20, 10, 1, 2)

	va, vb := 1.0/20, 4.0/10
	want := (va + vb) * (va + vb) / (va*va/19 + vb*vb/9)
	assert.InDelta(t, want, df, 1e-12)
	assert.InDelta(t, math.Sqrt(va+vb), se, 1e-12)
}

// TestEvaluate_OneSidedMirror verifies greater with +d equals less with -d
func TestEvaluate_OneSidedMirror(t *testing.T) {
	greater := scenarioA()
	greater.Alternative = domain.Greater
	less := scenarioA()
	less.Alternative = domain.Less
	less.MeanDiff = -greater.MeanDiff

	g, err := Evaluate(greater)
	require.NoError(t, err)
	l, err := Evaluate(less)
	require.NoError(t, err)

	assert.InDelta(t, g.Power, l.Power, 1e-10)
	assert.Greater(t, g.CriticalValues[0], 0.0)
	assert.Less(t, l.CriticalValues[0], 0.0)
}

// TestEvaluate_TwoSidedSymmetricInEffect verifies the sign of the effect does not matter
func TestEvaluate_TwoSidedSymmetricInEffect(t *testing.T) {
	pos := scenarioA()
	neg := scenarioA()
	neg.MeanDiff = -pos.MeanDiff

	p, err := Evaluate(pos)
	require.NoError(t, err)
	n, err := Evaluate(neg)
	require.NoError(t, err)
	assert.InDelta(t, p.Power, n.Power, 1e-10)
}

// TestEvaluate_ZeroEffectIsSize verifies power equals alpha without an effect
func TestEvaluate_ZeroEffectIsSize(t *testing.T) {
	for _, alt := range []domain.Alternative{domain.TwoSided, domain.Greater, domain.Less} {
		d := scenarioA()
		d.MeanDiff = 0
		d.Alternative = alt

		ev, err := Evaluate(d)
		require.NoError(t, err)
		assert.InDelta(t, 0.05, ev.Power, 1e-7, "alternative %v", alt)
	}
}

// TestEvaluate_SigLevelBoundaries verifies power tends to 0 and 1 with alpha
func TestEvaluate_SigLevelBoundaries(t *testing.T) {
	d := scenarioA()

	d.SigLevel = 1e-12
	low, err := Evaluate(d)
	require.NoError(t, err)
	assert.Less(t, low.Power, 1e-3)

	d.SigLevel = 1 - 1e-12
	high, err := Evaluate(d)
	require.NoError(t, err)
	assert.Greater(t, high.Power, 0.999)
}

// TestEvaluate_DegenerateGroups verifies groups of one observation fail with a domain error
func TestEvaluate_DegenerateGroups(t *testing.T) {
	cases := map[string]func(d *Design){
		"group b too small": func(d *Design) { d.N = 10; d.PercentB = 0.05 },
		"group a too small": func(d *Design) { d.N = 10; d.PercentB = 0.95 },
		"zero sd":           func(d *Design) { d.SDA = 0 },
		"negative sd":       func(d *Design) { d.SDB = -1 },
		"nan effect":        func(d *Design) { d.MeanDiff = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := scenarioA()
			mutate(&d)
			_, err := Evaluate(d)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrDomain)
		})
	}
}

// TestEvaluate_UnknownAlternative rejects alternatives outside the closed set
func TestEvaluate_UnknownAlternative(t *testing.T) {
	d := scenarioA()
	d.Alternative = domain.Alternative(7)
	_, err := Evaluate(d)
	assert.ErrorIs(t, err, apperrors.ErrSpecification)
}

// TestProperty_PowerMonotoneInN checks power never drops as n grows
func TestProperty_PowerMonotoneInN(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		// the effect points the way the alternative does
		alt := rapid.SampledFrom([]domain.Alternative{domain.TwoSided, domain.Greater, domain.Less}).Draw(rt, "alternative")
		effect := rapid.Float64Range(0, 1).Draw(rt, "magnitude")
		switch alt {
		case domain.Less:
			effect = -effect
		case domain.TwoSided:
			if rapid.Bool().Draw(rt, "negative") {
				effect = -effect
			}
		}
		d := Design{
			N:           rapid.Float64Range(20, 5000).Draw(rt, "n"),
			PercentB:    rapid.Float64Range(0.2, 0.8).Draw(rt, "percentB"),
			MeanDiff:    effect,
			SDA:         rapid.Float64Range(0.2, 3).Draw(rt, "sdA"),
			SDB:         rapid.Float64Range(0.2, 3).Draw(rt, "sdB"),
			SigLevel:    rapid.Float64Range(0.001, 0.2).Draw(rt, "sigLevel"),
			Alternative: alt,
		}
		step := rapid.Float64Range(1, 500).Draw(rt, "step")

		small, err := Evaluate(d)
		require.NoError(rt, err)
		d.N += step
		large, err := Evaluate(d)
		require.NoError(rt, err)

		if large.Power < small.Power-1e-9 {
			rt.Fatalf("power decreased from %.10f to %.10f when n grew by %.1f", small.Power, large.Power, step)
		}
	})
}

// TestProperty_PowerMonotoneInEffect checks power never drops as |mean_diff| grows
func TestProperty_PowerMonotoneInEffect(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		alt := rapid.SampledFrom([]domain.Alternative{domain.TwoSided, domain.Greater, domain.Less}).Draw(rt, "alternative")
		sign := 1.0
		if alt == domain.Less {
			sign = -1
		}
		d := Design{
			N:           rapid.Float64Range(20, 5000).Draw(rt, "n"),
			PercentB:    rapid.Float64Range(0.2, 0.8).Draw(rt, "percentB"),
			SDA:         rapid.Float64Range(0.2, 3).Draw(rt, "sdA"),
			SDB:         rapid.Float64Range(0.2, 3).Draw(rt, "sdB"),
			SigLevel:    rapid.Float64Range(0.001, 0.2).Draw(rt, "sigLevel"),
			Alternative: alt,
		}
		m := rapid.Float64Range(0, 1).Draw(rt, "magnitude")
		step := rapid.Float64Range(0.001, 0.5).Draw(rt, "step")

		d.MeanDiff = sign * m
		small, err := Evaluate(d)
		require.NoError(rt, err)
		d.MeanDiff = sign * (m + step)
		large, err := Evaluate(d)
		require.NoError(rt, err)

		if large.Power < small.Power-1e-9 {
			rt.Fatalf("power decreased from %.10f to %.10f when |mean_diff| grew", small.Power, large.Power)
		}
	})
}
