package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "welchpower/domain/power"
	apperrors "welchpower/internal/errors"
	"welchpower/internal/metrics"
	"welchpower/internal/simulation"
	"welchpower/internal/sweep"
)

func newService(t *testing.T) (*PowerService, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := NewPowerService(PowerServiceConfig{
		Bounds:       domain.DefaultSolverBounds(),
		MaxSample:    1e5,
		SweepWorkers: 2,
		Simulation:   simulation.Options{Replicates: 2000, Workers: 2, Seed: 3},
		Metrics:      metrics.NewCollector(reg),
	})
	return svc, reg
}

func spec() domain.TestSpec {
	s := domain.DefaultTestSpec()
	s.MaxSample = 0
	s.N = domain.Int(3000)
	s.PercentB = domain.Float(0.3)
	s.MeanDiff = domain.Float(0.15)
	s.SDB = 2
	s.SigLevel = domain.Float(0.05)
	s.Power = domain.Float(0.8)
	return s
}

// TestPowerService_SolveRecordsMetrics checks solves are counted by target and outcome
func TestPowerService_SolveRecordsMetrics(t *testing.T) {
	svc, reg := newService(t)
	ctx := context.Background()

	s := spec()
	s.N = nil
	res, err := svc.Solve(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 5155, res.N)

	bad := spec()
	_, err = svc.Solve(ctx, bad)
	assert.ErrorIs(t, err, apperrors.ErrSpecification)

	count, err := testutil.GatherAndCount(reg, "welchpower_solves_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestPowerService_ServiceMaxSample applies the configured ceiling when the request sets none
func TestPowerService_ServiceMaxSample(t *testing.T) {
	svc := NewPowerService(PowerServiceConfig{MaxSample: 1000})

	s := spec()
	s.N = nil
	_, err := svc.Solve(context.Background(), s)
	assert.ErrorIs(t, err, apperrors.ErrUnattainable)
}

func TestPowerService_SolveProportion(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.SolveProportion(context.Background(), domain.ProportionSpec{
		PropA:    domain.Float(0.2),
		PropB:    domain.Float(0.25),
		N:        domain.Int(3000),
		PercentB: domain.Float(0.3),
		SigLevel: domain.Float(0.05),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.8419403, res.Power, 1e-5)
}

func TestPowerService_Canceled(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := spec()
	s.Power = nil
	_, err := svc.Solve(ctx, s)
	assert.Equal(t, apperrors.CodeCanceled, apperrors.GetCode(err))
}

func TestPowerService_Curve(t *testing.T) {
	svc, _ := newService(t)
	curve, err := svc.Curve(context.Background(), spec(), sweep.FieldN, []float64{100, 1000})
	require.NoError(t, err)
	require.Len(t, curve.Points, 2)
	assert.Less(t, curve.Points[0].Power, curve.Points[1].Power)
}

// TestPowerService_Simulate compares the empirical power of the solved design to the analytic value
func TestPowerService_Simulate(t *testing.T) {
	svc, _ := newService(t)

	s := spec()
	s.N = nil
	s.MeanDiff = domain.Float(0.5)
	rep, err := svc.Simulate(context.Background(), s)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, rep.Analytic, 0.8)
	assert.InDelta(t, rep.Analytic, rep.Estimate.Power, 0.04)
	assert.Equal(t, rep.Design.N, rep.Estimate.NA+rep.Estimate.NB)
}

func TestTargetOf(t *testing.T) {
	assert.Equal(t, "n", targetOf(map[domain.Target]bool{domain.TargetN: true, domain.TargetPower: false}))
	assert.Equal(t, "invalid", targetOf(map[domain.Target]bool{domain.TargetN: true, domain.TargetPower: true}))
	assert.Equal(t, "invalid", targetOf(map[domain.Target]bool{domain.TargetN: false}))
}
