package app

import (
	"context"
	"time"

	domain "welchpower/domain/power"
	"welchpower/internal"
	"welchpower/internal/errors"
	"welchpower/internal/metrics"
	"welchpower/internal/power"
	"welchpower/internal/simulation"
	"welchpower/internal/sweep"
)

// PowerService is the entry point shared by the HTTP API and the CLI
type PowerService struct {
	engine    *power.Engine
	sweeps    *sweep.Runner
	simulator *simulation.Simulator
	maxSample float64
	metrics   *metrics.Collector
	logger    *internal.Logger
}

// PowerServiceConfig wires the service's collaborators
type PowerServiceConfig struct {
	Bounds       domain.SolverBounds
	MaxSample    float64 // applied when a spec leaves MaxSample at zero
	SweepWorkers int
	Simulation   simulation.Options
	Metrics      *metrics.Collector // optional
	Logger       *internal.Logger   // optional
}

// SimulationReport pairs a Monte Carlo estimate with the analytic power
type SimulationReport struct {
	Design    *domain.PowerResult  `json:"design"`
	Estimate  *simulation.Estimate `json:"estimate"`
	Analytic  float64              `json:"analytic_power"`
	ZScore    float64              `json:"z_score"` // (estimate - analytic) / std_err
	Duration  time.Duration        `json:"-"`
	RuntimeMs int64                `json:"runtime_ms"`
}

// NewPowerService creates a power service
func NewPowerService(cfg PowerServiceConfig) *PowerService {
	engine := power.NewEngine(cfg.Bounds)
	logger := cfg.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &PowerService{
		engine:    engine,
		sweeps:    sweep.NewRunner(engine, cfg.SweepWorkers),
		simulator: simulation.NewSimulator(cfg.Simulation),
		maxSample: cfg.MaxSample,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

func (s *PowerService) record(target string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordSolve(target, time.Since(start), err)
	}
}

// targetOf names the unknown for metrics before validation has run
func targetOf(unset map[domain.Target]bool) string {
	name := "invalid"
	for t, u := range unset {
		if !u {
			continue
		}
		if name != "invalid" {
			return "invalid"
		}
		name = t.String()
	}
	return name
}

// Solve resolves a continuous specification
func (s *PowerService) Solve(ctx context.Context, spec domain.TestSpec) (*domain.PowerResult, error) {
	start := time.Now()
	target := targetOf(map[domain.Target]bool{
		domain.TargetN:        spec.N == nil,
		domain.TargetPercentB: spec.PercentB == nil,
		domain.TargetMeanDiff: spec.MeanDiff == nil,
		domain.TargetSigLevel: spec.SigLevel == nil,
		domain.TargetPower:    spec.Power == nil,
	})
	if spec.MaxSample == 0 {
		spec.MaxSample = s.maxSample
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WithCode(errors.CodeCanceled, err)
	}
	res, err := s.engine.Solve(spec)
	s.record(target, start, err)
	if err != nil {
		s.logger.Warn("solve for %s failed: %v", target, err)
		return nil, err
	}

	s.logger.Debug("solved %s = %v in %d iterations (achieved power %.6f)",
		target, res.Solutions, res.Diagnostics.Iterations, res.Diagnostics.AchievedPower)
	return res, nil
}

// SolveProportion resolves a proportion specification
func (s *PowerService) SolveProportion(ctx context.Context, spec domain.ProportionSpec) (*domain.ProportionResult, error) {
	start := time.Now()
	target := targetOf(map[domain.Target]bool{
		domain.TargetN:        spec.N == nil,
		domain.TargetPercentB: spec.PercentB == nil,
		domain.TargetPropA:    spec.PropA == nil,
		domain.TargetPropB:    spec.PropB == nil,
		domain.TargetSigLevel: spec.SigLevel == nil,
		domain.TargetPower:    spec.Power == nil,
	})
	if spec.MaxSample == 0 {
		spec.MaxSample = s.maxSample
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WithCode(errors.CodeCanceled, err)
	}
	res, err := s.engine.SolveProportion(spec)
	s.record(target, start, err)
	if err != nil {
		s.logger.Warn("proportion solve for %s failed: %v", target, err)
		return nil, err
	}

	s.logger.Debug("solved %s = %v in %d iterations", target, res.Solutions, res.Diagnostics.Iterations)
	return res, nil
}

// Curve evaluates power across values of one field
func (s *PowerService) Curve(ctx context.Context, spec domain.TestSpec, field sweep.Field, values []float64) (*sweep.Curve, error) {
	curve, err := s.sweeps.Curve(ctx, spec, field, values)
	if err != nil {
		s.logger.Warn("power curve over %s failed: %v", field, err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSweep(len(curve.Points))
	}
	s.logger.Info("power curve over %s: %d points", field, len(curve.Points))
	return curve, nil
}

// Simulate solves spec, then estimates the power of the resolved design by
// Monte Carlo and compares it to the analytic value
func (s *PowerService) Simulate(ctx context.Context, spec domain.TestSpec) (*SimulationReport, error) {
	start := time.Now()
	res, err := s.Solve(ctx, spec)
	if err != nil {
		return nil, err
	}

	design := power.Design{
		N:           float64(res.N),
		PercentB:    res.PercentB,
		MeanDiff:    res.MeanDiff,
		SDA:         res.SDA,
		SDB:         res.SDB,
		SigLevel:    res.SigLevel,
		Alternative: res.Alternative,
	}
	est, err := s.simulator.Estimate(ctx, design)
	if s.metrics != nil {
		s.metrics.RecordSimulation(err)
	}
	if err != nil {
		return nil, errors.Wrap(err, "monte carlo estimate failed")
	}

	report := &SimulationReport{
		Design:   res,
		Estimate: est,
		Analytic: res.Diagnostics.AchievedPower,
		Duration: time.Since(start),
	}
	report.RuntimeMs = report.Duration.Milliseconds()
	if est.StdErr > 0 {
		report.ZScore = (est.Power - report.Analytic) / est.StdErr
	}
	s.logger.Info("simulated %d replicates: empirical %.4f vs analytic %.4f (z=%.2f)",
		est.Replicates, est.Power, report.Analytic, report.ZScore)
	return report, nil
}
