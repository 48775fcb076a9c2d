// Package power implements Welch two-sample power analysis: an analytic
// power function over the noncentral t distribution and a solver that
// recovers any single unknown among sample size, allocation, effect,
// significance level and power.
package power

import (
	domain "welchpower/domain/power"
)

// Engine solves power specifications. An Engine holds only its bounds and
// is safe for concurrent use.
type Engine struct {
	bounds domain.SolverBounds
}

// NewEngine creates an engine; zero-valued bounds fall back to the defaults
func NewEngine(bounds domain.SolverBounds) *Engine {
	def := domain.DefaultSolverBounds()
	if bounds.Tolerance <= 0 {
		bounds.Tolerance = def.Tolerance
	}
	if bounds.XTolerance <= 0 {
		bounds.XTolerance = def.XTolerance
	}
	if bounds.MaxIterations <= 0 {
		bounds.MaxIterations = def.MaxIterations
	}
	if bounds.AlphaEpsilon <= 0 || bounds.AlphaEpsilon >= 0.5 {
		bounds.AlphaEpsilon = def.AlphaEpsilon
	}
	if bounds.PropEpsilon <= 0 || bounds.PropEpsilon >= 0.5 {
		bounds.PropEpsilon = def.PropEpsilon
	}
	if bounds.MinGroupSize <= 1 {
		bounds.MinGroupSize = def.MinGroupSize
	}
	return &Engine{bounds: bounds}
}

// Bounds returns the solver bounds in effect
func (e *Engine) Bounds() domain.SolverBounds {
	return e.bounds
}

var defaultEngine = NewEngine(domain.DefaultSolverBounds())

// Solve resolves a continuous spec with the default bounds
func Solve(spec domain.TestSpec) (*domain.PowerResult, error) {
	return defaultEngine.Solve(spec)
}

// SolveProportion resolves a proportion spec with the default bounds
func SolveProportion(spec domain.ProportionSpec) (*domain.ProportionResult, error) {
	return defaultEngine.SolveProportion(spec)
}

// Solve validates spec, solves for its single unknown and returns the
// fully populated result
func (e *Engine) Solve(spec domain.TestSpec) (*domain.PowerResult, error) {
	p, err := validateTestSpec(spec)
	if err != nil {
		return nil, err
	}
	sol, err := e.solve(p)
	if err != nil {
		return nil, err
	}
	return assemble(p, sol)
}

// SolveProportion validates spec, solves for its single unknown and
// returns the result in proportion space
func (e *Engine) SolveProportion(spec domain.ProportionSpec) (*domain.ProportionResult, error) {
	p, err := validateProportionSpec(spec)
	if err != nil {
		return nil, err
	}
	sol, err := e.solveProportion(p)
	if err != nil {
		return nil, err
	}
	return assembleProportion(p, sol)
}
