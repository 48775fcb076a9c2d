package power

import (
	"fmt"
	"strings"
)

// ============================================================================
// ALTERNATIVE HYPOTHESIS
// ============================================================================

// Alternative is the direction of the alternative hypothesis
type Alternative int

const (
	TwoSided Alternative = iota
	Greater
	Less
)

// String returns the canonical name of the alternative
func (a Alternative) String() string {
	switch a {
	case TwoSided:
		return "two-sided"
	case Greater:
		return "greater"
	case Less:
		return "less"
	default:
		return fmt.Sprintf("alternative(%d)", int(a))
	}
}

// Valid reports whether a is one of the three recognised alternatives
func (a Alternative) Valid() bool {
	return a == TwoSided || a == Greater || a == Less
}

// ParseAlternative parses an alternative name, case-insensitively.
// The empty string selects the two-sided test.
func ParseAlternative(s string) (Alternative, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "two-sided", "two_sided", "two.sided", "twosided":
		return TwoSided, nil
	case "greater":
		return Greater, nil
	case "less":
		return Less, nil
	default:
		return TwoSided, fmt.Errorf("unknown alternative %q: must be one of two-sided, greater, less", s)
	}
}

// MarshalText encodes the alternative by name
func (a Alternative) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid alternative %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes an alternative name
func (a *Alternative) UnmarshalText(text []byte) error {
	parsed, err := ParseAlternative(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ============================================================================
// TARGET
// ============================================================================

// Target names the single unknown field a specification is solved for
type Target int

const (
	TargetPower Target = iota
	TargetN
	TargetPercentB
	TargetMeanDiff
	TargetSigLevel
	TargetPropA
	TargetPropB
)

// String returns the field name of the target
func (t Target) String() string {
	switch t {
	case TargetPower:
		return "power"
	case TargetN:
		return "n"
	case TargetPercentB:
		return "percent_b"
	case TargetMeanDiff:
		return "mean_diff"
	case TargetSigLevel:
		return "sig_level"
	case TargetPropA:
		return "prop_a"
	case TargetPropB:
		return "prop_b"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// MarshalText encodes the target by field name
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a target field name
func (t *Target) UnmarshalText(text []byte) error {
	for c := TargetPower; c <= TargetPropB; c++ {
		if c.String() == string(text) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown target %q", text)
}

// ============================================================================
// SPECIFICATIONS
// ============================================================================

// Defaults shared by both entry points
const (
	DefaultSD        = 1.0
	DefaultMaxSample = 1e7
	// MinSampleSize is the smallest total sample size accepted as a fixed input
	MinSampleSize = 10
	// Method labels every result
	Method = "t-test Power Calculation"
)

// TestSpec describes a continuous-outcome Welch t-test design.
// A nil pointer marks the field as unknown; exactly one of N, PercentB,
// MeanDiff, SigLevel and Power must be nil.
type TestSpec struct {
	N           *int        `json:"n,omitempty"`
	PercentB    *float64    `json:"percent_b,omitempty"` // share of N in group B
	MeanDiff    *float64    `json:"mean_diff,omitempty"` // mean_B - mean_A
	SDA         float64     `json:"sd_a"`
	SDB         float64     `json:"sd_b"`
	SigLevel    *float64    `json:"sig_level,omitempty"`
	Power       *float64    `json:"power,omitempty"`
	Alternative Alternative `json:"alternative"`
	MaxSample   float64     `json:"max_sample,omitempty"` // upper bound when solving for N; 0 means DefaultMaxSample
}

// DefaultTestSpec returns a spec with unit standard deviations, a two-sided
// alternative and the default sample-size ceiling. All solvable fields are unknown.
func DefaultTestSpec() TestSpec {
	return TestSpec{
		SDA:         DefaultSD,
		SDB:         DefaultSD,
		Alternative: TwoSided,
		MaxSample:   DefaultMaxSample,
	}
}

// ProportionSpec describes a proportion-outcome design. Exactly one of N,
// PercentB, PropA, PropB, SigLevel and Power must be nil.
type ProportionSpec struct {
	PropA       *float64    `json:"prop_a,omitempty"`
	PropB       *float64    `json:"prop_b,omitempty"`
	N           *int        `json:"n,omitempty"`
	PercentB    *float64    `json:"percent_b,omitempty"`
	SigLevel    *float64    `json:"sig_level,omitempty"`
	Power       *float64    `json:"power,omitempty"`
	Alternative Alternative `json:"alternative"`
	MaxSample   float64     `json:"max_sample,omitempty"`
}

// SolverBounds configures the numeric search
type SolverBounds struct {
	Tolerance     float64 `json:"tolerance"`      // absolute power difference accepted as a root
	XTolerance    float64 `json:"x_tolerance"`    // relative width of the final bracket
	MaxIterations int     `json:"max_iterations"` // per root-find or maximisation
	AlphaEpsilon  float64 `json:"alpha_epsilon"`  // sig_level is searched on [eps, 1-eps]
	PropEpsilon   float64 `json:"prop_epsilon"`   // proportions are searched on [eps, 1-eps]
	MinGroupSize  float64 `json:"min_group_size"` // smallest group searched when solving percent_b
}

// DefaultSolverBounds returns bounds that converge to 1e-8 in power well
// within the iteration cap for any bracketed problem
func DefaultSolverBounds() SolverBounds {
	return SolverBounds{
		Tolerance:     1e-8,
		XTolerance:    1e-10,
		MaxIterations: 100,
		AlphaEpsilon:  1e-10,
		PropEpsilon:   1e-6,
		MinGroupSize:  10,
	}
}

// ============================================================================
// RESULTS
// ============================================================================

// Diagnostics are the quantities used by the final power evaluation
type Diagnostics struct {
	DF             float64   `json:"df"`
	NCP            float64   `json:"ncp"`
	CriticalValues []float64 `json:"critical_values"`
	AchievedPower  float64   `json:"achieved_power"` // power at the reported design (N rounded up)
	Iterations     int       `json:"iterations"`
}

// PowerResult is a fully resolved continuous design
type PowerResult struct {
	Target      Target      `json:"target"`
	N           int         `json:"n"`
	PercentB    float64     `json:"percent_b"`
	MeanDiff    float64     `json:"mean_diff"`
	SDA         float64     `json:"sd_a"`
	SDB         float64     `json:"sd_b"`
	SigLevel    float64     `json:"sig_level"`
	Power       float64     `json:"power"`
	Alternative Alternative `json:"alternative"`
	Method      string      `json:"method"`
	// Solutions lists every value of the target consistent with Power, ascending.
	// It has two entries when the search is bimodal.
	Solutions   []float64   `json:"solutions"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// ProportionResult is a fully resolved proportion design
type ProportionResult struct {
	PowerResult
	PropA float64 `json:"prop_a"`
	PropB float64 `json:"prop_b"`
}

// Float returns a pointer to v, for populating spec fields
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for populating spec fields
func Int(v int) *int { return &v }
