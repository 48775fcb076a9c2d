// Package sweep evaluates power over a grid of one design parameter.
package sweep

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
	"welchpower/internal/power"
)

// Field is the design parameter varied along a curve
type Field string

const (
	FieldN        Field = "n"
	FieldPercentB Field = "percent_b"
	FieldMeanDiff Field = "mean_diff"
	FieldSigLevel Field = "sig_level"
)

// ParseField validates a field name
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldN, FieldPercentB, FieldMeanDiff, FieldSigLevel:
		return f, nil
	default:
		return "", errors.Specification("cannot sweep %q: must be one of n, percent_b, mean_diff, sig_level", s)
	}
}

// Point is the power at one grid value
type Point struct {
	Value float64 `json:"value"`
	Power float64 `json:"power"`
	DF    float64 `json:"df"`
	NCP   float64 `json:"ncp"`
}

// Curve is power as a function of Field with every other parameter held at Base
type Curve struct {
	Field  Field           `json:"field"`
	Base   domain.TestSpec `json:"base"`
	Points []Point         `json:"points"`
}

// MaxPoints caps the grid size of a single curve
const MaxPoints = 10000

// Runner evaluates curve points concurrently
type Runner struct {
	engine  *power.Engine
	workers int
}

// NewRunner creates a runner; workers below 1 run sequentially
func NewRunner(engine *power.Engine, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{engine: engine, workers: workers}
}

// Curve computes the power at each of values. base must fix every
// parameter except power and field; whatever base holds for field is
// replaced. Points keep the order of values.
func (r *Runner) Curve(ctx context.Context, base domain.TestSpec, field Field, values []float64) (*Curve, error) {
	if len(values) == 0 {
		return nil, errors.Specification("a curve needs at least one value")
	}
	if len(values) > MaxPoints {
		return nil, errors.Specification("a curve may have at most %d values, got %d", MaxPoints, len(values))
	}
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}
	base.Power = nil

	points := make([]Point, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, v := range values {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.WithCode(errors.CodeCanceled, err)
			}
			spec, err := withField(base, field, v)
			if err != nil {
				return err
			}
			res, err := r.engine.Solve(spec)
			if err != nil {
				return errors.Wrapf(err, "%s = %g", field, v)
			}
			points[i] = Point{
				Value: v,
				Power: res.Power,
				DF:    res.Diagnostics.DF,
				NCP:   res.Diagnostics.NCP,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Curve{Field: field, Base: base, Points: points}, nil
}

func withField(spec domain.TestSpec, field Field, v float64) (domain.TestSpec, error) {
	switch field {
	case FieldN:
		if v != math.Trunc(v) {
			return spec, errors.Specification("n values must be whole numbers, got %g", v)
		}
		spec.N = domain.Int(int(v))
	case FieldPercentB:
		spec.PercentB = domain.Float(v)
	case FieldMeanDiff:
		spec.MeanDiff = domain.Float(v)
	case FieldSigLevel:
		spec.SigLevel = domain.Float(v)
	}
	return spec, nil
}

// Grid returns count evenly spaced values from lo to hi inclusive
func Grid(lo, hi float64, count int) []float64 {
	if count < 1 {
		return nil
	}
	if count == 1 {
		return []float64{lo}
	}
	values := make([]float64, count)
	step := (hi - lo) / float64(count-1)
	for i := range values {
		values[i] = lo + float64(i)*step
	}
	values[count-1] = hi
	return values
}
