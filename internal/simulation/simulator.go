// Package simulation estimates Welch t-test power empirically, as a
// cross-check on the analytic power function.
package simulation

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	domain "welchpower/domain/power"
	"welchpower/internal/distributions"
	"welchpower/internal/errors"
	"welchpower/internal/power"
)

// Options controls the size and determinism of a simulation run
type Options struct {
	Replicates int
	Workers    int
	Seed       uint64
}

// Estimate is an empirical rejection rate
type Estimate struct {
	Power      float64 `json:"power"`
	StdErr     float64 `json:"std_err"` // binomial standard error of Power
	Rejections int     `json:"rejections"`
	Replicates int     `json:"replicates"`
	NA         int     `json:"n_a"`
	NB         int     `json:"n_b"`
	Seed       uint64  `json:"seed"`
}

// Simulator draws normal samples for both groups and runs a Welch test on each pair
type Simulator struct {
	opts Options
}

// NewSimulator creates a simulator; non-positive counts fall back to 1000
// replicates on a single worker
func NewSimulator(opts Options) *Simulator {
	if opts.Replicates <= 0 {
		opts.Replicates = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Simulator{opts: opts}
}

// Options returns the settings in effect
func (s *Simulator) Options() Options {
	return s.opts
}

// GroupSizes rounds the design's allocation to whole observations
func GroupSizes(d power.Design) (nA, nB int) {
	n := int(math.Round(d.N))
	nB = int(math.Round(d.N * d.PercentB))
	return n - nB, nB
}

// Estimate runs the simulation for d. Shards are seeded independently so
// the result depends only on the seed, not on scheduling.
func (s *Simulator) Estimate(ctx context.Context, d power.Design) (*Estimate, error) {
	nA, nB := GroupSizes(d)
	if nA < 2 || nB < 2 {
		return nil, errors.Domain("simulation needs at least two observations per group, got n_a=%d n_b=%d", nA, nB)
	}
	if d.SDA <= 0 || d.SDB <= 0 {
		return nil, errors.Domain("standard deviations must be positive, got sd_a=%g sd_b=%g", d.SDA, d.SDB)
	}
	if !(d.SigLevel > 0 && d.SigLevel < 1) {
		return nil, errors.Domain("sig_level must be in (0,1), got %g", d.SigLevel)
	}
	tail, err := tailOf(d.Alternative)
	if err != nil {
		return nil, err
	}

	shards := s.opts.Workers
	if shards > s.opts.Replicates {
		shards = s.opts.Replicates
	}
	counts := make([]int, shards)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := 0; i < shards; i++ {
		reps := s.opts.Replicates / shards
		if i < s.opts.Replicates%shards {
			reps++
		}
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(s.opts.Seed, uint64(i)))
			c, err := runShard(gctx, rng, d, nA, nB, tail, reps)
			counts[i] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rejections := 0
	for _, c := range counts {
		rejections += c
	}
	p := float64(rejections) / float64(s.opts.Replicates)
	return &Estimate{
		Power:      p,
		StdErr:     math.Sqrt(p * (1 - p) / float64(s.opts.Replicates)),
		Rejections: rejections,
		Replicates: s.opts.Replicates,
		NA:         nA,
		NB:         nB,
		Seed:       s.opts.Seed,
	}, nil
}

func tailOf(alt domain.Alternative) (int, error) {
	switch alt {
	case domain.TwoSided:
		return 0, nil
	case domain.Greater:
		return 1, nil
	case domain.Less:
		return -1, nil
	default:
		return 0, errors.Specification("unknown alternative %v", alt)
	}
}

func runShard(ctx context.Context, rng *rand.Rand, d power.Design, nA, nB, tail, reps int) (int, error) {
	a := make([]float64, nA)
	b := make([]float64, nB)
	rejected := 0
	for r := 0; r < reps; r++ {
		if r%64 == 0 {
			if err := ctx.Err(); err != nil {
				return rejected, errors.WithCode(errors.CodeCanceled, err)
			}
		}
		for i := range a {
			a[i] = rng.NormFloat64() * d.SDA
		}
		for i := range b {
			b[i] = d.MeanDiff + rng.NormFloat64()*d.SDB
		}
		p, err := welchPValue(a, b, tail)
		if err != nil {
			return rejected, err
		}
		if p < d.SigLevel {
			rejected++
		}
	}
	return rejected, nil
}

// welchPValue tests mean(b) - mean(a) against zero
func welchPValue(a, b []float64, tail int) (float64, error) {
	meanA, err := stats.Mean(a)
	if err != nil {
		return 0, errors.Wrap(err, "group a mean")
	}
	meanB, err := stats.Mean(b)
	if err != nil {
		return 0, errors.Wrap(err, "group b mean")
	}
	varA, err := stats.SampleVariance(a)
	if err != nil {
		return 0, errors.Wrap(err, "group a variance")
	}
	varB, err := stats.SampleVariance(b)
	if err != nil {
		return 0, errors.Wrap(err, "group b variance")
	}

	va := varA / float64(len(a))
	vb := varB / float64(len(b))
	se := math.Sqrt(va + vb)
	if se == 0 {
		return 1, nil
	}
	df := (va + vb) * (va + vb) / (va*va/float64(len(a)-1) + vb*vb/float64(len(b)-1))
	t := (meanB - meanA) / se
	return distributions.TTestPValue(t, df, tail), nil
}
