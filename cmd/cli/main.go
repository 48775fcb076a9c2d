package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"welchpower/app"
	"welchpower/internal"
	"welchpower/internal/config"
	"welchpower/internal/report"
	"welchpower/internal/simulation"
	"welchpower/internal/sweep"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "welchpower",
		Short:        "Power analysis for two-sample Welch t-tests",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newContinuousCmd(),
		newProportionCmd(),
		newCurveCmd(),
		newSimulateCmd(),
	)
	return rootCmd
}

// newService builds a service from the environment; sim overrides the
// simulation settings when non-nil
func newService(sim *simulation.Options) (*app.PowerService, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	opts := simulation.Options{
		Replicates: cfg.Simulation.Replicates,
		Workers:    cfg.Simulation.Workers,
		Seed:       cfg.Simulation.Seed,
	}
	if sim != nil {
		opts = *sim
	}
	return app.NewPowerService(app.PowerServiceConfig{
		Bounds:       cfg.Solver.Bounds(),
		MaxSample:    cfg.Solver.MaxSample,
		SweepWorkers: cfg.Sweep.Workers,
		Simulation:   opts,
		Logger:       internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
	}), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newContinuousCmd() *cobra.Command {
	var f continuousFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "continuous",
		Short: "Solve a continuous-outcome design for its one unset parameter",
		Long: `Solve a Welch t-test design. Exactly one of --n, --percent-b, --mean-diff,
--sig-level and --power must be left unset; it is the value solved for.

Example: welchpower continuous --percent-b 0.3 --mean-diff 0.15 --sd-b 2 --sig-level 0.05 --power 0.8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := newService(nil)
			if err != nil {
				return err
			}
			res, err := svc.Solve(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Text(res))
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newProportionCmd() *cobra.Command {
	var f proportionFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "proportion",
		Short: "Solve a proportion-outcome design for its one unset parameter",
		Long: `Solve a design comparing two proportions. Exactly one of --prop-a, --prop-b,
--n, --percent-b, --sig-level and --power must be left unset.

Example: welchpower proportion --prop-a 0.2 --n 3000 --percent-b 0.3 --sig-level 0.05 --power 0.8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := newService(nil)
			if err != nil {
				return err
			}
			res, err := svc.SolveProportion(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.TextProportion(res))
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newCurveCmd() *cobra.Command {
	var f continuousFlags
	var field, xlsxPath string
	var values []float64
	var from, to float64
	var count int

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Tabulate power over a range of one design parameter",
		Long: `Evaluate power for each value of --field with every other parameter fixed.
Values come from --values or from --from/--to/--count.

Example: welchpower curve --field n --from 500 --to 5000 --count 10 --percent-b 0.3 --mean-diff 0.15 --sig-level 0.05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fld, err := sweep.ParseField(field)
			if err != nil {
				return err
			}
			spec, err := f.base(cmd.Flags())
			if err != nil {
				return err
			}
			if len(values) == 0 {
				values = sweep.Grid(from, to, count)
			}

			svc, err := newService(nil)
			if err != nil {
				return err
			}
			curve, err := svc.Curve(cmd.Context(), spec, fld, values)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				out, err := os.Create(xlsxPath)
				if err != nil {
					return err
				}
				defer out.Close()
				if err := sweep.WriteXLSX(out, curve); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points to %s\n", len(curve.Points), xlsxPath)
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%12s %10s\n", fld, "power")
			for _, p := range curve.Points {
				fmt.Fprintf(w, "%12.6g %10.6f\n", p.Value, p.Power)
			}
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().StringVar(&field, "field", "n", "Parameter to vary: n, percent_b, mean_diff or sig_level")
	cmd.Flags().Float64SliceVar(&values, "values", nil, "Explicit values of --field")
	cmd.Flags().Float64Var(&from, "from", 0, "First value of a generated grid")
	cmd.Flags().Float64Var(&to, "to", 0, "Last value of a generated grid")
	cmd.Flags().IntVar(&count, "count", 10, "Number of grid points")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the curve to this workbook instead of stdout")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var f continuousFlags
	var sim simulation.Options
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Solve a design and check its power by Monte Carlo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec(cmd.Flags())
			if err != nil {
				return err
			}
			svc, err := newService(&sim)
			if err != nil {
				return err
			}
			rep, err := svc.Simulate(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, report.Text(rep.Design))
			fmt.Fprintf(w, "\n  simulated power = %.4f ± %.4f (%d replicates, n_a=%d n_b=%d)\n",
				rep.Estimate.Power, rep.Estimate.StdErr, rep.Estimate.Replicates, rep.Estimate.NA, rep.Estimate.NB)
			fmt.Fprintf(w, "   analytic power = %.4f (z = %.2f)\n", rep.Analytic, rep.ZScore)
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().IntVar(&sim.Replicates, "replicates", 2000, "Monte Carlo replicates")
	cmd.Flags().IntVar(&sim.Workers, "workers", 4, "Concurrent simulation workers")
	cmd.Flags().Uint64Var(&sim.Seed, "seed", 42, "Random seed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
