// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/spsolve/config"
	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		fixtureName string
		metrics     bool
		tracing     bool
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time every backend on one system, in parallel",
		Long: `Bench factors and solves the same system with each configured backend,
running the backends concurrently. The system is a synthetic admittance matrix
of the configured order unless --matrix or --fixture names one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.apply(cmd); err != nil {
				return err
			}
			return a.bench(cmd, fixtureName, metrics, tracing)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&a.flags.matrix, "matrix", "m", "", "Matrix Market file")
	fl.StringVar(&fixtureName, "fixture", "", "ACTIVSg fixture name, read from $"+fixture.EnvMatrixDir)
	fl.StringSliceVar(&a.flags.backends, "backends", config.Backends, "backends to run")
	fl.IntVar(&a.flags.order, "order", 2000, "order of the synthetic matrix")
	fl.IntVar(&a.flags.repeat, "repeat", 5, "factor/solve rounds per backend")
	fl.IntVarP(&a.flags.nrhs, "nrhs", "k", 1, "number of right-hand sides")
	fl.BoolVarP(&a.flags.transpose, "transpose", "t", false, "solve Aᵗ·x = b")
	fl.Float64Var(&a.flags.tol, "tol", 0, "pivot threshold in (0, 1]")
	fl.BoolVar(&metrics, "metrics", false, "print the pipeline metrics after the run")
	fl.BoolVar(&tracing, "trace", false, "export one span per round to stderr")

	return cmd
}

// best keeps the fastest stage timings and the worst residual of a backend.
func best(rs []report) report {
	out := rs[0]
	for _, r := range rs[1:] {
		out.Permute = min(out.Permute, r.Permute)
		out.Factor = min(out.Factor, r.Factor)
		out.Solve = min(out.Solve, r.Solve)
		out.Residual = max(out.Residual, r.Residual)
	}

	return out
}

func (a *app) benchSystem(fixtureName string) (*matrix, error) {
	if fixtureName != "" || a.cfg.Matrix != "" {
		m, _, err := a.system(fixtureName)
		return m, err
	}

	return fixture.Bbus(a.cfg.Bench.Order, fixture.WithSeed(a.cfg.Bench.Seed), fixture.WithAsymmetry(0.25)), nil
}

func (a *app) bench(cmd *cobra.Command, fixtureName string, metrics, tracing bool) error {
	m, err := a.benchSystem(fixtureName)
	if err != nil {
		return err
	}
	x := fixture.Ramp[float64](m.N, a.cfg.NRHS)
	rhs, err := csc.MatVecBlock(m, x, a.cfg.Transpose)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	tr := resource.NewCounter()
	solver.RegisterTracker(reg, tr)
	e := env{cfg: a.cfg, logger: a.logger, metrics: solver.NewMetrics(reg), tracker: tr}

	tracer, shutdown, err := initTracing(tracing, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	names := a.cfg.Bench.Backends
	results := make([][]report, len(names))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, name := range names {
		run, err := newRunner(name, e)
		if err != nil {
			return err
		}
		g.Go(func() error {
			for round := 0; round < a.cfg.Bench.Repeat; round++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := a.round(ctx, tracer, run, m, rhs, name, round)
				if err != nil {
					return fmt.Errorf("%s round %d: %w", name, round, err)
				}
				results[i] = append(results[i], r)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "n=%d nnz=%d nrhs=%d transpose=%v repeat=%d\n",
		m.N, m.NNZ(), a.cfg.NRHS, a.cfg.Transpose, a.cfg.Bench.Repeat)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "backend\tpermute\tfactor\tsolve\tresidual")
	for i := range names {
		r := best(results[i])
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3e\n", r.Backend,
			r.Permute.Round(time.Microsecond), r.Factor.Round(time.Microsecond),
			r.Solve.Round(time.Microsecond), r.Residual)
	}
	if err = tw.Flush(); err != nil {
		return err
	}

	if live := tr.Live(); live != 0 {
		return fmt.Errorf("%d native handles still live after the run", live)
	}
	if metrics {
		return writeMetrics(out, reg)
	}

	return nil
}

// round runs one factor/solve on a private copy of rhs inside a span.
func (a *app) round(
	ctx context.Context, tracer trace.Tracer, run runner, m *matrix, rhs []float64, name string, round int,
) (report, error) {
	_, span := tracer.Start(ctx, "spsolve.bench.round", trace.WithAttributes(
		attribute.String("backend", name),
		attribute.Int("round", round),
		attribute.Int("n", m.N),
		attribute.Int("nnz", m.NNZ()),
	))
	defer span.End()

	b := append([]float64(nil), rhs...)
	r, err := run(m, b, a.cfg.Transpose)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return r, err
	}
	span.SetAttributes(
		attribute.Int64("factor_us", r.Factor.Microseconds()),
		attribute.Int64("solve_us", r.Solve.Microseconds()),
		attribute.Float64("residual", r.Residual),
	)
	a.logger.Debug("bench round", "backend", name, "round", round,
		"factor", r.Factor, "solve", r.Solve, "residual", r.Residual)

	return r, nil
}
