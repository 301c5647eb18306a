// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/katalvlaran/spsolve/config"
	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/dense"
	"github.com/katalvlaran/spsolve/gplu"
	"github.com/katalvlaran/spsolve/klu"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/rlu"
	"github.com/katalvlaran/spsolve/solver"
)

// matrix is the type every command works in.
type matrix = csc.Matrix[int, float64]

// report is the outcome of one factor/solve run.
type report struct {
	Backend  string
	Permute  time.Duration
	Factor   time.Duration
	Solve    time.Duration
	Residual float64 // max |A·x − b|
}

// runner factors m once and solves rhs (overwritten with the solution).
type runner func(m *matrix, rhs []float64, trans bool) (report, error)

// env carries what every backend is built with.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *solver.Metrics
	tracker resource.Tracker
}

// newRunner builds the named backend from the configuration.
func newRunner(name string, e env) (runner, error) {
	ctl, err := e.cfg.AMD()
	if err != nil {
		return nil, err
	}
	opts := []solver.Option{solver.WithLogger(e.logger), solver.WithMetrics(e.metrics)}
	tol := e.cfg.Tol

	switch name {
	case gplu.Name:
		bo := []gplu.Option{gplu.WithControl(ctl), gplu.WithLogger(e.logger), gplu.WithTracker(e.tracker)}
		if tol > 0 {
			bo = append(bo, gplu.WithTol(tol))
		}
		return run(solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64](bo...), opts...)), nil

	case klu.Name:
		c := klu.Defaults()
		c.AMD = ctl
		if tol > 0 {
			c.Tol = tol
		}
		if e.cfg.Ordering.Natural {
			c.Ordering = klu.OrderNatural
		}
		b := klu.New[int](klu.WithCommon(c), klu.WithLogger(e.logger), klu.WithTracker(e.tracker))
		return run(solver.New[int, float64, *klu.Factor](b, opts...)), nil

	case rlu.Name:
		b := rlu.New[int, float64](rlu.WithControl(ctl), rlu.WithLogger(e.logger), rlu.WithTracker(e.tracker))
		return run(solver.New[int, float64, *rlu.Factors[int, float64]](b, opts...)), nil

	case dense.Name:
		b := dense.New[int](dense.WithLogger(e.logger), dense.WithTracker(e.tracker))
		return run(solver.New[int, float64, *dense.Factor](b, opts...)), nil
	}

	return nil, fmt.Errorf("unknown backend %q (want one of %v)", name, config.Backends)
}

// run times the three stages through the pipeline and measures the
// residual with the independent mat-vec.
func run[F io.Closer](s *solver.Solver[int, float64, F]) runner {
	return func(m *matrix, rhs []float64, trans bool) (report, error) {
		r := report{Backend: s.Name()}
		b := append([]float64(nil), rhs...)

		start := time.Now()
		perm, err := s.Permute(m.Order(), m.RowIdx, m.ColPtr)
		if err != nil {
			return r, err
		}
		r.Permute = time.Since(start)

		start = time.Now()
		f, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, perm)
		if err != nil {
			return r, err
		}
		defer f.Close()
		r.Factor = time.Since(start)

		start = time.Now()
		if err = s.FactorSolve(f, rhs, trans); err != nil {
			return r, err
		}
		r.Solve = time.Since(start)

		ax, err := csc.MatVecBlock(m, rhs, trans)
		if err != nil {
			return r, err
		}
		for i := range ax {
			r.Residual = math.Max(r.Residual, math.Abs(ax[i]-b[i]))
		}

		return r, nil
	}
}
