// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/mtx"
	"github.com/katalvlaran/spsolve/resource"
)

func newSolveCmd(a *app) *cobra.Command {
	var (
		fixtureName string
		show        bool
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve A·x = b for a known x and report timings and errors",
		Long: `Solve builds b = A·x* for a known x* (the 10×10 system's own solution,
or the ramp 1 + i/n for a loaded matrix), solves with the chosen backend and
reports the stage timings, the residual and the error against x*.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.solve(cmd, fixtureName, show)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&a.flags.matrix, "matrix", "m", "", "Matrix Market file (default: built-in 10×10 system)")
	fl.StringVar(&fixtureName, "fixture", "", "ACTIVSg fixture name, read from $"+fixture.EnvMatrixDir)
	fl.StringVarP(&a.flags.backend, "backend", "b", "", "backend: gplu, klu, rlu or dense")
	fl.BoolVarP(&a.flags.transpose, "transpose", "t", false, "solve Aᵗ·x = b")
	fl.IntVarP(&a.flags.nrhs, "nrhs", "k", 1, "number of right-hand sides")
	fl.Float64Var(&a.flags.tol, "tol", 0, "pivot threshold in (0, 1]")
	fl.BoolVarP(&show, "print", "p", false, "print the solution")

	return cmd
}

// system returns the matrix and the known solution block.
func (a *app) system(fixtureName string) (*matrix, []float64, error) {
	var (
		m   *matrix
		err error
	)
	switch {
	case fixtureName != "":
		m, err = fixture.ACTIVSg[float64](fixtureName)
	case a.cfg.Matrix != "":
		m, err = mtx.Load[float64](a.cfg.Matrix, true)
	default:
		sys, serr := fixture.Simple10[int, float64]()
		if serr != nil {
			return nil, nil, serr
		}
		x := make([]float64, 0, sys.A.N*a.cfg.NRHS)
		for k := 0; k < a.cfg.NRHS; k++ {
			x = append(x, sys.X...)
		}
		return sys.A, x, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if err = csc.Validate(m); err != nil {
		return nil, nil, err
	}

	return m, fixture.Ramp[float64](m.N, a.cfg.NRHS), nil
}

func (a *app) solve(cmd *cobra.Command, fixtureName string, show bool) error {
	if err := a.apply(cmd); err != nil {
		return err
	}
	m, want, err := a.system(fixtureName)
	if err != nil {
		return err
	}
	rhs, err := csc.MatVecBlock(m, want, a.cfg.Transpose)
	if err != nil {
		return err
	}

	tr := resource.NewCounter()
	run, err := newRunner(a.cfg.Backend, env{cfg: a.cfg, logger: a.logger, tracker: tr})
	if err != nil {
		return err
	}
	r, err := run(m, rhs, a.cfg.Transpose)
	if err != nil {
		return err
	}

	var maxErr float64
	for i := range want {
		maxErr = math.Max(maxErr, math.Abs(rhs[i]-want[i]))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend=%s n=%d nnz=%d nrhs=%d transpose=%v\n",
		r.Backend, m.N, m.NNZ(), a.cfg.NRHS, a.cfg.Transpose)
	fmt.Fprintf(out, "permute=%s factor=%s solve=%s\n", r.Permute, r.Factor, r.Solve)
	fmt.Fprintf(out, "residual=%.3e error=%.3e\n", r.Residual, maxErr)
	if show {
		for _, v := range rhs {
			fmt.Fprintln(out, strconv.FormatFloat(v, 'g', 17, 64))
		}
	}
	a.logger.Debug("solve done", "backend", r.Backend, "live_handles", tr.Live())

	return nil
}
