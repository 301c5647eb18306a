// SPDX-License-Identifier: MIT

// Package rlu is the backend whose artifact is explicit: the caller gets the
// column permutation, the L and U factors and the row permutation as plain
// data in its own index type, and the adapter performs the triangular
// solves itself with the csc kernels.
package rlu

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/lu"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// Name is the backend name reported in errors, logs and metrics.
const Name = "rlu"

// Factors is the explicit artifact of P·A·Q = L·U.
//
//   - ColPerm[k] is the column of A at position k (forward).
//   - RowPerm[i] is the position of row i of A (inverse).
//   - L is unit lower triangular with the diagonal first in each column.
//   - U is upper triangular with the diagonal last in each column.
type Factors[I numeric.Index, S numeric.Scalar] struct {
	ColPerm []I
	L, U    *csc.Matrix[I, S]
	RowPerm []I

	sym    *lu.Symbolic[int]
	num    *lu.Numeric[int, S]
	work   []S
	closed bool
}

// Order implements solver.Sized.
func (f *Factors[I, S]) Order() int {
	if f == nil {
		return 0
	}

	return len(f.RowPerm)
}

// Close releases the accounted engine objects and drops the factors.
// Idempotent.
func (f *Factors[I, S]) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	f.num.Free()
	f.sym.Free()
	f.L, f.U, f.work = nil, nil, nil

	return nil
}

type options struct {
	control amd.Control
	logger  *slog.Logger
	tracker resource.Tracker
}

// Option configures a Backend.
type Option func(*options)

// WithControl sets the AMD control record.
func WithControl(ctl amd.Control) Option {
	return func(o *options) { o.control = ctl }
}

// WithLogger sets the debug logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("rlu: WithLogger: nil logger")
	}

	return func(o *options) { o.logger = l }
}

// WithTracker accounts the engine's allocations with t.
func WithTracker(t resource.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// Backend implements solver.Backend[I, S, *Factors[I, S]].
type Backend[I numeric.Index, S numeric.Scalar] struct {
	solver.AMDOrdering[I]
	opts options
}

// New returns a Backend ordering with amd.Defaults().
func New[I numeric.Index, S numeric.Scalar](opts ...Option) *Backend[I, S] {
	o := options{control: amd.Defaults(), logger: solver.DiscardLogger()}
	for _, set := range opts {
		set(&o)
	}

	return &Backend[I, S]{AMDOrdering: solver.NewAMDOrdering[I](o.control), opts: o}
}

// Name implements solver.Backend.
func (b *Backend[I, S]) Name() string { return Name }

// Factor factors with partial pivoting and exports the factors in I.
// Fails with solver.ErrConversion when a factor does not fit I.
func (b *Backend[I, S]) Factor(n I, rowIdx, colPtr []I, values []S, perm solver.Perm) (*Factors[I, S], error) {
	nn, err := numeric.ToInt(n)
	if err != nil {
		return nil, err
	}
	ap, err := numeric.ToInts(colPtr)
	if err != nil {
		return nil, fmt.Errorf("column pointers: %w", err)
	}
	ai, err := numeric.ToInts(rowIdx)
	if err != nil {
		return nil, fmt.Errorf("row indices: %w", err)
	}
	if perm == nil {
		perm = identity(nn)
	}

	sym, err := lu.Analyze(nn, ap, ai, []int(perm), b.opts.tracker)
	if err != nil {
		return nil, err
	}
	num, err := lu.Factorize(sym, ap, ai, values, lu.DefaultTol, b.opts.tracker)
	if err != nil {
		sym.Free()
		return nil, err
	}

	f, err := export[I](num, perm)
	if err != nil {
		num.Free()
		sym.Free()
		return nil, err
	}
	f.sym, f.num, f.work = sym, num, make([]S, nn)
	b.opts.logger.Debug("rlu factor", "n", nn, "lnz", f.L.NNZ(), "unz", f.U.NNZ())

	return f, nil
}

// FactorSolve applies the explicit factors to every column of rhs.
func (b *Backend[I, S]) FactorSolve(f *Factors[I, S], rhs []S, trans bool) error {
	if f == nil || f.closed {
		return solver.ErrReleased
	}
	n := f.Order()
	if n == 0 {
		return nil
	}
	x := f.work
	for k := 0; k+n <= len(rhs); k += n {
		bk := rhs[k : k+n]
		if !trans {
			csc.PermuteInv(f.RowPerm, bk, x)
			csc.LSolve(f.L, x)
			csc.USolve(f.U, x)
			csc.PermuteInv(f.ColPerm, x, bk)
			continue
		}
		csc.Permute(f.ColPerm, bk, x)
		csc.UTSolve(f.U, x)
		csc.LTSolve(f.L, x)
		csc.Permute(f.RowPerm, x, bk)
	}

	return nil
}

func export[I numeric.Index, S numeric.Scalar](num *lu.Numeric[int, S], perm solver.Perm) (*Factors[I, S], error) {
	l, err := csc.ConvertIndex[I](num.L())
	if err != nil {
		return nil, fmt.Errorf("L: %w", err)
	}
	u, err := csc.ConvertIndex[I](num.U())
	if err != nil {
		return nil, fmt.Errorf("U: %w", err)
	}
	cp, err := numeric.FromInts[I](perm)
	if err != nil {
		return nil, fmt.Errorf("column permutation: %w", err)
	}
	rp, err := numeric.FromInts[I](num.Pinv())
	if err != nil {
		return nil, fmt.Errorf("row permutation: %w", err)
	}

	return &Factors[I, S]{ColPerm: cp, L: l, U: u, RowPerm: rp}, nil
}

func identity(n int) solver.Perm {
	p := make(solver.Perm, n)
	for k := range p {
		p[k] = k
	}

	return p
}
