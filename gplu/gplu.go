// SPDX-License-Identifier: MIT

// Package gplu is the general-purpose backend: any index type, any scalar
// (real or complex), ordering by the AMD service or by a precomputed column
// permutation, and factorization by the Gilbert–Peierls engine in package
// lu. The artifact is the opaque *Factor.
package gplu

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/lu"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// Name is the backend name reported in errors, logs and metrics.
const Name = "gplu"

// DefaultTol is the pivot threshold: plain partial pivoting.
const DefaultTol = lu.DefaultTol

// Option configures a Backend.
type Option func(*options)

type options struct {
	tol     float64
	control amd.Control
	colPerm solver.Perm
	logger  *slog.Logger
	tracker resource.Tracker
}

// WithTol sets the diagonal preference threshold in (0, 1].
// Panics outside that range.
func WithTol(tol float64) Option {
	if !(tol > 0 && tol <= 1) {
		panic(fmt.Sprintf("gplu: WithTol: %v outside (0, 1]", tol))
	}

	return func(o *options) { o.tol = tol }
}

// WithControl sets the AMD control record.
func WithControl(ctl amd.Control) Option {
	return func(o *options) { o.control = ctl }
}

// WithColPerm fixes the column permutation; Permute returns it instead of
// running the ordering service. The pipeline validates it against every
// matrix it is used with.
func WithColPerm(p solver.Perm) Option {
	cp := append(solver.Perm(nil), p...)
	return func(o *options) { o.colPerm = cp }
}

// WithLogger sets the debug logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("gplu: WithLogger: nil logger")
	}

	return func(o *options) { o.logger = l }
}

// WithTracker accounts the engine's allocations with t.
func WithTracker(t resource.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// Backend implements solver.Backend[I, S, *Factor[S]].
type Backend[I numeric.Index, S numeric.Scalar] struct {
	solver.AMDOrdering[I]
	opts options
}

// New returns a Backend with the documented defaults.
func New[I numeric.Index, S numeric.Scalar](opts ...Option) *Backend[I, S] {
	o := options{tol: DefaultTol, control: amd.Defaults(), logger: solver.DiscardLogger()}
	for _, set := range opts {
		set(&o)
	}

	return &Backend[I, S]{AMDOrdering: solver.NewAMDOrdering[I](o.control), opts: o}
}

// Name implements solver.Backend.
func (b *Backend[I, S]) Name() string { return Name }

// Permute returns the fixed permutation when one was configured, the AMD
// ordering otherwise.
func (b *Backend[I, S]) Permute(n I, rowIdx, colPtr []I) (solver.Perm, error) {
	if b.opts.colPerm != nil {
		return append(solver.Perm(nil), b.opts.colPerm...), nil
	}

	return b.AMDOrdering.Permute(n, rowIdx, colPtr)
}

// Factor converts the indices to int and runs the engine.
func (b *Backend[I, S]) Factor(n I, rowIdx, colPtr []I, values []S, perm solver.Perm) (*Factor[S], error) {
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

	sym, err := lu.Analyze(nn, ap, ai, []int(perm), b.opts.tracker)
	if err != nil {
		return nil, err
	}
	num, err := lu.Factorize(sym, ap, ai, values, b.opts.tol, b.opts.tracker)
	if err != nil {
		sym.Free()
		return nil, err
	}
	b.opts.logger.Debug("gplu factor", "n", nn, "nnz", len(values),
		"lnz", num.Lnz(), "unz", num.Unz(), "offdiag", num.OffDiagonalPivots())

	return &Factor[S]{n: nn, sym: sym, num: num}, nil
}

// FactorSolve solves the block column by column.
func (b *Backend[I, S]) FactorSolve(f *Factor[S], rhs []S, trans bool) error {
	if f == nil || f.closed {
		return solver.ErrReleased
	}
	if f.n == 0 {
		return nil
	}
	for k := 0; k+f.n <= len(rhs); k += f.n {
		if err := f.num.Solve(rhs[k:k+f.n], trans); err != nil {
			return err
		}
	}

	return nil
}

// Factor is the opaque factorization artifact.
type Factor[S numeric.Scalar] struct {
	n      int
	sym    *lu.Symbolic[int]
	num    *lu.Numeric[int, S]
	closed bool
}

// Order implements solver.Sized.
func (f *Factor[S]) Order() int {
	if f == nil {
		return 0
	}

	return f.n
}

// Stats describes the factors.
type Stats struct {
	Lnz, Unz          int
	OffDiagonalPivots int
	RCond             float64
}

// Stats reports fill and pivoting figures. The zero Stats is returned after
// Close.
func (f *Factor[S]) Stats() Stats {
	if f.closed {
		return Stats{}
	}

	return Stats{
		Lnz:               f.num.Lnz(),
		Unz:               f.num.Unz(),
		OffDiagonalPivots: f.num.OffDiagonalPivots(),
		RCond:             f.num.RCond(),
	}
}

// Close frees the numeric and symbolic parts. Idempotent.
func (f *Factor[S]) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	f.num.Free()
	f.sym.Free()

	return nil
}
