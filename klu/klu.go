// SPDX-License-Identifier: MIT

// Package klu is the backend modelled on KLU: real float64 values, int32
// native indices, ordering inside the analysis phase, and an explicit
// Common record of controls and statistics.
//
// Adapter duties:
//   - Indices of any width are converted to int32 before the first native
//     call; a value that does not fit fails with solver.ErrConversion.
//   - Permute is the identity; analysis orders the matrix itself. A
//     permutation supplied to Factor is forward and is handed to the native
//     layer as its inverse.
//   - The symbolic object is freed when the numeric phase fails.
//   - Multi-RHS blocks go to the native layer in a single call.
//   - Solve overrides the default composition so that indices are converted
//     only once.
package klu

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// Name is the backend name reported in errors, logs and metrics.
const Name = "klu"

// Backend implements solver.Backend[I, float64, *Factor] and solver.OneShot.
type Backend[I numeric.Index] struct {
	solver.Identity[I]
	common  Common
	logger  *slog.Logger
	tracker resource.Tracker
}

type settings struct {
	common  Common
	logger  *slog.Logger
	tracker resource.Tracker
}

// Option configures a Backend.
type Option func(*settings)

// WithCommon replaces the control part of the Common record.
// Panics when c.Tol is outside [0, 1].
func WithCommon(c Common) Option {
	if !(c.Tol >= 0 && c.Tol <= 1) {
		panic(fmt.Sprintf("klu: WithCommon: Tol %v outside [0, 1]", c.Tol))
	}

	return func(s *settings) {
		s.common.Tol, s.common.Ordering, s.common.AMD = c.Tol, c.Ordering, c.AMD
	}
}

// WithTol sets the pivot tolerance. Panics outside [0, 1].
func WithTol(tol float64) Option {
	if !(tol >= 0 && tol <= 1) {
		panic(fmt.Sprintf("klu: WithTol: %v outside [0, 1]", tol))
	}

	return func(s *settings) { s.common.Tol = tol }
}

// WithOrdering selects the ordering used by analysis.
func WithOrdering(o Ordering) Option {
	return func(s *settings) { s.common.Ordering = o }
}

// WithLogger sets the debug logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("klu: WithLogger: nil logger")
	}

	return func(s *settings) { s.logger = l }
}

// WithTracker accounts symbolic and numeric objects with t.
func WithTracker(t resource.Tracker) Option {
	return func(s *settings) { s.tracker = t }
}

// New returns a Backend with Defaults().
func New[I numeric.Index](opts ...Option) *Backend[I] {
	s := settings{common: Defaults(), logger: solver.DiscardLogger()}
	for _, set := range opts {
		set(&s)
	}

	return &Backend[I]{common: s.common, logger: s.logger, tracker: s.tracker}
}

// Name implements solver.Backend.
func (b *Backend[I]) Name() string { return Name }

// Common returns the control record the backend starts every call from.
func (b *Backend[I]) Common() Common { return b.common }

// Factor converts indices, analyses and factors. A non-nil perm overrides
// the configured ordering.
func (b *Backend[I]) Factor(n I, rowIdx, colPtr []I, values []float64, perm solver.Perm) (*Factor, error) {
	nat, err := toNative(n, colPtr, rowIdx)
	if err != nil {
		return nil, err
	}
	c := b.common

	return b.factor(nat, values, perm, &c)
}

// FactorSolve solves every column of rhs in one native call.
func (b *Backend[I]) FactorSolve(f *Factor, rhs []float64, trans bool) error {
	if f == nil || f.closed {
		return solver.ErrReleased
	}
	if f.n == 0 {
		return nil
	}

	// Solves leave f.common alone; it describes the factorization only.
	return f.num.SolveBlock(rhs, len(rhs)/f.n, trans)
}

// Solve is the one-shot path: convert once, analyse, factor, solve, free.
func (b *Backend[I]) Solve(n I, rowIdx, colPtr []I, values, rhs []float64, trans bool) error {
	nat, err := toNative(n, colPtr, rowIdx)
	if err != nil {
		return solver.AtStage(solver.StageFactor, err)
	}
	c := b.common
	f, err := b.factor(nat, values, nil, &c)
	if err != nil {
		return solver.AtStage(solver.StageFactor, err)
	}
	defer f.Close()

	if err = b.FactorSolve(f, rhs, trans); err != nil {
		return solver.AtStage(solver.StageFactorSolve, err)
	}

	return nil
}

func (b *Backend[I]) factor(nat native, values []float64, perm solver.Perm, c *Common) (*Factor, error) {
	var (
		sym *nativeSymbolic
		err error
	)
	if perm == nil {
		sym, err = analyze(nat.n, nat.ap, nat.ai, c, b.tracker)
	} else {
		var qinv []int32
		if qinv, err = inverse(int(nat.n), perm); err == nil {
			sym, err = analyzeGiven(nat.n, nat.ap, nat.ai, qinv, c, b.tracker)
		}
	}
	if err != nil {
		return nil, err
	}

	num, err := factor(nat.ap, nat.ai, values, sym, c, b.tracker)
	if err != nil {
		sym.Free()
		return nil, err
	}
	b.logger.Debug("klu factor", "n", nat.n, "nnz", len(values), "ordering", c.Ordering,
		"lnz", c.Lnz, "unz", c.Unz, "noffdiag", c.NOffDiag, "rcond", c.RCond)

	return &Factor{n: int(nat.n), sym: sym, num: num, common: *c}, nil
}

// native is the int32 form of the structure.
type native struct {
	n      int32
	ap, ai []int32
}

func toNative[I numeric.Index](n I, colPtr, rowIdx []I) (native, error) {
	n32, err := numeric.Convert[int32](n)
	if err != nil {
		return native{}, fmt.Errorf("order: %w", err)
	}
	ap, err := numeric.ConvertSlice[int32](colPtr)
	if err != nil {
		return native{}, fmt.Errorf("column pointers: %w", err)
	}
	ai, err := numeric.ConvertSlice[int32](rowIdx)
	if err != nil {
		return native{}, fmt.Errorf("row indices: %w", err)
	}

	return native{n: n32, ap: ap, ai: ai}, nil
}

// inverse turns a forward permutation into the int32 inverse the native
// layer expects.
func inverse(n int, perm solver.Perm) ([]int32, error) {
	if err := csc.ValidatePerm(n, perm); err != nil {
		return nil, err
	}
	qinv := make([]int32, n)
	for k, j := range perm {
		qinv[j] = int32(k)
	}

	return qinv, nil
}

// Factor is the artifact: symbolic and numeric objects plus the Common
// record of the call that produced them.
type Factor struct {
	n      int
	sym    *nativeSymbolic
	num    *nativeNumeric
	common Common
	closed bool
}

// Order implements solver.Sized.
func (f *Factor) Order() int {
	if f == nil {
		return 0
	}

	return f.n
}

// Common returns the statistics recorded when f was factored. FactorSolve
// does not change them.
func (f *Factor) Common() Common { return f.common }

// Close frees numeric, then symbolic. Idempotent.
func (f *Factor) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	f.num.Free()
	f.sym.Free()

	return nil
}
