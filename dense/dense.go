// SPDX-License-Identifier: MIT

// Package dense is the reference backend: it expands A into a dense matrix
// and factors it with gonum's LU (LAPACK getrf/getrs). It has no fill to
// reduce, so Permute is the identity and a supplied permutation is ignored.
// Every right-hand side of a block is solved by a single getrs call.
//
// Memory is O(n²); use it for small systems and as a cross-check of the
// sparse backends.
package dense

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// Name is the backend name reported in errors, logs and metrics.
const Name = "dense"

type options struct {
	logger  *slog.Logger
	tracker resource.Tracker
}

// Option configures a Backend.
type Option func(*options)

// WithLogger sets the debug logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("dense: WithLogger: nil logger")
	}

	return func(o *options) { o.logger = l }
}

// WithTracker accounts the n×n buffer with t.
func WithTracker(t resource.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// Backend implements solver.Backend[I, float64, *Factor].
type Backend[I numeric.Index] struct {
	solver.Identity[I]
	opts options
}

// New returns a Backend.
func New[I numeric.Index](opts ...Option) *Backend[I] {
	o := options{logger: solver.DiscardLogger()}
	for _, set := range opts {
		set(&o)
	}

	return &Backend[I]{opts: o}
}

// Name implements solver.Backend.
func (b *Backend[I]) Name() string { return Name }

// Factor expands A (summing duplicates) and factors it.
// Fails with solver.ErrConversion when n² overflows int and with
// solver.ErrSingular when a pivot is exactly zero. A non-nil perm is
// logged and ignored.
func (b *Backend[I]) Factor(n I, rowIdx, colPtr []I, values []float64, perm solver.Perm) (*Factor, error) {
	nn, err := numeric.ToInt(n)
	if err != nil {
		return nil, err
	}
	if perm != nil {
		b.opts.logger.Debug("dense ignores the column permutation", "n", nn, "perm_len", len(perm))
	}
	if nn > 0 && nn > math.MaxInt/nn {
		return nil, fmt.Errorf("%w: %d×%d dense buffer", numeric.ErrConversion, nn, nn)
	}
	f := &Factor{n: nn}
	if nn == 0 {
		return f, nil
	}

	if b.opts.tracker != nil {
		bytes := int64(nn)*int64(nn)*8 + int64(nn)*8
		if f.handle, err = b.opts.tracker.Acquire(resource.KindDense, bytes); err != nil {
			return nil, err
		}
	}

	data := make([]float64, nn*nn)
	for j := 0; j < nn; j++ {
		for p := int(colPtr[j]); p < int(colPtr[j+1]); p++ {
			data[int(rowIdx[p])*nn+j] += values[p]
		}
	}
	f.lu = &mat.LU{}
	f.lu.Factorize(mat.NewDense(nn, nn, data))

	logDet, _ := f.lu.LogDet()
	cond := f.lu.Cond()
	if math.IsInf(logDet, -1) || math.IsInf(cond, 1) {
		f.Close()
		return nil, fmt.Errorf("%w: dense LU has a zero pivot", solver.ErrSingular)
	}
	b.opts.logger.Debug("dense factor", "n", nn, "cond", cond)

	return f, nil
}

// FactorSolve solves the whole block with one getrs call. An ill-conditioned
// but nonsingular matrix still yields a solution; the condition warning is
// logged.
func (b *Backend[I]) FactorSolve(f *Factor, rhs []float64, trans bool) error {
	if f == nil || f.closed {
		return solver.ErrReleased
	}
	n := f.n
	if n == 0 {
		return nil
	}
	nrhs := len(rhs) / n
	if nrhs == 0 {
		return nil
	}

	// Column-major rhs into a row-major n×nrhs Dense.
	bd := make([]float64, n*nrhs)
	for k := 0; k < nrhs; k++ {
		for i := 0; i < n; i++ {
			bd[i*nrhs+k] = rhs[k*n+i]
		}
	}
	var x mat.Dense
	if err := f.lu.SolveTo(&x, trans, mat.NewDense(n, nrhs, bd)); err != nil {
		cond, ok := err.(mat.Condition)
		if !ok || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("%w: %w", solver.ErrSingular, err)
		}
		b.opts.logger.Debug("dense solve ill-conditioned", "cond", float64(cond))
	}
	for k := 0; k < nrhs; k++ {
		for i := 0; i < n; i++ {
			rhs[k*n+i] = x.At(i, k)
		}
	}

	return nil
}

// Factor is the dense LU artifact.
type Factor struct {
	n      int
	lu     *mat.LU
	handle *resource.Handle
	closed bool
}

// Order implements solver.Sized.
func (f *Factor) Order() int {
	if f == nil {
		return 0
	}

	return f.n
}

// Cond returns the condition number estimate computed at factorization, or
// 1 for the empty matrix.
func (f *Factor) Cond() float64 {
	if f.lu == nil {
		return 1
	}
	return f.lu.Cond()
}

// Close drops the LU storage and releases the handle. Idempotent.
func (f *Factor) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	if f.lu != nil {
		f.lu.Reset()
		f.lu = nil
	}
	f.handle.Release()

	return nil
}
