// SPDX-License-Identifier: MIT

package solver

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

// Solver runs the validated pipeline around one Backend. It holds no
// per-call state, so one Solver may serve concurrent calls as long as each
// uses its own artifact.
type Solver[I numeric.Index, S numeric.Scalar, F io.Closer] struct {
	backend Backend[I, S, F]
	oneShot OneShot[I, S] // nil: default composition
	name    string
	opts    options
}

// New wraps b. Whether b implements OneShot is decided here, once.
func New[I numeric.Index, S numeric.Scalar, F io.Closer](b Backend[I, S, F], opts ...Option) *Solver[I, S, F] {
	s := &Solver[I, S, F]{backend: b, name: b.Name(), opts: gatherOptions(opts...)}
	if os, ok := any(b).(OneShot[I, S]); ok {
		s.oneShot = os
	}

	return s
}

// Solve is the package-level convenience for New(b, opts...).Solve(...).
func Solve[I numeric.Index, S numeric.Scalar, F io.Closer](
	b Backend[I, S, F], n I, rowIdx, colPtr []I, values, rhs []S, trans bool, opts ...Option,
) error {
	return New(b, opts...).Solve(n, rowIdx, colPtr, values, rhs, trans)
}

// Name returns the backend name.
func (s *Solver[I, S, F]) Name() string { return s.name }

// Backend returns the wrapped backend.
func (s *Solver[I, S, F]) Backend() Backend[I, S, F] { return s.backend }

// Permute validates the structure and asks the backend for a permutation.
// A returned permutation that is not a bijection of [0, n) is an ordering
// failure.
func (s *Solver[I, S, F]) Permute(n I, rowIdx, colPtr []I) (Perm, error) {
	nn, err := s.validateStructure(n, rowIdx, colPtr)
	if err != nil {
		return nil, err
	}

	return s.permute(n, nn, rowIdx, colPtr)
}

// Factor validates the matrix and perm, then factors. On error the zero F
// is returned; the backend has already released whatever it acquired.
func (s *Solver[I, S, F]) Factor(n I, rowIdx, colPtr []I, values []S, perm Perm) (F, error) {
	var zero F
	nn, err := s.validateMatrix(n, rowIdx, colPtr, values)
	if err != nil {
		return zero, err
	}
	if err = csc.ValidatePerm(nn, perm); err != nil {
		return zero, s.fail(StageValidate, err)
	}

	return s.factor(n, rowIdx, colPtr, values, perm)
}

// FactorSolve overwrites rhs with the solution using artifact f. The RHS
// length is checked first when f implements Sized. A nil f goes straight to
// the backend, which reports ErrReleased.
func (s *Solver[I, S, F]) FactorSolve(f F, rhs []S, trans bool) error {
	nrhs := -1
	if sz, ok := any(f).(Sized); ok && !isNil(f) {
		var err error
		if nrhs, err = csc.ValidateRHS(sz.Order(), len(rhs)); err != nil {
			return s.fail(StageValidate, err)
		}
	}

	return s.factorSolve(f, rhs, nrhs, trans)
}

// Solve validates everything, then runs the backend's OneShot path or the
// default composition permute → factor → factor_solve → close.
func (s *Solver[I, S, F]) Solve(n I, rowIdx, colPtr []I, values, rhs []S, trans bool) error {
	nn, err := s.validateMatrix(n, rowIdx, colPtr, values)
	if err != nil {
		return err
	}
	nrhs, err := csc.ValidateRHS(nn, len(rhs))
	if err != nil {
		return s.fail(StageValidate, err)
	}

	if s.oneShot != nil {
		start := time.Now()
		err = s.oneShot.Solve(n, rowIdx, colPtr, values, rhs, trans)
		err = wrap(s.name, StageSolve, err)
		s.done(StageSolve, start, err)
		if err == nil {
			s.opts.metrics.columns(s.name, nrhs)
		}
		return err
	}

	perm, err := s.permute(n, nn, rowIdx, colPtr)
	if err != nil {
		return err
	}
	f, err := s.factor(n, rowIdx, colPtr, values, perm)
	if err != nil {
		return err
	}
	err = s.factorSolve(f, rhs, nrhs, trans)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = s.fail(StageFactorSolve, fmt.Errorf("close: %w", cerr))
	}

	return err
}

func (s *Solver[I, S, F]) permute(n I, nn int, rowIdx, colPtr []I) (Perm, error) {
	start := time.Now()
	perm, err := s.backend.Permute(n, rowIdx, colPtr)
	if err == nil {
		if verr := csc.ValidatePerm(nn, perm); verr != nil {
			err = fmt.Errorf("%w: %w", ErrOrdering, verr)
		}
	}
	err = wrap(s.name, StagePermute, err)
	s.done(StagePermute, start, err)
	if err != nil {
		return nil, err
	}

	return perm, nil
}

func (s *Solver[I, S, F]) factor(n I, rowIdx, colPtr []I, values []S, perm Perm) (F, error) {
	start := time.Now()
	f, err := s.backend.Factor(n, rowIdx, colPtr, values, perm)
	err = wrap(s.name, StageFactor, err)
	s.done(StageFactor, start, err)
	if err != nil {
		var zero F
		return zero, err
	}

	return f, nil
}

func (s *Solver[I, S, F]) factorSolve(f F, rhs []S, nrhs int, trans bool) error {
	start := time.Now()
	err := wrap(s.name, StageFactorSolve, s.backend.FactorSolve(f, rhs, trans))
	s.done(StageFactorSolve, start, err)
	if err == nil {
		s.opts.metrics.columns(s.name, nrhs)
	}

	return err
}

func (s *Solver[I, S, F]) validateStructure(n I, rowIdx, colPtr []I) (int, error) {
	if err := csc.ValidateStructure(n, rowIdx, colPtr); err != nil {
		return 0, s.fail(StageValidate, err)
	}
	nn, _ := numeric.ToInt(n)

	return nn, nil
}

func (s *Solver[I, S, F]) validateMatrix(n I, rowIdx, colPtr []I, values []S) (int, error) {
	nn, err := s.validateStructure(n, rowIdx, colPtr)
	if err != nil {
		return 0, err
	}
	if err = csc.ValidateValues(rowIdx, values); err != nil {
		return 0, s.fail(StageValidate, err)
	}

	return nn, nil
}

func (s *Solver[I, S, F]) fail(stage Stage, err error) error {
	err = wrap(s.name, stage, err)
	s.opts.metrics.observe(s.name, stage, time.Now(), err)
	s.opts.logger.Debug("solver stage failed", "backend", s.name, "stage", stage, "err", err)

	return err
}

func (s *Solver[I, S, F]) done(stage Stage, start time.Time, err error) {
	s.opts.metrics.observe(s.name, stage, start, err)
	if err != nil {
		s.opts.logger.Debug("solver stage failed", "backend", s.name, "stage", stage,
			"duration", time.Since(start), "err", err)
		return
	}
	s.opts.logger.Debug("solver stage done", "backend", s.name, "stage", stage,
		"duration", time.Since(start))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}
