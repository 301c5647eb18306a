// SPDX-License-Identifier: MIT

package solver

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/lu"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
)

// Error classes. Aliases keep one sentinel per cause across packages so
// errors.Is works whichever package produced the error.
var (
	// ErrConversion: an index or dimension does not fit the backend's native
	// integer width.
	ErrConversion = numeric.ErrConversion

	// ErrOrdering: the ordering service rejected the structure.
	ErrOrdering = errors.New("solver: ordering failed")

	// ErrSingular: the matrix is numerically singular.
	ErrSingular = lu.ErrSingular

	// ErrNativeResource: a native allocation failed.
	ErrNativeResource = resource.ErrExhausted

	// ErrShapeMismatch: array lengths or structure are inconsistent.
	ErrShapeMismatch = csc.ErrShapeMismatch

	// ErrReleased: a factorization artifact was used after Close.
	ErrReleased = errors.New("solver: factorization released")
)

// Stage names the pipeline step a failure belongs to.
type Stage string

// Pipeline stages.
const (
	StageValidate    Stage = "validate"
	StagePermute     Stage = "permute"
	StageFactor      Stage = "factor"
	StageFactorSolve Stage = "factor_solve"
	StageSolve       Stage = "solve" // one-shot path that did not attribute its failure
)

// Error is the error type of every pipeline failure.
type Error struct {
	Backend string
	Stage   Stage
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Stage, e.Err)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// AtStage lets a backend's one-shot path attribute a failure to a stage;
// the Solver fills in the backend name.
func AtStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Err: err}
}

// wrap turns err into *Error for backend at stage. An *Error produced by
// AtStage keeps its stage.
func wrap(backend string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		if se.Backend == "" {
			se.Backend = backend
		}
		return se
	}

	return &Error{Backend: backend, Stage: stage, Err: err}
}
