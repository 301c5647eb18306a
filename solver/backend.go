// SPDX-License-Identifier: MIT

package solver

import (
	"errors"
	"fmt"
	"io"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/numeric"
)

// Perm is a forward column permutation: Perm[k] is the original column
// placed at position k. A nil Perm means the identity.
type Perm []int

// Backend is the contract every factorization library adapter fulfils.
// Arguments arrive already validated by Solver; F is the backend's opaque
// factorization artifact.
type Backend[I numeric.Index, S numeric.Scalar, F io.Closer] interface {
	// Name identifies the backend in errors, logs and metrics.
	Name() string

	// Permute returns a fill-reducing permutation, or nil to leave the
	// ordering to Factor. Embed Identity or AMDOrdering for the defaults.
	Permute(n I, rowIdx, colPtr []I) (Perm, error)

	// Factor factors A, honouring perm when non-nil. No artifact may
	// survive an error.
	Factor(n I, rowIdx, colPtr []I, values []S, perm Perm) (F, error)

	// FactorSolve overwrites the column-major block rhs with the solution
	// for A (trans == false) or Aᵗ (trans == true). f stays usable.
	FactorSolve(f F, rhs []S, trans bool) error
}

// OneShot is implemented by backends with their own factor-and-solve
// path, e.g. to convert indices only once.
type OneShot[I numeric.Index, S numeric.Scalar] interface {
	Solve(n I, rowIdx, colPtr []I, values []S, rhs []S, trans bool) error
}

// Sized is implemented by artifacts that know their order, which lets
// FactorSolve validate the RHS length before the backend runs.
type Sized interface {
	Order() int
}

// Identity is the default Permute: no permutation.
type Identity[I numeric.Index] struct{}

// Permute implements Backend.Permute.
func (Identity[I]) Permute(I, []I, []I) (Perm, error) { return nil, nil }

// AMDOrdering is the Permute of backends relying on the default ordering
// service. The zero Control is not amd.Defaults(); construct with
// NewAMDOrdering or set Control explicitly.
type AMDOrdering[I numeric.Index] struct {
	Control amd.Control
}

// NewAMDOrdering returns an AMDOrdering with ctl.
func NewAMDOrdering[I numeric.Index](ctl amd.Control) AMDOrdering[I] {
	return AMDOrdering[I]{Control: ctl}
}

// Permute implements Backend.Permute via amd.Order.
func (o AMDOrdering[I]) Permute(n I, rowIdx, colPtr []I) (Perm, error) {
	p, _, err := amd.Order(n, colPtr, rowIdx, o.Control)
	if err != nil {
		if errors.Is(err, numeric.ErrConversion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrOrdering, err)
	}

	return p, nil
}
