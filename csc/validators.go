// SPDX-License-Identifier: MIT
// Package: csc
//
// Purpose:
//   - Single source of truth for the invariants of the compressed-column
//     triple, the RHS block and permutations.
//   - Return sentinels wrapped with a validator tag so call sites can wrap
//     once more with their own stage.
//
// Determinism & Performance:
//   - All checks are pure; only ValidatePerm allocates (a seen-bitmap).
//
// Note:
//   - Index values are converted with numeric.ToInt, so an index type wider
//     than int reports numeric.ErrConversion rather than a shape error.

package csc

import (
	"fmt"

	"github.com/katalvlaran/spsolve/numeric"
)

func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateStructure checks the (n, colPtr, rowIdx) part of the triple.
// Complexity: O(n + nnz).
func ValidateStructure[I numeric.Index](n I, rowIdx, colPtr []I) error {
	nn, err := numeric.ToInt(n)
	if err != nil {
		return validatorErrorf("ValidateStructure", err)
	}
	if nn < 0 {
		return validatorErrorf("ValidateStructure", fmt.Errorf("%w: negative order %d", ErrShapeMismatch, nn))
	}
	if len(colPtr) != nn+1 {
		return validatorErrorf("ValidateStructure", fmt.Errorf("%w: len(colPtr)=%d, want %d",
			ErrShapeMismatch, len(colPtr), nn+1))
	}
	if colPtr[0] != 0 {
		return validatorErrorf("ValidateStructure", fmt.Errorf("%w: colPtr[0]=%v, want 0",
			ErrShapeMismatch, colPtr[0]))
	}

	var prev, next int
	for k := 0; k < nn; k++ {
		if next, err = numeric.ToInt(colPtr[k+1]); err != nil {
			return validatorErrorf("ValidateStructure", err)
		}
		if next < prev {
			return validatorErrorf("ValidateStructure", fmt.Errorf("%w: colPtr decreases at column %d",
				ErrShapeMismatch, k))
		}
		prev = next
	}
	if prev != len(rowIdx) {
		return validatorErrorf("ValidateStructure", fmt.Errorf("%w: colPtr[n]=%d, len(rowIdx)=%d",
			ErrShapeMismatch, prev, len(rowIdx)))
	}

	var row int
	for p, r := range rowIdx {
		if row, err = numeric.ToInt(r); err != nil {
			return validatorErrorf("ValidateStructure", err)
		}
		if row < 0 || row >= nn {
			return validatorErrorf("ValidateStructure", fmt.Errorf("%w: rowIdx[%d]=%d outside [0,%d)",
				ErrShapeMismatch, p, row, nn))
		}
	}

	return nil
}

// ValidateValues checks that values run parallel to rowIdx.
// Complexity: O(1).
func ValidateValues[I numeric.Index, S numeric.Scalar](rowIdx []I, values []S) error {
	if len(values) != len(rowIdx) {
		return validatorErrorf("ValidateValues", fmt.Errorf("%w: len(values)=%d, len(rowIdx)=%d",
			ErrShapeMismatch, len(values), len(rowIdx)))
	}

	return nil
}

// ValidateRHS checks that an RHS block of length rhsLen holds a whole number
// of columns of length n and returns that number.
// For n == 0 only the empty block is accepted (nrhs reported as 0).
func ValidateRHS(n, rhsLen int) (int, error) {
	if n == 0 {
		if rhsLen != 0 {
			return 0, validatorErrorf("ValidateRHS", fmt.Errorf("%w: order 0 with %d rhs entries",
				ErrShapeMismatch, rhsLen))
		}
		return 0, nil
	}
	if rhsLen%n != 0 {
		return 0, validatorErrorf("ValidateRHS", fmt.Errorf("%w: len(rhs)=%d is not a multiple of n=%d",
			ErrShapeMismatch, rhsLen, n))
	}

	return rhsLen / n, nil
}

// ValidatePerm checks that perm is nil (identity) or a bijection on [0, n).
// Complexity: O(n) time and space.
func ValidatePerm(n int, perm []int) error {
	if perm == nil {
		return nil
	}
	if len(perm) != n {
		return validatorErrorf("ValidatePerm", fmt.Errorf("%w: len(perm)=%d, want %d",
			ErrShapeMismatch, len(perm), n))
	}
	seen := make([]bool, n)
	for k, j := range perm {
		if j < 0 || j >= n || seen[j] {
			return validatorErrorf("ValidatePerm", fmt.Errorf("%w: perm[%d]=%d is not a bijection entry",
				ErrShapeMismatch, k, j))
		}
		seen[j] = true
	}

	return nil
}

// Validate is the composite check of a whole Matrix: NotNil → Structure → Values.
func Validate[I numeric.Index, S numeric.Scalar](m *Matrix[I, S]) error {
	if m == nil {
		return validatorErrorf("Validate", ErrNilMatrix)
	}
	n, err := numeric.FromInt[I](m.N)
	if err != nil {
		return validatorErrorf("Validate", err)
	}
	if err = ValidateStructure(n, m.RowIdx, m.ColPtr); err != nil {
		return validatorErrorf("Validate", err)
	}
	if err = ValidateValues(m.RowIdx, m.Values); err != nil {
		return validatorErrorf("Validate", err)
	}

	return nil
}
