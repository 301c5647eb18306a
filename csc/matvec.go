// SPDX-License-Identifier: MIT

package csc

import (
	"fmt"

	"github.com/katalvlaran/spsolve/numeric"
)

// MatVec computes y = A·x for one column x; y is overwritten.
// The kernel is independent of every factorization backend, which is what
// makes it usable for building right-hand sides from a known solution.
// Complexity: O(n + nnz).
func MatVec[I numeric.Index, S numeric.Scalar](m *Matrix[I, S], x, y []S) error {
	if err := checkVecs(m, x, y, "MatVec"); err != nil {
		return err
	}
	clear(y)
	for j := 0; j < m.N; j++ {
		xj := x[j]
		for p := int(m.ColPtr[j]); p < int(m.ColPtr[j+1]); p++ {
			y[int(m.RowIdx[p])] += m.Values[p] * xj
		}
	}

	return nil
}

// MatVecTrans computes y = Aᵗ·x (plain transpose, no conjugation).
// Complexity: O(n + nnz).
func MatVecTrans[I numeric.Index, S numeric.Scalar](m *Matrix[I, S], x, y []S) error {
	if err := checkVecs(m, x, y, "MatVecTrans"); err != nil {
		return err
	}
	var sum S
	for j := 0; j < m.N; j++ {
		sum = 0
		for p := int(m.ColPtr[j]); p < int(m.ColPtr[j+1]); p++ {
			sum += m.Values[p] * x[int(m.RowIdx[p])]
		}
		y[j] = sum
	}

	return nil
}

// MatVecBlock applies MatVec (or MatVecTrans) to every length-n column of
// the block x and returns the block of products.
func MatVecBlock[I numeric.Index, S numeric.Scalar](m *Matrix[I, S], x []S, trans bool) ([]S, error) {
	if m == nil {
		return nil, validatorErrorf("MatVecBlock", ErrNilMatrix)
	}
	nrhs, err := ValidateRHS(m.N, len(x))
	if err != nil {
		return nil, validatorErrorf("MatVecBlock", err)
	}
	out := make([]S, len(x))
	for k := 0; k < nrhs; k++ {
		xk, yk := x[k*m.N:(k+1)*m.N], out[k*m.N:(k+1)*m.N]
		if trans {
			err = MatVecTrans(m, xk, yk)
		} else {
			err = MatVec(m, xk, yk)
		}
		if err != nil {
			return nil, validatorErrorf("MatVecBlock", err)
		}
	}

	return out, nil
}

func checkVecs[I numeric.Index, S numeric.Scalar](m *Matrix[I, S], x, y []S, tag string) error {
	if m == nil {
		return validatorErrorf(tag, ErrNilMatrix)
	}
	if len(x) != m.N || len(y) != m.N {
		return validatorErrorf(tag, fmt.Errorf("%w: len(x)=%d len(y)=%d, want %d",
			ErrShapeMismatch, len(x), len(y), m.N))
	}

	return nil
}
