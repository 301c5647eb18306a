// SPDX-License-Identifier: MIT
// Triangular solves on compressed-column factors.
//
// Layout expected from the factorization engines:
//   - L is unit lower triangular with the diagonal stored FIRST in each column.
//   - U is upper triangular with the diagonal stored LAST in each column.
//
// All four kernels overwrite x in place and run in O(n + nnz(T)).
// The transposed kernels solve with Tᵗ (no conjugation) using the same
// storage, so a transpose solve never needs a second factorization.

package csc

import "github.com/katalvlaran/spsolve/numeric"

// LSolve solves L·x = b, x holding b on entry.
func LSolve[I numeric.Index, S numeric.Scalar](l *Matrix[I, S], x []S) {
	var p, end int
	for j := 0; j < l.N; j++ {
		p, end = int(l.ColPtr[j]), int(l.ColPtr[j+1])
		x[j] /= l.Values[p]
		xj := x[j]
		for p++; p < end; p++ {
			x[int(l.RowIdx[p])] -= l.Values[p] * xj
		}
	}
}

// LTSolve solves Lᵗ·x = b, x holding b on entry.
func LTSolve[I numeric.Index, S numeric.Scalar](l *Matrix[I, S], x []S) {
	var p, end int
	for j := l.N - 1; j >= 0; j-- {
		p, end = int(l.ColPtr[j]), int(l.ColPtr[j+1])
		for q := p + 1; q < end; q++ {
			x[j] -= l.Values[q] * x[int(l.RowIdx[q])]
		}
		x[j] /= l.Values[p]
	}
}

// USolve solves U·x = b, x holding b on entry.
func USolve[I numeric.Index, S numeric.Scalar](u *Matrix[I, S], x []S) {
	var start, last int
	for j := u.N - 1; j >= 0; j-- {
		start, last = int(u.ColPtr[j]), int(u.ColPtr[j+1])-1
		x[j] /= u.Values[last]
		xj := x[j]
		for p := start; p < last; p++ {
			x[int(u.RowIdx[p])] -= u.Values[p] * xj
		}
	}
}

// UTSolve solves Uᵗ·x = b, x holding b on entry.
func UTSolve[I numeric.Index, S numeric.Scalar](u *Matrix[I, S], x []S) {
	var start, last int
	for j := 0; j < u.N; j++ {
		start, last = int(u.ColPtr[j]), int(u.ColPtr[j+1])-1
		for p := start; p < last; p++ {
			x[j] -= u.Values[p] * x[int(u.RowIdx[p])]
		}
		x[j] /= u.Values[last]
	}
}
