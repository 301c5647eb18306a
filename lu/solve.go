// SPDX-License-Identifier: MIT

package lu

import (
	"fmt"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

// Solve overwrites b (length n) with the solution of A·x = b, or Aᵗ·x = b
// when trans is set.
func (num *Numeric[N, S]) Solve(b []S, trans bool) error {
	if num.Freed() {
		return fmt.Errorf("Solve: %w", ErrFreed)
	}
	n := num.l.N
	if len(b) != n {
		return fmt.Errorf("Solve: %w: len(b)=%d, want %d", csc.ErrShapeMismatch, len(b), n)
	}
	num.solve(b, trans)

	return nil
}

// SolveBlock solves nrhs column-major right-hand sides stored in b.
func (num *Numeric[N, S]) SolveBlock(b []S, nrhs int, trans bool) error {
	if num.Freed() {
		return fmt.Errorf("SolveBlock: %w", ErrFreed)
	}
	n := num.l.N
	if nrhs < 0 || len(b) != n*nrhs {
		return fmt.Errorf("SolveBlock: %w: len(b)=%d, want %d×%d", csc.ErrShapeMismatch, len(b), n, nrhs)
	}
	for k := 0; k < nrhs; k++ {
		num.solve(b[k*n:(k+1)*n], trans)
	}

	return nil
}

func (num *Numeric[N, S]) solve(b []S, trans bool) {
	x := num.work
	if !trans {
		// x = P·b, L·U·y = x, b = Q·y
		csc.PermuteInv(num.pinv, b, x)
		csc.LSolve(num.l, x)
		csc.USolve(num.u, x)
		if num.q == nil {
			copy(b, x)
		} else {
			csc.PermuteInv(num.q, x, b)
		}
		return
	}

	// x = Qᵗ·b, Uᵗ·Lᵗ·y = x, b = Pᵗ·y
	if num.q == nil {
		copy(x, b)
	} else {
		csc.Permute(num.q, b, x)
	}
	csc.UTSolve(num.u, x)
	csc.LTSolve(num.l, x)
	csc.Permute(num.pinv, x, b)
}

// L returns the unit lower factor (diagonal first, rows in pivot order).
// The matrix is shared with the factorization; do not modify it.
func (num *Numeric[N, S]) L() *csc.Matrix[N, S] { return num.l }

// U returns the upper factor (diagonal last).
// The matrix is shared with the factorization; do not modify it.
func (num *Numeric[N, S]) U() *csc.Matrix[N, S] { return num.u }

// Pinv returns a copy of the row pivot map: row i of A is row Pinv()[i] of L·U.
func (num *Numeric[N, S]) Pinv() []N { return append([]N(nil), num.pinv...) }

// Q returns a copy of the column permutation, or nil for the natural order.
func (num *Numeric[N, S]) Q() []N { return append([]N(nil), num.q...) }

// Lnz is the entry count of L, diagonal included.
func (num *Numeric[N, S]) Lnz() int { return num.l.NNZ() }

// Unz is the entry count of U, diagonal included.
func (num *Numeric[N, S]) Unz() int { return num.u.NNZ() }

// OffDiagonalPivots counts the columns whose pivot was not the diagonal.
func (num *Numeric[N, S]) OffDiagonalPivots() int { return num.noffdiag }

// RCond is the cheap reciprocal condition estimate min|uₖₖ| / max|uₖₖ|.
// It returns 1 for an empty matrix.
func (num *Numeric[N, S]) RCond() float64 {
	lo, hi := 0.0, 0.0
	for k := 0; k < num.u.N; k++ {
		d := numeric.Abs(num.u.Values[int(num.u.ColPtr[k+1])-1])
		if k == 0 || d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if hi == 0 {
		return 1
	}

	return lo / hi
}

// Free releases the numeric handle and drops the factors. Only the first
// call reports true.
func (num *Numeric[N, S]) Free() bool {
	if num == nil || num.freed {
		return false
	}
	num.freed = true
	num.handle.Release()
	num.l, num.u, num.work = nil, nil, nil

	return true
}

// Freed reports whether Free already ran.
func (num *Numeric[N, S]) Freed() bool { return num == nil || num.freed }
