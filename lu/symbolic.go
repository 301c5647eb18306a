// SPDX-License-Identifier: MIT

package lu

import (
	"fmt"
	"unsafe"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
)

// Symbolic is the result of the analysis phase: order, column permutation
// and fill estimate. It holds no values and can serve any number of
// Factorize calls on matrices with the same structure.
type Symbolic[N numeric.Native] struct {
	n      int
	nnz    int
	q      []int // nil means natural order
	lnz    int   // estimated entries of L
	unz    int   // estimated entries of U
	handle *resource.Handle
	freed  bool
}

// Analyze validates the structure and records the column permutation q
// (q[k] is the column of A placed at position k; nil means natural order).
// A nil tracker disables accounting.
//
// Errors: csc.ErrShapeMismatch for a malformed structure or q, wrapped
// resource.ErrExhausted when the tracker refuses the symbolic handle.
func Analyze[N numeric.Native](n N, colPtr, rowIdx, q []N, t resource.Tracker) (*Symbolic[N], error) {
	if err := csc.ValidateStructure(n, rowIdx, colPtr); err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}
	nn := int(n)

	var qq []int
	if q != nil {
		qq = make([]int, len(q))
		for k, j := range q {
			qq[k] = int(j)
		}
		if err := csc.ValidatePerm(nn, qq); err != nil {
			return nil, fmt.Errorf("Analyze: column permutation: %w", err)
		}
	}

	nnz := len(rowIdx)
	est := 4*nnz + nn
	s := &Symbolic[N]{n: nn, nnz: nnz, q: qq, lnz: est, unz: est}

	if t != nil {
		bytes := int64(nn+1+len(qq)) * int64(indexSize[N]())
		h, err := t.Acquire(resource.KindSymbolic, bytes)
		if err != nil {
			return nil, fmt.Errorf("Analyze: %w", err)
		}
		s.handle = h
	}

	return s, nil
}

// Order returns the order of the analysed matrix.
func (s *Symbolic[N]) Order() int { return s.n }

// NNZ returns the entry count the structure was analysed with.
func (s *Symbolic[N]) NNZ() int { return s.nnz }

// Q returns a copy of the column permutation in the native width, or nil
// for the natural order.
func (s *Symbolic[N]) Q() []N {
	if s.q == nil {
		return nil
	}
	out := make([]N, len(s.q))
	for k, j := range s.q {
		out[k] = N(j)
	}

	return out
}

// Free releases the symbolic handle. Only the first call reports true.
func (s *Symbolic[N]) Free() bool {
	if s == nil || s.freed {
		return false
	}
	s.freed = true
	s.handle.Release()

	return true
}

// Freed reports whether Free already ran.
func (s *Symbolic[N]) Freed() bool { return s == nil || s.freed }

func indexSize[N numeric.Native]() uintptr {
	var z N
	return unsafe.Sizeof(z)
}
