// SPDX-License-Identifier: MIT

// Package csc provides compressed sparse column storage and the kernels the
// pipeline needs around it.
//
// Purpose:
//   - Carry the (ColPtr, RowIdx, Values) triple of a square sparse matrix.
//   - Validate the triple once, before any backend sees it.
//   - Provide the independent mat-vec used to build right-hand sides from a
//     known solution, and the triangular solves shared by the engines.
//
// Storage contract:
//   - len(ColPtr) == N+1, ColPtr[0] == 0, ColPtr non-decreasing.
//   - len(RowIdx) == len(Values) == ColPtr[N].
//   - Every RowIdx entry lies in [0, N). Rows inside a column may be unsorted;
//     duplicates are summed by every consumer.
//
// A Matrix never owns more than its three slices; kernels read them and never
// retain them past the call.
package csc

import (
	"fmt"

	"github.com/katalvlaran/spsolve/numeric"
)

// Matrix is a square sparse matrix of order N in compressed-column form.
type Matrix[I numeric.Index, S numeric.Scalar] struct {
	N      int
	ColPtr []I
	RowIdx []I
	Values []S
}

// New wraps the triple after validating it.
func New[I numeric.Index, S numeric.Scalar](n I, colPtr, rowIdx []I, values []S) (*Matrix[I, S], error) {
	nn, err := numeric.ToInt(n)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	if err = ValidateStructure(n, rowIdx, colPtr); err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	if err = ValidateValues(rowIdx, values); err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}

	return &Matrix[I, S]{N: nn, ColPtr: colPtr, RowIdx: rowIdx, Values: values}, nil
}

// NNZ returns the number of stored entries.
func (m *Matrix[I, S]) NNZ() int { return len(m.Values) }

// Order returns N in the matrix's own index type.
// Panics only if N does not fit I, which New rules out.
func (m *Matrix[I, S]) Order() I { return I(m.N) }

// Clone returns a deep copy.
func (m *Matrix[I, S]) Clone() *Matrix[I, S] {
	return &Matrix[I, S]{
		N:      m.N,
		ColPtr: append([]I(nil), m.ColPtr...),
		RowIdx: append([]I(nil), m.RowIdx...),
		Values: append([]S(nil), m.Values...),
	}
}

// Dense expands m into a row-major n×n slice. Intended for small matrices
// in tests and diagnostics; duplicates are summed.
func (m *Matrix[I, S]) Dense() [][]S {
	out := make([][]S, m.N)
	for i := range out {
		out[i] = make([]S, m.N)
	}
	for j := 0; j < m.N; j++ {
		for p := int(m.ColPtr[j]); p < int(m.ColPtr[j+1]); p++ {
			out[int(m.RowIdx[p])][j] += m.Values[p]
		}
	}

	return out
}

// ConvertIndex re-encodes m with a different index width.
// Fails with numeric.ErrConversion when any offset or row does not fit To.
func ConvertIndex[To, From numeric.Index, S numeric.Scalar](m *Matrix[From, S]) (*Matrix[To, S], error) {
	if m == nil {
		return nil, fmt.Errorf("ConvertIndex: %w", ErrNilMatrix)
	}
	if _, err := numeric.FromInt[To](m.N); err != nil {
		return nil, fmt.Errorf("ConvertIndex: order: %w", err)
	}
	colPtr, err := numeric.ConvertSlice[To](m.ColPtr)
	if err != nil {
		return nil, fmt.Errorf("ConvertIndex: column pointers: %w", err)
	}
	rowIdx, err := numeric.ConvertSlice[To](m.RowIdx)
	if err != nil {
		return nil, fmt.Errorf("ConvertIndex: row indices: %w", err)
	}

	return &Matrix[To, S]{N: m.N, ColPtr: colPtr, RowIdx: rowIdx, Values: m.Values}, nil
}

// Transpose returns mᵗ in compressed-column form (equivalently, m in
// compressed-row form). Rows within each output column come out sorted.
// Complexity: O(n + nnz).
func Transpose[I numeric.Index, S numeric.Scalar](m *Matrix[I, S]) *Matrix[I, S] {
	n := m.N
	count := make([]int, n+1)
	for _, i := range m.RowIdx {
		count[int(i)+1]++
	}
	for i := 0; i < n; i++ {
		count[i+1] += count[i]
	}

	colPtr := make([]I, n+1)
	for i := range colPtr {
		colPtr[i] = I(count[i])
	}
	rowIdx := make([]I, len(m.RowIdx))
	values := make([]S, len(m.Values))
	next := append([]int(nil), count[:n]...)
	for j := 0; j < n; j++ {
		for p := int(m.ColPtr[j]); p < int(m.ColPtr[j+1]); p++ {
			i := int(m.RowIdx[p])
			q := next[i]
			next[i]++
			rowIdx[q] = I(j)
			values[q] = m.Values[p]
		}
	}

	return &Matrix[I, S]{N: n, ColPtr: colPtr, RowIdx: rowIdx, Values: values}
}
