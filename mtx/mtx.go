// SPDX-License-Identifier: MIT

// Package mtx reads and writes the coordinate flavour of the Matrix Market
// exchange format, the format the power-system fixtures ship in.
//
// Supported headers: object "matrix", format "coordinate"; fields real,
// integer, pattern and complex; symmetry general, symmetric,
// skew-symmetric and hermitian. Symmetric variants are expanded on read so
// the result always holds the full matrix.
package mtx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

var (
	// ErrFormat is returned for a file that does not follow the format.
	ErrFormat = errors.New("mtx: malformed Matrix Market data")

	// ErrUnsupported is returned for a valid header this package cannot
	// represent (array format, complex data into a real scalar type, ...).
	ErrUnsupported = errors.New("mtx: unsupported Matrix Market variant")
)

// Field is the value type declared in the header.
type Field string

// Fields.
const (
	FieldReal    Field = "real"
	FieldInteger Field = "integer"
	FieldPattern Field = "pattern"
	FieldComplex Field = "complex"
)

// Symmetry is the storage symmetry declared in the header.
type Symmetry string

// Symmetries.
const (
	General       Symmetry = "general"
	Symmetric     Symmetry = "symmetric"
	SkewSymmetric Symmetry = "skew-symmetric"
	Hermitian     Symmetry = "hermitian"
)

const banner = "%%MatrixMarket"

// Header is the parsed first line.
type Header struct {
	Field    Field
	Symmetry Symmetry
}

func parseHeader(line string) (Header, error) {
	tok := strings.Fields(strings.ToLower(line))
	if len(tok) != 5 || tok[0] != strings.ToLower(banner) {
		return Header{}, fmt.Errorf("%w: header %q", ErrFormat, line)
	}
	if tok[1] != "matrix" || tok[2] != "coordinate" {
		return Header{}, fmt.Errorf("%w: %s %s", ErrUnsupported, tok[1], tok[2])
	}
	h := Header{Field: Field(tok[3]), Symmetry: Symmetry(tok[4])}
	switch h.Field {
	case FieldReal, FieldInteger, FieldPattern, FieldComplex:
	default:
		return Header{}, fmt.Errorf("%w: field %q", ErrFormat, tok[3])
	}
	switch h.Symmetry {
	case General, Symmetric, SkewSymmetric, Hermitian:
	default:
		return Header{}, fmt.Errorf("%w: symmetry %q", ErrFormat, tok[4])
	}
	if h.Symmetry == Hermitian && h.Field != FieldComplex {
		return Header{}, fmt.Errorf("%w: hermitian %s matrix", ErrFormat, h.Field)
	}

	return h, nil
}

// Triplet is a matrix in coordinate form with 0-based indices. Duplicates
// are kept as read.
type Triplet[S numeric.Scalar] struct {
	Header     Header
	Rows, Cols int
	I, J       []int
	V          []S
}

// ToCSC compresses t by columns. Rows inside a column keep input order;
// duplicates are kept (consumers sum them).
// Fails with csc.ErrShapeMismatch for a non-square matrix.
func (t *Triplet[S]) ToCSC() (*csc.Matrix[int, S], error) {
	if t.Rows != t.Cols {
		return nil, fmt.Errorf("ToCSC: %w: %d×%d is not square", csc.ErrShapeMismatch, t.Rows, t.Cols)
	}
	n := t.Cols
	colPtr := make([]int, n+1)
	for _, j := range t.J {
		colPtr[j+1]++
	}
	for j := 0; j < n; j++ {
		colPtr[j+1] += colPtr[j]
	}
	next := append([]int(nil), colPtr[:n]...)
	rowIdx := make([]int, len(t.I))
	values := make([]S, len(t.V))
	for k, j := range t.J {
		q := next[j]
		next[j]++
		rowIdx[q] = t.I[k]
		values[q] = t.V[k]
	}

	return &csc.Matrix[int, S]{N: n, ColPtr: colPtr, RowIdx: rowIdx, Values: values}, nil
}

// ToCSR compresses t by rows; as a csc.Matrix this is the CSC form of tᵗ.
func (t *Triplet[S]) ToCSR() (*csc.Matrix[int, S], error) {
	tt := &Triplet[S]{Header: t.Header, Rows: t.Cols, Cols: t.Rows, I: t.J, J: t.I, V: t.V}
	m, err := tt.ToCSC()
	if err != nil {
		return nil, fmt.Errorf("ToCSR: %w", err)
	}

	return m, nil
}
