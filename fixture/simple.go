// SPDX-License-Identifier: MIT

// Package fixture provides the matrices the validation harness and the CLI
// run against:
//
//   - Simple10: the 10×10 symmetric system with solution 0.1, 0.2, ..., 1.0.
//   - Bbus / Ybus: deterministic synthetic admittance matrices shaped like
//     power-network B-bus (real) and Y-bus (complex) matrices.
//   - Ramp: right-hand-side blocks with entries 1 + i/n.
//   - ACTIVSg: the real synthetic-grid fixtures, read from a directory named
//     by $SPSOLVE_MATRIX_DIR when present.
package fixture

import (
	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

// Simple10 storage. The matrix is
//
//	2.10                               0.14  0.09
//	      1.10              0.06                    0.03
//	            1.70                                0.04
//	                  1.00              0.32  0.19  0.32  0.44
//	      0.06              1.60
//	                              2.20
//	                  0.32              1.90              0.43
//	0.14              0.19                    1.10  0.22
//	0.09              0.32                    0.22  2.40
//	      0.03  0.04  0.44              0.43              3.20
var (
	simpleColPtr = []int{0, 3, 6, 8, 13, 15, 16, 19, 23, 27, 32}
	simpleRowIdx = []int{
		0, 7, 8, 1, 4, 9, 2, 9, 3, 6, 7, 8, 9, 1, 4, 5,
		3, 6, 9, 0, 3, 7, 8, 0, 3, 7, 8, 1, 2, 3, 6, 9,
	}
	simpleValues = []float64{
		2.1, 0.14, 0.09, 1.1, 0.06, 0.03, 1.7, 0.04, 1.0, 0.32, 0.19, 0.32, 0.44, 0.06, 1.6, 2.2,
		0.32, 1.9, 0.43, 0.14, 0.19, 1.1, 0.22, 0.09, 0.32, 0.22, 2.4, 0.03, 0.04, 0.44, 0.43, 3.2,
	}
	simpleB = []float64{0.403, 0.28, 0.55, 1.504, 0.812, 1.32, 1.888, 1.168, 2.473, 3.695}
	simpleX = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
)

// SimpleN is the order of Simple10.
const SimpleN = 10

// System is one test system A·x = b in the caller's index and scalar types.
type System[I numeric.Index, S numeric.Scalar] struct {
	A *csc.Matrix[I, S]
	B []S // right-hand side
	X []S // exact solution
}

// Simple10 returns fresh copies of the 10×10 system.
// Fails with numeric.ErrConversion only for an index type narrower than
// the 32 stored entries allow (e.g. none of the built-in types).
func Simple10[I numeric.Index, S numeric.Scalar]() (System[I, S], error) {
	colPtr, err := numeric.FromInts[I](simpleColPtr)
	if err != nil {
		return System[I, S]{}, err
	}
	rowIdx, err := numeric.FromInts[I](simpleRowIdx)
	if err != nil {
		return System[I, S]{}, err
	}

	return System[I, S]{
		A: &csc.Matrix[I, S]{N: SimpleN, ColPtr: colPtr, RowIdx: rowIdx, Values: lift[S](simpleValues)},
		B: lift[S](simpleB),
		X: lift[S](simpleX),
	}, nil
}

// Ramp returns nrhs stacked columns with entries 1 + i/n.
func Ramp[S numeric.Scalar](n, nrhs int) []S {
	out := make([]S, 0, n*nrhs)
	for k := 0; k < nrhs; k++ {
		for i := 0; i < n; i++ {
			out = append(out, numeric.FromFloat[S](1+float64(i)/float64(n)))
		}
	}

	return out
}

func lift[S numeric.Scalar](v []float64) []S {
	out := make([]S, len(v))
	for k, f := range v {
		out[k] = numeric.FromFloat[S](f)
	}

	return out
}
