// SPDX-License-Identifier: MIT

package solvertest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/numeric"
)

// System returns a known solution block x* with nrhs columns, column k
// being (k+1)·ramp, and b = A·x* (or Aᵗ·x*).
func System[I numeric.Index, S numeric.Scalar](
	t testing.TB, m *csc.Matrix[I, S], nrhs int, trans bool,
) (x, b []S) {
	t.Helper()
	x = fixture.Ramp[S](m.N, nrhs)
	for k := 0; k < nrhs; k++ {
		scale := numeric.FromFloat[S](float64(k + 1))
		for i := k * m.N; i < (k+1)*m.N; i++ {
			x[i] *= scale
		}
	}
	b, err := csc.MatVecBlock(m, x, trans)
	require.NoError(t, err)

	return x, b
}

// Admittance returns the order-n synthetic admittance matrix in the
// caller's types, a perturbed Bbus for real S and Ybus for complex S.
func Admittance[I numeric.Index, S numeric.Scalar](t testing.TB, n int) *csc.Matrix[I, S] {
	t.Helper()
	var (
		ptr, rows []int
		vals      []S
	)
	if numeric.IsComplex[S]() {
		y := fixture.Ybus(n, fixture.WithAsymmetry(0.25))
		ptr, rows = y.ColPtr, y.RowIdx
		for _, v := range y.Values {
			vals = append(vals, numeric.FromParts[S](real(v), imag(v)))
		}
	} else {
		bb := fixture.Bbus(n, fixture.WithAsymmetry(0.25))
		ptr, rows = bb.ColPtr, bb.RowIdx
		for _, v := range bb.Values {
			vals = append(vals, numeric.FromFloat[S](v))
		}
	}
	colPtr, err := numeric.FromInts[I](ptr)
	require.NoError(t, err)
	rowIdx, err := numeric.FromInts[I](rows)
	require.NoError(t, err)

	return &csc.Matrix[I, S]{N: n, ColPtr: colPtr, RowIdx: rowIdx, Values: vals}
}

// Singular returns a 3×3 matrix whose second and third columns are equal.
func Singular[I numeric.Index, S numeric.Scalar](t testing.TB) *csc.Matrix[I, S] {
	t.Helper()
	one, two := numeric.FromFloat[S](1), numeric.FromFloat[S](2)
	m, err := csc.New[I, S](3, []I{0, 2, 4, 6}, []I{0, 2, 1, 2, 1, 2}, []S{two, one, one, one, one, one})
	require.NoError(t, err)

	return m
}

// RequireClose fails unless |want[i] - got[i]| <= tol for every i.
func RequireClose[S numeric.Scalar](t testing.TB, want, got []S, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if d := numeric.Abs(want[i] - got[i]); !(d <= tol) {
			require.FailNowf(t, "solution mismatch",
				"component %d: want %v, got %v (|Δ| = %.3g > %.3g)", i, want[i], got[i], d, tol)
		}
	}
}
