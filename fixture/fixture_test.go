package fixture_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/mtx"
	"github.com/katalvlaran/spsolve/numeric"
)

func TestSimple10_Consistent(t *testing.T) {
	t.Parallel()

	sys, err := fixture.Simple10[int32, float64]()
	require.NoError(t, err)
	require.NoError(t, csc.Validate(sys.A))

	got := make([]float64, fixture.SimpleN)
	require.NoError(t, csc.MatVec(sys.A, sys.X, got))
	require.InDeltaSlice(t, sys.B, got, 1e-12)

	// Symmetric, so the transposed product agrees.
	require.NoError(t, csc.MatVecTrans(sys.A, sys.X, got))
	require.InDeltaSlice(t, sys.B, got, 1e-12)

	// Fresh copies every call.
	again, err := fixture.Simple10[int32, float64]()
	require.NoError(t, err)
	sys.A.Values[0] = 99
	require.Equal(t, 2.1, again.A.Values[0])
}

func TestSimple10_MatchesTestdata(t *testing.T) {
	t.Parallel()

	m, err := mtx.Load[float64](filepath.Join("testdata", "simple10.mtx"), true)
	require.NoError(t, err)
	sys, err := fixture.Simple10[int, float64]()
	require.NoError(t, err)
	require.Equal(t, sys.A.Dense(), m.Dense())
}

func TestSimple10_Complex(t *testing.T) {
	t.Parallel()

	sys, err := fixture.Simple10[int64, complex128]()
	require.NoError(t, err)
	require.Equal(t, complex(0.403, 0), sys.B[0])
	require.Equal(t, complex(1.0, 0), sys.X[9])
}

func TestRamp(t *testing.T) {
	t.Parallel()

	r := fixture.Ramp[float64](4, 2)
	require.Equal(t, []float64{1, 1.25, 1.5, 1.75, 1, 1.25, 1.5, 1.75}, r)
	require.Empty(t, fixture.Ramp[float64](0, 3))
}

// requireDominant checks strict diagonal dominance by rows and by columns.
func requireDominant[S numeric.Scalar](t *testing.T, m *csc.Matrix[int, S]) {
	t.Helper()

	diag := make([]float64, m.N)
	row := make([]float64, m.N)
	col := make([]float64, m.N)
	for j := 0; j < m.N; j++ {
		for p := m.ColPtr[j]; p < m.ColPtr[j+1]; p++ {
			i := m.RowIdx[p]
			if i == j {
				diag[i] = numeric.Abs(m.Values[p])
				continue
			}
			row[i] += numeric.Abs(m.Values[p])
			col[j] += numeric.Abs(m.Values[p])
		}
	}
	for i := range diag {
		require.Greater(t, diag[i], row[i], "row %d", i)
		require.Greater(t, diag[i], col[i], "col %d", i)
	}
}

func TestBbus(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		n    int
		opts []fixture.Option
	}{
		{"one", 1, nil},
		{"two", 2, nil},
		{"default", 200, nil},
		{"dense chords", 50, []fixture.Option{fixture.WithChordRatio(3)}},
		{"asymmetric", 120, []fixture.Option{fixture.WithAsymmetry(0.3), fixture.WithSeed(7)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := fixture.Bbus(tc.n, tc.opts...)
			require.NoError(t, csc.Validate(m))
			require.Equal(t, tc.n, m.N)
			requireDominant(t, m)
		})
	}
}

func TestBbus_Deterministic(t *testing.T) {
	t.Parallel()

	a := fixture.Bbus(300)
	b := fixture.Bbus(300)
	require.Equal(t, a, b)

	c := fixture.Bbus(300, fixture.WithSeed(1))
	require.NotEqual(t, a.Values, c.Values)

	// Default Bbus is symmetric.
	require.Equal(t, a.Dense(), csc.Transpose(a).Dense())
}

func TestYbus(t *testing.T) {
	t.Parallel()

	m := fixture.Ybus(150, fixture.WithAsymmetry(0.2))
	require.NoError(t, csc.Validate(m))
	requireDominant(t, m)
	require.Equal(t, m, fixture.Ybus(150, fixture.WithAsymmetry(0.2)))
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { fixture.WithChordRatio(-1) })
	require.Panics(t, func() { fixture.WithAsymmetry(1) })
	require.Panics(t, func() { fixture.WithAsymmetry(-0.1) })
}

func TestACTIVSg(t *testing.T) {
	names := fixture.ACTIVSgNames()
	require.Len(t, names, 18)
	require.Contains(t, names, "ACTIVSg70k_Ybus")

	t.Setenv(fixture.EnvMatrixDir, "")
	_, err := fixture.ACTIVSg[float64]("ACTIVSg200_Bbus")
	require.ErrorIs(t, err, fixture.ErrNoFixture)

	dir := t.TempDir()
	t.Setenv(fixture.EnvMatrixDir, dir)
	_, err = fixture.ACTIVSgPath("ACTIVSg200_Bbus")
	require.ErrorIs(t, err, fixture.ErrNoFixture)

	sys, err := fixture.Simple10[int, float64]()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "powers"), 0o755))
	require.NoError(t, mtx.Save(filepath.Join(dir, "powers", "ACTIVSg200_Bbus.mtx"), sys.A))
	m, err := fixture.ACTIVSg[float64]("ACTIVSg200_Bbus")
	require.NoError(t, err)
	require.Equal(t, sys.A.Dense(), m.Dense())
}
