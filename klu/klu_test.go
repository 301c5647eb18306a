package klu_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/klu"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
	"github.com/katalvlaran/spsolve/solvertest"
)

func TestBattery(t *testing.T) {
	t.Parallel()

	solvertest.Run(t, func(tr resource.Tracker) solver.Backend[int, float64, *klu.Factor] {
		return klu.New[int](klu.WithTracker(tr))
	})
}

func TestBattery_NaturalOrdering(t *testing.T) {
	t.Parallel()

	solvertest.Run(t, func(tr resource.Tracker) solver.Backend[uint32, float64, *klu.Factor] {
		return klu.New[uint32](klu.WithTracker(tr), klu.WithOrdering(klu.OrderNatural), klu.WithTol(1))
	}, solvertest.WithOrder(300), solvertest.WithCycles(100))
}

func TestOneShotDetected(t *testing.T) {
	t.Parallel()

	var b solver.Backend[int64, float64, *klu.Factor] = klu.New[int64]()
	_, ok := b.(solver.OneShot[int64, float64])
	require.True(t, ok)
}

func TestCommon(t *testing.T) {
	t.Parallel()

	m := solvertest.Admittance[int, float64](t, 150)
	s := solver.New[int, float64, *klu.Factor](klu.New[int]())

	f, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, nil)
	require.NoError(t, err)
	defer f.Close()

	c := f.Common()
	require.Equal(t, klu.StatusOK, c.Status)
	require.Equal(t, klu.DefaultTol, c.Tol)
	require.Equal(t, klu.OrderAMD, c.Ordering)
	require.Positive(t, c.SymNZ)
	require.GreaterOrEqual(t, c.Lnz, m.N)
	require.GreaterOrEqual(t, c.Unz, m.N)
	require.Zero(t, c.NOffDiag)
	require.Greater(t, c.RCond, 0.0)

	// The backend's own record is a template and never collects statistics.
	require.Equal(t, klu.Defaults(), s.Backend().(*klu.Backend[int]).Common())
}

func TestCommon_UnchangedBySolve(t *testing.T) {
	t.Parallel()

	m := solvertest.Admittance[int, float64](t, 60)
	s := solver.New[int, float64, *klu.Factor](klu.New[int]())
	f, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, nil)
	require.NoError(t, err)
	defer f.Close()

	want := f.Common()
	for _, trans := range []bool{false, true} {
		_, b := solvertest.System(t, m, 3, trans)
		require.NoError(t, s.FactorSolve(f, b, trans))
		require.Equal(t, want, f.Common())
	}
	require.Error(t, s.FactorSolve(f, make([]float64, m.N+1), false))
	require.Equal(t, want, f.Common())
}

func TestCommon_Singular(t *testing.T) {
	t.Parallel()

	tr := resource.NewCounter()
	m := solvertest.Singular[int, float64](t)
	s := solver.New[int, float64, *klu.Factor](klu.New[int](klu.WithTracker(tr)))

	// One-shot path: the stage reported by the backend is kept.
	err := s.Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, make([]float64, 3), false)
	require.ErrorIs(t, err, solver.ErrSingular)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, klu.Name, se.Backend)
	require.Equal(t, solver.StageFactor, se.Stage)
	require.Zero(t, tr.Live())
}

// A forward permutation given to Factor reaches the native layer as its
// inverse; the solution is unchanged and the analysis does not reorder.
func TestGivenPermutation(t *testing.T) {
	t.Parallel()

	sys, err := fixture.Simple10[int, float64]()
	require.NoError(t, err)
	a := sys.A
	s := solver.New[int, float64, *klu.Factor](klu.New[int]())

	for _, perm := range []solver.Perm{
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		{3, 0, 9, 1, 8, 2, 7, 4, 6, 5},
	} {
		f, err := s.Factor(a.Order(), a.RowIdx, a.ColPtr, a.Values, perm)
		require.NoError(t, err)
		require.Zero(t, f.Common().SymNZ, "ordering skipped")

		for _, trans := range []bool{false, true} {
			b := append([]float64(nil), sys.B...)
			require.NoError(t, s.FactorSolve(f, b, trans))
			solvertest.RequireClose(t, sys.X, b, solvertest.SimpleTol)
		}
		require.NoError(t, f.Close())
	}

	_, err = s.Factor(a.Order(), a.RowIdx, a.ColPtr, a.Values, solver.Perm{0, 0, 1, 2, 3, 4, 5, 6, 7, 8})
	require.ErrorIs(t, err, solver.ErrShapeMismatch)
}

func TestConversion(t *testing.T) {
	t.Parallel()

	b := klu.New[uint64]()
	big := uint64(math.MaxInt32) + 1

	_, err := b.Factor(big, nil, []uint64{0}, nil, nil)
	require.ErrorIs(t, err, solver.ErrConversion)

	err = b.Solve(big, nil, []uint64{0}, nil, nil, false)
	require.ErrorIs(t, err, numeric.ErrConversion)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StageFactor, se.Stage)

	// Row indices are converted too.
	_, err = b.Factor(1, []uint64{big}, []uint64{0, 1}, []float64{1}, nil)
	require.ErrorIs(t, err, solver.ErrConversion)
}

func TestEnumsString(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		got, want string
	}{
		{klu.OrderAMD.String(), "amd"},
		{klu.OrderNatural.String(), "natural"},
		{klu.StatusOK.String(), "ok"},
		{klu.StatusSingular.String(), "singular"},
		{klu.StatusOutOfMemory.String(), "out-of-memory"},
		{klu.StatusInvalid.String(), "invalid"},
	} {
		require.Equal(t, tc.want, tc.got)
	}
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { klu.WithTol(-0.5) })
	require.Panics(t, func() { klu.WithTol(2) })
	require.Panics(t, func() { klu.WithCommon(klu.Common{Tol: math.NaN()}) })
	require.Panics(t, func() { klu.WithLogger(nil) })
}
