package gplu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/gplu"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
	"github.com/katalvlaran/spsolve/solvertest"
)

func TestBattery_Real(t *testing.T) {
	t.Parallel()

	solvertest.Run(t, func(tr resource.Tracker) solver.Backend[int, float64, *gplu.Factor[float64]] {
		return gplu.New[int, float64](gplu.WithTracker(tr))
	})
}

func TestBattery_Complex(t *testing.T) {
	t.Parallel()

	solvertest.Run(t, func(tr resource.Tracker) solver.Backend[int32, complex128, *gplu.Factor[complex128]] {
		return gplu.New[int32, complex128](gplu.WithTracker(tr))
	}, solvertest.WithOrder(500), solvertest.WithCycles(200))
}

func TestBattery_Threshold(t *testing.T) {
	t.Parallel()

	solvertest.Run(t, func(tr resource.Tracker) solver.Backend[int64, float64, *gplu.Factor[float64]] {
		ctl := amd.Defaults()
		ctl.Aggressive = false
		return gplu.New[int64, float64](gplu.WithTracker(tr), gplu.WithTol(0.01), gplu.WithControl(ctl))
	}, solvertest.WithOrder(500), solvertest.WithCycles(100))
}

func TestColPerm(t *testing.T) {
	t.Parallel()

	sys, err := fixture.Simple10[int, float64]()
	require.NoError(t, err)
	a := sys.A
	reverse := solver.Perm{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}

	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64](gplu.WithColPerm(reverse)))
	p, err := s.Permute(a.Order(), a.RowIdx, a.ColPtr)
	require.NoError(t, err)
	require.Equal(t, reverse, p)

	// The backend hands out copies.
	p[0] = 0
	p2, err := s.Permute(a.Order(), a.RowIdx, a.ColPtr)
	require.NoError(t, err)
	require.Equal(t, reverse, p2)

	b := append([]float64(nil), sys.B...)
	require.NoError(t, s.Solve(a.Order(), a.RowIdx, a.ColPtr, a.Values, b, false))
	solvertest.RequireClose(t, sys.X, b, solvertest.SimpleTol)

	// A fixed permutation of the wrong order is an ordering failure.
	other := solvertest.Admittance[int, float64](t, 12)
	_, err = s.Permute(other.Order(), other.RowIdx, other.ColPtr)
	require.ErrorIs(t, err, solver.ErrOrdering)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StagePermute, se.Stage)
}

func TestStats(t *testing.T) {
	t.Parallel()

	m := solvertest.Admittance[int, float64](t, 200)
	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64]())

	natural, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, nil)
	require.NoError(t, err)
	perm, err := s.Permute(m.Order(), m.RowIdx, m.ColPtr)
	require.NoError(t, err)
	ordered, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, perm)
	require.NoError(t, err)

	nat, ord := natural.Stats(), ordered.Stats()
	require.GreaterOrEqual(t, nat.Lnz, m.N)
	require.Less(t, ord.Lnz+ord.Unz, nat.Lnz+nat.Unz, "AMD must reduce fill")
	require.Zero(t, ord.OffDiagonalPivots, "diagonally dominant: no row exchanges")
	require.Greater(t, ord.RCond, 0.0)
	require.LessOrEqual(t, ord.RCond, 1.0)

	require.NoError(t, natural.Close())
	require.NoError(t, ordered.Close())
	require.Equal(t, gplu.Stats{}, ordered.Stats())
}

func TestSingular(t *testing.T) {
	t.Parallel()

	tr := resource.NewCounter()
	m := solvertest.Singular[int, float64](t)
	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64](gplu.WithTracker(tr)))

	err := s.Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, make([]float64, 3), false)
	require.ErrorIs(t, err, solver.ErrSingular)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, gplu.Name, se.Backend)
	require.Equal(t, solver.StageFactor, se.Stage)
	require.Zero(t, tr.Live())
}

func TestNativeResource(t *testing.T) {
	t.Parallel()

	tr := resource.NewCounter(resource.WithLimit(256))
	m := solvertest.Admittance[int, float64](t, 100)
	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64](gplu.WithTracker(tr)))

	err := s.Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, make([]float64, m.N), false)
	require.ErrorIs(t, err, solver.ErrNativeResource)
	require.Zero(t, tr.Live())
	require.Positive(t, tr.Failed())
}

func TestFactorSolve_NilFactor(t *testing.T) {
	t.Parallel()

	var f *gplu.Factor[float64]
	require.Zero(t, f.Order())

	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64]())
	err := s.FactorSolve(f, make([]float64, 10), false)
	require.ErrorIs(t, err, solver.ErrReleased)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StageFactorSolve, se.Stage)
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	s := solver.New[int, float64, *gplu.Factor[float64]](gplu.New[int, float64]())
	require.NoError(t, s.Solve(0, nil, []int{0}, nil, nil, false))
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { gplu.WithTol(0) })
	require.Panics(t, func() { gplu.WithTol(1.5) })
	require.Panics(t, func() { gplu.WithLogger(nil) })
}
