package solver_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/lu"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// small3 is
//
//	[ 4  0  1 ]
//	[ 2  5  0 ]
//	[ 0  3  6 ]
var (
	colPtr = []int{0, 2, 4, 6}
	rowIdx = []int{1, 0, 2, 1, 0, 2}
	values = []float64{2, 4, 3, 5, 1, 6}
)

type fakeFactor struct {
	sym    *lu.Symbolic[int]
	num    *lu.Numeric[int, float64]
	closed bool
}

func (f *fakeFactor) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.num.Free()
	f.sym.Free()

	return nil
}

func (f *fakeFactor) Order() int {
	if f == nil {
		return 0
	}

	return f.sym.Order()
}

// fake is a counting backend on top of the lu engine.
type fake struct {
	tracker    *resource.Counter
	perm       solver.Perm
	permuteErr error
	calls      map[string]int
}

func newFake() *fake {
	return &fake{tracker: resource.NewCounter(), calls: map[string]int{}}
}

func (b *fake) Name() string { return "fake" }

func (b *fake) Permute(n int, rowIdx, colPtr []int) (solver.Perm, error) {
	b.calls["permute"]++
	if b.permuteErr != nil {
		return nil, b.permuteErr
	}

	return b.perm, nil
}

func (b *fake) Factor(n int, rowIdx, colPtr []int, values []float64, perm solver.Perm) (*fakeFactor, error) {
	b.calls["factor"]++
	sym, err := lu.Analyze(n, colPtr, rowIdx, []int(perm), b.tracker)
	if err != nil {
		return nil, err
	}
	num, err := lu.Factorize(sym, colPtr, rowIdx, values, lu.DefaultTol, b.tracker)
	if err != nil {
		sym.Free()
		return nil, err
	}

	return &fakeFactor{sym: sym, num: num}, nil
}

func (b *fake) FactorSolve(f *fakeFactor, rhs []float64, trans bool) error {
	b.calls["factor_solve"]++
	if f == nil || f.closed {
		return solver.ErrReleased
	}

	return f.num.SolveBlock(rhs, len(rhs)/f.Order(), trans)
}

// oneShot adds a native one-shot path to fake.
type oneShot struct {
	*fake
}

func (b oneShot) Solve(n int, rowIdx, colPtr []int, values, rhs []float64, trans bool) error {
	b.calls["solve"]++
	f, err := b.Factor(n, rowIdx, colPtr, values, nil)
	if err != nil {
		return solver.AtStage(solver.StageFactor, err)
	}
	defer f.Close()

	return b.FactorSolve(f, rhs, trans)
}

func rhsFor(t *testing.T, x []float64, trans bool) []float64 {
	t.Helper()
	m, err := csc.New(3, colPtr, rowIdx, values)
	require.NoError(t, err)
	b, err := csc.MatVecBlock(m, x, trans)
	require.NoError(t, err)

	return b
}

func TestSolve_DefaultComposition(t *testing.T) {
	t.Parallel()

	want := []float64{1, 2, 3, -1, 0.5, 2}
	for _, trans := range []bool{false, true} {
		b := newFake()
		b.perm = solver.Perm{2, 0, 1}
		rhs := rhsFor(t, want, trans)

		require.NoError(t, solver.Solve(solver.Backend[int, float64, *fakeFactor](b), 3, rowIdx, colPtr, values, rhs, trans))
		require.InDeltaSlice(t, want, rhs, 1e-12)
		require.Equal(t, map[string]int{"permute": 1, "factor": 1, "factor_solve": 1}, b.calls)
		require.Zero(t, b.tracker.Live(), "artifact closed by Solve")
	}
}

func TestSolve_OneShotDetected(t *testing.T) {
	t.Parallel()

	b := oneShot{newFake()}
	s := solver.New[int, float64, *fakeFactor](b)
	want := []float64{3, 2, 1}
	rhs := rhsFor(t, want, false)

	require.NoError(t, s.Solve(3, rowIdx, colPtr, values, rhs, false))
	require.InDeltaSlice(t, want, rhs, 1e-12)
	require.Equal(t, 1, b.calls["solve"])
	require.Zero(t, b.calls["permute"])
}

func TestSolve_OneShotStageAttribution(t *testing.T) {
	t.Parallel()

	b := oneShot{newFake()}
	s := solver.New[int, float64, *fakeFactor](b)
	err := s.Solve(2, []int{0}, []int{0, 1, 1}, []float64{1}, make([]float64, 2), false)

	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, "fake", se.Backend)
	require.Equal(t, solver.StageFactor, se.Stage)
	require.ErrorIs(t, err, solver.ErrSingular)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		n      int
		colPtr []int
		rowIdx []int
		values []float64
		rhs    []float64
	}{
		{"short colPtr", 3, colPtr[:3], rowIdx, values, make([]float64, 3)},
		{"values length", 3, colPtr, rowIdx, values[:5], make([]float64, 3)},
		{"row out of range", 3, colPtr, []int{1, 0, 2, 1, 0, 3}, values, make([]float64, 3)},
		{"rhs not a multiple", 3, colPtr, rowIdx, values, make([]float64, 4)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newFake()
			err := solver.Solve[int, float64, *fakeFactor](b, tc.n, tc.rowIdx, tc.colPtr, tc.values, tc.rhs, false)

			var se *solver.Error
			require.ErrorAs(t, err, &se)
			require.Equal(t, solver.StageValidate, se.Stage)
			require.ErrorIs(t, err, solver.ErrShapeMismatch)
			require.Empty(t, b.calls, "backend must not run")
		})
	}
}

func TestFactor_RejectsBadPerm(t *testing.T) {
	t.Parallel()

	b := newFake()
	s := solver.New[int, float64, *fakeFactor](b)
	_, err := s.Factor(3, rowIdx, colPtr, values, solver.Perm{0, 0, 1})
	require.ErrorIs(t, err, solver.ErrShapeMismatch)
	require.Zero(t, b.calls["factor"])
}

func TestPermute_Failures(t *testing.T) {
	t.Parallel()

	b := newFake()
	b.perm = solver.Perm{0, 1}
	s := solver.New[int, float64, *fakeFactor](b)
	_, err := s.Permute(3, rowIdx, colPtr)
	require.ErrorIs(t, err, solver.ErrOrdering)

	b.permuteErr = errors.New("boom")
	err = s.Solve(3, rowIdx, colPtr, values, make([]float64, 3), false)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StagePermute, se.Stage)
	require.Zero(t, b.calls["factor"])
}

func TestFactor_SingularReleasesEverything(t *testing.T) {
	t.Parallel()

	b := newFake()
	s := solver.New[int, float64, *fakeFactor](b)
	f, err := s.Factor(2, []int{0, 1}, []int{0, 1, 2}, []float64{1, 0}, nil)
	require.Nil(t, f)
	require.ErrorIs(t, err, solver.ErrSingular)

	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StageFactor, se.Stage)
	require.Zero(t, b.tracker.Live())
}

func TestFactor_NativeResource(t *testing.T) {
	t.Parallel()

	b := newFake()
	b.tracker = resource.NewCounter(resource.WithLimit(1))
	s := solver.New[int, float64, *fakeFactor](b)
	_, err := s.Factor(3, rowIdx, colPtr, values, nil)
	require.ErrorIs(t, err, solver.ErrNativeResource)
	require.Zero(t, b.tracker.Live())
}

func TestFactorSolve_ReuseAndRelease(t *testing.T) {
	t.Parallel()

	b := newFake()
	s := solver.New[int, float64, *fakeFactor](b)
	f, err := s.Factor(3, rowIdx, colPtr, values, nil)
	require.NoError(t, err)

	for _, want := range [][]float64{{1, 0, 0}, {0, 1, 0}, {1, 2, 3}} {
		rhs := rhsFor(t, want, false)
		require.NoError(t, s.FactorSolve(f, rhs, false))
		require.InDeltaSlice(t, want, rhs, 1e-12)
	}

	err = s.FactorSolve(f, make([]float64, 4), false)
	require.ErrorIs(t, err, solver.ErrShapeMismatch)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	require.Zero(t, b.tracker.Live())

	err = s.FactorSolve(f, make([]float64, 3), false)
	require.ErrorIs(t, err, solver.ErrReleased)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StageFactorSolve, se.Stage)
}

func TestFactorSolve_NilArtifact(t *testing.T) {
	t.Parallel()

	b := newFake()
	s := solver.New[int, float64, *fakeFactor](b)
	err := s.FactorSolve(nil, make([]float64, 10), false)
	require.ErrorIs(t, err, solver.ErrReleased)
	var se *solver.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, solver.StageFactorSolve, se.Stage)
	require.Equal(t, 1, b.calls["factor_solve"])
}

func TestAMDOrdering(t *testing.T) {
	t.Parallel()

	o := solver.NewAMDOrdering[int](amd.Defaults())
	p, err := o.Permute(3, rowIdx, colPtr)
	require.NoError(t, err)
	require.NoError(t, csc.ValidatePerm(3, p))

	_, err = o.Permute(3, rowIdx, []int{0, 2, 1, 6})
	require.ErrorIs(t, err, solver.ErrOrdering)
	require.ErrorIs(t, err, amd.ErrInvalid)

	wide := solver.NewAMDOrdering[uint64](amd.Defaults())
	_, err = wide.Permute(uint64(1)<<63, nil, []uint64{0})
	require.ErrorIs(t, err, solver.ErrConversion)
	require.NotErrorIs(t, err, solver.ErrOrdering)
}

func TestIdentity(t *testing.T) {
	p, err := solver.Identity[int32]{}.Permute(3, nil, nil)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestMetricsAndLogging(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := solver.NewMetrics(reg)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := newFake()
	solver.RegisterTracker(reg, b.tracker)
	s := solver.New[int, float64, *fakeFactor](b, solver.WithMetrics(m), solver.WithLogger(logger))

	rhs := rhsFor(t, []float64{1, 1, 1, 2, 2, 2}, false)
	require.NoError(t, s.Solve(3, rowIdx, colPtr, values, rhs, false))
	require.Error(t, s.Solve(3, rowIdx, colPtr, values, rhs[:4], false))

	// permute, factor and factor_solve series for one backend.
	n, err := testutil.GatherAndCount(reg, "spsolve_pipeline_stage_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 4, n, "three stages plus the failed validation")

	n, err = testutil.GatherAndCount(reg, "spsolve_pipeline_errors_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = testutil.GatherAndCount(reg, "spsolve_resource_live_handles")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Contains(t, buf.String(), "solver stage done")
	require.Contains(t, buf.String(), "stage=factor_solve")
	require.Contains(t, buf.String(), "solver stage failed")
}

func TestWithLogger_NilPanics(t *testing.T) {
	require.Panics(t, func() { solver.WithLogger(nil) })
}

func TestError_Message(t *testing.T) {
	err := &solver.Error{Backend: "klu", Stage: solver.StageFactor, Err: solver.ErrSingular}
	require.Equal(t, "klu: factor: lu: matrix is singular", err.Error())
	require.Nil(t, solver.AtStage(solver.StageFactor, nil))
}
