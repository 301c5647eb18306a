// SPDX-License-Identifier: MIT

// Package solvertest is the validation battery every backend runs from its
// own tests. Right-hand sides are always built from a known solution with
// the independent mat-vec in csc, never with the solver under test.
//
// A backend test usually reads
//
//	func TestBattery(t *testing.T) {
//		solvertest.Run(t, func(tr resource.Tracker) solver.Backend[int, float64, *gplu.Factor[float64]] {
//			return gplu.New[int, float64](gplu.WithTracker(tr))
//		})
//	}
package solvertest

import (
	"fmt"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// Defaults of the battery.
const (
	// SimpleTol is the bound on every component of the 10×10 solution.
	SimpleTol = 1e-12

	// DefaultOrder is the order of the scenario B admittance matrix.
	DefaultOrder = 2000

	// DefaultTol bounds the admittance round trips.
	DefaultTol = 1e-8

	// DefaultNRHS is the block width of the multi-RHS checks.
	DefaultNRHS = 3

	// DefaultCycles is the number of factor/close cycles of the leak check.
	DefaultCycles = 1000
)

// Maker builds a fresh backend that accounts its native allocations in tr.
type Maker[I numeric.Index, S numeric.Scalar, F io.Closer] func(tr resource.Tracker) solver.Backend[I, S, F]

// Option tunes Run.
type Option func(*config)

type config struct {
	order  int
	tol    float64
	nrhs   int
	cycles int
}

// WithOrder sets the admittance matrix order. Panics below 1.
func WithOrder(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("solvertest: WithOrder: %d < 1", n))
	}
	return func(c *config) { c.order = n }
}

// WithTol sets the admittance round-trip tolerance. Panics unless positive.
func WithTol(tol float64) Option {
	if !(tol > 0) {
		panic(fmt.Sprintf("solvertest: WithTol: %v not positive", tol))
	}
	return func(c *config) { c.tol = tol }
}

// WithNRHS sets the multi-RHS block width. Panics below 1.
func WithNRHS(k int) Option {
	if k < 1 {
		panic(fmt.Sprintf("solvertest: WithNRHS: %d < 1", k))
	}
	return func(c *config) { c.nrhs = k }
}

// WithCycles sets the leak check length. Panics below 1.
func WithCycles(k int) Option {
	if k < 1 {
		panic(fmt.Sprintf("solvertest: WithCycles: %d < 1", k))
	}
	return func(c *config) { c.cycles = k }
}

func gather(opts []Option) config {
	c := config{order: DefaultOrder, tol: DefaultTol, nrhs: DefaultNRHS, cycles: DefaultCycles}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Run executes the whole battery as subtests.
func Run[I numeric.Index, S numeric.Scalar, F io.Closer](t *testing.T, mk Maker[I, S, F], opts ...Option) {
	t.Helper()
	c := gather(opts)
	small := func(t testing.TB) *csc.Matrix[I, S] { return Admittance[I, S](t, 60) }

	t.Run("simple", func(t *testing.T) { Simple(t, mk) })
	for _, trans := range []bool{false, true} {
		name := fmt.Sprintf("trans=%v", trans)
		t.Run("round_trip/"+name, func(t *testing.T) { RoundTrip(t, mk, small(t), trans, c.tol) })
		t.Run("factor_round_trip/"+name, func(t *testing.T) { FactorRoundTrip(t, mk, small(t), trans, c.tol) })
		t.Run("multi_rhs/"+name, func(t *testing.T) { MultiRHS(t, mk, small(t), c.nrhs, trans, c.tol) })
	}
	t.Run("equivalence", func(t *testing.T) { Equivalence(t, mk, small(t)) })
	t.Run("permutation_invariance", func(t *testing.T) { PermutationInvariance(t, mk, small(t), c.tol) })
	t.Run("reuse", func(t *testing.T) { Reuse(t, mk, small(t), c.tol) })
	t.Run("leak", func(t *testing.T) { Leak(t, mk, c.cycles) })
	t.Run("scenario_b", func(t *testing.T) {
		if testing.Short() {
			t.Skip("scenario B skipped in -short mode")
		}
		ScenarioB(t, mk, c.order, c.nrhs, c.tol)
	})
}

// Simple solves the 10×10 system in both directions and checks every
// component against 0.1, 0.2, ..., 1.0.
func Simple[I numeric.Index, S numeric.Scalar, F io.Closer](t testing.TB, mk Maker[I, S, F]) {
	t.Helper()
	sys, err := fixture.Simple10[I, S]()
	require.NoError(t, err)

	tr := resource.NewCounter()
	s := solver.New(mk(tr))
	for _, trans := range []bool{false, true} {
		b := append([]S(nil), sys.B...)
		require.NoError(t, s.Solve(sys.A.Order(), sys.A.RowIdx, sys.A.ColPtr, sys.A.Values, b, trans))
		RequireClose(t, sys.X, b, SimpleTol)
	}
	require.Zero(t, tr.Live(), "live handles after Solve")
}

// RoundTrip checks Solve(A, A·x*) ≈ x* (or the transposed system) for a
// ramp x* through the one-call path.
func RoundTrip[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], m *csc.Matrix[I, S], trans bool, tol float64,
) {
	t.Helper()
	want, b := System(t, m, 1, trans)

	tr := resource.NewCounter()
	require.NoError(t, solver.New(mk(tr)).Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, b, trans))
	RequireClose(t, want, b, tol)
	require.Zero(t, tr.Live())
}

// FactorRoundTrip is RoundTrip through Permute, Factor and FactorSolve.
func FactorRoundTrip[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], m *csc.Matrix[I, S], trans bool, tol float64,
) {
	t.Helper()
	want, b := System(t, m, 1, trans)

	tr := resource.NewCounter()
	s := solver.New(mk(tr))
	f := factor(t, s, m, true)
	require.NoError(t, s.FactorSolve(f, b, trans))
	RequireClose(t, want, b, tol)
	require.NoError(t, f.Close())
	require.Zero(t, tr.Live())
}

// Equivalence checks that the one-call path and the explicit
// factor/solve path agree to SimpleTol. Both use the same ordering and
// pivoting, so only rounding may separate them.
func Equivalence[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], m *csc.Matrix[I, S],
) {
	t.Helper()
	for _, trans := range []bool{false, true} {
		_, b := System(t, m, 2, trans)
		one := append([]S(nil), b...)

		s := solver.New(mk(resource.NewCounter()))
		require.NoError(t, s.Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, one, trans))

		f := factor(t, s, m, true)
		require.NoError(t, s.FactorSolve(f, b, trans))
		require.NoError(t, f.Close())

		RequireClose(t, one, b, SimpleTol)
	}
}

// PermutationInvariance factors with the backend's own ordering, with no
// ordering and with a random column permutation; all solutions agree.
func PermutationInvariance[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], m *csc.Matrix[I, S], tol float64,
) {
	t.Helper()
	s := solver.New(mk(resource.NewCounter()))
	rng := rand.New(rand.NewPCG(uint64(m.N), 17))

	perms := []solver.Perm{nil, solver.Perm(rng.Perm(m.N))}
	own, err := s.Permute(m.Order(), m.RowIdx, m.ColPtr)
	require.NoError(t, err)
	perms = append(perms, own)

	for _, trans := range []bool{false, true} {
		want, b := System(t, m, 1, trans)
		for k, p := range perms {
			x := append([]S(nil), b...)
			f, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, p)
			require.NoError(t, err, "perm %d", k)
			require.NoError(t, s.FactorSolve(f, x, trans))
			require.NoError(t, f.Close())
			RequireClose(t, want, x, tol)
		}
	}
}

// MultiRHS solves a block whose column k is (k+1)·x* and checks it
// against column-by-column solves.
func MultiRHS[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], m *csc.Matrix[I, S], nrhs int, trans bool, tol float64,
) {
	t.Helper()
	want, b := System(t, m, nrhs, trans)

	s := solver.New(mk(resource.NewCounter()))
	f := factor(t, s, m, true)
	defer f.Close()

	single := make([]S, 0, len(b))
	for k := 0; k < nrhs; k++ {
		col := append([]S(nil), b[k*m.N:(k+1)*m.N]...)
		require.NoError(t, s.FactorSolve(f, col, trans))
		single = append(single, col...)
	}
	require.NoError(t, s.FactorSolve(f, b, trans))

	RequireClose(t, want, b, tol)
	RequireClose(t, single, b, tol)
}

// Reuse solves several systems with one artifact, alternating directions,
// then checks the released state.
func Reuse[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], m *csc.Matrix[I, S], tol float64,
) {
	t.Helper()
	tr := resource.NewCounter()
	s := solver.New(mk(tr))
	f := factor(t, s, m, true)

	for round := 0; round < 4; round++ {
		trans := round%2 == 1
		want, b := System(t, m, round+1, trans)
		require.NoError(t, s.FactorSolve(f, b, trans), "round %d", round)
		RequireClose(t, want, b, tol)
	}

	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "Close must be idempotent")
	require.Zero(t, tr.Live())

	b := make([]S, m.N)
	err := s.FactorSolve(f, b, false)
	require.ErrorIs(t, err, solver.ErrReleased)

	var zero F
	err = s.FactorSolve(zero, b, false)
	require.ErrorIs(t, err, solver.ErrReleased, "zero artifact")
}

// Leak runs cycles factor/solve/close rounds on the 10×10 system plus as
// many failing factorizations of a singular matrix, then requires every
// acquired handle to be released.
func Leak[I numeric.Index, S numeric.Scalar, F io.Closer](t testing.TB, mk Maker[I, S, F], cycles int) {
	t.Helper()
	sys, err := fixture.Simple10[I, S]()
	require.NoError(t, err)
	sing := Singular[I, S](t)

	tr := resource.NewCounter()
	s := solver.New(mk(tr))
	a := sys.A
	for k := 0; k < cycles; k++ {
		f, err := s.Factor(a.Order(), a.RowIdx, a.ColPtr, a.Values, nil)
		require.NoError(t, err)
		b := append([]S(nil), sys.B...)
		require.NoError(t, s.FactorSolve(f, b, k%2 == 1))
		require.NoError(t, f.Close())

		_, err = s.Factor(sing.Order(), sing.RowIdx, sing.ColPtr, sing.Values, nil)
		require.ErrorIs(t, err, solver.ErrSingular)
	}

	require.Zero(t, tr.Live(), "live handles")
	require.Zero(t, tr.LiveBytes(), "live bytes")
	require.Equal(t, tr.Acquired(), tr.Released())
}

// ScenarioB solves nrhs ramp columns 1 + i/n against an admittance matrix
// of order n through both paths.
func ScenarioB[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], n, nrhs int, tol float64,
) {
	t.Helper()
	m := Admittance[I, S](t, n)
	x0 := fixture.Ramp[S](n, nrhs)
	b, err := csc.MatVecBlock(m, x0, false)
	require.NoError(t, err)

	tr := resource.NewCounter()
	s := solver.New(mk(tr))

	one := append([]S(nil), b...)
	require.NoError(t, s.Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, one, false))
	RequireClose(t, x0, one, tol)

	f := factor(t, s, m, true)
	require.NoError(t, s.FactorSolve(f, b, false))
	require.NoError(t, f.Close())
	RequireClose(t, x0, b, tol)
	require.Zero(t, tr.Live())
}

// ACTIVSg runs the scenario B check against an installed ACTIVSg fixture
// and skips when it is not available.
func ACTIVSg[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, mk Maker[I, S, F], name string, nrhs int, tol float64,
) {
	t.Helper()
	m0, err := fixture.ACTIVSg[S](name)
	if err != nil {
		t.Skipf("%s: %v", name, err)
	}
	m, err := csc.ConvertIndex[I](m0)
	require.NoError(t, err)

	x0 := fixture.Ramp[S](m.N, nrhs)
	b, err := csc.MatVecBlock(m, x0, false)
	require.NoError(t, err)
	require.NoError(t, solver.New(mk(resource.NewCounter())).Solve(m.Order(), m.RowIdx, m.ColPtr, m.Values, b, false))
	RequireClose(t, x0, b, tol)
}

func factor[I numeric.Index, S numeric.Scalar, F io.Closer](
	t testing.TB, s *solver.Solver[I, S, F], m *csc.Matrix[I, S], ordered bool,
) F {
	t.Helper()
	var perm solver.Perm
	if ordered {
		var err error
		perm, err = s.Permute(m.Order(), m.RowIdx, m.ColPtr)
		require.NoError(t, err)
	}
	f, err := s.Factor(m.Order(), m.RowIdx, m.ColPtr, m.Values, perm)
	require.NoError(t, err)

	return f
}
