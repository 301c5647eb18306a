package amd_test

import (
	"testing"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/stretchr/testify/require"
)

// pattern is a structure-only CSC builder for tests.
type pattern struct {
	n      int
	colPtr []int
	rowIdx []int
}

// fromEdges builds a symmetric pattern with a full diagonal.
func fromEdges(n int, edges [][2]int) pattern {
	cols := make([][]int, n)
	for j := 0; j < n; j++ {
		cols[j] = append(cols[j], j)
	}
	for _, e := range edges {
		cols[e[1]] = append(cols[e[1]], e[0])
		cols[e[0]] = append(cols[e[0]], e[1])
	}
	p := pattern{n: n, colPtr: make([]int, n+1)}
	for j, c := range cols {
		p.rowIdx = append(p.rowIdx, c...)
		p.colPtr[j+1] = len(p.rowIdx)
	}

	return p
}

func arrow(n int) pattern {
	edges := make([][2]int, 0, n-1)
	for i := 1; i < n; i++ {
		edges = append(edges, [2]int{0, i})
	}

	return fromEdges(n, edges)
}

func grid(side int) pattern {
	var edges [][2]int
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			v := r*side + c
			if c+1 < side {
				edges = append(edges, [2]int{v, v + 1})
			}
			if r+1 < side {
				edges = append(edges, [2]int{v, v + side})
			}
		}
	}

	return fromEdges(side*side, edges)
}

// fillFor eliminates the pattern in the given order on an explicit
// elimination graph and returns nnz of the strictly lower part of L.
func fillFor(p pattern, perm []int) int {
	adj := make([]map[int]bool, p.n)
	for i := range adj {
		adj[i] = map[int]bool{}
	}
	for j := 0; j < p.n; j++ {
		for q := p.colPtr[j]; q < p.colPtr[j+1]; q++ {
			if i := p.rowIdx[q]; i != j {
				adj[i][j], adj[j][i] = true, true
			}
		}
	}
	done := make([]bool, p.n)
	lnz := 0
	for _, v := range perm {
		var nb []int
		for u := range adj[v] {
			if !done[u] {
				nb = append(nb, u)
			}
		}
		lnz += len(nb)
		for _, a := range nb {
			for _, b := range nb {
				if a != b {
					adj[a][b] = true
				}
			}
		}
		done[v] = true
	}

	return lnz
}

func identity(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}

	return p
}

func requirePermutation(t *testing.T, n int, p []int) {
	t.Helper()
	require.Len(t, p, n)
	seen := make([]bool, n)
	for _, j := range p {
		require.True(t, j >= 0 && j < n, "entry %d out of range", j)
		require.False(t, seen[j], "entry %d repeated", j)
		seen[j] = true
	}
}

func TestOrder_SmallFiveByFive(t *testing.T) {
	t.Parallel()

	// Structure of the AMD user-guide example.
	colPtr := []int32{0, 2, 6, 10, 12, 14}
	rowIdx := []int32{
		0, 1,
		0, 1, 2, 4,
		1, 2, 3, 4,
		2, 3,
		1, 4,
	}
	p, info, err := amd.Order(int32(5), colPtr, rowIdx, amd.Defaults())
	require.NoError(t, err)
	requirePermutation(t, 5, p)
	require.Equal(t, amd.OK, info.Status)
	require.Equal(t, 14, info.NZ)
	require.Equal(t, 10, info.SymNZ)
	// Degree-one nodes go first.
	require.ElementsMatch(t, []int{0, 3}, p[:2])
}

func TestOrder_ArrowHasNoFill(t *testing.T) {
	t.Parallel()

	const n = 12
	a := arrow(n)
	for _, du := range []amd.DegreeUpdate{amd.Approximate, amd.Exact} {
		t.Run(du.String(), func(t *testing.T) {
			ctl := amd.Defaults()
			ctl.DegreeUpdate = du
			p, info, err := amd.Order(a.n, a.colPtr, a.rowIdx, ctl)
			require.NoError(t, err)
			requirePermutation(t, n, p)
			require.Equal(t, n-1, info.Lnz)
			require.Equal(t, n-1, fillFor(a, p))
			require.Greater(t, fillFor(a, identity(n)), n-1, "natural order fills the arrow")
		})
	}
}

func TestOrder_GridBeatsNatural(t *testing.T) {
	t.Parallel()

	g := grid(10)
	for _, du := range []amd.DegreeUpdate{amd.Approximate, amd.Exact} {
		t.Run(du.String(), func(t *testing.T) {
			ctl := amd.Defaults()
			ctl.DegreeUpdate = du
			p, info, err := amd.Order(g.n, g.colPtr, g.rowIdx, ctl)
			require.NoError(t, err)
			requirePermutation(t, g.n, p)
			require.Equal(t, fillFor(g, p), info.Lnz, "predicted fill must match explicit elimination")
			require.Less(t, info.Lnz, fillFor(g, identity(g.n)))
		})
	}
}

func TestOrder_AggressiveAbsorption(t *testing.T) {
	t.Parallel()

	a := arrow(8)
	ctl := amd.Defaults()

	ctl.Aggressive = true
	_, on, err := amd.Order(a.n, a.colPtr, a.rowIdx, ctl)
	require.NoError(t, err)
	require.Positive(t, on.NAggressive)

	ctl.Aggressive = false
	_, off, err := amd.Order(a.n, a.colPtr, a.rowIdx, ctl)
	require.NoError(t, err)
	require.Zero(t, off.NAggressive)
}

func TestOrder_DenseRowsGoLast(t *testing.T) {
	t.Parallel()

	const n = 400
	a := arrow(n)

	p, info, err := amd.Order(a.n, a.colPtr, a.rowIdx, amd.Defaults())
	require.NoError(t, err)
	requirePermutation(t, n, p)
	require.Equal(t, 1, info.NDense)
	require.Equal(t, 0, p[n-1])

	ctl := amd.Defaults()
	ctl.Dense = -1
	_, info, err = amd.Order(a.n, a.colPtr, a.rowIdx, ctl)
	require.NoError(t, err)
	require.Zero(t, info.NDense)
}

func TestOrder_Jumbled(t *testing.T) {
	t.Parallel()

	// Column 1 lists rows out of order and repeats one.
	p, info, err := amd.Order(3, []int{0, 1, 4, 5}, []int{0, 2, 1, 2, 2}, amd.Defaults())
	require.NoError(t, err)
	requirePermutation(t, 3, p)
	require.Equal(t, amd.OKButJumbled, info.Status)
}

func TestOrder_Invalid(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		n      int
		colPtr []int
		rowIdx []int
	}{
		{"negative order", -1, []int{0}, nil},
		{"colPtr length", 2, []int{0, 1}, []int{0}},
		{"nonzero start", 1, []int{1, 1}, nil},
		{"decreasing", 2, []int{0, 2, 1}, []int{0}},
		{"row out of range", 2, []int{0, 1, 2}, []int{0, 5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, info, err := amd.Order(tc.n, tc.colPtr, tc.rowIdx, amd.Defaults())
			require.ErrorIs(t, err, amd.ErrInvalid)
			require.Equal(t, amd.Invalid, info.Status)
		})
	}
}

func TestOrder_Conversion(t *testing.T) {
	_, _, err := amd.Order(uint64(1)<<63, []uint64{0}, nil, amd.Defaults())
	require.ErrorIs(t, err, numeric.ErrConversion)
}

func TestOrder_Empty(t *testing.T) {
	p, info, err := amd.Order(0, []int{0}, nil, amd.Defaults())
	require.NoError(t, err)
	require.Empty(t, p)
	require.Equal(t, amd.OK, info.Status)
}

func TestParseDegreeUpdate(t *testing.T) {
	du, err := amd.ParseDegreeUpdate("exact")
	require.NoError(t, err)
	require.Equal(t, amd.Exact, du)

	du, err = amd.ParseDegreeUpdate("")
	require.NoError(t, err)
	require.Equal(t, amd.Approximate, du)

	_, err = amd.ParseDegreeUpdate("greedy")
	require.Error(t, err)
}
