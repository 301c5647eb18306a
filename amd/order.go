// SPDX-License-Identifier: MIT
// Package amd is the fill-reducing ordering service of the pipeline: an
// approximate minimum degree ordering of the pattern of A+Aᵗ.
//
// Model:
//   - The symmetric pattern is held as a quotient graph. Every node is a
//     variable (not yet eliminated), an element (an eliminated pivot standing
//     for the clique it created), or absorbed (an element swallowed by a
//     later one).
//   - Eliminating variable p builds element Lₚ = (Aₚ ∪ ⋃ Lₑ, e ∈ Eₚ) \ {p};
//     the elements in Eₚ are absorbed, and every i ∈ Lₚ drops the variables
//     now reachable through p from its own adjacency.
//   - Degrees of the touched variables are refreshed exactly or by the
//     approximate bound (see DegreeUpdate); the next pivot is the variable of
//     smallest degree, ties broken by the smaller index.
//
// Dense rows (degree above max(DenseFloor, Dense·√n)) are taken out up front
// and placed last, in index order.
//
// Determinism:
//   - No randomness; the same structure and Control always yield the same
//     permutation.
//
// Complexity:
//   - Memory O(n + nnz(A+Aᵗ) + nnz(L)); time roughly O(nnz(L)·avg element
//     degree) for the sparse structures the pipeline targets.
package amd

import (
	"container/heap"
	"fmt"
	"slices"

	"github.com/katalvlaran/spsolve/numeric"
)

type nodeState uint8

const (
	variable nodeState = iota
	element
	absorbed
	dense
)

// Order returns a permutation p of length n (p[k] is the node eliminated
// k-th) for the square structure (n, colPtr, rowIdx), together with
// diagnostics. Values are never consulted.
//
// Errors:
//   - numeric.ErrConversion when an index does not fit int.
//   - ErrInvalid for a malformed structure (Info.Status == Invalid).
//
// An unsorted or duplicated column is accepted and reported through
// Info.Status == OKButJumbled.
func Order[I numeric.Index](n I, colPtr, rowIdx []I, ctl Control) ([]int, Info, error) {
	info := Info{Status: Invalid}
	nn, err := numeric.ToInt(n)
	if err != nil {
		return nil, info, fmt.Errorf("Order: %w", err)
	}
	info.N = nn

	cp, ri, status, err := check(nn, colPtr, rowIdx)
	if err != nil {
		return nil, info, fmt.Errorf("Order: %w", err)
	}
	info.NZ = len(ri)
	info.Status = status
	if nn == 0 {
		return []int{}, info, nil
	}

	adj := symmetricPattern(nn, cp, ri)
	for _, a := range adj {
		info.SymNZ += len(a)
	}

	g := newQuotientGraph(nn, adj, ctl, &info)
	perm := g.eliminate()

	return perm, info, nil
}

// check validates the structure and converts it to int. Status is OK or
// OKButJumbled on success.
func check[I numeric.Index](n int, colPtr, rowIdx []I) ([]int, []int, Status, error) {
	if n < 0 {
		return nil, nil, Invalid, fmt.Errorf("%w: negative order %d", ErrInvalid, n)
	}
	if len(colPtr) != n+1 {
		return nil, nil, Invalid, fmt.Errorf("%w: len(colPtr)=%d, want %d", ErrInvalid, len(colPtr), n+1)
	}
	cp, err := numeric.ToInts(colPtr)
	if err != nil {
		return nil, nil, Invalid, err
	}
	ri, err := numeric.ToInts(rowIdx)
	if err != nil {
		return nil, nil, Invalid, err
	}
	if cp[0] != 0 || cp[n] != len(ri) {
		return nil, nil, Invalid, fmt.Errorf("%w: colPtr[0]=%d colPtr[n]=%d nnz=%d", ErrInvalid, cp[0], cp[n], len(ri))
	}

	for j := 0; j < n; j++ {
		if cp[j] > cp[j+1] {
			return nil, nil, Invalid, fmt.Errorf("%w: colPtr decreases at column %d", ErrInvalid, j)
		}
	}

	status := OK
	for j := 0; j < n; j++ {
		last := -1
		for p := cp[j]; p < cp[j+1]; p++ {
			i := ri[p]
			if i < 0 || i >= n {
				return nil, nil, Invalid, fmt.Errorf("%w: row %d outside [0,%d) in column %d", ErrInvalid, i, n, j)
			}
			if i <= last {
				status = OKButJumbled
			}
			last = i
		}
	}

	return cp, ri, status, nil
}

// symmetricPattern returns sorted, duplicate-free off-diagonal adjacency of
// A+Aᵗ.
func symmetricPattern(n int, cp, ri []int) [][]int {
	count := make([]int, n)
	for j := 0; j < n; j++ {
		for p := cp[j]; p < cp[j+1]; p++ {
			if i := ri[p]; i != j {
				count[i]++
				count[j]++
			}
		}
	}
	adj := make([][]int, n)
	for i := range adj {
		adj[i] = make([]int, 0, count[i])
	}
	for j := 0; j < n; j++ {
		for p := cp[j]; p < cp[j+1]; p++ {
			if i := ri[p]; i != j {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}
	for i := range adj {
		slices.Sort(adj[i])
		adj[i] = slices.Compact(adj[i])
	}

	return adj
}

// quotientGraph is the elimination state. Lists are filtered in place as
// nodes change state; every list is owned by exactly one node.
type quotientGraph struct {
	n      int
	ctl    Control
	info   *Info
	state  []nodeState
	vars   [][]int // Aᵢ: variable neighbours of variable i
	elems  [][]int // Eᵢ: elements adjacent to variable i
	lvars  [][]int // Lₑ: variables of element e
	degree []int
	inLp   []int // stamp of the pivot whose element contains the node
	seen   []int // scratch stamp for exact degrees
	stamp  int
	scan   int
	left   int // variables not yet eliminated (dense excluded)
	queue  degreeHeap
}

func newQuotientGraph(n int, adj [][]int, ctl Control, info *Info) *quotientGraph {
	g := &quotientGraph{
		n:      n,
		ctl:    ctl,
		info:   info,
		state:  make([]nodeState, n),
		vars:   adj,
		elems:  make([][]int, n),
		lvars:  make([][]int, n),
		degree: make([]int, n),
		inLp:   make([]int, n),
		seen:   make([]int, n),
	}

	threshold := ctl.denseThreshold(n)
	for i := 0; i < n; i++ {
		if len(adj[i]) > threshold {
			g.state[i] = dense
			info.NDense++
		}
	}
	for i := 0; i < n; i++ {
		if g.state[i] == dense {
			g.vars[i] = nil
			continue
		}
		if info.NDense > 0 {
			g.vars[i] = g.liveVars(g.vars[i])
		}
		g.degree[i] = len(g.vars[i])
		g.left++
		g.queue = append(g.queue, entry{degree: g.degree[i], node: i})
	}
	heap.Init(&g.queue)

	return g
}

// eliminate runs the elimination to completion and returns the order.
func (g *quotientGraph) eliminate() []int {
	perm := make([]int, 0, g.n)
	for g.queue.Len() > 0 {
		it := heap.Pop(&g.queue).(entry)
		if g.state[it.node] != variable || g.degree[it.node] != it.degree {
			continue // stale entry
		}
		g.pivot(it.node)
		perm = append(perm, it.node)
	}
	for i := 0; i < g.n; i++ {
		if g.state[i] == dense {
			perm = append(perm, i)
		}
	}

	return perm
}

// pivot eliminates variable p and refreshes its neighbourhood.
func (g *quotientGraph) pivot(p int) {
	g.stamp++
	s := g.stamp
	g.inLp[p] = s

	lp := make([]int, 0, len(g.vars[p]))
	for _, v := range g.vars[p] {
		if g.state[v] == variable && g.inLp[v] != s {
			g.inLp[v] = s
			lp = append(lp, v)
		}
	}
	for _, e := range g.elems[p] {
		if g.state[e] != element {
			continue
		}
		for _, v := range g.lvars[e] {
			if g.state[v] == variable && g.inLp[v] != s {
				g.inLp[v] = s
				lp = append(lp, v)
			}
		}
		g.state[e] = absorbed
		g.lvars[e] = nil
	}

	g.state[p] = element
	g.vars[p], g.elems[p] = nil, nil
	g.lvars[p] = lp
	g.left--
	g.info.Lnz += len(lp)

	for _, i := range lp {
		es := g.elems[i][:0]
		for _, e := range g.elems[i] {
			if g.state[e] == element {
				es = append(es, e)
			}
		}
		g.elems[i] = append(es, p)

		vs := g.vars[i][:0]
		for _, v := range g.vars[i] {
			if g.state[v] == variable && g.inLp[v] != s {
				vs = append(vs, v)
			}
		}
		g.vars[i] = vs
	}

	if g.ctl.Aggressive {
		for _, i := range lp {
			for _, e := range g.elems[i] {
				if e != p && g.state[e] == element && g.coveredBy(e, s) {
					g.state[e] = absorbed
					g.lvars[e] = nil
					g.info.NAggressive++
				}
			}
		}
	}

	for _, i := range lp {
		var d int
		if g.ctl.DegreeUpdate == Exact {
			d = g.exactDegree(i)
		} else {
			d = g.approxDegree(i, p, len(lp), s)
		}
		g.degree[i] = d
		heap.Push(&g.queue, entry{degree: d, node: i})
	}
}

// coveredBy reports whether every live variable of element e belongs to the
// pivot element stamped s. Compacts Lₑ as a side effect.
func (g *quotientGraph) coveredBy(e, s int) bool {
	g.lvars[e] = g.liveVars(g.lvars[e])
	for _, v := range g.lvars[e] {
		if g.inLp[v] != s {
			return false
		}
	}

	return true
}

// exactDegree is |Aᵢ ∪ ⋃ Lₑ| \ {i}.
func (g *quotientGraph) exactDegree(i int) int {
	g.scan++
	t := g.scan
	g.seen[i] = t
	d := 0
	for _, v := range g.vars[i] {
		if g.seen[v] != t {
			g.seen[v] = t
			d++
		}
	}
	for _, e := range g.elems[i] {
		if g.state[e] != element {
			continue
		}
		g.lvars[e] = g.liveVars(g.lvars[e])
		for _, v := range g.lvars[e] {
			if g.seen[v] != t {
				g.seen[v] = t
				d++
			}
		}
	}

	return d
}

// approxDegree is min(left-1, |Aᵢ| + |Lₚ \ i| + Σ_{e≠p} |Lₑ \ Lₚ|).
func (g *quotientGraph) approxDegree(i, p, lpLen, s int) int {
	d := len(g.vars[i]) + lpLen - 1
	for _, e := range g.elems[i] {
		if e == p || g.state[e] != element {
			continue
		}
		g.lvars[e] = g.liveVars(g.lvars[e])
		for _, v := range g.lvars[e] {
			if g.inLp[v] != s {
				d++
			}
		}
	}

	return min(d, g.left-1)
}

// liveVars filters list in place down to current variables.
func (g *quotientGraph) liveVars(list []int) []int {
	out := list[:0]
	for _, v := range list {
		if g.state[v] == variable {
			out = append(out, v)
		}
	}

	return out
}

type entry struct {
	degree int
	node   int
}

// degreeHeap is a min-heap on (degree, node). Stale entries are skipped on
// pop rather than removed on update.
type degreeHeap []entry

func (h degreeHeap) Len() int { return len(h) }
func (h degreeHeap) Less(a, b int) bool {
	if h[a].degree != h[b].degree {
		return h[a].degree < h[b].degree
	}
	return h[a].node < h[b].node
}
func (h degreeHeap) Swap(a, b int) { h[a], h[b] = h[b], h[a] }
func (h *degreeHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *degreeHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]

	return it
}
