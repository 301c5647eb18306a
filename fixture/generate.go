// SPDX-License-Identifier: MIT

package fixture

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

// Generator defaults.
const (
	// DefaultSeed makes every generated matrix reproducible.
	DefaultSeed uint64 = 2000

	// DefaultChordRatio adds n·ratio random branches to the ring.
	DefaultChordRatio = 0.5

	// DefaultAsymmetry is the relative perturbation applied to the upper
	// triangle. Zero keeps the matrix symmetric like a real B-bus.
	DefaultAsymmetry = 0.0

	minReactance = 0.01
	maxReactance = 0.5
	minShunt     = 0.1
	maxShunt     = 1.0
)

// Option configures the generators.
type Option func(*genOptions)

type genOptions struct {
	seed       uint64
	chordRatio float64
	asymmetry  float64
}

// WithSeed fixes the random stream.
func WithSeed(seed uint64) Option {
	return func(o *genOptions) { o.seed = seed }
}

// WithChordRatio sets how many random branches (n·ratio) are added to the
// ring. Panics on a negative ratio.
func WithChordRatio(r float64) Option {
	if r < 0 {
		panic(fmt.Sprintf("fixture: WithChordRatio: negative ratio %v", r))
	}

	return func(o *genOptions) { o.chordRatio = r }
}

// WithAsymmetry perturbs each upper-triangle entry by up to ±a of its value.
// Panics outside [0, 1).
func WithAsymmetry(a float64) Option {
	if a < 0 || a >= 1 {
		panic(fmt.Sprintf("fixture: WithAsymmetry: %v outside [0, 1)", a))
	}

	return func(o *genOptions) { o.asymmetry = a }
}

func gather(opts []Option) genOptions {
	o := genOptions{seed: DefaultSeed, chordRatio: DefaultChordRatio, asymmetry: DefaultAsymmetry}
	for _, set := range opts {
		set(&o)
	}

	return o
}

// branch is one network line between buses u and v.
type branch struct {
	u, v int
	r, x float64
}

// network draws a connected network on n buses: a ring plus chords.
func network(n int, o genOptions, rng *rand.Rand) []branch {
	var out []branch
	draw := func(u, v int) {
		out = append(out, branch{
			u: u, v: v,
			r: minReactance * rng.Float64(),
			x: minReactance + (maxReactance-minReactance)*rng.Float64(),
		})
	}
	for i := 0; n > 1 && i < n; i++ {
		if j := (i + 1) % n; j != i && !(n == 2 && i == 1) {
			draw(i, j)
		}
	}
	chords := int(float64(n) * o.chordRatio)
	for c := 0; n > 2 && c < chords; c++ {
		u, v := rng.IntN(n), rng.IntN(n)
		if u != v {
			draw(u, v)
		}
	}

	return out
}

// Bbus returns a real n×n B-bus-like matrix: off-diagonal −1/x per branch,
// diagonal strictly dominant over both its row and its column.
func Bbus(n int, opts ...Option) *csc.Matrix[int, float64] {
	o := gather(opts)
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	b := newBuilder[float64](n)

	for _, br := range network(n, o, rng) {
		s := 1 / br.x
		lo, hi := min(br.u, br.v), max(br.u, br.v)
		b.add(hi, lo, -s)
		b.add(lo, hi, -s*(1+o.asymmetry*(2*rng.Float64()-1)))
	}
	for i := 0; i < n; i++ {
		shunt := minShunt + (maxShunt-minShunt)*rng.Float64()
		b.add(i, i, b.dominance(i)+shunt)
	}

	return b.build()
}

// Ybus returns a complex n×n Y-bus-like matrix: off-diagonal −1/(r+jx) per
// branch and a diagonal whose real part dominates every row and column.
func Ybus(n int, opts ...Option) *csc.Matrix[int, complex128] {
	o := gather(opts)
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	b := newBuilder[complex128](n)

	for _, br := range network(n, o, rng) {
		y := 1 / complex(br.r, br.x)
		lo, hi := min(br.u, br.v), max(br.u, br.v)
		b.add(hi, lo, -y)
		b.add(lo, hi, -y*complex(1+o.asymmetry*(2*rng.Float64()-1), 0))
	}
	for i := 0; i < n; i++ {
		shunt := minShunt + (maxShunt-minShunt)*rng.Float64()
		d := b.dominance(i)
		b.add(i, i, complex(d+shunt, d/2))
	}

	return b.build()
}

// builder accumulates entries column by column.
type builder[S float64 | complex128] struct {
	n      int
	cols   []map[int]S
	rowAbs []float64
	colAbs []float64
}

func newBuilder[S float64 | complex128](n int) *builder[S] {
	b := &builder[S]{n: n, cols: make([]map[int]S, n), rowAbs: make([]float64, n), colAbs: make([]float64, n)}
	for j := range b.cols {
		b.cols[j] = map[int]S{}
	}

	return b
}

func (b *builder[S]) add(i, j int, v S) {
	b.cols[j][i] += v
	if i != j {
		a := numeric.Abs(v)
		b.rowAbs[i] += a
		b.colAbs[j] += a
	}
}

// dominance is the larger of the off-diagonal absolute row and column sums
// of i accumulated so far.
func (b *builder[S]) dominance(i int) float64 { return max(b.rowAbs[i], b.colAbs[i]) }

func (b *builder[S]) build() *csc.Matrix[int, S] {
	m := &csc.Matrix[int, S]{N: b.n, ColPtr: make([]int, b.n+1)}
	for j, col := range b.cols {
		rows := make([]int, 0, len(col))
		for i := range col {
			rows = append(rows, i)
		}
		slices.Sort(rows)
		for _, i := range rows {
			m.RowIdx = append(m.RowIdx, i)
			m.Values = append(m.Values, col[i])
		}
		m.ColPtr[j+1] = len(m.RowIdx)
	}

	return m
}
