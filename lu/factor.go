// SPDX-License-Identifier: MIT

package lu

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
	"github.com/katalvlaran/spsolve/resource"
)

// DefaultTol is plain partial pivoting: the diagonal is kept only when it is
// the largest candidate of its column.
const DefaultTol = 1.0

// Numeric holds the factors of P·A·Q = L·U.
// A Numeric must not be used from more than one goroutine at a time; Solve
// reuses an internal work vector.
type Numeric[N numeric.Native, S numeric.Scalar] struct {
	sym      *Symbolic[N]
	l, u     *csc.Matrix[N, S]
	pinv     []N // pinv[i] is the pivot position of row i
	q        []N // nil means natural order
	noffdiag int
	work     []S
	handle   *resource.Handle
	freed    bool
}

// Factorize computes the numeric factorization of the matrix whose structure
// sym was built from. tol in [0, 1] is the diagonal preference threshold
// (1 for plain partial pivoting). Duplicate entries are summed. A nil tracker
// disables accounting.
//
// Errors:
//   - ErrFreed when sym was freed.
//   - ErrMismatch when the arrays do not match the analysed structure.
//   - ErrSingular (wrapped with the failing column) when no nonzero pivot
//     exists.
//   - resource.ErrExhausted when the tracker refuses the numeric handle.
//   - numeric.ErrConversion when a factor does not fit the native width.
//
// No handle survives a failed call.
func Factorize[N numeric.Native, S numeric.Scalar](
	sym *Symbolic[N], colPtr, rowIdx []N, values []S, tol float64, t resource.Tracker,
) (*Numeric[N, S], error) {
	if sym.Freed() {
		return nil, fmt.Errorf("Factorize: %w", ErrFreed)
	}
	n := sym.n
	if len(colPtr) != n+1 || len(rowIdx) != sym.nnz || len(values) != sym.nnz {
		return nil, fmt.Errorf("Factorize: %w: n=%d nnz=%d, got len(colPtr)=%d len(rowIdx)=%d len(values)=%d",
			ErrMismatch, n, sym.nnz, len(colPtr), len(rowIdx), len(values))
	}
	if math.IsNaN(tol) || tol < 0 || tol > 1 {
		tol = DefaultTol
	}

	var h *resource.Handle
	if t != nil {
		var z S
		per := int64(indexSize[N]()) + int64(unsafe.Sizeof(z))
		bytes := int64(sym.lnz+sym.unz)*per + int64(2*n+2)*int64(indexSize[N]())
		var err error
		if h, err = t.Acquire(resource.KindNumeric, bytes); err != nil {
			return nil, fmt.Errorf("Factorize: %w", err)
		}
	}

	f, err := leftLooking(n, sym.q, colPtr, rowIdx, values, tol)
	if err != nil {
		h.Release()
		return nil, fmt.Errorf("Factorize: %w", err)
	}

	num := &Numeric[N, S]{sym: sym, noffdiag: f.noffdiag, work: make([]S, n), handle: h}
	num.l, err = csc.ConvertIndex[N](&csc.Matrix[int, S]{N: n, ColPtr: f.lp, RowIdx: f.li, Values: f.lx})
	if err == nil {
		num.u, err = csc.ConvertIndex[N](&csc.Matrix[int, S]{N: n, ColPtr: f.up, RowIdx: f.ui, Values: f.ux})
	}
	if err == nil {
		num.pinv, err = numeric.FromInts[N](f.pinv)
	}
	if err != nil {
		h.Release()
		return nil, fmt.Errorf("Factorize: %w", err)
	}
	num.q = sym.Q()

	return num, nil
}

// factors is the int-indexed working form of L and U.
type factors[S numeric.Scalar] struct {
	lp, li []int
	lx     []S
	up, ui []int
	ux     []S
	pinv   []int

	noffdiag int
}

// leftLooking factors A(:,q) column by column.
func leftLooking[N numeric.Native, S numeric.Scalar](
	n int, q []int, colPtr, rowIdx []N, values []S, tol float64,
) (*factors[S], error) {
	est := 4*len(values) + n
	f := &factors[S]{
		lp: make([]int, n+1), li: make([]int, 0, est), lx: make([]S, 0, est),
		up: make([]int, n+1), ui: make([]int, 0, est), ux: make([]S, 0, est),
		pinv: make([]int, n),
	}
	for i := range f.pinv {
		f.pinv[i] = -1
	}

	x := make([]S, n)
	r := newReach(n)
	for k := 0; k < n; k++ {
		f.lp[k], f.up[k] = len(f.li), len(f.ui)
		col := k
		if q != nil {
			col = q[k]
		}

		top := spsolve(f, r, colPtr, rowIdx, values, col, x)

		// Split x into the U part (already pivotal rows) and the pivot
		// candidates; remember the largest candidate.
		ipiv, amax := -1, -1.0
		for p := top; p < n; p++ {
			i := r.xi[p]
			if f.pinv[i] < 0 {
				if a := numeric.Abs(x[i]); a > amax {
					amax, ipiv = a, i
				}
			} else {
				f.ui = append(f.ui, f.pinv[i])
				f.ux = append(f.ux, x[i])
			}
		}
		if ipiv == -1 || amax <= 0 {
			return nil, fmt.Errorf("%w: no pivot in column %d", ErrSingular, k)
		}
		if f.pinv[col] < 0 {
			if d := numeric.Abs(x[col]); d > 0 && d >= amax*tol {
				ipiv = col
			}
		}
		if ipiv != col {
			f.noffdiag++
		}

		pivot := x[ipiv]
		f.ui = append(f.ui, k)
		f.ux = append(f.ux, pivot)
		f.pinv[ipiv] = k
		f.li = append(f.li, ipiv)
		f.lx = append(f.lx, 1)
		for p := top; p < n; p++ {
			i := r.xi[p]
			if f.pinv[i] < 0 {
				f.li = append(f.li, i)
				f.lx = append(f.lx, x[i]/pivot)
			}
			x[i] = 0
		}
	}
	f.lp[n], f.up[n] = len(f.li), len(f.ui)

	// Rows of L move to pivot order.
	for p, i := range f.li {
		f.li[p] = f.pinv[i]
	}

	return f, nil
}

// spsolve computes x = L \ A(:,col) on the pattern reached from the column
// and returns top: the nonzero rows are r.xi[top:n] in topological order.
// L here is the partial factor, still indexed by original rows.
func spsolve[N numeric.Native, S numeric.Scalar](
	f *factors[S], r *reach, colPtr, rowIdx []N, values []S, col int, x []S,
) int {
	start, end := int(colPtr[col]), int(colPtr[col+1])
	top := dfsReach(r, f, rowIdx[start:end])
	for p := top; p < r.n; p++ {
		x[r.xi[p]] = 0
	}
	for p := start; p < end; p++ {
		x[int(rowIdx[p])] += values[p]
	}
	for px := top; px < r.n; px++ {
		j := r.xi[px]
		jj := f.pinv[j]
		if jj < 0 {
			continue
		}
		xj := x[j]
		for p := f.lp[jj] + 1; p < f.lp[jj+1]; p++ {
			x[f.li[p]] -= f.lx[p] * xj
		}
	}

	return top
}

// reach is the scratch of the depth-first search through L.
type reach struct {
	n      int
	xi     []int // output stack, filled from the top down
	stack  []int
	pstack []int
	mark   []bool
}

func newReach(n int) *reach {
	return &reach{
		n:      n,
		xi:     make([]int, n),
		stack:  make([]int, n),
		pstack: make([]int, n),
		mark:   make([]bool, n),
	}
}

// dfsReach collects every row reachable from rows through the finished
// columns of L into r.xi[top:n] and returns top. Marks are cleared before
// returning.
func dfsReach[N numeric.Native, S numeric.Scalar](r *reach, f *factors[S], rows []N) int {
	top := r.n
	for _, start := range rows {
		if j := int(start); !r.mark[j] {
			top = r.dfs(f.lp, f.li, f.pinv, j, top)
		}
	}
	for p := top; p < r.n; p++ {
		r.mark[r.xi[p]] = false
	}

	return top
}

// dfs walks from row j without recursion and pushes finished rows onto xi.
func (r *reach) dfs(lp, li, pinv []int, j, top int) int {
	head := 0
	r.stack[0] = j
	for head >= 0 {
		j = r.stack[head]
		jj := pinv[j]
		if !r.mark[j] {
			r.mark[j] = true
			if jj < 0 {
				r.pstack[head] = 0
			} else {
				r.pstack[head] = lp[jj] + 1
			}
		}
		done := true
		if jj >= 0 {
			for p := r.pstack[head]; p < lp[jj+1]; p++ {
				if i := li[p]; !r.mark[i] {
					r.pstack[head] = p + 1
					head++
					r.stack[head] = i
					done = false
					break
				}
			}
		}
		if done {
			head--
			top--
			r.xi[top] = j
		}
	}

	return top
}
