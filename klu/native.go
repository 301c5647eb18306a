// SPDX-License-Identifier: MIT

package klu

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/spsolve/amd"
	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/lu"
	"github.com/katalvlaran/spsolve/resource"
	"github.com/katalvlaran/spsolve/solver"
)

// The functions below form the native layer: int32 indices, an explicit
// *Common on every call, inverse column permutations, and separately owned
// symbolic and numeric objects.

type (
	nativeSymbolic = lu.Symbolic[int32]
	nativeNumeric  = lu.Numeric[int32, float64]
)

// analyze orders the matrix as c.Ordering says and analyses it.
func analyze(n int32, ap, ai []int32, c *Common, t resource.Tracker) (*nativeSymbolic, error) {
	var qinv []int32
	if c.Ordering == OrderAMD {
		p, info, err := amd.Order(n, ap, ai, c.AMD)
		c.SymNZ = info.SymNZ
		if err != nil {
			c.Status = StatusInvalid
			return nil, fmt.Errorf("%w: %w", solver.ErrOrdering, err)
		}
		q := make([]int32, len(p))
		for k, j := range p {
			q[k] = int32(j)
		}
		qinv = csc.InvertPerm(q)
	}

	return analyzeGiven(n, ap, ai, qinv, c, t)
}

// analyzeGiven analyses with a caller-chosen order. qinv[j] is the position
// of column j; nil keeps the natural order.
func analyzeGiven(n int32, ap, ai, qinv []int32, c *Common, t resource.Tracker) (*nativeSymbolic, error) {
	var q []int32
	if qinv != nil {
		q = csc.InvertPerm(qinv)
	}
	sym, err := lu.Analyze(n, ap, ai, q, t)
	c.Status = statusOf(err)

	return sym, err
}

// factor computes the numeric object and records its statistics in c.
func factor(ap, ai []int32, ax []float64, sym *nativeSymbolic, c *Common, t resource.Tracker) (*nativeNumeric, error) {
	num, err := lu.Factorize(sym, ap, ai, ax, c.Tol, t)
	c.Status = statusOf(err)
	if err != nil {
		return nil, err
	}
	c.NOffDiag = num.OffDiagonalPivots()
	c.Lnz, c.Unz = num.Lnz(), num.Unz()
	c.RCond = num.RCond()

	return num, nil
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, lu.ErrSingular):
		return StatusSingular
	case errors.Is(err, resource.ErrExhausted):
		return StatusOutOfMemory
	default:
		return StatusInvalid
	}
}
