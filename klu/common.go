// SPDX-License-Identifier: MIT

package klu

import (
	"fmt"

	"github.com/katalvlaran/spsolve/amd"
)

// Ordering selects how analyze picks the column order when the caller did
// not supply one.
type Ordering int

const (
	// OrderAMD runs the approximate minimum degree service (default).
	OrderAMD Ordering = iota
	// OrderNatural keeps the input column order.
	OrderNatural
)

// String implements fmt.Stringer.
func (o Ordering) String() string {
	switch o {
	case OrderAMD:
		return "amd"
	case OrderNatural:
		return "natural"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// Status of the last native call recorded in Common.
type Status int

const (
	StatusOK Status = iota
	StatusSingular
	StatusOutOfMemory
	StatusInvalid
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSingular:
		return "singular"
	case StatusOutOfMemory:
		return "out-of-memory"
	case StatusInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Documented defaults.
const (
	// DefaultTol favours the diagonal: a diagonal entry is kept when it is at
	// least a thousandth of the column maximum.
	DefaultTol = 0.001

	// DefaultOrdering is OrderAMD.
	DefaultOrdering = OrderAMD
)

// Common is the explicit control and statistics record passed to every
// native call. Control fields are read, statistics are written.
type Common struct {
	// Control.
	Tol      float64
	Ordering Ordering
	AMD      amd.Control

	// Statistics of the last call.
	Status   Status
	NOffDiag int     // off-diagonal pivots
	Lnz      int     // entries of L, diagonal included
	Unz      int     // entries of U, diagonal included
	RCond    float64 // min|uₖₖ| / max|uₖₖ|
	SymNZ    int     // off-diagonal entries of the pattern of A+Aᵗ seen by the ordering
}

// Defaults returns a Common holding the documented defaults.
func Defaults() Common {
	return Common{Tol: DefaultTol, Ordering: DefaultOrdering, AMD: amd.Defaults()}
}
