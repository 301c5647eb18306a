// SPDX-License-Identifier: MIT

package amd

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is returned when the input structure cannot be ordered
// (negative order, malformed column pointers, rows out of range).
var ErrInvalid = errors.New("amd: invalid matrix structure")

// DegreeUpdate selects how degrees are refreshed after each elimination.
type DegreeUpdate int

const (
	// Approximate bounds the external degree by |Aᵢ| + |Lₚ \ i| + Σ|Lₑ \ Lₚ|,
	// which is cheap and never underestimates.
	Approximate DegreeUpdate = iota
	// Exact computes the size of the true reachable set through the quotient
	// graph. Slower, occasionally produces less fill.
	Exact
)

// String implements fmt.Stringer.
func (d DegreeUpdate) String() string {
	switch d {
	case Approximate:
		return "approximate"
	case Exact:
		return "exact"
	default:
		return fmt.Sprintf("DegreeUpdate(%d)", int(d))
	}
}

// ParseDegreeUpdate maps "approximate"/"exact" to a DegreeUpdate.
func ParseDegreeUpdate(s string) (DegreeUpdate, error) {
	switch s {
	case "", "approximate":
		return Approximate, nil
	case "exact":
		return Exact, nil
	default:
		return 0, fmt.Errorf("amd: unknown degree update %q", s)
	}
}

// Documented defaults.
const (
	// DefaultDense is the dense-row factor: a row with more than
	// max(DenseFloor, Dense·√n) off-diagonal entries is ordered last.
	DefaultDense = 10.0

	// DefaultAggressive enables aggressive element absorption.
	DefaultAggressive = true

	// DefaultDegreeUpdate is the approximate degree bound.
	DefaultDegreeUpdate = Approximate

	// DenseFloor is the lower bound of the dense threshold.
	DenseFloor = 16
)

// Control is the tuning record of the ordering service. The zero value is
// NOT the default; start from Defaults().
type Control struct {
	// Dense rows are removed before ordering and placed last. A negative
	// value disables dense-row detection.
	Dense float64

	// Aggressive absorbs every element whose variable set is contained in the
	// new pivot element, not just the ones adjacent to the pivot.
	Aggressive bool

	// DegreeUpdate chooses approximate or exact degree refresh.
	DegreeUpdate DegreeUpdate
}

// Defaults returns the documented default Control.
func Defaults() Control {
	return Control{
		Dense:        DefaultDense,
		Aggressive:   DefaultAggressive,
		DegreeUpdate: DefaultDegreeUpdate,
	}
}

// denseThreshold returns the degree above which a node counts as dense;
// n when detection is disabled.
func (c Control) denseThreshold(n int) int {
	if c.Dense < 0 {
		return n
	}
	t := c.Dense * math.Sqrt(float64(n))
	if t < DenseFloor {
		t = DenseFloor
	}
	if t > float64(n) {
		return n
	}

	return int(t)
}

// Status is the outcome class of an ordering call.
type Status int

const (
	// OK means the structure was clean.
	OK Status = iota
	// OKButJumbled means rows were unsorted or duplicated inside a column;
	// the permutation is still valid.
	OKButJumbled
	// Invalid means no permutation was produced.
	Invalid
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case OKButJumbled:
		return "ok-but-jumbled"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Info carries diagnostics of one ordering call.
type Info struct {
	Status      Status
	N           int
	NZ          int // entries of the input
	SymNZ       int // off-diagonal entries of the pattern of A+Aᵗ
	NDense      int // nodes ordered last as dense
	Lnz         int // off-diagonal entries of L predicted by the elimination
	NAggressive int // elements removed by aggressive absorption
}
