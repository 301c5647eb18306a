// SPDX-License-Identifier: MIT

package csc

import "github.com/katalvlaran/spsolve/numeric"

// PermuteInv scatters b through the inverse permutation: x[pinv[k]] = b[k].
func PermuteInv[P numeric.Index, S numeric.Scalar](pinv []P, b, x []S) {
	for k := range b {
		x[int(pinv[k])] = b[k]
	}
}

// Permute gathers b through the permutation: x[k] = b[p[k]].
func Permute[P numeric.Index, S numeric.Scalar](p []P, b, x []S) {
	for k := range x {
		x[k] = b[int(p[k])]
	}
}

// InvertPerm returns pinv with pinv[p[k]] = k.
// p must already be a valid permutation (see ValidatePerm).
func InvertPerm[P numeric.Index](p []P) []P {
	pinv := make([]P, len(p))
	for k, j := range p {
		pinv[int(j)] = P(k)
	}

	return pinv
}
