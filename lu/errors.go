// SPDX-License-Identifier: MIT

package lu

import "errors"

var (
	// ErrSingular is returned by Factorize when a column has no usable pivot.
	ErrSingular = errors.New("lu: matrix is singular")

	// ErrFreed is returned when a freed Symbolic or Numeric is used again.
	ErrFreed = errors.New("lu: factorization already freed")

	// ErrMismatch is returned when a Numeric is paired with the wrong
	// Symbolic, or values do not match the analysed structure.
	ErrMismatch = errors.New("lu: symbolic/numeric mismatch")
)
