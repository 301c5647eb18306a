// SPDX-License-Identifier: MIT
// Package csc: sentinel error set.
// All validators return these sentinels wrapped with a call-site tag; match
// them with errors.Is.

package csc

import "errors"

var (
	// ErrShapeMismatch signals that an array length or structural invariant
	// of the compressed-column triple, the RHS block or a permutation is
	// violated. Detected before any backend runs.
	ErrShapeMismatch = errors.New("csc: shape mismatch")

	// ErrNilMatrix indicates a nil *Matrix argument.
	ErrNilMatrix = errors.New("csc: nil matrix")
)
