// SPDX-License-Identifier: MIT

// Package numeric is the type model shared by every stage of the solving
// pipeline.
//
// Two independent axes parameterize the pipeline:
//
//   - Index: the integer type of matrix dimensions, column offsets and
//     row indices. Any built-in integer kind is legal (8/16/32/64-bit,
//     signed or unsigned); nothing assumes a particular width.
//   - Scalar: the value type of matrix entries and right-hand sides:
//     float32, float64, complex64 or complex128 (and types derived from
//     them).
//
// Width conversion:
//
//	Every move between index widths goes through ToInt / FromInt / Convert /
//	ConvertSlice. These never truncate: a value that does not survive the
//	round trip (overflow or sign change) yields ErrConversion.
//
// Scalar helpers:
//
//	Abs returns |s| as float64 (modulus for complex values); FromFloat lifts
//	a float64 literal into any Scalar instantiation; Eps reports the machine
//	epsilon of the scalar's real component.
package numeric
