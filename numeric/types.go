// SPDX-License-Identifier: MIT

package numeric

import "errors"

// ErrConversion is returned when an index or dimension cannot be represented
// in the requested integer width without loss.
var ErrConversion = errors.New("numeric: lossy index conversion")

// Index is the constraint for matrix dimensions and positions.
type Index interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Native is the subset of Index widths used by the factorization engines.
type Native interface {
	~int | ~int32 | ~int64
}

// Real is the constraint for real-valued scalars.
type Real interface {
	~float32 | ~float64
}

// Scalar is the constraint for matrix and vector values. Complex scalars are
// accepted by backends that declare support for them.
type Scalar interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}
