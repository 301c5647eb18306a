// SPDX-License-Identifier: MIT

package numeric

import (
	"math"
	"math/cmplx"
	"reflect"
)

// Machine epsilons of the two real widths.
const (
	eps64 = 0x1p-52
	eps32 = 0x1p-23
)

// Abs returns |s| as float64. For complex scalars this is the modulus.
// Derived types (e.g. `type Volt float64`) fall back to reflection.
func Abs[S Scalar](s S) float64 {
	switch v := any(s).(type) {
	case float64:
		return math.Abs(v)
	case float32:
		return math.Abs(float64(v))
	case complex128:
		return cmplx.Abs(v)
	case complex64:
		return cmplx.Abs(complex128(v))
	}

	rv := reflect.ValueOf(s)
	switch rv.Kind() {
	case reflect.Complex64, reflect.Complex128:
		return cmplx.Abs(rv.Complex())
	default:
		return math.Abs(rv.Float())
	}
}

// FromFloat lifts f into S; complex instantiations receive a zero imaginary
// part.
func FromFloat[S Scalar](f float64) S {
	var z S
	switch p := any(&z).(type) {
	case *float64:
		*p = f
	case *float32:
		*p = float32(f)
	case *complex128:
		*p = complex(f, 0)
	case *complex64:
		*p = complex64(complex(f, 0))
	default:
		rv := reflect.ValueOf(&z).Elem()
		switch rv.Kind() {
		case reflect.Complex64, reflect.Complex128:
			rv.SetComplex(complex(f, 0))
		default:
			rv.SetFloat(f)
		}
	}

	return z
}

// IsComplex reports whether S is a complex instantiation.
func IsComplex[S Scalar]() bool {
	var z S
	k := reflect.TypeOf(z).Kind()

	return k == reflect.Complex64 || k == reflect.Complex128
}

// Eps returns the machine epsilon of the real component of S.
func Eps[S Scalar]() float64 {
	var z S
	switch reflect.TypeOf(z).Kind() {
	case reflect.Float32, reflect.Complex64:
		return eps32
	default:
		return eps64
	}
}

// FromParts builds S from a real and an imaginary part. Real instantiations
// drop im.
func FromParts[S Scalar](re, im float64) S {
	var z S
	switch p := any(&z).(type) {
	case *complex128:
		*p = complex(re, im)
	case *complex64:
		*p = complex64(complex(re, im))
	default:
		rv := reflect.ValueOf(&z).Elem()
		switch rv.Kind() {
		case reflect.Complex64, reflect.Complex128:
			rv.SetComplex(complex(re, im))
		default:
			return FromFloat[S](re)
		}
	}

	return z
}

// Parts splits s into real and imaginary parts (im is 0 for real S).
func Parts[S Scalar](s S) (re, im float64) {
	switch v := any(s).(type) {
	case float64:
		return v, 0
	case float32:
		return float64(v), 0
	case complex128:
		return real(v), imag(v)
	case complex64:
		return float64(real(v)), float64(imag(v))
	}

	rv := reflect.ValueOf(s)
	switch rv.Kind() {
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		return real(c), imag(c)
	default:
		return rv.Float(), 0
	}
}

// Conj returns the complex conjugate of s; real values are returned as is.
func Conj[S Scalar](s S) S {
	if !IsComplex[S]() {
		return s
	}
	re, im := Parts(s)

	return FromParts[S](re, -im)
}
