// SPDX-License-Identifier: MIT

package numeric

import "fmt"

// ToInt converts v to the machine int.
// Fails with ErrConversion when v does not fit (e.g. uint64 above MaxInt).
func ToInt[I Index](v I) (int, error) {
	x := int(v)
	// Round trip plus sign agreement catches both truncation and wrap-around.
	if I(x) != v || (x < 0) != (v < 0) {
		return 0, fmt.Errorf("%w: %v does not fit int", ErrConversion, v)
	}

	return x, nil
}

// FromInt converts the machine int x to the index type I.
// Fails with ErrConversion on overflow or when a negative value meets an
// unsigned type.
func FromInt[I Index](x int) (I, error) {
	v := I(x)
	if int(v) != x || (v < 0) != (x < 0) {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrConversion, x, v)
	}

	return v, nil
}

// Convert moves v between two index widths without loss.
func Convert[To, From Index](v From) (To, error) {
	w := To(v)
	if From(w) != v || (w < 0) != (v < 0) {
		return 0, fmt.Errorf("%w: %v does not fit %T", ErrConversion, v, w)
	}

	return w, nil
}

// ConvertSlice converts every element of src; the first lossy element aborts
// the conversion and its position is reported.
// Complexity: O(len(src)) time, one allocation.
func ConvertSlice[To, From Index](src []From) ([]To, error) {
	if src == nil {
		return nil, nil
	}
	dst := make([]To, len(src))
	for k, v := range src {
		w, err := Convert[To](v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", k, err)
		}
		dst[k] = w
	}

	return dst, nil
}

// ToInts is ConvertSlice into the machine int.
func ToInts[I Index](src []I) ([]int, error) { return ConvertSlice[int](src) }

// FromInts is ConvertSlice from the machine int.
func FromInts[I Index](src []int) ([]I, error) { return ConvertSlice[I](src) }
