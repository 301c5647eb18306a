// SPDX-License-Identifier: MIT

package mtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

const maxPrealloc = 1 << 20

// Read parses a coordinate Matrix Market stream into a Triplet, expanding
// symmetric storage. Complex data cannot be read into a real S.
func Read[S numeric.Scalar](r io.Reader) (*Triplet[S], error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			s := strings.TrimSpace(sc.Text())
			if line > 1 && (s == "" || strings.HasPrefix(s, "%")) {
				continue
			}
			return s, true
		}
		return "", false
	}

	first, ok := next()
	if !ok {
		return nil, readErr(sc.Err(), "empty input")
	}
	h, err := parseHeader(first)
	if err != nil {
		return nil, err
	}
	if h.Field == FieldComplex && !numeric.IsComplex[S]() {
		return nil, fmt.Errorf("%w: complex data into %T", ErrUnsupported, *new(S))
	}

	size, ok := next()
	if !ok {
		return nil, readErr(sc.Err(), "missing size line")
	}
	dims, err := ints(strings.Fields(size), 3)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: size: %v", ErrFormat, line, err)
	}
	rows, cols, nnz := dims[0], dims[1], dims[2]
	if rows < 0 || cols < 0 || nnz < 0 {
		return nil, fmt.Errorf("%w: line %d: negative size", ErrFormat, line)
	}

	if nnz > 0 && (cols == 0 || nnz/cols > rows || (nnz/cols == rows && nnz%cols != 0)) {
		return nil, fmt.Errorf("%w: line %d: %d entries exceed %d×%d", ErrFormat, line, nnz, rows, cols)
	}

	// The size line is untrusted; append grows past the cap.
	capacity := min(nnz, maxPrealloc)
	if h.Symmetry != General {
		capacity *= 2
	}
	t := &Triplet[S]{Header: h, Rows: rows, Cols: cols,
		I: make([]int, 0, capacity), J: make([]int, 0, capacity), V: make([]S, 0, capacity)}

	want := 3
	switch h.Field {
	case FieldPattern:
		want = 2
	case FieldComplex:
		want = 4
	}

	for k := 0; k < nnz; k++ {
		s, ok := next()
		if !ok {
			return nil, readErr(sc.Err(), fmt.Sprintf("%d of %d entries", k, nnz))
		}
		tok := strings.Fields(s)
		if len(tok) != want {
			return nil, fmt.Errorf("%w: line %d: %d fields, want %d", ErrFormat, line, len(tok), want)
		}
		ij, err := ints(tok[:2], 2)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		i, j := ij[0]-1, ij[1]-1
		if i < 0 || i >= rows || j < 0 || j >= cols {
			return nil, fmt.Errorf("%w: line %d: entry (%d,%d) outside %d×%d", ErrFormat, line, i+1, j+1, rows, cols)
		}

		v, err := value[S](h.Field, tok[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		t.I, t.J, t.V = append(t.I, i), append(t.J, j), append(t.V, v)

		if i == j {
			continue
		}
		switch h.Symmetry {
		case Symmetric:
			t.I, t.J, t.V = append(t.I, j), append(t.J, i), append(t.V, v)
		case SkewSymmetric:
			t.I, t.J, t.V = append(t.I, j), append(t.J, i), append(t.V, -v)
		case Hermitian:
			t.I, t.J, t.V = append(t.I, j), append(t.J, i), append(t.V, numeric.Conj(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return t, nil
}

// Load reads the file at path and compresses it by columns (byColumns)
// or by rows.
func Load[S numeric.Scalar](path string, byColumns bool) (*csc.Matrix[int, S], error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	t, err := Read[S](bufio.NewReader(fh))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if byColumns {
		return t.ToCSC()
	}

	return t.ToCSR()
}

func value[S numeric.Scalar](f Field, tok []string) (S, error) {
	switch f {
	case FieldPattern:
		return numeric.FromFloat[S](1), nil
	case FieldInteger:
		v, err := strconv.ParseInt(tok[0], 10, 64)
		if err != nil {
			return 0, err
		}
		return numeric.FromFloat[S](float64(v)), nil
	case FieldComplex:
		re, err := strconv.ParseFloat(tok[0], 64)
		if err != nil {
			return 0, err
		}
		im, err := strconv.ParseFloat(tok[1], 64)
		if err != nil {
			return 0, err
		}
		return numeric.FromParts[S](re, im), nil
	default:
		v, err := strconv.ParseFloat(tok[0], 64)
		if err != nil {
			return 0, err
		}
		return numeric.FromFloat[S](v), nil
	}
}

func ints(tok []string, want int) ([]int, error) {
	if len(tok) != want {
		return nil, fmt.Errorf("%d fields, want %d", len(tok), want)
	}
	out := make([]int, want)
	for k, s := range tok {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}

	return out, nil
}

func readErr(err error, what string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrFormat, what)
}
