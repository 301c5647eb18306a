// SPDX-License-Identifier: MIT

package mtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/numeric"
)

// Write emits m as a general coordinate matrix, one line per stored entry
// (duplicates included), column by column. The field is complex for
// complex S and real otherwise.
func Write[I numeric.Index, S numeric.Scalar](w io.Writer, m *csc.Matrix[I, S]) error {
	if err := csc.Validate(m); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	field := FieldReal
	if numeric.IsComplex[S]() {
		field = FieldComplex
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s matrix coordinate %s %s\n", banner, field, General)
	fmt.Fprintf(bw, "%d %d %d\n", m.N, m.N, m.NNZ())
	for j := 0; j < m.N; j++ {
		for p := int(m.ColPtr[j]); p < int(m.ColPtr[j+1]); p++ {
			re, im := numeric.Parts(m.Values[p])
			if field == FieldComplex {
				fmt.Fprintf(bw, "%d %d %s %s\n", int(m.RowIdx[p])+1, j+1, format(re), format(im))
			} else {
				fmt.Fprintf(bw, "%d %d %s\n", int(m.RowIdx[p])+1, j+1, format(re))
			}
		}
	}

	return bw.Flush()
}

// Save writes m to path, creating or truncating the file.
func Save[I numeric.Index, S numeric.Scalar](path string, m *csc.Matrix[I, S]) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return Write(fh, m)
}

// format is the shortest representation that round-trips float64.
func format(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
