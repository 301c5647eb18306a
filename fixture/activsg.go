// SPDX-License-Identifier: MIT

package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/katalvlaran/spsolve/csc"
	"github.com/katalvlaran/spsolve/mtx"
	"github.com/katalvlaran/spsolve/numeric"
)

// EnvMatrixDir names the directory holding powers/<name>.mtx.
const EnvMatrixDir = "SPSOLVE_MATRIX_DIR"

// ErrNoFixture reports that an external fixture is not installed.
var ErrNoFixture = errors.New("fixture: matrix not available")

// Grid sizes and matrix kinds of the ACTIVSg synthetic grids.
var (
	GridSizes = []string{"200", "500", "2000", "10k", "25k", "70k"}
	GridKinds = []string{"Bbus", "Ybus", "Jac"}
)

// ACTIVSgNames lists every ACTIVSg fixture name, e.g. "ACTIVSg2000_Jac".
func ACTIVSgNames() []string {
	out := make([]string, 0, len(GridSizes)*len(GridKinds))
	for _, size := range GridSizes {
		for _, kind := range GridKinds {
			out = append(out, fmt.Sprintf("ACTIVSg%s_%s", size, kind))
		}
	}

	return out
}

// ACTIVSgPath returns the location of the named fixture, or ErrNoFixture
// when $SPSOLVE_MATRIX_DIR is unset or the file is absent.
func ACTIVSgPath(name string) (string, error) {
	dir := os.Getenv(EnvMatrixDir)
	if dir == "" {
		return "", fmt.Errorf("%w: $%s not set", ErrNoFixture, EnvMatrixDir)
	}
	path := filepath.Join(dir, "powers", name+".mtx")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoFixture, err)
	}

	return path, nil
}

// ACTIVSg loads the named fixture in compressed-column form.
func ACTIVSg[S numeric.Scalar](name string) (*csc.Matrix[int, S], error) {
	path, err := ACTIVSgPath(name)
	if err != nil {
		return nil, err
	}

	return mtx.Load[S](path, true)
}
