// SPDX-License-Identifier: MIT

// Command spsolve solves sparse systems with any of the module's backends.
//
//	spsolve example                      # the 10×10 system on every backend
//	spsolve solve --matrix A.mtx --backend klu --nrhs 4
//	spsolve bench --order 10000 --metrics --trace
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "spsolve:", err)
		os.Exit(1)
	}
}
