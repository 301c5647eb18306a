// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/spsolve/config"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/resource"
)

// exampleTol is the accepted error of the 10×10 system.
const exampleTol = 1e-12

func newExampleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Solve the built-in 10×10 system with every backend",
		Long: `Example solves the 10×10 system whose solution is 0.1, 0.2, ..., 1.0 with
every backend, in both directions, prints the solutions side by side and
fails when any component is off by more than 1e-12.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.example(cmd)
		},
	}
}

func (a *app) example(cmd *cobra.Command) error {
	sys, err := fixture.Simple10[int, float64]()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	tr := resource.NewCounter()
	e := env{cfg: a.cfg, logger: a.logger, tracker: tr}

	for _, trans := range []bool{false, true} {
		cols := make([][]float64, len(config.Backends))
		for k, name := range config.Backends {
			run, err := newRunner(name, e)
			if err != nil {
				return err
			}
			b := append([]float64(nil), sys.B...)
			if _, err = run(sys.A, b, trans); err != nil {
				return err
			}
			for i := range b {
				if d := math.Abs(b[i] - sys.X[i]); d > exampleTol {
					return fmt.Errorf("%s: x[%d] = %.17g, want %.17g (transpose=%v)", name, i, b[i], sys.X[i], trans)
				}
			}
			cols[k] = b
		}

		fmt.Fprintf(out, "transpose=%v\n", trans)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprint(tw, "i\t")
		for _, name := range config.Backends {
			fmt.Fprintf(tw, "%s\t", name)
		}
		fmt.Fprintln(tw)
		for i := range sys.X {
			fmt.Fprintf(tw, "%d\t", i)
			for k := range cols {
				fmt.Fprintf(tw, "%.15f\t", cols[k][i])
			}
			fmt.Fprintln(tw)
		}
		if err = tw.Flush(); err != nil {
			return err
		}
	}
	if live := tr.Live(); live != 0 {
		return fmt.Errorf("%d native handles still live", live)
	}

	return nil
}
