// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/spsolve/config"
)

// app is the state shared by the sub-commands once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	flags overrides

	cfg    config.Config
	logger *slog.Logger
}

// overrides holds the command flags that take precedence over the file.
type overrides struct {
	matrix    string
	backend   string
	transpose bool
	nrhs      int
	tol       float64
	order     int
	repeat    int
	backends  []string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "spsolve",
		Short:         "Solve sparse linear systems with interchangeable backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(newSolveCmd(a), newBenchCmd(a), newExampleCmd(a))

	return root
}

// load reads the configuration and builds the logger. Command flags are
// applied afterwards by each command.
func (a *app) load(cmd *cobra.Command) error {
	a.cfg = config.Default()
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = c
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}
	a.logger = a.cfg.Log.Logger(cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded", "path", a.configPath, "backend", a.cfg.Backend)

	return nil
}

// apply copies the flags the user set over the configuration and
// revalidates it.
func (a *app) apply(cmd *cobra.Command) error {
	fl := cmd.Flags()
	if fl.Changed("matrix") {
		a.cfg.Matrix = a.flags.matrix
	}
	if fl.Changed("backend") {
		a.cfg.Backend = a.flags.backend
	}
	if fl.Changed("transpose") {
		a.cfg.Transpose = a.flags.transpose
	}
	if fl.Changed("nrhs") {
		a.cfg.NRHS = a.flags.nrhs
	}
	if fl.Changed("tol") {
		a.cfg.Tol = a.flags.tol
	}
	if fl.Changed("order") {
		a.cfg.Bench.Order = a.flags.order
	}
	if fl.Changed("repeat") {
		a.cfg.Bench.Repeat = a.flags.repeat
	}
	if fl.Changed("backends") {
		a.cfg.Bench.Backends = a.flags.backends
	}

	return a.cfg.Validate()
}
