// SPDX-License-Identifier: MIT

package solver

import (
	"io"
	"log/slog"
)

// Option configures a Solver.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithLogger routes stage-level debug records and failures to l.
// Panics on a nil logger.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("solver: WithLogger: nil logger")
	}

	return func(o *options) { o.logger = l }
}

// WithMetrics records stage durations and failures in m. A nil m disables
// metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func gatherOptions(opts ...Option) options {
	o := options{logger: DiscardLogger()}
	for _, set := range opts {
		set(&o)
	}

	return o
}

// DiscardLogger returns a logger that drops every record. Backends use it
// as their default.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
