// SPDX-License-Identifier: MIT

package solver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/katalvlaran/spsolve/resource"
)

const metricsNamespace = "spsolve"

// Metrics holds the pipeline instruments. Create one per registry with
// NewMetrics and share it between Solvers; the instruments are safe for
// concurrent use.
type Metrics struct {
	// stageDuration measures each pipeline stage.
	// Labels: backend, stage
	stageDuration *prometheus.HistogramVec

	// stageErrors counts failures.
	// Labels: backend, stage
	stageErrors *prometheus.CounterVec

	// rhsColumns counts right-hand-side columns solved.
	// Labels: backend
	rhsColumns *prometheus.CounterVec
}

// NewMetrics registers the pipeline instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of solver pipeline stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"backend", "stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Solver pipeline failures by stage",
		}, []string{"backend", "stage"}),
		rhsColumns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "rhs_columns_total",
			Help:      "Right-hand-side columns solved",
		}, []string{"backend"}),
	}
}

// RegisterTracker exposes the live handle count and bytes of c on reg.
func RegisterTracker(reg prometheus.Registerer, c *resource.Counter) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "resource",
		Name:      "live_handles",
		Help:      "Native resource handles not yet released",
	}, func() float64 { return float64(c.Live()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "resource",
		Name:      "live_bytes",
		Help:      "Bytes held by unreleased native resource handles",
	}, func() float64 { return float64(c.LiveBytes()) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "resource",
		Name:      "acquire_failures_total",
		Help:      "Native allocations refused by the tracker limit",
	}, func() float64 { return float64(c.Failed()) })
}

func (m *Metrics) observe(backend string, stage Stage, start time.Time, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(backend, string(stage)).Observe(time.Since(start).Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(backend, string(stage)).Inc()
	}
}

func (m *Metrics) columns(backend string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rhsColumns.WithLabelValues(backend).Add(float64(n))
}
