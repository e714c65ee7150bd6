// Package metrics exports a finished sweep in the Prometheus textfile format.
package metrics

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"queuesweep/internal/sweep"
)

const (
	prefix        = "queuesweep_"
	capacityLabel = "capacity"
)

type SweepMetrics struct {
	registry *prometheus.Registry

	baseline  prometheus.Gauge
	candidate *prometheus.GaugeVec
	speedup   *prometheus.GaugeVec
	failed    prometheus.Gauge
	lastRun   prometheus.Gauge
}

// NewSweepMetrics registers the sweep gauges on a private registry so
// repeated exports in one process never collide.
func NewSweepMetrics() *SweepMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &SweepMetrics{
		registry: reg,
		baseline: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "baseline_seconds",
			Help: "Mean elapsed time of the sequential baseline",
		}),
		candidate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: prefix + "candidate_seconds",
			Help: "Mean elapsed time per queue capacity",
		}, []string{capacityLabel}),
		speedup: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: prefix + "speedup",
			Help: "Baseline time divided by candidate time per queue capacity",
		}, []string{capacityLabel}),
		failed: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "failed_candidates",
			Help: "Number of capacities without a measurement",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "last_run_timestamp_seconds",
			Help: "Unix time the sweep finished",
		}),
	}
}

// Observe sets the gauges from res. Absent points only count towards the
// failed gauge.
func (m *SweepMetrics) Observe(res *sweep.Result) {
	if res.Baseline != nil {
		m.baseline.Set(res.Baseline.Mean)
	}
	for _, p := range res.Present() {
		c := strconv.Itoa(p.Capacity)
		m.candidate.WithLabelValues(c).Set(p.Measurement.Mean)
		m.speedup.WithLabelValues(c).Set(p.Speedup)
	}
	m.failed.Set(float64(res.Failed()))
	if !res.FinishedAt.IsZero() {
		m.lastRun.Set(float64(res.FinishedAt.Unix()))
	}
}

func (m *SweepMetrics) Registry() *prometheus.Registry { return m.registry }

// WriteFile writes the registry to path atomically.
func (m *SweepMetrics) WriteFile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "writing metrics to %s", path)
}

// Export observes res and writes it to path in one step.
func Export(path string, res *sweep.Result) error {
	m := NewSweepMetrics()
	m.Observe(res)
	return m.WriteFile(path)
}
