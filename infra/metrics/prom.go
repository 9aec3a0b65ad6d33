// Package metrics provides the Prometheus implementation of the engine's
// metrics sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/manvalan/fdc-railway-engine/core/metrics"
)

// PromSink records engine events on Prometheus collectors.
type PromSink struct {
	conflicts   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	residual    prometheus.Gauge
	duration    prometheus.Histogram
}

// NewPromSink registers the collectors on reg; nil falls back to the
// default registerer. Re-registration reuses the existing collectors.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railway_conflicts_detected_total",
			Help: "Conflicts found by detection passes, by kind.",
		}, []string{"kind"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railway_resolution_runs_total",
			Help: "Completed resolution pipeline runs, by outcome.",
		}, []string{"outcome"}),
		residual: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railway_residual_conflicts",
			Help: "Conflicts remaining after the last resolution run.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railway_resolution_duration_seconds",
			Help:    "Wall time of resolution pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	s.conflicts = registerCounterVec(reg, s.conflicts)
	s.resolutions = registerCounterVec(reg, s.resolutions)
	if err := reg.Register(s.residual); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if g, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				s.residual = g
			}
		}
	}
	if err := reg.Register(s.duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if h, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				s.duration = h
			}
		}
	}
	return s
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return exist
			}
		}
	}
	return c
}

// RecordConflicts implements metrics.Sink.
func (s *PromSink) RecordConflicts(kind string, count int) {
	s.conflicts.WithLabelValues(kind).Add(float64(count))
}

// RecordResolution implements metrics.Sink.
func (s *PromSink) RecordResolution(ev coremetrics.ResolutionEvent) {
	outcome := "clean"
	if ev.ResidualConflicts > 0 {
		outcome = "residual"
	}
	s.resolutions.WithLabelValues(outcome).Inc()
	s.residual.Set(float64(ev.ResidualConflicts))
	s.duration.Observe(ev.Duration.Seconds())
}
