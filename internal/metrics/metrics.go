// Package metrics counts parse activity in Prometheus collectors and can
// dump them in the text exposition format for a node-exporter textfile
// collector.
package metrics

import (
	"time"

	"gffstream/internal/gff3"
	"gffstream/internal/pipeline"
	"gffstream/internal/resolver"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gffstream"

// Metrics holds the parse collectors and the registry they live in.
type Metrics struct {
	ItemsDelivered  *prometheus.CounterVec
	ScopesFlushed   prometheus.Counter
	FeaturesEvicted prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	Duration        *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		ItemsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "items",
				Name:      "delivered_total",
				Help:      "Items delivered to handlers, by kind",
			},
			[]string{"kind"},
		),
		ScopesFlushed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "flushes_total",
				Help:      "Resolver scope flushes, including the final one",
			},
		),
		FeaturesEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "evicted_total",
				Help:      "Top-level features emitted early because the buffer was full",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "errors",
				Name:      "total",
				Help:      "Failed parses, by error class",
			},
			[]string{"class"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "duration_seconds",
				Help:      "Wall time of a command in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.ItemsDelivered,
		m.ScopesFlushed,
		m.FeaturesEvicted,
		m.ErrorsTotal,
		m.Duration,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Wrap returns handlers that count each item and then call h.
func (m *Metrics) Wrap(h pipeline.Handlers) pipeline.Handlers {
	features := m.ItemsDelivered.WithLabelValues("feature")
	directives := m.ItemsDelivered.WithLabelValues("directive")
	comments := m.ItemsDelivered.WithLabelValues("comment")
	sequences := m.ItemsDelivered.WithLabelValues("sequence")

	return pipeline.Handlers{
		OnFeature: func(f *gff3.Feature) {
			features.Inc()
			if h.OnFeature != nil {
				h.OnFeature(f)
			}
		},
		OnDirective: func(d *gff3.Directive) {
			directives.Inc()
			if h.OnDirective != nil {
				h.OnDirective(d)
			}
		},
		OnComment: func(c *gff3.Comment) {
			comments.Inc()
			if h.OnComment != nil {
				h.OnComment(c)
			}
		},
		OnSequence: func(s *gff3.Sequence) {
			sequences.Inc()
			if h.OnSequence != nil {
				h.OnSequence(s)
			}
		},
		OnEnd: h.OnEnd,
	}
}

// ObserveStats adds a finished parser's counters. It is safe for
// concurrent use and fits pipeline.Options.OnStats.
func (m *Metrics) ObserveStats(s resolver.Stats) {
	m.ScopesFlushed.Add(float64(s.Flushes))
	m.FeaturesEvicted.Add(float64(s.Evicted))
}

// ObserveError counts err under its pipeline error class.
func (m *Metrics) ObserveError(err error) {
	if err == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(pipeline.ErrorClass(err)).Inc()
}

// ObserveDuration records how long a command ran.
func (m *Metrics) ObserveDuration(command string, d time.Duration) {
	m.Duration.WithLabelValues(command).Observe(d.Seconds())
}

// WriteFile writes every collector to path in the text format. The file is
// replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
