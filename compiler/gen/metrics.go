package gen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// File kinds and results recorded by Metrics.
const (
	KindType   = "type"
	KindStore  = "store"
	KindModule = "module"
	KindFrom   = "from"

	ResultWritten   = "written"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Metrics collects generation metrics in a private registry so that a
// run can write them to a node exporter textfile.
type Metrics struct {
	registry *prometheus.Registry
	files    *prometheus.CounterVec
	bytes    prometheus.Counter
	render   prometheus.Histogram
	format   prometheus.Histogram
}

// NewMetrics creates and registers the generation metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grace",
			Name:      "files_total",
			Help:      "Generated files by kind and result.",
		}, []string{"kind", "result"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grace",
			Name:      "written_bytes_total",
			Help:      "Bytes written to generated files.",
		}),
		render: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grace",
			Name:      "render_seconds",
			Help:      "Time spent rendering one file.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		format: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grace",
			Name:      "format_seconds",
			Help:      "Time spent formatting one file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.files, m.bytes, m.render, m.format)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) file(kind, result string) {
	if m != nil {
		m.files.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) written(n int) {
	if m != nil {
		m.bytes.Add(float64(n))
	}
}

func (m *Metrics) rendered(d time.Duration) {
	if m != nil {
		m.render.Observe(d.Seconds())
	}
}

func (m *Metrics) formatted(d time.Duration) {
	if m != nil {
		m.format.Observe(d.Seconds())
	}
}
