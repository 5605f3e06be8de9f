package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "dmcompare"

// Field sources.
const (
	SourceReconstruction = "reconstruction"
	SourceModel          = "model"
)

// Task outcomes.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Metrics holds the run metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry     *prometheus.Registry
	fieldsRead   *prometheus.CounterVec
	tasks        *prometheus.CounterVec
	iterations   prometheus.Counter
	taskDuration *prometheus.HistogramVec
}

// New creates the metrics on a fresh registry together with the Go runtime
// and memory collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fieldsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_read_total",
			Help:      "Gridded fields read from NetCDF files.",
		}, []string{"source"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Averaging tasks by stage and outcome.",
		}, []string{"stage", "status"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monte_carlo_iterations_total",
			Help:      "Monte Carlo iterations drawn.",
		}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of averaging tasks.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.fieldsRead, m.tasks, m.iterations, m.taskDuration,
		NewMemoryCollector(),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// FieldRead counts one field read from source.
func (m *Metrics) FieldRead(source string) {
	if m == nil {
		return
	}
	m.fieldsRead.WithLabelValues(source).Inc()
}

// TaskDone records the outcome and duration of a task.
func (m *Metrics) TaskDone(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(stage, status).Inc()
	m.taskDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Iterations counts Monte Carlo iterations.
func (m *Metrics) Iterations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.iterations.Add(float64(n))
}

// WriteToTextfile writes every metric to path in the text exposition
// format, atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
