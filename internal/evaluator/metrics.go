package evaluator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

// Metrics exposes Prometheus instrumentation for the evaluation
// pipeline: task verdicts, per-check outcomes, and evaluation latency.
type Metrics struct {
	evaluationsTotal   *prometheus.CounterVec
	checksTotal        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
}

// NewMetrics creates a Metrics collector and registers its collectors
// with the given registerer. Pass prometheus.DefaultRegisterer in
// production; tests use a fresh registry to avoid duplicate
// registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		evaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_tasks_total",
				Help: "Total evaluated tasks by overall status.",
			},
			[]string{"status"},
		),
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eval_checks_total",
				Help: "Total individual checks by category and status.",
			},
			[]string{"category", "status"},
		),
		evaluationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eval_task_duration_seconds",
				Help:    "Wall-clock time spent evaluating one task.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveEvaluation records one completed task evaluation.
func (m *Metrics) ObserveEvaluation(findings *domain.Findings, elapsed time.Duration) {
	m.evaluationsTotal.WithLabelValues(string(findings.OverallStatus)).Inc()
	m.evaluationDuration.Observe(elapsed.Seconds())

	for _, cat := range domain.Categories {
		for _, check := range findings.Checks.ByCategory(cat) {
			m.checksTotal.WithLabelValues(string(cat), string(check.Status)).Inc()
		}
	}
}
