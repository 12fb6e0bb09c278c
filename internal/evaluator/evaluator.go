// Package evaluator wires the comparator and scorer into the per-task
// evaluation pipeline and provides a batch runner for task sets.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/touchstone-evals/touchstone/internal/comparator"
	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/scorer"
)

// Config bundles the configuration for both evaluation stages.
type Config struct {
	// Comparator holds the similarity grading cutoffs.
	Comparator comparator.Config `yaml:"comparator"`

	// Lexicon holds the word lists the rule engine scores against.
	Lexicon scorer.Lexicon `yaml:"lexicon"`
}

// DefaultConfig returns the standard cutoffs and the built-in lexicon.
func DefaultConfig() Config {
	return Config{
		Comparator: comparator.DefaultConfig(),
		Lexicon:    scorer.DefaultLexicon(),
	}
}

// Evaluator runs the full pipeline for one task: comparator, then
// scorer and rule engine, then status aggregation. It holds no mutable
// state between calls and is safe for concurrent use across tasks.
type Evaluator struct {
	comparator *comparator.Comparator
	scorer     *scorer.Scorer
	tracer     trace.Tracer
	metrics    *Metrics
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithMetrics attaches a Prometheus metrics collector; evaluations and
// individual checks are counted as they complete.
func WithMetrics(m *Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// New creates an Evaluator from the given configuration.
func New(config Config, opts ...Option) (*Evaluator, error) {
	cmp, err := comparator.New(config.Comparator)
	if err != nil {
		return nil, fmt.Errorf("comparator: %w", err)
	}

	sc, err := scorer.New(config.Lexicon)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	e := &Evaluator{
		comparator: cmp,
		scorer:     sc,
		tracer:     otel.Tracer("evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate grades one task and returns its findings. The only fatal
// condition is a structurally broken spec (missing task_id); every
// other defect in the inputs becomes a failed or warning check inside
// the findings, so one malformed task never aborts the others.
func (e *Evaluator) Evaluate(ctx context.Context, spec *domain.EvalSpec, output *domain.AgentOutput, metrics *domain.Metrics) (*domain.Findings, error) {
	if spec == nil {
		return nil, fmt.Errorf("eval spec is nil: %w", domain.ErrMissingTaskID)
	}
	if spec.TaskID == "" {
		return nil, fmt.Errorf("eval spec: %w", domain.ErrMissingTaskID)
	}

	_, span := e.tracer.Start(ctx, "Evaluator.Evaluate",
		trace.WithAttributes(
			attribute.String("eval.task_id", spec.TaskID),
		),
	)
	defer span.End()

	start := time.Now()

	var outputMatch []domain.CheckResult
	if output == nil {
		// No result was recorded at all. The individual comparisons
		// still run (and fail) so the report shows what was expected.
		outputMatch = append(outputMatch,
			domain.Failed("result_missing", "no agent output recorded for task"))
	}
	outputMatch = append(outputMatch, e.comparator.Compare(spec.Expected, output)...)
	ruleResult := e.scorer.Run(spec, output, metrics)

	findings := &domain.Findings{
		TaskID: spec.TaskID,
		Checks: domain.CheckSet{
			OutputMatch: outputMatch,
			Thresholds:  ruleResult.Thresholds,
			Assertions:  ruleResult.Assertions,
			Constraints: ruleResult.Constraints,
		},
		Scores: ruleResult.Scores,
	}
	findings.OverallStatus = domain.Overall(findings.Checks.All())

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("eval.status", string(findings.OverallStatus)),
		attribute.Float64("eval.score", findings.Scores[scorer.ScoreBodySimilarity]),
		attribute.Int64("eval.latency_ms", elapsed.Milliseconds()),
		// no_llm_cost helps filter deterministic evaluations in observability tools
		attribute.Bool("no_llm_cost", true),
	)

	if e.metrics != nil {
		e.metrics.ObserveEvaluation(findings, elapsed)
	}

	return findings, nil
}
