// Package scorer implements the quality-scoring and rule-engine half of
// task evaluation: numeric scores, threshold validation, required-state
// assertions, and content constraints.
package scorer

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Scorer computes quality scores and validates thresholds, assertions,
// and constraints for one task at a time. It holds only immutable
// configuration (the lexicon and the rule registries) and is safe for
// concurrent use across tasks.
type Scorer struct {
	lexicon     Lexicon
	assertions  map[string]assertionFn
	constraints map[string]constraintFn
}

// New creates a Scorer with the given lexicon. Returns an error if the
// lexicon is structurally invalid.
func New(lexicon Lexicon) (*Scorer, error) {
	if err := validate.Struct(lexicon); err != nil {
		return nil, fmt.Errorf("lexicon validation failed: %w", err)
	}
	return &Scorer{
		lexicon:     lexicon,
		assertions:  newAssertionRegistry(),
		constraints: newConstraintRegistry(),
	}, nil
}

// Result holds the scorer's contribution to a task's findings: the
// three rule-engine check categories plus the effective score map.
type Result struct {
	Thresholds  []domain.CheckResult
	Assertions  []domain.CheckResult
	Constraints []domain.CheckResult
	Scores      map[string]float64
}

// Run evaluates one task's scores and rules. Scores are computed first
// because threshold validation reads the effective values (supplied
// metrics win; omitted ones are derived from spec and output). A nil
// output is treated as an entirely absent result; a nil metrics record
// means no external measurements were taken.
func (s *Scorer) Run(spec *domain.EvalSpec, output *domain.AgentOutput, metrics *domain.Metrics) Result {
	if output == nil {
		output = &domain.AgentOutput{}
	}

	scores := s.computeScores(spec, output, metrics)

	return Result{
		Thresholds:  s.validateThresholds(spec, metrics, scores),
		Assertions:  s.validateAssertions(spec, output),
		Constraints: s.validateConstraints(spec, output),
		Scores:      scores,
	}
}
