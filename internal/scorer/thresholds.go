package scorer

import (
	"fmt"
	"sort"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

// thresholdRule fixes directionality and metric sourcing for one
// recognized threshold key.
type thresholdRule struct {
	checkName  string
	metricName string
	// upperBound: actual <= threshold passes. Otherwise actual >=
	// threshold passes.
	upperBound bool
	// actual resolves the observed value; ok is false when the
	// measurement is genuinely unavailable.
	actual func(metrics *domain.Metrics, scores map[string]float64) (float64, bool)
}

// thresholdRules maps recognized threshold keys in their report order.
var thresholdRules = []struct {
	key  string
	rule thresholdRule
}{
	{domain.ThresholdLatencyMs, thresholdRule{
		checkName:  "latency_threshold",
		metricName: "latency_ms",
		upperBound: true,
		actual: func(m *domain.Metrics, _ map[string]float64) (float64, bool) {
			if m == nil || m.LatencyMs == nil {
				return 0, false
			}
			return *m.LatencyMs, true
		},
	}},
	{domain.ThresholdPersonalizationMin, thresholdRule{
		checkName:  "personalization_score_threshold",
		metricName: ScorePersonalization,
		actual: func(_ *domain.Metrics, scores map[string]float64) (float64, bool) {
			v, ok := scores[ScorePersonalization]
			return v, ok
		},
	}},
	{domain.ThresholdLocaleAccuracyMin, thresholdRule{
		checkName:  "locale_accuracy_threshold",
		metricName: ScoreLocaleAccuracy,
		actual: func(_ *domain.Metrics, scores map[string]float64) (float64, bool) {
			v, ok := scores[ScoreLocaleAccuracy]
			return v, ok
		},
	}},
	{domain.ThresholdSafetyViolationsMax, thresholdRule{
		checkName:  "safety_violations_threshold",
		metricName: ScoreSafety,
		upperBound: true,
		actual: func(_ *domain.Metrics, scores map[string]float64) (float64, bool) {
			v, ok := scores[ScoreSafety]
			return v, ok
		},
	}},
}

// validateThresholds checks every threshold declared in the eval record against
// its observed value. Latency comes from external metrics; score
// thresholds read the effective scores, which were computed when not
// supplied. A missing measurement and a non-numeric declared value are
// both failed checks, never Go errors.
func (s *Scorer) validateThresholds(spec *domain.EvalSpec, metrics *domain.Metrics, scores map[string]float64) []domain.CheckResult {
	if len(spec.Thresholds) == 0 {
		return nil
	}

	var checks []domain.CheckResult
	seen := make(map[string]bool, len(spec.Thresholds))

	for _, entry := range thresholdRules {
		raw, declared := spec.Thresholds[entry.key]
		if !declared {
			continue
		}
		seen[entry.key] = true

		limit, ok := asFloat(raw)
		if !ok {
			checks = append(checks, domain.Failed(entry.rule.checkName,
				fmt.Sprintf("threshold %s: value %v is not numeric", entry.key, raw)))
			continue
		}

		actual, ok := entry.rule.actual(metrics, scores)
		if !ok {
			checks = append(checks, domain.Failed(entry.rule.checkName,
				fmt.Sprintf("threshold %s: metric %s not available", entry.key, entry.rule.metricName)))
			continue
		}

		passed := actual >= limit
		bound := "min"
		if entry.rule.upperBound {
			passed = actual <= limit
			bound = "max"
		}

		msg := fmt.Sprintf("%s: %.2f (%s: %.2f)", entry.rule.metricName, actual, bound, limit)
		if passed {
			checks = append(checks, domain.Passed(entry.rule.checkName, msg))
		} else {
			checks = append(checks, domain.Failed(entry.rule.checkName, msg))
		}
	}

	// Unrecognized threshold keys get a warning so forward-compatible
	// test records surface instead of silently grading nothing.
	var unknown []string
	for key := range spec.Thresholds {
		if !seen[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		checks = append(checks, domain.Warning("threshold_"+key,
			fmt.Sprintf("unknown threshold %q skipped", key)))
	}

	return checks
}

// asFloat coerces the numeric types JSON and YAML decoding produce.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
