package domain

// Status is the outcome of a single check.
type Status string

// Check outcomes, ordered by severity.
const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// OverallStatus is the aggregated verdict for one task.
type OverallStatus string

// Task verdicts. A single failed check anywhere fails the task; a
// warning without failures downgrades it to passed_with_warnings.
const (
	OverallPassed       OverallStatus = "passed"
	OverallWithWarnings OverallStatus = "passed_with_warnings"
	OverallFailed       OverallStatus = "failed"
)

// Category groups related checks within a task's findings.
type Category string

// Check categories, in report order.
const (
	CategoryOutputMatch Category = "output_match"
	CategoryThreshold   Category = "threshold"
	CategoryAssertion   Category = "assertion"
	CategoryConstraint  Category = "constraint"
)

// Categories lists all check categories in their canonical report order.
var Categories = []Category{
	CategoryOutputMatch,
	CategoryThreshold,
	CategoryAssertion,
	CategoryConstraint,
}

// CheckResult is one check's outcome. Results are created once and
// never mutated afterward.
type CheckResult struct {
	// Name identifies the check (e.g. "channel_match").
	Name string `json:"name"`

	// Status is the check outcome.
	Status Status `json:"status"`

	// Message is a human-readable description of what was compared and
	// what was found.
	Message string `json:"message"`
}

// Passed creates a passed CheckResult.
func Passed(name, message string) CheckResult {
	return CheckResult{Name: name, Status: StatusPassed, Message: message}
}

// Warning creates a warning CheckResult.
func Warning(name, message string) CheckResult {
	return CheckResult{Name: name, Status: StatusWarning, Message: message}
}

// Failed creates a failed CheckResult.
func Failed(name, message string) CheckResult {
	return CheckResult{Name: name, Status: StatusFailed, Message: message}
}

// CheckSet holds a task's checks grouped by category. Slice order within
// a category is the order the checks were produced in and is preserved
// through reporting.
type CheckSet struct {
	OutputMatch []CheckResult `json:"output_match"`
	Thresholds  []CheckResult `json:"thresholds"`
	Assertions  []CheckResult `json:"assertions"`
	Constraints []CheckResult `json:"constraints"`
}

// ByCategory returns the checks for one category.
func (c *CheckSet) ByCategory(cat Category) []CheckResult {
	switch cat {
	case CategoryOutputMatch:
		return c.OutputMatch
	case CategoryThreshold:
		return c.Thresholds
	case CategoryAssertion:
		return c.Assertions
	case CategoryConstraint:
		return c.Constraints
	}
	return nil
}

// All returns every check across categories, in canonical category
// order. The returned slice is freshly allocated.
func (c *CheckSet) All() []CheckResult {
	all := make([]CheckResult, 0,
		len(c.OutputMatch)+len(c.Thresholds)+len(c.Assertions)+len(c.Constraints))
	all = append(all, c.OutputMatch...)
	all = append(all, c.Thresholds...)
	all = append(all, c.Assertions...)
	all = append(all, c.Constraints...)
	return all
}

// Findings is the complete evaluation result for one task. It is
// created fresh per evaluation call and immutable once returned.
type Findings struct {
	// TaskID identifies the evaluated task.
	TaskID string `json:"task_id"`

	// OverallStatus is the aggregated verdict across all checks.
	OverallStatus OverallStatus `json:"overall_status"`

	// Checks holds the individual results grouped by category.
	Checks CheckSet `json:"checks"`

	// Scores maps score names to computed values. Ratios are in [0,1];
	// safety_violations is a raw count.
	Scores map[string]float64 `json:"scores"`
}

// Overall derives the aggregate verdict from a set of checks: failed if
// any check failed, passed_with_warnings if any warned, else passed.
func Overall(checks []CheckResult) OverallStatus {
	status := OverallPassed
	for _, c := range checks {
		switch c.Status {
		case StatusFailed:
			return OverallFailed
		case StatusWarning:
			status = OverallWithWarnings
		}
	}
	return status
}
