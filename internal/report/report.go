// Package report renders evaluation findings for humans and machines:
// summary counts, a per-task plain-text report, and a detailed
// expected-vs-actual comparison view.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// Status symbols for individual checks and task verdicts. Kept in one
// table so every call site renders the same glyphs.
var (
	checkGlyphs = map[domain.Status]string{
		domain.StatusPassed:  "✓",
		domain.StatusWarning: "⚠",
		domain.StatusFailed:  "✗",
	}

	overallGlyphs = map[domain.OverallStatus]string{
		domain.OverallPassed:       "✅",
		domain.OverallWithWarnings: "⚠️",
		domain.OverallFailed:       "❌",
	}

	categoryTitles = map[domain.Category]string{
		domain.CategoryOutputMatch: "Output Match Checks",
		domain.CategoryThreshold:   "Threshold Checks",
		domain.CategoryAssertion:   "Assertion Checks",
		domain.CategoryConstraint:  "Constraint Checks",
	}
)

// Summary holds the aggregate counts for one evaluation run.
type Summary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Warnings int     `json:"passed_with_warnings"`
	Failed   int     `json:"failed"`
	PassRate float64 `json:"pass_rate"`
}

// Summarize counts findings by overall status. Pass rate counts clean
// passes only; warnings are not passes for rate purposes.
func Summarize(findings []*domain.Findings) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.OverallStatus {
		case domain.OverallPassed:
			s.Passed++
		case domain.OverallWithWarnings:
			s.Warnings++
		case domain.OverallFailed:
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total)
	}
	return s
}

// WriteFindingsJSON writes the machine-readable findings enumeration:
// an indented JSON array in input order.
func WriteFindingsJSON(w io.Writer, findings []*domain.Findings) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(findings); err != nil {
		return fmt.Errorf("failed to encode findings: %w", err)
	}
	return nil
}

// Renderer produces the plain-text report. Color is off by default so
// file output stays byte-stable; the CLI turns it on for terminals.
type Renderer struct {
	useColor bool
}

// NewRenderer creates a Renderer.
func NewRenderer(useColor bool) *Renderer {
	return &Renderer{useColor: useColor}
}

// Render produces the full evaluation report: summary block followed by
// one section per task, in input order.
func (r *Renderer) Render(findings []*domain.Findings) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("EVALUATION REPORT\n")
	b.WriteString(rule + "\n\n")

	s := Summarize(findings)
	fmt.Fprintf(&b, "Total Tasks: %d\n", s.Total)
	fmt.Fprintf(&b, "%s Passed: %d\n", overallGlyphs[domain.OverallPassed], s.Passed)
	fmt.Fprintf(&b, "%s Passed with Warnings: %d\n", overallGlyphs[domain.OverallWithWarnings], s.Warnings)
	fmt.Fprintf(&b, "%s Failed: %d\n\n", overallGlyphs[domain.OverallFailed], s.Failed)

	for _, f := range findings {
		r.renderTask(&b, f)
	}

	b.WriteString(rule + "\n")
	return b.String()
}

func (r *Renderer) renderTask(b *strings.Builder, f *domain.Findings) {
	b.WriteString(thinRule + "\n")
	fmt.Fprintf(b, "%s Task: %s (%s)\n",
		overallGlyphs[f.OverallStatus], f.TaskID, strings.ToUpper(string(f.OverallStatus)))
	b.WriteString(thinRule + "\n")

	for _, cat := range domain.Categories {
		checks := f.Checks.ByCategory(cat)
		if len(checks) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n%s:\n", categoryTitles[cat])
		for _, check := range checks {
			fmt.Fprintf(b, "  %s %s\n", r.glyph(check.Status), check.Message)
		}
	}

	if len(f.Scores) > 0 {
		b.WriteString("\nScores:\n")
		names := make([]string, 0, len(f.Scores))
		for name := range f.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(b, "  • %s: %.2f\n", name, f.Scores[name])
		}
	}
	b.WriteString("\n")
}

// SummaryLine renders the one-line status used for per-task progress
// output.
func (r *Renderer) SummaryLine(f *domain.Findings) string {
	return fmt.Sprintf("%s %s: %s",
		overallGlyphs[f.OverallStatus], f.TaskID, strings.ToUpper(string(f.OverallStatus)))
}

func (r *Renderer) glyph(status domain.Status) string {
	g := checkGlyphs[status]
	if !r.useColor {
		return g
	}
	switch status {
	case domain.StatusPassed:
		return color.GreenString(g)
	case domain.StatusWarning:
		return color.YellowString(g)
	default:
		return color.RedString(g)
	}
}
