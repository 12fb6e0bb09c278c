package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/similarity"
)

// RenderTaskDetail produces the side-by-side comparison view for one
// task: channel, subject, body (with diff when they differ), CTA, next
// action, and the declared thresholds. Used by the CLI's per-task
// report mode.
func (r *Renderer) RenderTaskDetail(spec *domain.EvalSpec, output *domain.AgentOutput) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "TASK: %s\n", spec.TaskID)
	b.WriteString(rule + "\n\n")

	expMsg := spec.Expected.NextMessage
	var actMsg *domain.Message
	if output != nil {
		actMsg = output.NextMessage
	}

	b.WriteString("NEXT MESSAGE\n")
	b.WriteString(thinRule + "\n")

	fmt.Fprintf(&b, "\nChannel:\n")
	fmt.Fprintf(&b, "  Expected: %s\n", domain.ChannelOf(expMsg))
	fmt.Fprintf(&b, "  Actual:   %s\n", domain.ChannelOf(actMsg))
	if domain.ChannelOf(expMsg) == domain.ChannelOf(actMsg) {
		b.WriteString("  Status:   MATCH\n")
	} else {
		b.WriteString("  Status:   MISMATCH\n")
	}

	if subjectPresent(expMsg) || subjectPresent(actMsg) {
		b.WriteString("\nSubject:\n")
		fmt.Fprintf(&b, "  Expected: %s\n", subjectOrNull(expMsg))
		fmt.Fprintf(&b, "  Actual:   %s\n", subjectOrNull(actMsg))
		if subjectPresent(expMsg) && subjectPresent(actMsg) {
			sim := similarity.Ratio(*expMsg.Subject, *actMsg.Subject)
			fmt.Fprintf(&b, "  Similarity: %.2f%%\n", sim*100)
		}
	}

	b.WriteString("\nBody:\n")
	expBody := bodyPtr(expMsg)
	actBody := bodyPtr(actMsg)
	switch {
	case expBody == nil && actBody == nil:
		b.WriteString("  Both: null (no message)\n")
	default:
		fmt.Fprintf(&b, "  Expected:\n%s\n", indentBody(expBody))
		fmt.Fprintf(&b, "  Actual:\n%s\n", indentBody(actBody))
		if expBody != nil && actBody != nil {
			sim := similarity.Ratio(*expBody, *actBody)
			fmt.Fprintf(&b, "  Similarity: %.2f%%\n", sim*100)
			if sim < 1.0 {
				b.WriteString("\n  Differences:\n")
				for _, line := range lineDiff(*expBody, *actBody) {
					fmt.Fprintf(&b, "    %s\n", line)
				}
			}
		}
	}

	if ctaOf(expMsg) != nil || ctaOf(actMsg) != nil {
		b.WriteString("\nCTA:\n")
		fmt.Fprintf(&b, "  Expected: %s\n", ctaString(ctaOf(expMsg)))
		fmt.Fprintf(&b, "  Actual:   %s\n", ctaString(ctaOf(actMsg)))
	}

	b.WriteString("\nNEXT ACTION\n")
	b.WriteString(thinRule + "\n")
	fmt.Fprintf(&b, "  Expected: %s\n", actionString(spec.Expected.NextAction))
	var actAction *domain.NextAction
	if output != nil {
		actAction = output.NextAction
	}
	fmt.Fprintf(&b, "  Actual:   %s\n", actionString(actAction))

	if len(spec.Thresholds) > 0 {
		b.WriteString("\nTHRESHOLDS\n")
		b.WriteString(thinRule + "\n")
		keys := make([]string, 0, len(spec.Thresholds))
		for key := range spec.Thresholds {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "  • %s: %v\n", key, spec.Thresholds[key])
		}
	}

	b.WriteString("\n" + rule + "\n")
	return b.String()
}

func subjectPresent(m *domain.Message) bool { return m != nil && m.Subject != nil }

func subjectOrNull(m *domain.Message) string {
	if !subjectPresent(m) {
		return "null"
	}
	return *m.Subject
}

func bodyPtr(m *domain.Message) *string {
	if m == nil {
		return nil
	}
	return m.Body
}

func indentBody(body *string) string {
	if body == nil {
		return "    null"
	}
	lines := strings.Split(*body, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}

func ctaOf(m *domain.Message) *domain.CTA {
	if m == nil {
		return nil
	}
	return m.CTA
}

func ctaString(cta *domain.CTA) string {
	if cta == nil {
		return "null"
	}
	if cta.Label != "" {
		return fmt.Sprintf("{type: %s, label: %s}", cta.Type, cta.Label)
	}
	return fmt.Sprintf("{type: %s}", cta.Type)
}

func actionString(a *domain.NextAction) string {
	if a == nil {
		return "null"
	}
	if a.Value != "" {
		return fmt.Sprintf("{type: %s, value: %s}", a.Type, a.Value)
	}
	return fmt.Sprintf("{type: %s}", a.Type)
}
