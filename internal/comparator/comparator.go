// Package comparator implements structural and textual comparison of an
// agent's output against the expected output declared in an eval record.
package comparator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/similarity"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config defines the similarity cutoffs used for subject and body
// grading. A similarity at or above PassThreshold passes, at or above
// WarnThreshold warns, and anything below fails.
type Config struct {
	// PassThreshold is the minimum similarity graded as passed.
	PassThreshold float64 `yaml:"pass_threshold" json:"pass_threshold" validate:"gt=0,max=1"`

	// WarnThreshold is the minimum similarity graded as warning.
	// Must not exceed PassThreshold.
	WarnThreshold float64 `yaml:"warn_threshold" json:"warn_threshold" validate:"min=0,max=1"`
}

// DefaultConfig returns the standard grading cutoffs.
func DefaultConfig() Config {
	return Config{
		PassThreshold: 0.85,
		WarnThreshold: 0.70,
	}
}

// Comparator performs output-match checks. It holds no mutable state
// and is safe for concurrent use across tasks.
type Comparator struct {
	config Config
}

// New creates a Comparator with the given grading configuration.
// Returns an error if the configuration is invalid.
func New(config Config) (*Comparator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.WarnThreshold > config.PassThreshold {
		return nil, fmt.Errorf("%w: warn threshold %.2f exceeds pass threshold %.2f",
			domain.ErrInvalidConfiguration, config.WarnThreshold, config.PassThreshold)
	}
	return &Comparator{config: config}, nil
}

// Compare runs all output-match checks for one task and returns them in
// a fixed order: channel, subject, body, CTA, next action. It is a pure
// function of its inputs; a nil actual output is treated as an entirely
// absent result, which fails the individual comparisons rather than
// aborting.
func (c *Comparator) Compare(expected domain.Expected, actual *domain.AgentOutput) []domain.CheckResult {
	if actual == nil {
		actual = &domain.AgentOutput{}
	}

	var checks []domain.CheckResult

	expMsg := expected.NextMessage
	actMsg := actual.NextMessage

	checks = append(checks, c.checkChannel(expMsg, actMsg))
	if sub, ok := c.checkSubject(expMsg, actMsg); ok {
		checks = append(checks, sub)
	}
	checks = append(checks, c.checkBody(expMsg, actMsg))
	if cta, ok := c.checkCTA(expMsg, actMsg); ok {
		checks = append(checks, cta)
	}
	if act, ok := c.checkNextAction(expected.NextAction, actual.NextAction); ok {
		checks = append(checks, act)
	}

	return checks
}

func (c *Comparator) checkChannel(expMsg, actMsg *domain.Message) domain.CheckResult {
	expChannel := domain.ChannelOf(expMsg)
	actChannel := domain.ChannelOf(actMsg)

	msg := fmt.Sprintf("channel: expected %q, got %q", expChannel, actChannel)
	if expChannel != actChannel {
		return domain.Failed("channel_match", msg)
	}
	return domain.Passed("channel_match", msg)
}

// checkSubject applies only to email-like channels with a declared
// expected subject. The boolean reports whether a check was emitted.
func (c *Comparator) checkSubject(expMsg, actMsg *domain.Message) (domain.CheckResult, bool) {
	if expMsg == nil || !domain.IsEmailLike(expMsg.Channel) || expMsg.Subject == nil {
		return domain.CheckResult{}, false
	}
	if actMsg == nil || actMsg.Subject == nil {
		return domain.Failed("subject_match", "subject: expected one, none produced"), true
	}

	sim := similarity.Ratio(*expMsg.Subject, *actMsg.Subject)
	return c.grade("subject_match", fmt.Sprintf("subject similarity: %.2f%%", sim*100), sim), true
}

func (c *Comparator) checkBody(expMsg, actMsg *domain.Message) domain.CheckResult {
	var expBody, actBody *string
	if expMsg != nil {
		expBody = expMsg.Body
	}
	if actMsg != nil {
		actBody = actMsg.Body
	}

	switch {
	case expBody == nil && actBody == nil:
		return domain.Passed("body_null_match", "both bodies null (message correctly withheld)")
	case expBody == nil:
		return domain.Failed("body_similarity", "body: expected none, got one")
	case actBody == nil:
		return domain.Failed("body_similarity", "body: expected one, none produced")
	}

	sim := similarity.Ratio(*expBody, *actBody)
	return c.grade("body_similarity", fmt.Sprintf("body similarity: %.2f%%", sim*100), sim)
}

// checkCTA compares cta.type. No expected CTA means no check; an
// expected CTA with a missing or mismatched actual one fails.
func (c *Comparator) checkCTA(expMsg, actMsg *domain.Message) (domain.CheckResult, bool) {
	if expMsg == nil || expMsg.CTA == nil {
		return domain.CheckResult{}, false
	}
	if actMsg == nil || actMsg.CTA == nil {
		return domain.Failed("cta_type_match",
			fmt.Sprintf("cta type: expected %q, none produced", expMsg.CTA.Type)), true
	}

	msg := fmt.Sprintf("cta type: expected %q, got %q", expMsg.CTA.Type, actMsg.CTA.Type)
	if expMsg.CTA.Type != actMsg.CTA.Type {
		return domain.Failed("cta_type_match", msg), true
	}
	return domain.Passed("cta_type_match", msg), true
}

func (c *Comparator) checkNextAction(exp, act *domain.NextAction) (domain.CheckResult, bool) {
	if exp == nil {
		return domain.CheckResult{}, false
	}
	if act == nil {
		return domain.Failed("next_action_type_match",
			fmt.Sprintf("next action: expected %q, none produced", exp.Type)), true
	}

	msg := fmt.Sprintf("next action: expected %q, got %q", exp.Type, act.Type)
	if exp.Type != act.Type {
		return domain.Failed("next_action_type_match", msg), true
	}
	return domain.Passed("next_action_type_match", msg), true
}

// grade maps a similarity ratio onto the pass/warn/fail lattice.
// Threshold boundaries count toward the better status.
func (c *Comparator) grade(name, message string, sim float64) domain.CheckResult {
	switch {
	case sim >= c.config.PassThreshold:
		return domain.Passed(name, message)
	case sim >= c.config.WarnThreshold:
		return domain.Warning(name, message)
	default:
		return domain.Failed(name, message)
	}
}
