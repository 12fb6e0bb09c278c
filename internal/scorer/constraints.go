package scorer

import (
	"fmt"
	"sort"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/similarity"
)

// constraintFn validates one declared constraint. It may emit zero
// checks (constraint not applicable, e.g. no message was sent) or one.
type constraintFn func(s *Scorer, value any, spec *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult

// newConstraintRegistry maps declared constraint keys to their
// validators. Unregistered keys fall through to a warning, which keeps
// test-case authoring forward-compatible.
func newConstraintRegistry() map[string]constraintFn {
	return map[string]constraintFn{
		"include_opt_out_instructions": checkOptOutInstructions,
		"primary_cta":                  checkPrimaryCTA,
		"locale_applied":               checkLocaleApplied,
		// respect_consent is accepted as a declared key but enforced
		// unconditionally by validateConstraints; the registry entry
		// only prevents an unknown-key warning.
		"respect_consent": func(*Scorer, any, *domain.EvalSpec, *domain.AgentOutput) []domain.CheckResult {
			return nil
		},
	}
}

// validateConstraints runs the declared constraints in sorted key order,
// then the implicit consent check. respect_consent is enforced whenever
// the record declares consent and a message was produced, whether or not
// the key was written down: sending without opt-in is a compliance
// failure no matter what the test author declared.
func (s *Scorer) validateConstraints(spec *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult {
	var checks []domain.CheckResult

	keys := make([]string, 0, len(spec.Assertions.Constraints))
	for key := range spec.Assertions.Constraints {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := spec.Assertions.Constraints[key]
		fn, ok := s.constraints[key]
		if !ok {
			checks = append(checks, domain.Warning("constraint_"+key,
				fmt.Sprintf("unknown constraint %q skipped", key)))
			continue
		}
		checks = append(checks, fn(s, value, spec, output)...)
	}

	checks = append(checks, s.checkRespectConsent(spec, output)...)
	return checks
}

// checkOptOutInstructions requires opt-out language appropriate to the
// channel class: a keyword-reply token for SMS-like channels, an
// unsubscribe phrase for email-like ones. Not applicable when no
// message was sent or when the constraint is declared false.
func checkOptOutInstructions(s *Scorer, value any, spec *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult {
	enabled, ok := value.(bool)
	if !ok {
		return []domain.CheckResult{domain.Failed("constraint_opt_out",
			fmt.Sprintf("constraint include_opt_out_instructions: value %v is not boolean", value))}
	}
	if !enabled {
		return nil
	}

	msg := output.NextMessage
	if domain.NoMessage(msg) || msg.Body == nil {
		return nil
	}
	body := *msg.Body

	switch {
	case domain.IsSMSLike(msg.Channel):
		for _, token := range s.lexicon.smsTokensFor(spec.Input.Language) {
			if similarity.ContainsFold(body, token) {
				return []domain.CheckResult{domain.Passed("constraint_opt_out_sms",
					fmt.Sprintf("sms opt-out token %q present", token))}
			}
		}
		return []domain.CheckResult{domain.Failed("constraint_opt_out_sms",
			"sms opt-out token missing")}

	case domain.IsEmailLike(msg.Channel):
		for _, phrase := range s.lexicon.EmailOptOutPhrases {
			if similarity.ContainsFold(body, phrase) {
				return []domain.CheckResult{domain.Passed("constraint_opt_out_email",
					"email opt-out instructions present")}
			}
		}
		return []domain.CheckResult{domain.Failed("constraint_opt_out_email",
			"email opt-out instructions missing")}
	}

	return nil
}

// checkPrimaryCTA requires the actual cta.type to equal the declared
// value; a mismatch or missing CTA is a failure.
func checkPrimaryCTA(_ *Scorer, value any, _ *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult {
	const name = "constraint_primary_cta"

	want, ok := value.(string)
	if !ok {
		return []domain.CheckResult{domain.Failed(name,
			fmt.Sprintf("constraint primary_cta: value %v is not a string", value))}
	}

	msg := output.NextMessage
	if msg == nil || msg.CTA == nil {
		return []domain.CheckResult{domain.Failed(name,
			fmt.Sprintf("primary cta: expected %q, none produced", want))}
	}

	result := fmt.Sprintf("primary cta: expected %q, got %q", want, msg.CTA.Type)
	if msg.CTA.Type != want {
		return []domain.CheckResult{domain.Failed(name, result)}
	}
	return []domain.CheckResult{domain.Passed(name, result)}
}

// checkLocaleApplied requires at least one marker word of the task's
// language in the body. This is pass/fail, sharper than the locale
// accuracy score: a declared locale with zero recognizable words is a
// failure even if the score threshold was lenient. Nothing to check for
// the default language or when no message was sent.
func checkLocaleApplied(s *Scorer, value any, spec *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult {
	const name = "constraint_locale_applied"

	enabled, ok := value.(bool)
	if !ok {
		return []domain.CheckResult{domain.Failed(name,
			fmt.Sprintf("constraint locale_applied: value %v is not boolean", value))}
	}
	if !enabled {
		return nil
	}

	language := spec.Input.Language
	if language == "" || language == s.lexicon.DefaultLanguage {
		return nil
	}

	msg := output.NextMessage
	if domain.NoMessage(msg) || msg.Body == nil {
		return nil
	}

	if s.markerWordPresent(language, *msg.Body) {
		return []domain.CheckResult{domain.Passed(name,
			fmt.Sprintf("locale %q applied", language))}
	}
	return []domain.CheckResult{domain.Failed(name,
		fmt.Sprintf("no %q marker words found in body", language))}
}

// checkRespectConsent is the implicit safety-critical constraint: a
// message on a channel without opt-in fails regardless of anything else.
// It only applies when a message was actually produced and the record
// declares a consent mapping; an absent mapping marks no channel as
// denied, so there is nothing to enforce.
func (s *Scorer) checkRespectConsent(spec *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult {
	const name = "constraint_respect_consent"

	if len(spec.Consent) == 0 {
		return nil
	}

	msg := output.NextMessage
	if domain.NoMessage(msg) || msg.Body == nil {
		return nil
	}

	channel := domain.ChannelOf(msg)
	if spec.ConsentFor(channel) {
		return []domain.CheckResult{domain.Passed(name,
			fmt.Sprintf("consent respected: channel %q opted in", channel))}
	}
	return []domain.CheckResult{domain.Failed(name,
		fmt.Sprintf("message sent on channel %q without opt-in", channel))}
}
