package scorer

import (
	"fmt"
	"sort"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

// assertionFn derives whether a required state was satisfied when the
// upstream run did not report observed states.
type assertionFn func(s *Scorer, spec *domain.EvalSpec, output *domain.AgentOutput) domain.CheckResult

// newAssertionRegistry builds the named-predicate fallbacks for
// required_states checking. Keys without a predicate are graded from
// observed states alone.
func newAssertionRegistry() map[string]assertionFn {
	return map[string]assertionFn{
		"consent_verified": checkConsentVerified,

		// These states can only be confirmed by run instrumentation.
		// Without an observed-states list they degrade to warnings so a
		// missing trace is visible instead of assumed fine.
		"fair_housing_check_passed": requiresTrace("fair_housing_check_passed"),
		"brand_style_applied":       requiresTrace("brand_style_applied"),
		"renewal_offer_loaded":      requiresTrace("renewal_offer_loaded"),
	}
}

// validateAssertions grades each required state. When the output carries
// an observed-states list, membership decides. Otherwise a registered
// predicate derives the answer; unknown states are skipped with a
// warning, never fatally.
func (s *Scorer) validateAssertions(spec *domain.EvalSpec, output *domain.AgentOutput) []domain.CheckResult {
	var checks []domain.CheckResult

	for _, state := range spec.Assertions.RequiredStates {
		name := "assertion_" + state

		if len(output.States) > 0 {
			if output.HasState(state) {
				checks = append(checks, domain.Passed(name,
					fmt.Sprintf("state %q observed", state)))
			} else {
				checks = append(checks, domain.Failed(name,
					fmt.Sprintf("state %q not observed", state)))
			}
			continue
		}

		if fn, ok := s.assertions[state]; ok {
			checks = append(checks, fn(s, spec, output))
			continue
		}

		checks = append(checks, domain.Warning(name,
			fmt.Sprintf("unknown assertion %q skipped", state)))
	}

	return checks
}

// checkConsentVerified derives consent verification from the channel the
// agent actually used: sending on a channel requires that channel's
// opt-in; sending nothing is correct when every channel was denied.
func checkConsentVerified(_ *Scorer, spec *domain.EvalSpec, output *domain.AgentOutput) domain.CheckResult {
	const name = "assertion_consent_verified"

	var msg *domain.Message
	if output != nil {
		msg = output.NextMessage
	}

	if domain.NoMessage(msg) {
		channels := make([]string, 0, len(spec.Consent))
		for channel, optedIn := range spec.Consent {
			if optedIn {
				channels = append(channels, channel)
			}
		}
		if len(channels) > 0 {
			sort.Strings(channels)
			return domain.Warning(name,
				fmt.Sprintf("no message sent although %q was opted in", channels[0]))
		}
		return domain.Passed(name, "no message sent, all channels denied")
	}

	channel := domain.ChannelOf(msg)
	if spec.ConsentFor(channel) {
		return domain.Passed(name, fmt.Sprintf("channel %q has opt-in", channel))
	}
	return domain.Failed(name, fmt.Sprintf("channel %q used without opt-in", channel))
}

func requiresTrace(state string) assertionFn {
	return func(_ *Scorer, _ *domain.EvalSpec, _ *domain.AgentOutput) domain.CheckResult {
		return domain.Warning("assertion_"+state,
			fmt.Sprintf("state %q requires an observed-states trace, none supplied", state))
	}
}
