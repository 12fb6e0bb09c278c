// Package domain contains pure, dependency-free domain models and types
// for the evaluation engine.
package domain

import "encoding/json"

// CTA represents a call-to-action embedded in a message, such as a
// prompt to book a tour or confirm a renewal. Only Type participates in
// comparison; Label and URL are carried for reporting.
type CTA struct {
	// Type identifies the kind of action requested (e.g. "book_tour").
	Type string `json:"type"`

	// Label is the human-readable text attached to the action.
	Label string `json:"label,omitempty"`

	// URL is the link backing the action, when one exists.
	URL string `json:"url,omitempty"`
}

// NextAction describes the follow-up step an agent schedules after a
// message, such as a reminder or a handoff to a human.
type NextAction struct {
	// Type identifies the kind of follow-up (e.g. "schedule_followup").
	Type string `json:"type"`

	// Value carries type-specific detail, such as a delay or queue name.
	Value string `json:"value,omitempty"`
}

// Message is a single outbound message on some channel. Subject and Body
// are pointers because null is meaningful: a nil Body represents a
// correctly withheld message (opt-out or no-contact scenario), which is
// distinct from an empty one.
type Message struct {
	// Channel names the delivery channel ("email", "sms", "none").
	Channel string `json:"channel,omitempty"`

	// Subject is the subject line for email-like channels.
	Subject *string `json:"subject,omitempty"`

	// Body is the message text, or nil when no message is sent.
	Body *string `json:"body,omitempty"`

	// CTA is the primary call-to-action, if any.
	CTA *CTA `json:"cta,omitempty"`
}

// Expected is the reference output a task is graded against.
type Expected struct {
	NextMessage *Message    `json:"next_message,omitempty"`
	NextAction  *NextAction `json:"next_action,omitempty"`
}

// Profile holds the recipient attributes available for personalization.
// Every field is optional; the personalization score denominator counts
// only the fields that are present.
type Profile struct {
	FirstName       string   `json:"first_name,omitempty"`
	AmenityInterest []string `json:"amenity_interest,omitempty"`
	CityInterest    string   `json:"city_interest,omitempty"`
	Unit            string   `json:"unit,omitempty"`
}

// Input is the free-form task input the agent was invoked with. Only the
// fields the rule engine interprets are modeled; everything else rides
// along in Extra.
type Input struct {
	// Language is the recipient's language code; empty means the default.
	Language string `json:"language,omitempty"`

	// Profile carries recipient attributes for personalization scoring.
	Profile Profile `json:"profile,omitempty"`

	// Unit is the unit number when it is recorded at the input level
	// rather than inside the profile.
	Unit string `json:"unit,omitempty"`

	// Extra preserves input fields the engine does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

// Assertions declares the behavioral expectations for a task beyond
// textual similarity: states the run must have reached, and content
// constraints the produced message must satisfy.
type Assertions struct {
	// RequiredStates names states the agent run is expected to have
	// satisfied (e.g. "consent_verified").
	RequiredStates []string `json:"required_states,omitempty"`

	// Constraints maps constraint names to their declared values.
	// Values are bool for toggles (include_opt_out_instructions) or
	// string for parameterized rules (primary_cta).
	Constraints map[string]any `json:"constraints,omitempty"`
}

// Recognized threshold keys. Directionality is fixed per key: latency
// and safety violations are upper bounds, scores are lower bounds.
const (
	ThresholdLatencyMs           = "p95_latency_ms"
	ThresholdPersonalizationMin  = "personalization_score_min"
	ThresholdLocaleAccuracyMin   = "locale_accuracy_min"
	ThresholdSafetyViolationsMax = "safety_violations_max"
)

// EvalSpec is one test case: the task identity, the context the agent
// ran with, and everything the evaluator grades against. All fields
// except TaskID are optional; an absent sub-mapping means no checks of
// that kind apply.
type EvalSpec struct {
	// TaskID uniquely identifies this task within a run.
	TaskID string `json:"task_id" validate:"required"`

	// Persona classifies the recipient (prospect vs resident). The
	// engine passes it through except for the resident-only unit-number
	// personalization point.
	Persona string `json:"persona,omitempty"`

	// LifecycleStage tags where the recipient sits in the funnel.
	// Uninterpreted by the engine.
	LifecycleStage string `json:"lifecycle_stage,omitempty"`

	// Consent maps channel name to opt-in status.
	Consent map[string]bool `json:"consent,omitempty"`

	// ChannelPreferences lists channels in priority order. The engine
	// validates channels actually used, never selects them.
	ChannelPreferences []string `json:"channel_preferences,omitempty"`

	// Input is the task input the agent received.
	Input Input `json:"input,omitempty"`

	// Assertions declares required states and content constraints.
	Assertions Assertions `json:"assertions,omitempty"`

	// Thresholds maps threshold keys to declared limits. Values stay
	// untyped so a non-numeric value becomes a failed check rather than
	// a decode error for the whole record.
	Thresholds map[string]any `json:"thresholds,omitempty"`

	// Expected is the reference output.
	Expected Expected `json:"expected,omitempty"`

	// Extra preserves unknown top-level fields for round-tripping.
	Extra map[string]json.RawMessage `json:"-"`
}

// UnitNumber returns the task's unit number, preferring the profile
// field over the input-level one.
func (s *EvalSpec) UnitNumber() string {
	if s.Input.Profile.Unit != "" {
		return s.Input.Profile.Unit
	}
	return s.Input.Unit
}

// ConsentFor reports whether the recipient has opted in to the given
// channel. Absent channels count as not opted in.
func (s *EvalSpec) ConsentFor(channel string) bool {
	return s.Consent[channel]
}

// AgentOutput is the actual result produced for one task.
type AgentOutput struct {
	// NextMessage is the message the agent produced, if any.
	NextMessage *Message `json:"next_message,omitempty"`

	// NextAction is the follow-up the agent scheduled, if any.
	NextAction *NextAction `json:"next_action,omitempty"`

	// States lists the named states the upstream run claims to have
	// satisfied, used to verify required_states assertions.
	States []string `json:"states,omitempty"`
}

// HasState reports whether the run recorded the named state.
func (o *AgentOutput) HasState(name string) bool {
	for _, s := range o.States {
		if s == name {
			return true
		}
	}
	return false
}

// Metrics carries externally measured observations for one task. Fields
// are pointers so an absent measurement is distinguishable from zero;
// any absent score is computed by the scorer instead of trusted blindly.
type Metrics struct {
	LatencyMs            *float64 `json:"latency_ms,omitempty"`
	PersonalizationScore *float64 `json:"personalization_score,omitempty"`
	LocaleAccuracy       *float64 `json:"locale_accuracy,omitempty"`
	SafetyViolations     *float64 `json:"safety_violations,omitempty"`
}
