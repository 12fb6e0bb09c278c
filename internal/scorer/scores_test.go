package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func mustNew(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultLexicon())
	require.NoError(t, err)
	return s
}

func outputWithBody(channel, body string) *domain.AgentOutput {
	return &domain.AgentOutput{
		NextMessage: &domain.Message{Channel: channel, Body: &body},
	}
}

func TestPersonalizationScore(t *testing.T) {
	tests := []struct {
		name     string
		spec     *domain.EvalSpec
		output   *domain.AgentOutput
		expected float64
	}{
		{
			name:     "empty profile is vacuously satisfied",
			spec:     &domain.EvalSpec{TaskID: "t"},
			output:   outputWithBody("sms", "Hi there"),
			expected: 1.0,
		},
		{
			name: "first name and amenity hit, city missed",
			spec: &domain.EvalSpec{
				TaskID: "t",
				Input: domain.Input{Profile: domain.Profile{
					FirstName:       "Sam",
					AmenityInterest: []string{"gym", "pool"},
					CityInterest:    "Austin",
				}},
			},
			output:   outputWithBody("sms", "Hi Sam, our gym is open 24/7"),
			expected: 2.0 / 3.0,
		},
		{
			name: "case-folded first name counts",
			spec: &domain.EvalSpec{
				TaskID: "t",
				Input:  domain.Input{Profile: domain.Profile{FirstName: "Sam"}},
			},
			output:   outputWithBody("sms", "hi sam!"),
			expected: 1.0,
		},
		{
			name: "unit counts for residents",
			spec: &domain.EvalSpec{
				TaskID:  "t",
				Persona: "resident",
				Input:   domain.Input{Profile: domain.Profile{Unit: "4B"}},
			},
			output:   outputWithBody("sms", "Your package for unit 4B has arrived"),
			expected: 1.0,
		},
		{
			name: "unit not applicable for prospects",
			spec: &domain.EvalSpec{
				TaskID:  "t",
				Persona: "prospect",
				Input: domain.Input{Profile: domain.Profile{
					FirstName: "Sam",
					Unit:      "4B",
				}},
			},
			output:   outputWithBody("sms", "Hi Sam"),
			expected: 1.0,
		},
		{
			name: "nil body earns nothing",
			spec: &domain.EvalSpec{
				TaskID: "t",
				Input:  domain.Input{Profile: domain.Profile{FirstName: "Sam"}},
			},
			output:   &domain.AgentOutput{},
			expected: 0.0,
		},
	}

	s := mustNew(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.personalizationScore(tt.spec, tt.output)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestLocaleAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		language string
		body     string
		expected float64
	}{
		{
			name:     "default language is always accurate",
			language: "en",
			body:     "Hello Sam, want a tour?",
			expected: 1.0,
		},
		{
			name:     "no declared language means default",
			language: "",
			body:     "Hello Sam",
			expected: 1.0,
		},
		{
			name:     "marker-dense spanish capped at one",
			language: "es",
			body:     "Hola Sam, gracias por tu visita",
			expected: 1.0,
		},
		{
			name:     "no markers at all",
			language: "es",
			body:     "Hello Sam please respond to this message now",
			expected: 0.0,
		},
		{
			// 1 hit over 10 words: 1 / (10 * 0.3) = 0.333…
			name:     "sparse markers score fractionally",
			language: "es",
			body:     "hola one two three four five six seven eight nine",
			expected: 1.0 / 3.0,
		},
		{
			name:     "punctuation stripped before matching",
			language: "es",
			body:     "¿Quieres? ¡Gracias!",
			expected: 1.0,
		},
	}

	s := mustNew(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &domain.EvalSpec{TaskID: "t", Input: domain.Input{Language: tt.language}}
			got := s.localeAccuracy(spec, outputWithBody("sms", tt.body))
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestLocaleAccuracy_NilBody(t *testing.T) {
	s := mustNew(t)
	spec := &domain.EvalSpec{TaskID: "t", Input: domain.Input{Language: "es"}}
	assert.Equal(t, 1.0, s.localeAccuracy(spec, &domain.AgentOutput{}))
}

func TestSafetyViolations(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"clean body", "Hi Sam, welcome to the building!", 0},
		{"one violation", "Act now to reserve your spot", 1},
		{"repeated phrase counts each occurrence", "Act now! Really, act now.", 2},
		{"multiple phrases", "Guaranteed approval, no credit check!", 2},
	}

	s := mustNew(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.safetyViolations(outputWithBody("sms", tt.body)))
		})
	}
}

func TestBodySimilarityScore(t *testing.T) {
	s := mustNew(t)

	tests := []struct {
		name     string
		expBody  *string
		actBody  *string
		expected float64
	}{
		{"identical", strPtr("Hi Sam, welcome!"), strPtr("Hi Sam, welcome!"), 1.0},
		{"both withheld", nil, nil, 1.0},
		{"only one withheld", strPtr("Hi"), nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &domain.EvalSpec{
				TaskID:   "t",
				Expected: domain.Expected{NextMessage: &domain.Message{Channel: "sms", Body: tt.expBody}},
			}
			output := &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: tt.actBody},
			}
			assert.InDelta(t, tt.expected, s.bodySimilarity(spec, output), 1e-9)
		})
	}
}

func TestComputeScores_SuppliedMetricsWin(t *testing.T) {
	s := mustNew(t)
	spec := &domain.EvalSpec{
		TaskID: "t",
		Input:  domain.Input{Profile: domain.Profile{FirstName: "Sam"}},
	}
	output := outputWithBody("sms", "Hi Sam")

	scores := s.computeScores(spec, output, &domain.Metrics{
		PersonalizationScore: floatPtr(0.25),
		SafetyViolations:     floatPtr(3),
	})

	assert.InDelta(t, 0.25, scores[ScorePersonalization], 1e-9, "supplied score wins")
	assert.InDelta(t, 3, scores[ScoreSafety], 1e-9)
	assert.InDelta(t, 1.0, scores[ScoreLocaleAccuracy], 1e-9, "omitted score computed")
}

func TestComputeScores_AllComputedWhenMetricsNil(t *testing.T) {
	s := mustNew(t)
	spec := &domain.EvalSpec{TaskID: "t"}
	scores := s.computeScores(spec, outputWithBody("sms", "hello"), nil)

	for _, name := range []string{ScoreBodySimilarity, ScorePersonalization, ScoreLocaleAccuracy, ScoreSafety} {
		assert.Contains(t, scores, name)
	}
}
