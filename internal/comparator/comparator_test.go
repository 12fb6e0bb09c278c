package comparator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/scorer"
)

func strPtr(s string) *string { return &s }

func mustNew(t *testing.T) *Comparator {
	t.Helper()
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	return c
}

func findCheck(t *testing.T, checks []domain.CheckResult, name string) domain.CheckResult {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found in %v", name, checks)
	return domain.CheckResult{}
}

func hasCheck(checks []domain.CheckResult, name string) bool {
	for _, c := range checks {
		if c.Name == name {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{
			name:      "default configuration",
			config:    DefaultConfig(),
			wantError: false,
		},
		{
			name:      "zero pass threshold",
			config:    Config{PassThreshold: 0, WarnThreshold: 0},
			wantError: true,
		},
		{
			name:      "warn above pass",
			config:    Config{PassThreshold: 0.7, WarnThreshold: 0.85},
			wantError: true,
		},
		{
			name:      "threshold above one",
			config:    Config{PassThreshold: 1.2, WarnThreshold: 0.5},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, c)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, c)
			}
		})
	}
}

func TestCompare_Channel(t *testing.T) {
	c := mustNew(t)

	tests := []struct {
		name     string
		expected domain.Expected
		actual   *domain.AgentOutput
		status   domain.Status
	}{
		{
			name: "matching channels",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("hi")},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("hi")},
			},
			status: domain.StatusPassed,
		},
		{
			name: "mismatched channels",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("hi")},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "email", Body: strPtr("hi")},
			},
			status: domain.StatusFailed,
		},
		{
			name:     "both withheld",
			expected: domain.Expected{NextMessage: &domain.Message{Channel: domain.ChannelNone}},
			actual:   &domain.AgentOutput{},
			status:   domain.StatusPassed,
		},
		{
			name: "expected message but output entirely absent",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("hi")},
			},
			actual: nil,
			status: domain.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := c.Compare(tt.expected, tt.actual)
			assert.Equal(t, tt.status, findCheck(t, checks, "channel_match").Status)
		})
	}
}

func TestCompare_Subject(t *testing.T) {
	c := mustNew(t)

	// 20 runes, 3 edits: similarity exactly 0.85.
	boundarySubject := "aaaaaaaaaaaaaaaaabbb"

	tests := []struct {
		name       string
		expected   *domain.Message
		actual     *domain.Message
		wantCheck  bool
		wantStatus domain.Status
	}{
		{
			name:       "identical subject passes",
			expected:   &domain.Message{Channel: "email", Subject: strPtr("Welcome!"), Body: strPtr("b")},
			actual:     &domain.Message{Channel: "email", Subject: strPtr("Welcome!"), Body: strPtr("b")},
			wantCheck:  true,
			wantStatus: domain.StatusPassed,
		},
		{
			name:       "similarity on the pass boundary passes",
			expected:   &domain.Message{Channel: "email", Subject: strPtr("aaaaaaaaaaaaaaaaaaaa"), Body: strPtr("b")},
			actual:     &domain.Message{Channel: "email", Subject: strPtr(boundarySubject), Body: strPtr("b")},
			wantCheck:  true,
			wantStatus: domain.StatusPassed,
		},
		{
			name:       "mid similarity warns",
			expected:   &domain.Message{Channel: "email", Subject: strPtr("aaaaaaaaaa"), Body: strPtr("b")},
			actual:     &domain.Message{Channel: "email", Subject: strPtr("aaaaaaaabb"), Body: strPtr("b")},
			wantCheck:  true,
			wantStatus: domain.StatusWarning,
		},
		{
			name:       "dissimilar subject fails",
			expected:   &domain.Message{Channel: "email", Subject: strPtr("Welcome home"), Body: strPtr("b")},
			actual:     &domain.Message{Channel: "email", Subject: strPtr("xyz"), Body: strPtr("b")},
			wantCheck:  true,
			wantStatus: domain.StatusFailed,
		},
		{
			name:       "expected subject missing from output fails",
			expected:   &domain.Message{Channel: "email", Subject: strPtr("Welcome!"), Body: strPtr("b")},
			actual:     &domain.Message{Channel: "email", Body: strPtr("b")},
			wantCheck:  true,
			wantStatus: domain.StatusFailed,
		},
		{
			name:      "no subject check for sms",
			expected:  &domain.Message{Channel: "sms", Body: strPtr("b")},
			actual:    &domain.Message{Channel: "sms", Body: strPtr("b")},
			wantCheck: false,
		},
		{
			name:      "no subject check when none expected",
			expected:  &domain.Message{Channel: "email", Body: strPtr("b")},
			actual:    &domain.Message{Channel: "email", Subject: strPtr("Surprise"), Body: strPtr("b")},
			wantCheck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := c.Compare(
				domain.Expected{NextMessage: tt.expected},
				&domain.AgentOutput{NextMessage: tt.actual},
			)
			if !tt.wantCheck {
				assert.False(t, hasCheck(checks, "subject_match"))
				return
			}
			assert.Equal(t, tt.wantStatus, findCheck(t, checks, "subject_match").Status)
		})
	}
}

func TestCompare_Body(t *testing.T) {
	c := mustNew(t)

	tests := []struct {
		name       string
		expBody    *string
		actBody    *string
		wantName   string
		wantStatus domain.Status
	}{
		{
			name:       "identical bodies pass",
			expBody:    strPtr("Hi Sam, welcome!"),
			actBody:    strPtr("Hi Sam, welcome!"),
			wantName:   "body_similarity",
			wantStatus: domain.StatusPassed,
		},
		{
			name:       "both null passes",
			expBody:    nil,
			actBody:    nil,
			wantName:   "body_null_match",
			wantStatus: domain.StatusPassed,
		},
		{
			name:       "expected null actual present fails",
			expBody:    nil,
			actBody:    strPtr("surprise message"),
			wantName:   "body_similarity",
			wantStatus: domain.StatusFailed,
		},
		{
			name:       "expected present actual null fails",
			expBody:    strPtr("Hi Sam"),
			actBody:    nil,
			wantName:   "body_similarity",
			wantStatus: domain.StatusFailed,
		},
		{
			name:       "near match warns",
			expBody:    strPtr("aaaaaaaaaa"),
			actBody:    strPtr("aaaaaaaabb"),
			wantName:   "body_similarity",
			wantStatus: domain.StatusWarning,
		},
		{
			name:       "case matters",
			expBody:    strPtr("HI"),
			actBody:    strPtr("hi"),
			wantName:   "body_similarity",
			wantStatus: domain.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := c.Compare(
				domain.Expected{NextMessage: &domain.Message{Channel: "sms", Body: tt.expBody}},
				&domain.AgentOutput{NextMessage: &domain.Message{Channel: "sms", Body: tt.actBody}},
			)
			assert.Equal(t, tt.wantStatus, findCheck(t, checks, tt.wantName).Status)
		})
	}
}

func TestCompare_CTAAndNextAction(t *testing.T) {
	c := mustNew(t)

	tests := []struct {
		name       string
		expected   domain.Expected
		actual     *domain.AgentOutput
		checkName  string
		wantCheck  bool
		wantStatus domain.Status
	}{
		{
			name: "cta match",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b"), CTA: &domain.CTA{Type: "book_tour"}},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b"), CTA: &domain.CTA{Type: "book_tour"}},
			},
			checkName:  "cta_type_match",
			wantCheck:  true,
			wantStatus: domain.StatusPassed,
		},
		{
			name: "cta mismatch",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b"), CTA: &domain.CTA{Type: "book_tour"}},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b"), CTA: &domain.CTA{Type: "renew_lease"}},
			},
			checkName:  "cta_type_match",
			wantCheck:  true,
			wantStatus: domain.StatusFailed,
		},
		{
			name: "cta expected but missing",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b"), CTA: &domain.CTA{Type: "book_tour"}},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b")},
			},
			checkName:  "cta_type_match",
			wantCheck:  true,
			wantStatus: domain.StatusFailed,
		},
		{
			name: "no expected cta emits no check",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b")},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("b"), CTA: &domain.CTA{Type: "book_tour"}},
			},
			checkName: "cta_type_match",
			wantCheck: false,
		},
		{
			name: "next action match",
			expected: domain.Expected{
				NextAction: &domain.NextAction{Type: "schedule_followup"},
			},
			actual: &domain.AgentOutput{
				NextAction: &domain.NextAction{Type: "schedule_followup"},
			},
			checkName:  "next_action_type_match",
			wantCheck:  true,
			wantStatus: domain.StatusPassed,
		},
		{
			name: "next action expected but missing",
			expected: domain.Expected{
				NextAction: &domain.NextAction{Type: "schedule_followup"},
			},
			actual:     &domain.AgentOutput{},
			checkName:  "next_action_type_match",
			wantCheck:  true,
			wantStatus: domain.StatusFailed,
		},
		{
			name:      "no expected next action emits no check",
			expected:  domain.Expected{},
			actual:    &domain.AgentOutput{NextAction: &domain.NextAction{Type: "noop"}},
			checkName: "next_action_type_match",
			wantCheck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := c.Compare(tt.expected, tt.actual)
			if !tt.wantCheck {
				assert.False(t, hasCheck(checks, tt.checkName))
				return
			}
			assert.Equal(t, tt.wantStatus, findCheck(t, checks, tt.checkName).Status)
		})
	}
}

func TestCompare_IsPure(t *testing.T) {
	c := mustNew(t)
	expected := domain.Expected{
		NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi Sam")},
	}
	actual := &domain.AgentOutput{
		NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi Sam")},
	}

	first := c.Compare(expected, actual)
	second := c.Compare(expected, actual)
	assert.Equal(t, first, second)
}

func TestQuickScan(t *testing.T) {
	tests := []struct {
		name     string
		expected domain.Expected
		actual   *domain.AgentOutput
		want     []string
	}{
		{
			name: "clean sms",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi! Reply STOP to opt out.")},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi! Reply STOP to opt out.")},
			},
			want: nil,
		},
		{
			name: "sms missing stop",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi!")},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi!")},
			},
			want: []string{"sms missing opt-out 'STOP'"},
		},
		{
			name: "email missing opt-out and wrong channel",
			expected: domain.Expected{
				NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi")},
			},
			actual: &domain.AgentOutput{
				NextMessage: &domain.Message{Channel: "email", Body: strPtr("Hi")},
			},
			want: []string{
				`channel mismatch: expected "sms", got "email"`,
				"email missing opt-out instructions",
			},
		},
		{
			name:     "nothing produced, nothing expected",
			expected: domain.Expected{},
			actual:   nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuickScan(tt.expected, tt.actual))
		})
	}
}

// Every opt-out word the built-in lexicon accepts must satisfy the
// pre-check too, so the two vocabularies cannot drift apart.
func TestQuickScanVocabularyMatchesLexicon(t *testing.T) {
	lex := scorer.DefaultLexicon()

	smsExpected := domain.Expected{
		NextMessage: &domain.Message{Channel: "sms", Body: strPtr("x")},
	}
	for _, token := range lex.SMSOptOutTokens[lex.DefaultLanguage] {
		actual := &domain.AgentOutput{
			NextMessage: &domain.Message{Channel: "sms", Body: strPtr("Hi! Reply " + token + " to opt out.")},
		}
		assert.Empty(t, QuickScan(smsExpected, actual), "sms token %q", token)
	}

	emailExpected := domain.Expected{
		NextMessage: &domain.Message{Channel: "email", Body: strPtr("x")},
	}
	for _, phrase := range lex.EmailOptOutPhrases {
		actual := &domain.AgentOutput{
			NextMessage: &domain.Message{Channel: "email", Body: strPtr("Hi! To leave this list: " + phrase + ".")},
		}
		assert.Empty(t, QuickScan(emailExpected, actual), "email phrase %q", phrase)
	}
}
