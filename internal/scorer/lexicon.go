package scorer

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon is the word-list configuration the rule engine scores against:
// language marker words, the safety denylist, and opt-out vocabulary.
// It is loaded once at startup and injected into the Scorer, never
// referenced as ambient state, so tests can substitute their own lists.
type Lexicon struct {
	// DefaultLanguage is the language assumed when a task declares none.
	// Locale accuracy is defined as 1.0 for this language.
	DefaultLanguage string `yaml:"default_language" validate:"required"`

	// MarkerWords maps a language code to words distinctive enough to
	// indicate the message was written in that language.
	MarkerWords map[string][]string `yaml:"marker_words" validate:"required"`

	// SafetyDenylist lists unsafe or non-compliant phrases. Every
	// occurrence in a message body counts as one violation.
	SafetyDenylist []string `yaml:"safety_denylist"`

	// SMSOptOutTokens maps a language code to the keyword-reply tokens
	// accepted as SMS opt-out instructions.
	SMSOptOutTokens map[string][]string `yaml:"sms_opt_out_tokens"`

	// EmailOptOutPhrases lists the phrases accepted as email
	// unsubscribe language.
	EmailOptOutPhrases []string `yaml:"email_opt_out_phrases"`
}

// DefaultLexicon returns the built-in lexicon: English default, Spanish
// marker words, and the standard opt-out and denylist vocabulary.
func DefaultLexicon() Lexicon {
	return Lexicon{
		DefaultLanguage: "en",
		MarkerWords: map[string][]string{
			"es": {"hola", "gracias", "por", "tu", "para", "quieres", "responde"},
		},
		SafetyDenylist: []string{
			"guaranteed approval",
			"no credit check",
			"act now",
			"urgent action required",
			"winner",
			"free money",
			"wire transfer",
			"limited time only",
		},
		SMSOptOutTokens: map[string][]string{
			"en": {"stop"},
			"es": {"stop", "alto"},
		},
		EmailOptOutPhrases: []string{"opt", "unsubscribe", "reply stop"},
	}
}

// LoadLexicon reads a lexicon from a YAML file. Decoding is strict so a
// misspelled key fails loudly instead of silently dropping a word list.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var lex Lexicon
	if err := decoder.Decode(&lex); err != nil {
		return Lexicon{}, fmt.Errorf("failed to decode lexicon (check for typos): %w", err)
	}

	if err := validate.Struct(lex); err != nil {
		return Lexicon{}, fmt.Errorf("lexicon validation failed: %w", err)
	}
	return lex, nil
}

// markersFor returns the marker words for a language, or nil when the
// lexicon has none for it.
func (l Lexicon) markersFor(language string) []string {
	return l.MarkerWords[language]
}

// smsTokensFor returns the SMS opt-out tokens for a language. The
// default language's tokens always apply; "STOP" is universally valid
// even in localized messages. The merged list is freshly allocated:
// the map's slices are shared across concurrent tasks and must never
// be appended to in place.
func (l Lexicon) smsTokensFor(language string) []string {
	base := l.SMSOptOutTokens[language]
	if language == l.DefaultLanguage {
		return base
	}

	defaults := l.SMSOptOutTokens[l.DefaultLanguage]
	tokens := make([]string, 0, len(base)+len(defaults))
	tokens = append(tokens, base...)

	seen := make(map[string]bool, len(base))
	for _, t := range base {
		seen[t] = true
	}
	for _, t := range defaults {
		if !seen[t] {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
