package scorer

import (
	"strings"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/similarity"
)

// Score names as they appear in Findings.Scores.
const (
	ScoreBodySimilarity  = "body_similarity"
	ScorePersonalization = "personalization_score"
	ScoreLocaleAccuracy  = "locale_accuracy"
	ScoreSafety          = "safety_violations"
)

// localeWordFactor scales the word count when normalizing the marker
// hit rate: only a minority of words in a sentence are expected to be
// language-distinctive.
const localeWordFactor = 0.3

// computeScores produces the effective score map for a task. A score
// supplied in metrics is taken as-is; anything omitted is computed from
// the eval record and output. Body similarity is always computed since it is
// never an external measurement.
func (s *Scorer) computeScores(spec *domain.EvalSpec, output *domain.AgentOutput, metrics *domain.Metrics) map[string]float64 {
	scores := map[string]float64{
		ScoreBodySimilarity: s.bodySimilarity(spec, output),
	}

	if metrics != nil && metrics.PersonalizationScore != nil {
		scores[ScorePersonalization] = *metrics.PersonalizationScore
	} else {
		scores[ScorePersonalization] = s.personalizationScore(spec, output)
	}

	if metrics != nil && metrics.LocaleAccuracy != nil {
		scores[ScoreLocaleAccuracy] = *metrics.LocaleAccuracy
	} else {
		scores[ScoreLocaleAccuracy] = s.localeAccuracy(spec, output)
	}

	if metrics != nil && metrics.SafetyViolations != nil {
		scores[ScoreSafety] = *metrics.SafetyViolations
	} else {
		scores[ScoreSafety] = float64(s.safetyViolations(output))
	}

	return scores
}

// bodySimilarity mirrors the body comparison measure: 1.0 when both
// bodies are absent, 0.0 when exactly one is, else the similarity ratio.
func (s *Scorer) bodySimilarity(spec *domain.EvalSpec, output *domain.AgentOutput) float64 {
	expBody := bodyOf(spec.Expected.NextMessage)
	actBody := bodyOf(output.NextMessage)

	switch {
	case expBody == nil && actBody == nil:
		return 1.0
	case expBody == nil || actBody == nil:
		return 0.0
	}
	return similarity.Ratio(*expBody, *actBody)
}

// personalizationScore is a coverage ratio over the profile fields the
// task actually supplies: first name, any amenity interest, the unit
// number (resident personas only), and the city. An empty profile
// yields 1.0 — "not applicable" deliberately collapses to "satisfied"
// rather than penalizing tasks with no personalization data.
func (s *Scorer) personalizationScore(spec *domain.EvalSpec, output *domain.AgentOutput) float64 {
	profile := spec.Input.Profile
	body := ""
	if b := bodyOf(output.NextMessage); b != nil {
		body = *b
	}

	points, applicable := 0, 0

	if profile.FirstName != "" {
		applicable++
		if similarity.ContainsFold(body, profile.FirstName) {
			points++
		}
	}

	if len(profile.AmenityInterest) > 0 {
		applicable++
		for _, amenity := range profile.AmenityInterest {
			if similarity.ContainsFold(body, amenity) {
				points++
				break
			}
		}
	}

	if unit := spec.UnitNumber(); unit != "" && spec.Persona == "resident" {
		applicable++
		if strings.Contains(body, unit) {
			points++
		}
	}

	if profile.CityInterest != "" {
		applicable++
		if similarity.ContainsFold(body, profile.CityInterest) {
			points++
		}
	}

	if applicable == 0 {
		return 1.0
	}
	return float64(points) / float64(applicable)
}

// localeAccuracy measures how much of a non-default-language body is
// recognizably in the target language: marker-word hits over a scaled
// word count, capped at 1.0. Tasks in the default language score 1.0
// unconditionally.
func (s *Scorer) localeAccuracy(spec *domain.EvalSpec, output *domain.AgentOutput) float64 {
	language := spec.Input.Language
	if language == "" || language == s.lexicon.DefaultLanguage {
		return 1.0
	}

	body := bodyOf(output.NextMessage)
	if body == nil {
		return 1.0
	}

	markers := make(map[string]bool)
	for _, w := range s.lexicon.markersFor(language) {
		markers[similarity.Fold(w)] = true
	}

	words := tokenize(*body)
	hits := 0
	for _, w := range words {
		if markers[w] {
			hits++
		}
	}

	denom := float64(len(words)) * localeWordFactor
	if denom < 1 {
		denom = 1
	}
	accuracy := float64(hits) / denom
	if accuracy > 1.0 {
		accuracy = 1.0
	}
	return accuracy
}

// safetyViolations counts occurrences of denylist phrases in the body.
func (s *Scorer) safetyViolations(output *domain.AgentOutput) int {
	body := bodyOf(output.NextMessage)
	if body == nil {
		return 0
	}

	folded := similarity.Fold(*body)
	violations := 0
	for _, phrase := range s.lexicon.SafetyDenylist {
		violations += strings.Count(folded, similarity.Fold(phrase))
	}
	return violations
}

// markerWordPresent reports whether the body contains at least one
// marker word for the language. Used by the locale_applied constraint,
// which is pass/fail rather than a ratio.
func (s *Scorer) markerWordPresent(language, body string) bool {
	markers := make(map[string]bool)
	for _, w := range s.lexicon.markersFor(language) {
		markers[similarity.Fold(w)] = true
	}
	for _, w := range tokenize(body) {
		if markers[w] {
			return true
		}
	}
	return false
}

// tokenize splits a body into case-folded words with surrounding
// punctuation stripped, so "¿Quieres?" matches the marker "quieres".
func tokenize(body string) []string {
	fields := strings.Fields(similarity.Fold(body))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func isWordRune(r rune) bool {
	return r == '\'' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		r > 127
}

// bodyOf extracts a message's body pointer, tolerating a nil message.
func bodyOf(m *domain.Message) *string {
	if m == nil {
		return nil
	}
	return m.Body
}
