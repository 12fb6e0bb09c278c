// Package similarity provides the normalized string-similarity measure
// used for subject and body comparison, backed by Levenshtein edit
// distance.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// foldCaser is a package-level Unicode case folder for performance.
// This avoids creating a new caser for each string preparation.
var foldCaser = cases.Fold()

// Ratio computes the similarity between two strings as a value in
// [0, 1], where 1.0 means identical and 0.0 means maximally dissimilar.
// The measure is 1 - distance/maxRuneCount, which is symmetric and
// reflexive. Comparison is case-sensitive and whitespace-significant.
func Ratio(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	// The levenshtein library operates on runes, so the normalization
	// denominator must be a rune count as well: "café" has 4 runes but
	// 5 bytes.
	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}

	// Two empty strings are identical, but that case is handled by the
	// equality check above; maxLen == 0 cannot otherwise occur.
	if maxLen == 0 {
		return 1.0
	}

	sim := 1.0 - float64(distance)/float64(maxLen)

	// Guard against floating-point drift outside [0, 1].
	if sim < 0 {
		sim = 0
	}
	return sim
}

// Fold lowercases a string using full Unicode case folding. Used where
// matching must be case-insensitive (personalization, opt-out tokens,
// marker words) while Ratio itself stays case-sensitive.
func Fold(s string) string { return foldCaser.String(s) }

// ContainsFold reports whether haystack contains needle under Unicode
// case folding. Empty needles never match.
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}
