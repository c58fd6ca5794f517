package dom

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseSpace trims and collapses runs of whitespace into single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold lower-cases and strips diacritics so "Höchstens" matches "hochstens".
// German sharp s is kept; umlauts fold to their base vowel.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(result)
}

// ContainsFold reports whether s contains any of the fragments after folding.
func ContainsFold(s string, fragments ...string) bool {
	folded := Fold(s)
	for _, f := range fragments {
		if f != "" && strings.Contains(folded, Fold(f)) {
			return true
		}
	}
	return false
}
