package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldForSearch strips diacritics and case folds s, so "Écouteurs" and "ecouteurs" compare equal.
func FoldForSearch(s string) string {
	// Transformers and Casers are stateful and not safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(strings.TrimSpace(stripped))
}

// ContainsFold reports whether needle occurs in haystack after folding both.
// An empty needle matches everything.
func ContainsFold(haystack, needle string) bool {
	n := FoldForSearch(needle)
	if n == "" {
		return true
	}
	return strings.Contains(FoldForSearch(haystack), n)
}
