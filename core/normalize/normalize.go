// Package normalize canonicalizes entity names for matching and computes
// deterministic name similarity scores.
package normalize

import (
	"strings"
	"unicode"
)

// legalSuffixes are trimmed from the end of a normalized name, one word at a
// time until none matches, so normalization is idempotent.
var legalSuffixes = []string{
	" inc",
	" llc",
	" corp",
	" corporation",
	" limited",
	" ltd",
}

// Fold lowercases a name, strips all characters outside
// letters/digits/underscore/whitespace/hyphen and collapses internal
// whitespace. Legal suffixes are kept. This is the display-normalized form
// stored as an alias.
func Fold(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Normalize canonicalizes a free-text entity name into a comparable key:
// Fold plus trailing legal-suffix trimming. It is total and idempotent.
func Normalize(name string) string {
	normalized := Fold(name)

	for {
		trimmed := normalized
		for _, suffix := range legalSuffixes {
			if strings.HasSuffix(normalized, suffix) {
				trimmed = strings.TrimSpace(strings.TrimSuffix(normalized, suffix))
				break
			}
		}
		if trimmed == normalized {
			break
		}
		normalized = trimmed
	}

	return strings.TrimSpace(normalized)
}
