package utils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Only a leading "dr." or "dr " is an honorific; "drew" is a name.
	honorificRe = regexp.MustCompile(`^dr(\.|\s)\s*`)
)

// NormalizeName lowercases a display name, collapses internal whitespace and
// strips one leading "Dr." / "Dr " prefix.
func NormalizeName(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = honorificRe.ReplaceAllString(normalized, "")
	return strings.TrimSpace(normalized)
}

// LooseEquals reports whether two display names are equal after
// normalization, or one normalized name contains the other. Empty names never
// match anything.
func LooseEquals(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// NormalizeCode canonicalizes human-readable codes such as "p002 " -> "P002".
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CodeEquals compares two codes case-insensitively; empty codes never match.
func CodeEquals(a, b string) bool {
	na := NormalizeCode(a)
	return na != "" && na == NormalizeCode(b)
}

// PickCandidate applies the search tie-break to candidates returned by a
// text search: an exact code match wins, then an exact normalized-name
// match, then the first candidate in returned order. fields extracts the
// candidate's code and display name.
func PickCandidate[T any](candidates []T, code, name string, fields func(T) (string, string)) (T, bool) {
	var zero T
	if len(candidates) == 0 {
		return zero, false
	}

	if NormalizeCode(code) != "" {
		for _, c := range candidates {
			if candidateCode, _ := fields(c); CodeEquals(candidateCode, code) {
				return c, true
			}
		}
	}

	if wanted := NormalizeName(name); wanted != "" {
		for _, c := range candidates {
			if _, candidateName := fields(c); NormalizeName(candidateName) == wanted {
				return c, true
			}
		}
	}

	return candidates[0], true
}
