// Package query turns free-text search queries into matchable terms for the
// keyword search over a regulation index.
package query

import (
	"strings"
	"unicode/utf8"
)

// minTokenLen is the shortest word kept as a search term.
const minTokenLen = 3

// isTermRune reports whether r belongs to a token: ASCII letters and digits
// plus the Danish letters æ, ø and å.
func isTermRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == 'æ', r == 'ø', r == 'å':
		return true
	}
	return false
}

func split(q string) []string {
	return strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !isTermRune(r)
	})
}

// Tokenize lowercases q, splits it on every rune outside the term alphabet
// and drops tokens shorter than three characters. Order and duplicates are
// preserved.
func Tokenize(q string) []string {
	var out []string
	for _, p := range split(q) {
		if utf8.RuneCountInString(p) >= minTokenLen {
			out = append(out, p)
		}
	}
	return out
}

// Terms is Tokenize for ranking: duplicates are removed and numeric tokens of
// two or more digits (article and paragraph numbers such as "18") are kept.
func Terms(q string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range split(q) {
		n := utf8.RuneCountInString(p)
		if n < minTokenLen && !(isNumeric(p) && n >= 2) {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	return isNumeric(s)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
