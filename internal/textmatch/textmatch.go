// Package textmatch provides the fuzzy text-equality primitive used by the
// attribution path to decide whether a fresh inbound message is "the same"
// as a previously recorded campaign template.
package textmatch

import (
	"strings"
	"unicode"
)

// matchThreshold is the minimum normalized similarity for two strings to
// count as the same message.
const matchThreshold = 0.8

// Levenshtein computes the edit distance between a and b over runes using
// the classic full-matrix dynamic program. O(n*m) time and space; inputs
// are bounded-length chat messages.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(rb); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[len(ra)][len(rb)]
}

// Similarity returns the normalized edit-distance ratio in [0,1]:
// (maxLen - distance) / maxLen. Two empty strings compare equal.
func Similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	return float64(longest-Levenshtein(a, b)) / float64(longest)
}

// Normalize lowercases, trims, collapses whitespace runs to a single space
// and strips punctuation, so that cosmetic differences don't break matching.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Matches reports whether message should be treated as the same text as
// template: after normalizing both, an exact match, either string being a
// prefix of the other, or similarity at or above the threshold.
func Matches(template, message string) bool {
	t := Normalize(template)
	m := Normalize(message)

	if t == m {
		return true
	}
	if t == "" || m == "" {
		return false
	}
	if strings.HasPrefix(m, t) || strings.HasPrefix(t, m) {
		return true
	}
	return Similarity(t, m) >= matchThreshold
}
