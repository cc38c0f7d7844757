// Package utils provides shared helpers for text, scoring math, and logging.
package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s cut to maxLen runes, with "..." appended if it was cut.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return prefixRunes(s, maxLen) + "..."
}

// Excerpt returns the first maxLen runes of s followed by "...", whether or not s was cut.
func Excerpt(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	return prefixRunes(s, maxLen) + "..."
}

// NormalizeUpper trims s and upper-cases it.
func NormalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
