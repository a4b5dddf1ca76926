// Package textutil provides common text normalization helpers.
package textutil

import "strings"

// NormalizeWhitespace replaces runs of whitespace with single spaces and
// trims the ends.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// Fold lowercases a token for case-insensitive cue matching.
func Fold(str string) string {
	return strings.ToLower(str)
}

// Truncate truncates a string to max length, appending an ellipsis.
func Truncate(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}

	return str[:maxLength] + "..."
}
