package utils

import (
	"strings"
	"unicode/utf8"
)

// EscapeSQLWildcards escapes LIKE wildcard characters in user input.
func EscapeSQLWildcards(input string) string {
	input = strings.ReplaceAll(input, "\\", "\\\\")
	input = strings.ReplaceAll(input, "%", "\\%")
	input = strings.ReplaceAll(input, "_", "\\_")
	return input
}

// SanitizeSearchQuery prepares a search string for a LIKE match.
// Returns "" for blank input.
func SanitizeSearchQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	input = TruncateString(input, 100)
	return "%" + strings.ToLower(EscapeSQLWildcards(input)) + "%"
}

// TruncateString cuts s to at most maxLen runes. Titles are often Arabic,
// so byte slicing would split characters.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
