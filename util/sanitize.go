package util

import (
	"strings"
	"unicode"
)

// SanitizeString trims whitespace and removes control characters from s.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizePathSegment reduces s to a single safe object-key segment:
// lowercase letters, digits, '-', '_' and '.', with no leading dots.
// Anything else becomes '-'. The result may be empty.
func SanitizePathSegment(s string) string {
	s = strings.ToLower(SanitizeString(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(strings.TrimLeft(b.String(), "."), "-")
}
