package service

import (
	"strings"
	"unicode/utf8"
)

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// This prevents PostgreSQL encoding errors when saving text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

// truncateRunes keeps the first max characters of s.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// validateNames trims every name and requires at least min non-blank entries.
func validateNames(names []string, min int) ([]string, error) {
	if len(names) < min {
		return nil, invalidInput("at least %d medication names required, got %d", min, len(names))
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.TrimSpace(name)
		if out[i] == "" {
			return nil, invalidInput("medication name %d is blank", i+1)
		}
	}
	return out, nil
}
