package security

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxErrorMessageLength is the maximum length for stored error text.
	MaxErrorMessageLength = 4096

	// MaxConcurrency is the hard limit for per-engine execution slots.
	MaxConcurrency = 1000
)

// SanitizeErrorMessage truncates and sanitizes error text before it is
// recorded against a job row. Control characters other than whitespace
// are stripped.
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))
	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}
	return result
}

// ClampConcurrency ensures a slot count is within limits.
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
