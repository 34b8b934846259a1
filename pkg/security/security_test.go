package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeErrorMessage(t *testing.T) {
	assert.Equal(t, "", SanitizeErrorMessage(""))
	assert.Equal(t, "plain error", SanitizeErrorMessage("plain error"))
	assert.Equal(t, "ab", SanitizeErrorMessage("a\x00b"), "null bytes stripped")
	assert.Equal(t, "a\nb\tc", SanitizeErrorMessage("a\nb\tc"), "whitespace preserved")
}

func TestSanitizeErrorMessage_Truncates(t *testing.T) {
	long := strings.Repeat("x", MaxErrorMessageLength*2)
	out := SanitizeErrorMessage(long)
	assert.Len(t, out, MaxErrorMessageLength)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestClampConcurrency(t *testing.T) {
	assert.Equal(t, 1, ClampConcurrency(0))
	assert.Equal(t, 1, ClampConcurrency(-5))
	assert.Equal(t, 10, ClampConcurrency(10))
	assert.Equal(t, MaxConcurrency, ClampConcurrency(MaxConcurrency+1))
}
