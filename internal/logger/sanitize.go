package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxMessageLength caps chat text copied into log fields
	MaxMessageLength = 200
	// MaxErrorMessageLength caps error strings
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the default cap
	MaxGeneralStringLength = 2000
)

// SanitizeString strips control characters, fixes invalid UTF-8 and truncates
// to maxLength bytes on a rune boundary
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(r) || r == ' ' {
			if b.Len()+utf8.RuneLen(r) > maxLength {
				b.WriteString("...")
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeMessage sanitizes user supplied chat text
func SanitizeMessage(text string) string {
	return SanitizeString(text, MaxMessageLength)
}

// SanitizeError sanitizes an error message
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}
