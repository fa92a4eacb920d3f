package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128
	MaxEventTitleLength    = 200
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength bounds prompts and model responses logged in debug mode.
	MaxDebugContentLength = 10000
)

// SanitizeString makes s safe to log: invalid UTF-8 and control characters
// (other than whitespace) are dropped and the result is truncated to maxLength.
// A non-positive maxLength uses MaxGeneralStringLength.
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
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
	if len(s) > maxLength {
		s = truncate(s, maxLength) + "..."
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// SanitizePath sanitizes a request path.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeUserID sanitizes a caller-supplied user identifier.
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeEventTitle sanitizes a calendar event title. Titles come from third-party calendars.
func SanitizeEventTitle(title string) string {
	return SanitizeString(title, MaxEventTitleLength)
}

// SanitizeError sanitizes an error message. A nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeDebugContent sanitizes prompts and model responses.
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}
