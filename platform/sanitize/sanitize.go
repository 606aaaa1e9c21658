// Package sanitize provides text sanitization utilities for user-provided free text.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)

	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
// Entities are decoded and the result re-stripped so encoded tags do not survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a single-line or multi-line free-text value. Output is NFC, so
// "n" plus a combining tilde and a precomposed "ñ" compare equal.
func Text(s string) string {
	result := StripHTML(norm.NFC.String(strings.ReplaceAll(s, "\r\n", "\n")))
	return blankLinesRegex.ReplaceAllString(result, "\n\n")
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Truncate cuts s to at most maxRunes runes without splitting a character.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
