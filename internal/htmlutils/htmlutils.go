// Package htmlutils provides text cleanup for feed-sourced content.
//
// Feed titles and descriptions arrive with embedded markup, encoded
// entities and irregular whitespace depending on the source; everything
// downstream of the normalizer expects plain text.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRegex        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// CleanText strips markup tags, decodes HTML entities and collapses runs
// of whitespace into single spaces.
func CleanText(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// TruncateRunes returns s cut to at most maxRunes runes, appending an
// ellipsis when anything was removed.
func TruncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes]) + "…"
}
