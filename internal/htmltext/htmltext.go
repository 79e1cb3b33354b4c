// Package htmltext strips markup from user-supplied rich text.
package htmltext

import (
	"html"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute, leaving only text content.
var strict = bluemonday.StrictPolicy()

// Strip returns the plain text of s with all markup removed and HTML entities
// decoded. Whitespace is preserved as written.
func Strip(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// PlainLength returns the number of characters in s after markup stripping.
// Used for minimum-length validation of descriptions.
func PlainLength(s string) int {
	return utf8.RuneCountInString(Strip(s))
}
