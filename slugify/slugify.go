// Package slugify derives URL-safe slugs and allocates them uniquely per node label.
package slugify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of non-alphanumeric characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Derive converts text to a URL-safe slug.
// "The Best Group" -> "the-best-group".
// "Écologie & Paix" -> "ecologie-paix".
//
// Derive is deterministic, pure, and idempotent: Derive(Derive(x)) == Derive(x).
// The result contains only lowercase alphanumerics and single interior hyphens.
// Empty or whitespace-only input derives to "", which callers must treat as a
// contract violation (the label field a slug is derived from is validated as
// non-empty separately).
func Derive(text string) string {
	// Normalize unicode (decompose accented characters).
	s := norm.NFKD.String(text)

	// Remove non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	// Lowercase.
	s = strings.ToLower(s)

	// Replace non-alphanumeric runs with hyphens.
	s = nonAlphanumeric.ReplaceAllString(s, "-")

	// Collapse multiple hyphens.
	s = multipleHyphens.ReplaceAllString(s, "-")

	// Trim leading/trailing hyphens.
	s = strings.Trim(s, "-")

	return s
}
