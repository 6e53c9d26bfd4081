package codescan

import (
	"regexp"
	"strings"
)

var (
	camelBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// SplitIdentifier converts identifiers into spaced words:
// snake_case -> "snake case", camelCase/PascalCase -> "camel case".
func SplitIdentifier(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ReplaceAll(name, "_", " ")
	s = camelBoundaryRe.ReplaceAllString(s, "$1 $2")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NormalizeText prepares extracted text for semantic comparison:
// identifiers split into words, lowercased, punctuation stripped,
// whitespace collapsed.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	s := SplitIdentifier(strings.TrimSpace(text))
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
