package summary

import (
	"fmt"
	"regexp"
	"strings"
)

var spacesRe = regexp.MustCompile(`\s+`)

// compareLineRe captures the title and description of the fixed
// "Task: <Title>. Description: <sentence>." output line.
var compareLineRe = regexp.MustCompile(`^Task:\s*(.+?)\.\s*Description:\s*(.+?)\.?$`)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func join(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

func cleanSpaces(s string) string {
	return trimmed(spacesRe.ReplaceAllString(trimmed(s), " "))
}

func wordCount(s string) int {
	n := 0
	for _, w := range strings.Fields(s) {
		if w != "" {
			n++
		}
	}
	return n
}

// ValidateCompareLine checks a model-generated one-line summary against the
// fixed format: exactly one line, "Task: <Title>. Description: <sentence>.",
// with a 2-6 word title and a single 12-22 word sentence. It returns the
// cleaned line.
func ValidateCompareLine(s string) (string, error) {
	if strings.Contains(trimmed(s), "\n") {
		return "", fmt.Errorf("summary must be exactly one line")
	}
	s = cleanSpaces(s)

	m := compareLineRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("summary does not match 'Task: ... Description: ...' format")
	}
	title := trimmed(m[1])
	desc := trimmed(m[2])

	if wc := wordCount(title); wc < 2 || wc > 6 {
		return "", fmt.Errorf("title must be 2-6 words (got %d)", wc)
	}
	if strings.Count(desc, ".") > 0 {
		return "", fmt.Errorf("description must be exactly one sentence")
	}
	if wc := wordCount(desc); wc < 12 || wc > 22 {
		return "", fmt.Errorf("description must be 12-22 words (got %d)", wc)
	}

	return ComposeCompareLine(title, desc), nil
}

// ComposeCompareLine renders the canonical one-line summary from a title
// and a description sentence.
func ComposeCompareLine(title, desc string) string {
	title = strings.TrimSuffix(cleanSpaces(title), ".")
	desc = strings.TrimSuffix(cleanSpaces(desc), ".")
	return "Task: " + title + ". Description: " + desc + "."
}

// SplitCompareLine takes a canonical one-line summary apart again. ok is
// false when the line does not carry the fixed format.
func SplitCompareLine(line string) (title, desc string, ok bool) {
	m := compareLineRe.FindStringSubmatch(cleanSpaces(line))
	if m == nil {
		return "", "", false
	}
	return trimmed(m[1]), trimmed(m[2]), true
}

// ValidateDetailed checks the multi-sentence display summary: whitespace
// collapsed, 18-120 words.
func ValidateDetailed(s string) (string, error) {
	s = cleanSpaces(s)
	wc := wordCount(s)
	if wc < 18 {
		return "", fmt.Errorf("detailed summary is too short (%d words)", wc)
	}
	if wc > 120 {
		return "", fmt.Errorf("detailed summary is too long (%d words)", wc)
	}
	return s, nil
}
