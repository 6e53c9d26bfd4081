package codescan

import (
	"regexp"
	"strings"
)

// jsExtensions are the file suffixes handled by the JS/TS pass.
var jsExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// Declaration patterns, best effort. Overlaps are deduplicated by
// (name, line) afterwards.
var (
	reExportDefaultFunc = regexp.MustCompile(`(?m)^\s*export\s+default\s+function\s+([A-Za-z_]\w*)\s*\(`)
	reExportFunc        = regexp.MustCompile(`(?m)^\s*export\s+function\s+([A-Za-z_]\w*)\s*\(`)
	reFunc              = regexp.MustCompile(`(?m)^\s*function\s+([A-Za-z_]\w*)\s*\(`)
	reExportConstArrow  = regexp.MustCompile(`(?m)^\s*export\s+const\s+([A-Za-z_]\w*)\s*=\s*\(?.*?\)?\s*=>`)
	reConstArrow        = regexp.MustCompile(`(?m)^\s*const\s+([A-Za-z_]\w*)\s*=\s*\(?.*?\)?\s*=>`)
)

var (
	reBlockOpen  = regexp.MustCompile(`^\s*/\*\*?`)
	reBlockClose = regexp.MustCompile(`\*/\s*$`)
	reBlockStar  = regexp.MustCompile(`(?m)^\s*\*\s?`)
)

type jsMatch struct {
	name string
	line int
}

// ExtractReactItems extracts components and functions from one JS/TS/JSX/TSX
// source. Components are recognized by PascalCase naming; everything else is
// a plain function. The item text is the declaration name plus any leading
// comment block, normalized for embedding.
func ExtractReactItems(src []byte, relPath string) []CodeItem {
	source := string(src)
	lines := strings.Split(source, "\n")

	raw := []jsMatch{}
	for _, re := range []*regexp.Regexp{
		reExportDefaultFunc, reExportFunc, reFunc, reExportConstArrow, reConstArrow,
	} {
		for _, m := range re.FindAllStringSubmatchIndex(source, -1) {
			name := source[m[2]:m[3]]
			line := strings.Count(source[:m[0]], "\n")
			raw = append(raw, jsMatch{name: name, line: line})
		}
	}

	seen := map[jsMatch]bool{}
	items := make([]CodeItem, 0, len(raw))
	for _, m := range raw {
		if seen[m] {
			continue
		}
		seen[m] = true

		rawText := m.name
		if comment := leadingComment(lines, m.line); comment != "" {
			rawText = m.name + "\n" + comment
		}

		itemType := "function"
		if isComponentName(m.name) {
			itemType = "component"
		}

		items = append(items, CodeItem{
			ID:         relPath + ":" + itemType + ":" + m.name,
			Type:       itemType,
			Name:       m.name,
			Text:       NormalizeText(rawText),
			SourcePath: relPath,
		})
	}
	return items
}

func isComponentName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// leadingComment captures a // run or a /* */ block immediately above the
// declaration line.
func leadingComment(lines []string, declLine int) string {
	i := declLine - 1
	for i >= 0 && strings.TrimSpace(lines[i]) == "" {
		i--
	}
	if i < 0 {
		return ""
	}

	line := strings.TrimRight(lines[i], " \t")

	if strings.HasPrefix(strings.TrimSpace(line), "//") {
		commentLines := []string{}
		for i >= 0 && strings.HasPrefix(strings.TrimSpace(lines[i]), "//") {
			text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "//"))
			commentLines = append(commentLines, text)
			i--
		}
		out := []string{}
		for j := len(commentLines) - 1; j >= 0; j-- {
			if commentLines[j] != "" {
				out = append(out, commentLines[j])
			}
		}
		return strings.Join(out, "\n")
	}

	if strings.Contains(line, "*/") {
		commentLines := []string{}
		for i >= 0 {
			cur := strings.TrimRight(lines[i], " \t")
			commentLines = append(commentLines, cur)
			if strings.Contains(cur, "/*") {
				break
			}
			i--
		}
		for l, r := 0, len(commentLines)-1; l < r; l, r = l+1, r-1 {
			commentLines[l], commentLines[r] = commentLines[r], commentLines[l]
		}
		block := strings.Join(commentLines, "\n")
		block = reBlockOpen.ReplaceAllString(block, "")
		block = reBlockClose.ReplaceAllString(block, "")
		block = reBlockStar.ReplaceAllString(block, "")
		return strings.TrimSpace(block)
	}

	return ""
}
