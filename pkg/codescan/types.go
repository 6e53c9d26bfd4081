// Package codescan extracts structural function records from source trees.
// Python files are parsed with tree-sitter; JS/TS/JSX/TSX files go through
// a best-effort regex pass.
package codescan

import "fmt"

// Caps keep noisy functions from flooding downstream summaries.
const (
	maxCalls      = 12
	maxWrites     = 12
	maxReturns    = 8
	maxExceptions = 8
)

// StructuredFunction is one extracted function or method with the
// structural facts used for summarization and matching.
type StructuredFunction struct {
	FunctionUID  string   `json:"function_uid"`
	FilePath     string   `json:"file_path"`
	Language     string   `json:"language"`
	FunctionName string   `json:"function_name"`
	Signature    string   `json:"signature"`
	Parameters   []string `json:"parameters"`
	Calls        []string `json:"calls"`
	Writes       []string `json:"writes"`
	Returns      []string `json:"returns"`
	Exceptions   []string `json:"exceptions"`
	ClassName    string   `json:"class_name,omitempty"`
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	RawSnippet   string   `json:"raw_snippet"`
	Kind         string   `json:"kind"`
}

// CodeItem is a lightweight extracted item carrying pre-normalized text,
// produced by the JS/TS pass.
type CodeItem struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
}

// FunctionUID builds the stable identifier for a function:
// relPath::[Class.]name@Lstart-Lend. It depends only on file content and
// location, so repeated extraction of the same tree yields the same uid.
func FunctionUID(relPath, className, name string, startLine, endLine int) string {
	owner := ""
	if className != "" {
		owner = className + "."
	}
	return fmt.Sprintf("%s::%s%s@L%d-L%d", relPath, owner, name, startLine, endLine)
}

func dedupeCap(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}
