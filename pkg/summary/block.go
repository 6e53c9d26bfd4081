// Package summary turns structural function records into model prompts,
// validates model output, and provides deterministic fallbacks when the
// model fails or produces junk.
package summary

import (
	"strconv"
	"strings"

	"github.com/covadev/covatrace/pkg/codescan"

	"github.com/pkoukk/tiktoken-go"
)

// snippetTokenBudget bounds the code snippet portion of a prompt block.
const snippetTokenBudget = 400

func joinList(items []string, limit int) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "—"
	}
	if len(kept) > limit {
		kept = append(kept[:limit], "...")
	}
	return strings.Join(kept, " | ")
}

// truncateSnippet trims a code snippet to the token budget, appending a
// marker so the model knows the code continues.
func truncateSnippet(snippet string) string {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		// fall back to a crude byte cut
		if len(snippet) > 1200 {
			return snippet[:1200] + "\n... (truncated)"
		}
		return snippet
	}
	tokens := enc.Encode(snippet, nil, nil)
	if len(tokens) <= snippetTokenBudget {
		return snippet
	}
	return enc.Decode(tokens[:snippetTokenBudget]) + "\n... (truncated)"
}

// BuildGeneratorBlock converts a structured function into a compact,
// model-friendly block. Only fields that are actually present appear, to
// avoid giving the model anything to hallucinate from.
func BuildGeneratorBlock(sf codescan.StructuredFunction) string {
	name := sf.FunctionName
	if name == "" {
		name = "unknown"
	}

	lines := []string{"FUNCTION_NAME: " + name}
	if sf.Signature != "" {
		lines = append(lines, "SIGNATURE: "+sf.Signature)
	}
	if sf.ClassName != "" {
		lines = append(lines, "CLASS: "+sf.ClassName)
	}
	if sf.FilePath != "" {
		lines = append(lines, "FILE: "+sf.FilePath)
	}
	if len(sf.Parameters) > 0 {
		lines = append(lines, "PARAMETERS: "+joinList(sf.Parameters, 12))
	}
	if len(sf.Calls) > 0 {
		lines = append(lines, "CALLS: "+joinList(sf.Calls, 12))
	}
	if len(sf.Writes) > 0 {
		lines = append(lines, "WRITES: "+joinList(sf.Writes, 12))
	}
	if len(sf.Returns) > 0 {
		lines = append(lines, "RETURNS: "+joinList(sf.Returns, 12))
	}
	if len(sf.Exceptions) > 0 {
		lines = append(lines, "EXCEPTIONS: "+joinList(sf.Exceptions, 12))
	}

	if snippet := strings.TrimSpace(sf.RawSnippet); snippet != "" {
		lines = append(lines, "CODE_SNIPPET:", truncateSnippet(snippet))
	}

	return strings.Join(lines, "\n")
}

func shortList(items []string, n int) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "none"
	}
	cut := kept
	more := ""
	if len(kept) > n {
		cut = kept[:n]
		more = " (+" + strconv.Itoa(len(kept)-n) + " more)"
	}
	return strings.Join(cut, ", ") + more
}

// BuildStructuredSummary renders a human-friendly explanation of a
// structured function for display. It is never embedded.
func BuildStructuredSummary(sf codescan.StructuredFunction) string {
	where := sf.FilePath
	if where == "" {
		where = "unknown file"
	}
	owner := sf.FunctionName
	if sf.ClassName != "" && sf.FunctionName != "" {
		owner = sf.ClassName + "." + sf.FunctionName
	}
	if owner == "" {
		owner = "unknown_function"
	}

	lines := []string{owner + " (" + sf.Language + ") in " + where + "."}
	if sf.Signature != "" {
		lines = append(lines, "Signature: "+sf.Signature+".")
	}
	lines = append(lines, "Calls: "+shortList(sf.Calls, 4)+".")
	if len(sf.Writes) > 0 {
		lines = append(lines, "Updates: "+shortList(sf.Writes, 4)+".")
	}
	if len(sf.Returns) > 0 {
		lines = append(lines, "Returns: "+shortList(sf.Returns, 4)+".")
	}
	if len(sf.Exceptions) > 0 {
		lines = append(lines, "May raise: "+shortList(sf.Exceptions, 4)+".")
	}
	return strings.Join(lines, "\n")
}
