// Package embed builds the semantic texts for BPMN tasks and code items
// and turns them into normalized embedding records through an AI client.
package embed

import (
	"strings"

	"github.com/covadev/covatrace/pkg/bpmn"
)

// CodeInput is one embeddable code item, assembled from a structured
// function and its summaries (or directly from a JS/TS extraction).
type CodeInput struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Name              string `json:"name"`
	SourcePath        string `json:"source_path"`
	SummaryText       string `json:"summary_text"`
	StructuredSummary string `json:"structured_summary"`
	Text              string `json:"text"`
}

// genericPhrases are summary fragments that carry no semantic signal. A
// summary containing one is ignored in favor of the extractor text.
var genericPhrases = []string{
	"returns a result",
	"does",
	"handles",
	"processes data",
	"performs",
}

func isTooGeneric(s string) bool {
	s = strings.ToLower(s)
	for _, p := range genericPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// BuildTaskText builds the semantic text for a BPMN task from the fields
// it actually has: "Task: <name>. Description: <desc>. Type: <type>."
func BuildTaskText(t bpmn.Task) string {
	parts := []string{}
	if name := strings.TrimSpace(t.Name); name != "" {
		parts = append(parts, "Task: "+name+".")
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		parts = append(parts, "Description: "+desc+".")
	}
	if ttype := strings.TrimSpace(t.Type); ttype != "" {
		parts = append(parts, "Type: "+ttype+".")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// BuildCodeText builds the semantic text for a code item, aligned with the
// BPMN task wording. The model summary is used only when it is meaningful;
// generic filler falls back to the extractor text, then to kind and name.
func BuildCodeText(item CodeInput) string {
	name := strings.TrimSpace(item.Name)

	taskTitle := strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if taskTitle != "" {
		words := strings.Fields(taskTitle)
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		taskTitle = strings.Join(words, " ")
	}

	summary := strings.TrimSpace(item.SummaryText)
	if summary != "" && !isTooGeneric(summary) {
		summary = strings.TrimSuffix(summary, ".")
		if taskTitle != "" {
			return "Task: " + taskTitle + ". Description: " + summary + "."
		}
		return "Description: " + summary + "."
	}

	if text := strings.TrimSpace(item.Text); text != "" {
		return text
	}

	kind := strings.TrimSpace(item.Type)
	if kind != "" && name != "" {
		return kind + ": " + name
	}
	return name
}
