// Package analysis orchestrates one traceability run: BPMN precheck and
// graph extraction, code scanning, summarization, embedding, similarity,
// matching and evaluation, collected into a single report.
package analysis

import (
	"github.com/covadev/covatrace/internal/timing"

	"github.com/covadev/covatrace/pkg/bpmn"
	"github.com/covadev/covatrace/pkg/embed"
	"github.com/covadev/covatrace/pkg/evaluation"
	"github.com/covadev/covatrace/pkg/semantic"
)

// ReportMeta records the knobs a run was produced with.
type ReportMeta struct {
	Matcher                string  `json:"matcher"`
	Threshold              float64 `json:"threshold"`
	TopK                   int     `json:"top_k"`
	BatchSize              int     `json:"batch_size"`
	UsedPersistedArtifacts bool    `json:"used_persisted_code_artifacts"`
}

// CodeItem is one code entry of the report, carrying both summaries and
// the text that was embedded.
type CodeItem struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Name              string `json:"name"`
	SourcePath        string `json:"source_path"`
	SummaryText       string `json:"summary_text"`
	StructuredSummary string `json:"structured_summary"`
	Text              string `json:"text"`
}

// CodeSection groups the code entries of the report.
type CodeSection struct {
	Items []CodeItem `json:"items"`
}

// Stats are the headline numbers of a run.
type Stats struct {
	Tasks               int `json:"tasks"`
	StructuredFunctions int `json:"structured_functions"`
	CodeCountEmbedded   int `json:"code_count_embedded"`
	Matched             int `json:"matched"`
	Missing             int `json:"missing"`
	Extra               int `json:"extra"`
}

// SummaryStatus reports whether all function summaries came from the
// model, with a capped sample of the failures.
type SummaryStatus struct {
	OK           bool     `json:"ok"`
	ErrorsSample []string `json:"errors_sample,omitempty"`
}

// Debug carries run internals that are only useful for inspection.
type Debug struct {
	CodeRoot       string                  `json:"code_root"`
	EmbeddingMeta  embed.Meta              `json:"embedding_meta"`
	SimilarityMeta semantic.SimilarityMeta `json:"similarity_meta"`
	StageTimings   []timing.Stage          `json:"stage_timings,omitempty"`
	Similarity     *semantic.Similarity    `json:"similarity,omitempty"`
	TaskEmbeddings []embed.Record          `json:"task_embeddings,omitempty"`
	CodeEmbeddings []embed.Record          `json:"code_embeddings,omitempty"`
}

// Report is the full output of one analysis run.
type Report struct {
	Meta               ReportMeta                      `json:"meta"`
	BPMN               *bpmn.Graph                     `json:"bpmn"`
	BPMNSummary        string                          `json:"bpmn_summary,omitempty"`
	WorkflowSimilarity []semantic.Candidate            `json:"workflow_similarity,omitempty"`
	Code               CodeSection                     `json:"code"`
	Matching           *semantic.Matching              `json:"matching"`
	TopK               map[string][]semantic.Candidate `json:"top_k"`
	Evaluation         evaluation.Result               `json:"evaluation"`
	Stats              Stats                           `json:"stats"`
	SummaryStatus      *SummaryStatus                  `json:"summary_status,omitempty"`
	Debug              *Debug                          `json:"debug,omitempty"`

	// Artifacts are the freshly scanned functions with summaries and
	// vectors, collected so callers can persist them. Not part of the
	// report payload.
	Artifacts []PersistedArtifact `json:"-"`
}
