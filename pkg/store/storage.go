// Package store defines the persistence interfaces for analysis runs and
// per-project code artifacts. The pgx subpackage implements them on
// Postgres with pgvector.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/covadev/covatrace/pkg/codescan"
)

// ErrNotFound is returned when a run or artifact does not exist.
var ErrNotFound = errors.New("not found")

// Run statuses follow the job lifecycle.
const (
	RunStatusQueued  = "queued"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// Run is one analysis run with its report and cached headline metrics.
type Run struct {
	ID           string          `json:"id"`
	ProjectID    int64           `json:"project_id"`
	Status       string          `json:"status"`
	Matcher      string          `json:"matcher"`
	Threshold    float64         `json:"threshold"`
	Report       json.RawMessage `json:"report,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	TotalTasks   int             `json:"total_tasks"`
	MatchedCount int             `json:"matched_count"`
	MissingCount int             `json:"missing_count"`
	ExtraCount   int             `json:"extra_count"`
	Alignment    float64         `json:"alignment"`
	Precision    float64         `json:"precision"`
	Recall       float64         `json:"recall"`
	F1           float64         `json:"f1"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RunMetrics are the effective run settings and evaluation numbers
// cached on the run row so run listings don't have to unpack the report
// JSON. Matcher and Threshold are the values the run actually used,
// which may differ from the submitted ones when defaults applied.
type RunMetrics struct {
	Matcher      string
	Threshold    float64
	TotalTasks   int
	MatchedCount int
	MissingCount int
	ExtraCount   int
	Alignment    float64
	Precision    float64
	Recall       float64
	F1           float64
}

// CodeArtifact is one persisted function record with its summaries and
// embedding, cached per project for the analyze fast path.
type CodeArtifact struct {
	ProjectID         int64
	Function          codescan.StructuredFunction
	SummaryText       string
	StructuredSummary string
	Embedding         []float32
}

// RunStore persists analysis runs.
type RunStore interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	MarkRunRunning(ctx context.Context, id string) error
	CompleteRun(ctx context.Context, id string, report json.RawMessage, metrics RunMetrics) error
	FailRun(ctx context.Context, id string, report json.RawMessage, errMsg string) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, projectID int64, limit int) ([]Run, error)
	DeleteProjectRuns(ctx context.Context, projectID int64) error
}

// ArtifactStore persists per-project code artifacts.
type ArtifactStore interface {
	ReplaceProjectArtifacts(ctx context.Context, projectID int64, artifacts []CodeArtifact) error
	GetProjectArtifacts(ctx context.Context, projectID int64) ([]CodeArtifact, error)
	DeleteProjectArtifacts(ctx context.Context, projectID int64) error
}

// Store combines run and artifact persistence.
type Store interface {
	RunStore
	ArtifactStore
}
