package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/covadev/covatrace/internal/storage"
	"github.com/covadev/covatrace/internal/util"
	"github.com/covadev/covatrace/pkg/ai"
	"github.com/covadev/covatrace/pkg/analysis"
	"github.com/covadev/covatrace/pkg/leaselock"
	"github.com/covadev/covatrace/pkg/logger"
	"github.com/covadev/covatrace/pkg/store"
	pgstore "github.com/covadev/covatrace/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessAnalyzeMessage executes one analyze job: fetch the inputs from
// S3, run the pipeline and persist report plus code artifacts. A failed
// precheck marks the run failed and does not requeue; transient errors
// propagate so the message is retried.
func ProcessAnalyzeMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.TraceAIClient,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(AnalyzeJobMsg)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	db := pgstore.New(conn)
	if err := db.MarkRunRunning(ctx, data.RunID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("[Queue] Analyze job for unknown run, dropping", "run_id", data.RunID)
			return nil
		}
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if failErr := db.FailRun(failCtx, data.RunID, nil, err.Error()); failErr != nil {
			logger.Warn("[Queue] Failed to mark run as failed", "run_id", data.RunID, "err", failErr)
		}
	}()

	bpmnBytes, err := storage.GetFile(ctx, s3Client, data.BPMNKey)
	if err != nil {
		return fmt.Errorf("fetch bpmn model: %w", err)
	}

	input := analysis.Input{BPMN: bpmnBytes}

	if data.ReuseArtifacts {
		artifacts, aerr := db.GetProjectArtifacts(ctx, data.ProjectID)
		if aerr != nil {
			return fmt.Errorf("load code artifacts: %w", aerr)
		}
		for _, a := range artifacts {
			input.Persisted = append(input.Persisted, analysis.PersistedArtifact{
				Function:          a.Function,
				SummaryText:       a.SummaryText,
				StructuredSummary: a.StructuredSummary,
				Vector:            a.Embedding,
			})
		}
		if len(input.Persisted) == 0 {
			logger.Info("[Queue] No persisted artifacts, falling back to full scan", "project_id", data.ProjectID)
		}
	}

	if len(input.Persisted) == 0 {
		codeDir, derr := os.MkdirTemp("", "covatrace-code-*")
		if derr != nil {
			return derr
		}
		defer os.RemoveAll(codeDir)

		count, derr := storage.DownloadPrefix(ctx, s3Client, data.CodePrefix, codeDir)
		if derr != nil {
			return fmt.Errorf("download code snapshot: %w", derr)
		}
		logger.Info("[Queue] Downloaded code snapshot", "project_id", data.ProjectID, "files", count)
		input.CodeRoot = codeDir
	}

	runner := analysis.NewRunner(aiClient, analysis.Options{
		Matcher:    data.Matcher,
		Threshold:  data.Threshold,
		TopK:       data.TopK,
		Debug:      data.Debug,
		EmbedModel: util.GetEnv("AI_EMBED_MODEL"),
		Workers:    int(util.GetEnvNumeric("SUMMARY_WORKERS", 4)),
	})

	report, err := runner.Run(ctx, input)
	if err != nil {
		var pe *analysis.PrecheckError
		if errors.As(err, &pe) {
			// invalid input model, retrying cannot help
			payload, merr := json.Marshal(map[string]any{"precheck": pe.Result})
			if merr != nil {
				payload = nil
			}
			if failErr := db.FailRun(ctx, data.RunID, payload, pe.Error()); failErr != nil {
				logger.Error("[Queue] Failed to store precheck failure", "run_id", data.RunID, "err", failErr)
			}
			return nil
		}
		return err
	}

	if len(report.Artifacts) > 0 {
		lockClient := leaselock.New(conn)
		lockErr := lockClient.WithLease(ctx, fmt.Sprintf("project:%d", data.ProjectID), leaselock.Options{
			TTL:         5 * time.Minute,
			RenewEvery:  2 * time.Minute,
			Wait:        true,
			TokenPrefix: fmt.Sprintf("artifacts/%d/", data.ProjectID),
		}, func(leaseCtx context.Context) error {
			artifacts := make([]store.CodeArtifact, 0, len(report.Artifacts))
			for _, a := range report.Artifacts {
				artifacts = append(artifacts, store.CodeArtifact{
					ProjectID:         data.ProjectID,
					Function:          a.Function,
					SummaryText:       a.SummaryText,
					StructuredSummary: a.StructuredSummary,
					Embedding:         a.Vector,
				})
			}
			return db.ReplaceProjectArtifacts(leaseCtx, data.ProjectID, artifacts)
		})
		if lockErr != nil {
			return fmt.Errorf("persist code artifacts: %w", lockErr)
		}
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	s := report.Evaluation.Summary
	return db.CompleteRun(ctx, data.RunID, payload, store.RunMetrics{
		Matcher:      report.Meta.Matcher,
		Threshold:    report.Meta.Threshold,
		TotalTasks:   s.TotalTasks,
		MatchedCount: s.MatchedCount,
		MissingCount: s.MissingCount,
		ExtraCount:   s.ExtraCount,
		Alignment:    s.Alignment,
		Precision:    s.Precision,
		Recall:       s.Recall,
		F1:           s.F1,
	})
}
