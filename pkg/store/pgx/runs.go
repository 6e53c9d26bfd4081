package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/covadev/covatrace/internal/util"
	"github.com/covadev/covatrace/pkg/store"

	"github.com/jackc/pgx/v5"
)

const runColumns = `
	id, project_id, status, matcher, threshold, report, error_message,
	total_tasks, matched_count, missing_count, extra_count,
	alignment, precision_score, recall_score, f1_score,
	created_at, updated_at
`

func scanRun(row pgx.Row) (store.Run, error) {
	var r store.Run
	var report []byte
	var errMsg *string
	err := row.Scan(
		&r.ID, &r.ProjectID, &r.Status, &r.Matcher, &r.Threshold, &report, &errMsg,
		&r.TotalTasks, &r.MatchedCount, &r.MissingCount, &r.ExtraCount,
		&r.Alignment, &r.Precision, &r.Recall, &r.F1,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, store.ErrNotFound
		}
		return r, err
	}
	r.Report = report
	if errMsg != nil {
		r.ErrorMessage = *errMsg
	}
	return r, nil
}

func (s *DBStore) CreateRun(ctx context.Context, run store.Run) (store.Run, error) {
	if run.ID == "" {
		id, err := util.NewRunID()
		if err != nil {
			return store.Run{}, fmt.Errorf("generate run id: %w", err)
		}
		run.ID = id
	}
	if run.Status == "" {
		run.Status = store.RunStatusQueued
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO analysis_runs (id, project_id, status, matcher, threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+runColumns,
		run.ID, run.ProjectID, run.Status, run.Matcher, run.Threshold,
	)
	return scanRun(row)
}

func (s *DBStore) MarkRunRunning(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $2, updated_at = now()
		WHERE id = $1`,
		id, store.RunStatusRunning,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *DBStore) CompleteRun(ctx context.Context, id string, report json.RawMessage, metrics store.RunMetrics) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $2,
		    report = $3,
		    error_message = NULL,
		    matcher = $4,
		    threshold = $5,
		    total_tasks = $6,
		    matched_count = $7,
		    missing_count = $8,
		    extra_count = $9,
		    alignment = $10,
		    precision_score = $11,
		    recall_score = $12,
		    f1_score = $13,
		    updated_at = now()
		WHERE id = $1`,
		id, store.RunStatusDone, []byte(report),
		metrics.Matcher, metrics.Threshold,
		metrics.TotalTasks, metrics.MatchedCount, metrics.MissingCount, metrics.ExtraCount,
		metrics.Alignment, metrics.Precision, metrics.Recall, metrics.F1,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *DBStore) FailRun(ctx context.Context, id string, report json.RawMessage, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $2, report = $3, error_message = $4, updated_at = now()
		WHERE id = $1`,
		id, store.RunStatusFailed, []byte(report), errMsg,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *DBStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, id)
	return scanRun(row)
}

func (s *DBStore) ListRuns(ctx context.Context, projectID int64, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM analysis_runs
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []store.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *DBStore) DeleteProjectRuns(ctx context.Context, projectID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM analysis_runs WHERE project_id = $1`, projectID)
	return err
}
