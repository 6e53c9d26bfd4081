package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/covadev/covatrace/internal/util"
	"github.com/covadev/covatrace/pkg/codescan"
	"github.com/covadev/covatrace/pkg/store"

	"github.com/pgvector/pgvector-go"
)

func marshalList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

func unmarshalList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceProjectArtifacts swaps the project's artifact set in one
// transaction, so readers never observe a half-written snapshot.
func (s *DBStore) ReplaceProjectArtifacts(ctx context.Context, projectID int64, artifacts []store.CodeArtifact) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM code_artifacts WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear project artifacts: %w", err)
	}

	for _, a := range artifacts {
		fn := a.Function
		params, err := marshalList(fn.Parameters)
		if err != nil {
			return err
		}
		calls, err := marshalList(fn.Calls)
		if err != nil {
			return err
		}
		writes, err := marshalList(fn.Writes)
		if err != nil {
			return err
		}
		returns, err := marshalList(fn.Returns)
		if err != nil {
			return err
		}
		exceptions, err := marshalList(fn.Exceptions)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO code_artifacts (
				project_id, function_uid, file_path, language, function_name,
				signature, class_name, kind, parameters, calls, writes, returns,
				exceptions, start_line, end_line, raw_snippet,
				summary_text, structured_summary, embedding
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19
			)`,
			projectID, fn.FunctionUID, fn.FilePath, fn.Language, fn.FunctionName,
			fn.Signature, fn.ClassName, fn.Kind, params, calls, writes, returns,
			exceptions, fn.StartLine, fn.EndLine, util.SanitizePostgresText(fn.RawSnippet),
			util.SanitizePostgresText(a.SummaryText), util.SanitizePostgresText(a.StructuredSummary), pgvector.NewVector(a.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert artifact %s: %w", fn.FunctionUID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *DBStore) GetProjectArtifacts(ctx context.Context, projectID int64) ([]store.CodeArtifact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT function_uid, file_path, language, function_name, signature,
		       class_name, kind, parameters, calls, writes, returns, exceptions,
		       start_line, end_line, raw_snippet, summary_text,
		       structured_summary, embedding
		FROM code_artifacts
		WHERE project_id = $1
		ORDER BY file_path, start_line`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artifacts := []store.CodeArtifact{}
	for rows.Next() {
		var fn codescan.StructuredFunction
		var a store.CodeArtifact
		var params, calls, writes, returns, exceptions []byte
		var embedding pgvector.Vector

		err := rows.Scan(
			&fn.FunctionUID, &fn.FilePath, &fn.Language, &fn.FunctionName, &fn.Signature,
			&fn.ClassName, &fn.Kind, &params, &calls, &writes, &returns, &exceptions,
			&fn.StartLine, &fn.EndLine, &fn.RawSnippet, &a.SummaryText,
			&a.StructuredSummary, &embedding,
		)
		if err != nil {
			return nil, err
		}

		if fn.Parameters, err = unmarshalList(params); err != nil {
			return nil, err
		}
		if fn.Calls, err = unmarshalList(calls); err != nil {
			return nil, err
		}
		if fn.Writes, err = unmarshalList(writes); err != nil {
			return nil, err
		}
		if fn.Returns, err = unmarshalList(returns); err != nil {
			return nil, err
		}
		if fn.Exceptions, err = unmarshalList(exceptions); err != nil {
			return nil, err
		}

		a.ProjectID = projectID
		a.Function = fn
		a.Embedding = embedding.Slice()
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func (s *DBStore) DeleteProjectArtifacts(ctx context.Context, projectID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM code_artifacts WHERE project_id = $1`, projectID)
	return err
}
