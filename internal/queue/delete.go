package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/covadev/covatrace/internal/storage"
	"github.com/covadev/covatrace/pkg/logger"
	pgstore "github.com/covadev/covatrace/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessDeleteMessage removes everything a project owns: its runs and
// code artifacts in Postgres and its files in S3.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(DeleteProjectMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	db := pgstore.New(conn)
	if err := db.DeleteProjectArtifacts(ctx, data.ProjectID); err != nil {
		return fmt.Errorf("delete code artifacts: %w", err)
	}
	if err := db.DeleteProjectRuns(ctx, data.ProjectID); err != nil {
		return fmt.Errorf("delete runs: %w", err)
	}

	prefix := data.Prefix
	if prefix == "" {
		prefix = fmt.Sprintf("projects/%d", data.ProjectID)
	}
	if err := storage.DeleteFolder(ctx, s3Client, prefix); err != nil {
		return err
	}

	logger.Info("[Queue] Deleted project data", "project_id", data.ProjectID, "prefix", prefix)
	return nil
}
