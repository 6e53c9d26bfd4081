package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/covadev/covatrace/internal/queue"
	"github.com/covadev/covatrace/internal/server/middleware"
	"github.com/covadev/covatrace/internal/storage"
	"github.com/covadev/covatrace/pkg/bpmn"
	"github.com/covadev/covatrace/pkg/logger"
	"github.com/covadev/covatrace/pkg/store"
	pgstore "github.com/covadev/covatrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// AnalyzeHandler accepts a BPMN model (and optionally code snapshot
// files), prechecks the model, stores the inputs in S3, creates a
// queued run and publishes the analyze job.
func AnalyzeHandler(c echo.Context) error {
	type analyzeParams struct {
		ProjectID      int64   `param:"id" validate:"required,numeric"`
		Matcher        string  `form:"matcher"`
		Threshold      float64 `form:"threshold"`
		TopK           int     `form:"top_k"`
		Debug          bool    `form:"debug"`
		ReuseArtifacts bool    `form:"reuse_artifacts"`
	}

	type analyzeResponse struct {
		Message  string               `json:"message"`
		Run      *store.Run           `json:"run,omitempty"`
		Precheck *bpmn.PrecheckResult `json:"precheck,omitempty"`
	}

	params := new(analyzeParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}
	bpmnUploads := form.File["bpmn"]
	if len(bpmnUploads) == 0 {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "No BPMN model provided",
		})
	}

	src, err := bpmnUploads[0].Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Could not open BPMN file",
		})
	}
	bpmnBytes, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Could not read BPMN file",
		})
	}

	// reject broken models before anything is stored or queued
	precheck := bpmn.Precheck(bpmnBytes)
	if !precheck.OK {
		return c.JSON(http.StatusUnprocessableEntity, analyzeResponse{
			Message:  "BPMN model failed structural checks",
			Precheck: &precheck,
		})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3

	fileID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Internal server error",
		})
	}
	bpmnKey, err := storage.PutFile(
		ctx,
		s3Client,
		fmt.Sprintf("projects/%d/bpmn", params.ProjectID),
		bpmnUploads[0].Filename,
		fileID,
		bytes.NewReader(bpmnBytes),
	)
	if err != nil {
		logger.Error("Failed to upload BPMN model", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Internal server error",
		})
	}

	codePrefix := fmt.Sprintf("projects/%d/code", params.ProjectID)
	for _, upload := range form.File["code"] {
		rel := path.Clean(upload.Filename)
		if rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		codeSrc, err := upload.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, analyzeResponse{
				Message: "Could not open code file",
			})
		}
		err = storage.PutFileAt(ctx, s3Client, codePrefix+"/"+rel, codeSrc)
		codeSrc.Close()
		if err != nil {
			logger.Error("Failed to upload code file", "file", rel, "err", err)
			return c.JSON(http.StatusInternalServerError, analyzeResponse{
				Message: "Internal server error",
			})
		}
	}

	conn := c.(*middleware.AppContext).App.DBConn
	db := pgstore.New(conn)
	run, err := db.CreateRun(ctx, store.Run{
		ProjectID: params.ProjectID,
		Matcher:   params.Matcher,
		Threshold: params.Threshold,
	})
	if err != nil {
		logger.Error("Failed to create run", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Internal server error",
		})
	}

	job := queue.AnalyzeJobMsg{
		RunID:          run.ID,
		ProjectID:      params.ProjectID,
		BPMNKey:        bpmnKey,
		CodePrefix:     codePrefix,
		Matcher:        params.Matcher,
		Threshold:      params.Threshold,
		TopK:           params.TopK,
		Debug:          params.Debug,
		ReuseArtifacts: params.ReuseArtifacts,
	}
	msgBytes, err := json.Marshal(job)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, "analyze_queue", msgBytes); err != nil {
		logger.Error("Failed to publish to analyze_queue", "err", err)
		if failErr := db.FailRun(ctx, run.ID, nil, "failed to enqueue analyze job"); failErr != nil {
			logger.Error("Failed to mark run as failed", "run_id", run.ID, "err", failErr)
		}
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, analyzeResponse{
		Message: "Analysis queued",
		Run:     &run,
	})
}
