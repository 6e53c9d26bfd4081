package routes

import (
	"net/http"

	"github.com/covadev/covatrace/internal/server/middleware"
	"github.com/covadev/covatrace/pkg/logger"
	"github.com/covadev/covatrace/pkg/store"
	pgstore "github.com/covadev/covatrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// ListRunsHandler returns the runs of a project, newest first.
func ListRunsHandler(c echo.Context) error {
	type listRunsParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
		Limit     int   `query:"limit"`
	}

	type listRunsResponse struct {
		Message string      `json:"message"`
		Runs    []store.Run `json:"runs,omitempty"`
	}

	params := new(listRunsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, listRunsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, listRunsResponse{
			Message: "Invalid request body",
		})
	}

	db := pgstore.New(c.(*middleware.AppContext).App.DBConn)
	runs, err := db.ListRuns(c.Request().Context(), params.ProjectID, params.Limit)
	if err != nil {
		logger.Error("Failed to list runs", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, listRunsResponse{
			Message: "Internal server error",
		})
	}

	// listings stay light, the report is fetched per run
	for i := range runs {
		runs[i].Report = nil
	}

	return c.JSON(http.StatusOK, listRunsResponse{
		Message: "Runs retrieved",
		Runs:    runs,
	})
}
