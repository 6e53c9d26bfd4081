package routes

import (
	"errors"
	"net/http"

	"github.com/covadev/covatrace/internal/server/middleware"
	"github.com/covadev/covatrace/pkg/logger"
	"github.com/covadev/covatrace/pkg/store"
	pgstore "github.com/covadev/covatrace/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetRunHandler returns a single run including its report payload.
func GetRunHandler(c echo.Context) error {
	type getRunParams struct {
		RunID string `param:"id" validate:"required"`
	}

	type getRunResponse struct {
		Message string     `json:"message"`
		Run     *store.Run `json:"run,omitempty"`
	}

	params := new(getRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Invalid request body",
		})
	}

	db := pgstore.New(c.(*middleware.AppContext).App.DBConn)
	run, err := db.GetRun(c.Request().Context(), params.RunID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getRunResponse{
				Message: "Run not found",
			})
		}
		logger.Error("Failed to get run", "run_id", params.RunID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunResponse{
		Message: "Run retrieved",
		Run:     &run,
	})
}
