package routes

import (
	"encoding/json"
	"net/http"

	"github.com/covadev/covatrace/internal/queue"
	"github.com/covadev/covatrace/internal/server/middleware"
	"github.com/covadev/covatrace/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteProjectHandler enqueues the removal of all project data: runs,
// persisted code artifacts and the stored files.
func DeleteProjectHandler(c echo.Context) error {
	type deleteProjectParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
	}

	type deleteProjectResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteProjectParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteProjectResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteProjectResponse{
			Message: "Invalid request body",
		})
	}

	msg, err := json.Marshal(queue.DeleteProjectMsg{ProjectID: params.ProjectID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteProjectResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, "delete_queue", msg); err != nil {
		logger.Error("Failed to publish to delete_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteProjectResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, deleteProjectResponse{
		Message: "Project deletion queued",
	})
}
