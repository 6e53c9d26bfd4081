package routes

import (
	"io"
	"net/http"

	"github.com/covadev/covatrace/pkg/bpmn"
	"github.com/covadev/covatrace/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PrecheckHandler validates an uploaded BPMN model synchronously and
// returns the structural check result. The model can arrive either as a
// multipart "bpmn" file or as the raw request body.
func PrecheckHandler(c echo.Context) error {
	type precheckResponse struct {
		Message string               `json:"message"`
		Result  *bpmn.PrecheckResult `json:"result,omitempty"`
	}

	data, err := readBPMNUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, precheckResponse{
			Message: "Invalid request body",
		})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusBadRequest, precheckResponse{
			Message: "No BPMN model provided",
		})
	}

	result := bpmn.Precheck(data)
	if !result.OK {
		logger.Debug("Precheck rejected model", "errors", len(result.Errors))
	}

	return c.JSON(http.StatusOK, precheckResponse{
		Message: "Precheck completed",
		Result:  &result,
	})
}

// readBPMNUpload pulls the model bytes out of the request: multipart
// file field "bpmn" first, raw body as fallback.
func readBPMNUpload(c echo.Context) ([]byte, error) {
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["bpmn"]
		if len(files) > 0 {
			src, err := files[0].Open()
			if err != nil {
				return nil, err
			}
			defer src.Close()
			return io.ReadAll(src)
		}
	}
	return io.ReadAll(c.Request().Body)
}
