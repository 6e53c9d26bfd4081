package server

import (
	"github.com/covadev/covatrace/internal/server/middleware"
	"github.com/covadev/covatrace/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Model check routes
	apiRoutes.POST("/precheck", routes.PrecheckHandler, middleware.RequirePermission("precheck.run"))

	// Analysis routes
	apiRoutes.POST("/projects/:id/analyze", routes.AnalyzeHandler, middleware.RequirePermission("run.create"))
	apiRoutes.GET("/projects/:id/runs", routes.ListRunsHandler, middleware.RequireAnyPermission("run.view", "run.view:all"))
	apiRoutes.GET("/runs/:id", routes.GetRunHandler, middleware.RequireAnyPermission("run.view", "run.view:all"))

	// Project routes
	apiRoutes.DELETE("/projects/:id", routes.DeleteProjectHandler, middleware.RequirePermission("project.delete"))
}
