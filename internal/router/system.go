package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/handler"
	"github.com/deppfellow/docx-render/static"
)

// registerSystemRoutes registers endpoints that are not part of the render flow:
//  1. Health endpoint and service info
//  2. Docs endpoint (OpenAPI UI)
//  3. Static files endpoint (openapi.json)
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.Health.Info)
	r.GET("/health", h.Health.CheckHealth)

	r.StaticFS("/static", static.FS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
