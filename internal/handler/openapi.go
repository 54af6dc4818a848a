package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/server"
	"github.com/deppfellow/docx-render/static"
)

// OpenAPIHandler serves the API documentation UI.
//
// The UI is a static HTML page (openapi.html) that loads its JS from a CDN
// and reads /static/openapi.json. Both files are embedded in the binary.
type OpenAPIHandler struct {
	Handler
}

// NewOpenAPIHandler constructs an OpenAPIHandler with access to shared dependencies.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI serves openapi.html. Cache-Control is "no-cache" so clients
// do not reuse an old docs page.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := static.FS.ReadFile("openapi.html")
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err := c.HTMLBlob(http.StatusOK, page); err != nil {
		return fmt.Errorf("failed to write HTML response: %w", err)
	}

	return nil
}
