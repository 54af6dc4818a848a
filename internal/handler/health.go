package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/middleware"
	"github.com/deppfellow/docx-render/internal/server"
)

// timestampLayout is ISO 8601 in UTC with milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HealthHandler exposes the "system" endpoints that uptime monitors and
// automation platforms use to check the service is reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// CheckHealth always reports ok: the service has no dependency to probe.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	middleware.GetLogger(c).Debug().
		Str("operation", "health_check").
		Msg("health check passed")

	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Message:   "Docx renderer service is running",
		Timestamp: time.Now().UTC().Format(timestampLayout),
	})
}

// Info describes the service and its endpoints.
func (h *HealthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, InfoResponse{
		Service: "DOCX Renderer Service",
		Version: server.Version,
		Endpoints: map[string]string{
			"health":     "GET /health",
			"render":     "POST /render",
			"renderFile": "POST /render/file",
			"docs":       "GET /docs",
		},
	})
}
