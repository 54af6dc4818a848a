package handler

import (
	"github.com/deppfellow/docx-render/internal/server"
	"github.com/deppfellow/docx-render/internal/service"
)

// Handlers is a container that groups all HTTP handlers, so router setup
// passes one object around instead of many.
type Handlers struct {
	Health  *HealthHandler  // Health serves /health and the service info at /.
	OpenAPI *OpenAPIHandler // OpenAPI serves the docs UI.
	Render  *RenderHandler  // Render serves the render endpoints.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Render:  NewRenderHandler(s, services.Render),
	}
}
