package service

import (
	"github.com/deppfellow/docx-render/internal/lib/docx"
	"github.com/deppfellow/docx-render/internal/server"
)

// Services groups the business layer.
type Services struct {
	Render *RenderService
}

// NewServices builds the services with the production template engine.
func NewServices(s *server.Server) (*Services, error) {
	engine := docx.NewEngine(docx.Options{
		ParagraphLoop: s.Config.Render.ParagraphLoop,
		Linebreaks:    s.Config.Render.Linebreaks,
	}, s.Config.Render.MinDocumentSize)

	return &Services{
		Render: NewRenderService(s, engine),
	}, nil
}
