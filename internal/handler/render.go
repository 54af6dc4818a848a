package handler

import (
	"bytes"
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/server"
	"github.com/deppfellow/docx-render/internal/service"
	"github.com/deppfellow/docx-render/internal/validation"
)

// DocxContentType is the media type of a rendered document.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// RenderRequest is the body of the render endpoints.
//
// Data is kept raw: it is either a JSON object or a string holding one, and
// the service resolves it.
type RenderRequest struct {
	TemplateBase64 string          `json:"templateBase64" validate:"required"`
	Data           json.RawMessage `json:"data"`
}

// NewRenderRequest allocates the payload of one render request.
func NewRenderRequest() *RenderRequest {
	return &RenderRequest{}
}

// Validate reports a missing template first, then missing data. null and ""
// count as missing.
func (r *RenderRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	switch string(bytes.TrimSpace(r.Data)) {
	case "", "null", `""`:
		return validation.Required("data")
	}
	return nil
}

// RenderMetadata describes a rendered document.
type RenderMetadata struct {
	OutputSizeKB     float64 `json:"outputSizeKB"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
}

// RenderResponse is the success body of POST /render.
type RenderResponse struct {
	Success      bool           `json:"success"`
	OutputBase64 string         `json:"outputBase64"`
	Metadata     RenderMetadata `json:"metadata"`
}

// RenderHandler serves the render endpoints.
type RenderHandler struct {
	Handler
	renderService *service.RenderService
}

func NewRenderHandler(s *server.Server, renderService *service.RenderService) *RenderHandler {
	return &RenderHandler{
		Handler:       NewHandler(s),
		renderService: renderService,
	}
}

// Render merges the request data into the template and returns it base64 encoded.
func (h *RenderHandler) Render(c echo.Context, req *RenderRequest) (*RenderResponse, error) {
	out, err := h.renderService.RenderEncoded(c.Request().Context(), req.TemplateBase64, req.Data)
	if err != nil {
		return nil, err
	}

	return &RenderResponse{
		Success:      true,
		OutputBase64: out.OutputBase64,
		Metadata: RenderMetadata{
			OutputSizeKB:     out.OutputSizeKB,
			ProcessingTimeMs: out.ProcessingTime.Milliseconds(),
		},
	}, nil
}

// RenderFile is Render answering with the document bytes.
func (h *RenderHandler) RenderFile(c echo.Context, req *RenderRequest) ([]byte, error) {
	out, err := h.renderService.RenderEncoded(c.Request().Context(), req.TemplateBase64, req.Data)
	if err != nil {
		return nil, err
	}
	return out.Document, nil
}
