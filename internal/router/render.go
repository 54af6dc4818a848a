package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/handler"
)

func registerRenderRoutes(r *echo.Echo, h *handler.Handlers) {
	r.POST("/render", handler.Handle(
		h.Render.Handler,
		h.Render.Render,
		http.StatusOK,
		handler.NewRenderRequest,
	))

	r.POST("/render/file", handler.HandleFile(
		h.Render.Handler,
		h.Render.RenderFile,
		http.StatusOK,
		handler.NewRenderRequest,
		"rendered.docx",
		handler.DocxContentType,
	))
}
