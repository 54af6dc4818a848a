// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the routes,
// mapping specific paths to their corresponding handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/docx-render/internal/handler"
	"github.com/deppfellow/docx-render/internal/middleware"
	"github.com/deppfellow/docx-render/internal/server"
)

// NewRouter builds the Echo instance with the full middleware stack and every route.
//
// Order matters:
//   - RequestID first, so every later log line and header carries it
//   - New Relic before ContextEnhancer, so the logger picks up trace ids
//   - RequestLogger before Recover, so a recovered panic is still logged as 500
//   - BodyLimit and Timeout last, closest to the handlers
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Limits.BodyLimit(),
		middlewares.Limits.Timeout(),
	)

	registerSystemRoutes(router, h)
	registerRenderRoutes(router, h)

	return router
}
