package middleware

import (
	"github.com/deppfellow/docx-render/internal/server"
)

// Middlewares is a lightweight container that groups all middleware components
// used by the HTTP server. Built once in router setup.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers and the
	// global error handler.
	Global *GlobalMiddlewares

	// Limits bounds body size and processing time.
	Limits *LimitsMiddleware

	// ContextEnhancer enriches each request with a request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing provides New Relic middleware and custom attributes.
	Tracing *TracingMiddleware
}

// NewMiddlewares constructs all middleware components using the application
// container. Without New Relic, tracing middleware is a no-op.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Limits:          NewLimitsMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, s.LoggerService.GetApplication()),
	}
}
