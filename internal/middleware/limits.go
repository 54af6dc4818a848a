package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/deppfellow/docx-render/internal/errs"
	"github.com/deppfellow/docx-render/internal/server"
)

// LimitsMiddleware bounds request size and processing time, and records a
// New Relic custom event every time a limit is hit.
type LimitsMiddleware struct {
	server *server.Server
}

func NewLimitsMiddleware(s *server.Server) *LimitsMiddleware {
	return &LimitsMiddleware{
		server: s,
	}
}

// BodyLimit rejects bodies larger than server.body_limit with 413.
func (l *LimitsMiddleware) BodyLimit() echo.MiddlewareFunc {
	limit := middleware.BodyLimit(l.server.Config.Server.BodyLimit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := limit(next)
		return func(c echo.Context) error {
			err := h(c)
			var echoErr *echo.HTTPError
			if errors.As(err, &echoErr) && echoErr.Code == http.StatusRequestEntityTooLarge {
				l.RecordLimitHit(c, "body_limit")
			}
			return err
		}
	}
}

// Timeout cancels the request context after server.request_timeout. A
// handler that gives up because of it answers 503.
func (l *LimitsMiddleware) Timeout() echo.MiddlewareFunc {
	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: l.server.Config.Server.RequestTimeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				l.RecordLimitHit(c, "request_timeout")
				return errs.New(http.StatusServiceUnavailable, "REQUEST_TIMEOUT", "Request processing timed out").
					WithCause(err)
			}
			return err
		},
	})
}

// RecordLimitHit records a LimitHit custom event when New Relic is enabled.
func (l *LimitsMiddleware) RecordLimitHit(c echo.Context, limit string) {
	GetLogger(c).Warn().Str("limit", limit).Msg("request limit hit")

	l.server.LoggerService.RecordCustomEvent("LimitHit", map[string]interface{}{
		"limit":    limit,
		"endpoint": c.Path(),
	})
}
