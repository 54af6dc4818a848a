package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/docx-render/internal/errs"
	"github.com/deppfellow/docx-render/internal/server"
)

// GlobalMiddlewares groups "global" middleware and the global error handler.
//
// It holds *server.Server so middleware can read config values (CORS origins,
// env) and the logger.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo's CORS middleware configured by the server config.
//
// A "*" entry reflects the caller's origin and allows credentials, so
// browser-based automation tools can call the service from any host.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	origins := global.server.Config.Server.CORSAllowedOrigins
	if slices.Contains(origins, "*") {
		return middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOriginFunc: func(origin string) (bool, error) {
				return true, nil
			},
			AllowCredentials: true,
		})
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
	})
}

// RequestLogger returns Echo's request logger middleware with a custom LogValuesFunc.
//
// It produces one "API" log line per request, with severity based on status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// When a handler returns an error, the final status is only decided
			// by GlobalErrorHandler, so derive it from the error.
			// Reference: https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				var httpErr *errs.HTTPError
				var echoErr *echo.HTTPError

				if errors.As(v.Error, &httpErr) {
					statusCode = httpErr.Status
				} else if errors.As(v.Error, &echoErr) {
					statusCode = echoErr.Code
				} else {
					statusCode = http.StatusInternalServerError
				}
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Int64("content_length", c.Request().ContentLength).
				Msg("API")

			return nil
		},
	})
}

// Recover returns Echo's panic recovery middleware.
// Panics become errors handed to GlobalErrorHandler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll:   true,
		DisablePrintStack: true,
	})
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// Every error ends up here. It is logged with the request-scoped logger and
// written as the JSON failure body. Errors flagged Override, and unknown
// errors, answer with errs.GenericMessage in production.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	// Logs keep the real underlying error.
	originalErr := err

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			httpErr = fromEchoError(echoErr)
		} else {
			httpErr = errs.NewInternalServerError(err.Error())
		}
	}

	message := httpErr.Message
	if httpErr.Override && global.server.Config.IsProduction() {
		message = errs.GenericMessage
	}

	logger := GetLogger(c)

	event := logger.Warn()
	if httpErr.Status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	}
	event.
		Err(originalErr).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(message)

	if c.Response().Committed {
		return
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(httpErr.Status)
	} else {
		writeErr = c.JSON(httpErr.Status, errs.HTTPError{
			Success: false,
			Code:    httpErr.Code,
			Message: message,
			Status:  httpErr.Status,
			Errors:  httpErr.Errors,
		})
	}
	if writeErr != nil {
		logger.Error().Err(writeErr).Msg("failed to write error response")
	}
}

// fromEchoError converts Echo's error (unknown route, body limit, timeout)
// into the response schema.
func fromEchoError(echoErr *echo.HTTPError) *errs.HTTPError {
	switch echoErr.Code {
	case http.StatusNotFound:
		return errs.NewNotFoundError("Route not found", false, nil)
	case http.StatusRequestEntityTooLarge:
		return errs.New(echoErr.Code, "", "Request body too large")
	case http.StatusServiceUnavailable:
		return errs.New(echoErr.Code, "REQUEST_TIMEOUT", "Request processing timed out")
	}

	message := http.StatusText(echoErr.Code)
	if msg, ok := echoErr.Message.(string); ok {
		message = msg
	}
	return errs.New(echoErr.Code, "", message).WithCause(echoErr)
}
