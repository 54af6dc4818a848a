// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - http.Server
//
// The render service holds no connections: every request works on its own
// in-memory buffers, so the container only carries process-wide settings.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deppfellow/docx-render/internal/config"
	loggerPkg "github.com/deppfellow/docx-render/internal/logger"
)

// Version is the service version reported by the info endpoint.
// Overridden at build time with -ldflags "-X .../internal/server.Version=1.2.3".
var Version = "1.0.0"

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. It holds:
//   - the config
//   - the logger(s)
//   - an internal *http.Server used to listen and serve requests
type Server struct {
	// Config holds all environment/config values for the app. Fixed at startup.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	httpServer *http.Server
}

// New constructs a Server. It does NOT start listening; that is done in
// SetupHTTPServer + Start.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
	}, nil
}

// SetupHTTPServer configures the internal net/http server around handler.
//
// The write timeout is at least the request timeout plus a margin, so a
// timed-out request still gets its 503 written before the connection closes.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	writeTimeout := time.Duration(s.Config.Server.WriteTimeout) * time.Second
	if minimum := s.Config.Server.RequestTimeout + time.Second; writeTimeout < minimum {
		writeTimeout = minimum
	}

	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops and returns
// nil after a graceful Shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. Useful when the caller owns the listener.
func (s *Server) Serve(ln net.Listener) error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("addr", ln.Addr().String()).
		Str("env", s.Config.Primary.Env).
		Str("version", Version).
		Msg("starting server")

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server: it stops accepting connections,
// waits for in-flight renders until ctx expires, then flushes New Relic.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	s.LoggerService.Shutdown()

	return nil
}
