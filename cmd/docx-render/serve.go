package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/docx-render/internal/config"
	"github.com/deppfellow/docx-render/internal/handler"
	"github.com/deppfellow/docx-render/internal/logger"
	"github.com/deppfellow/docx-render/internal/router"
	"github.com/deppfellow/docx-render/internal/server"
	"github.com/deppfellow/docx-render/internal/service"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run the HTTP render service.

Configuration comes from the environment (and a .env file when present):
PORT, DOCXRENDER_PRIMARY.ENV, DOCXRENDER_SERVER.*, DOCXRENDER_RENDER.*,
DOCXRENDER_OBSERVABILITY.*.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		return err
	}
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	services, err := service.NewServices(srv)
	if err != nil {
		return fmt.Errorf("could not create services: %w", err)
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		loggerService.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Msg("in-flight requests did not finish before the shutdown timeout")
		}
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
