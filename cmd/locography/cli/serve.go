package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/erazemk/locography/internal/api"
	"github.com/erazemk/locography/internal/web"
)

func NewServeCommand(info VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), info)
		},
	}

	cmd.Flags().String("addr", ":8000", "listen address (overrides server.addr)")
	bindFlag(cmd, "server.addr", "addr")

	return cmd
}

func serve(ctx context.Context, info VersionInfo) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.catalog.CheckDescriptor(ctx); err != nil {
		return fmt.Errorf("checking feature descriptor: %w", err)
	}

	cfg := a.cfg
	webRouter, err := web.NewRouter(&web.Server{
		DB:              a.db,
		Catalog:         a.catalog,
		Describer:       a.llm,
		Version:         info.Version,
		MaxUploadSize:   cfg.Server.MaxUploadSize,
		SearchLimit:     cfg.Search.DefaultLimit,
		SearchThreshold: cfg.Search.DefaultThreshold,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.LoggingMiddleware)
	router.Use(middleware.Recoverer)

	router.Get("/health", api.Health(info.Version))
	router.Mount("/api/v1", api.NewRouter(api.Deps{
		DB:            a.db,
		Catalog:       a.catalog,
		Describer:     a.llm,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Search: api.SearchLimits{
			DefaultLimit:     cfg.Search.DefaultLimit,
			MaxLimit:         cfg.Search.MaxLimit,
			DefaultThreshold: cfg.Search.DefaultThreshold,
		},
	}))
	router.Mount("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second + cfg.LLMTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig := <-quit:
			slog.Info("shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr, "version", info.Version)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-done

	slog.Info("server stopped, closing database")
	return nil
}
