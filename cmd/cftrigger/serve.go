package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cftrigger/internal/api"
	"cftrigger/internal/config"
	"cftrigger/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Starts the HTTP API. Build triggers block until the build finishes, so
clients should allow for long responses. Requires api.keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appConfig.ValidateServer(); err != nil {
				return &exitError{code: exitConfig, err: err}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, appConfig)
		},
	}
}

// serve runs the API until ctx is done, then shuts down gracefully
func serve(ctx context.Context, cfg *config.Config) error {
	logger.Info("Starting cftrigger service", "log_level", config.GetLogLevel())

	s, err := newStack(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	deps := api.Dependencies{
		Runner:    s.runner,
		Codefresh: s.client,
	}
	if s.store != nil {
		deps.History = s.store
		deps.DB = s.store
	}
	router := api.NewRouter(*cfg, deps)

	// PORT from the environment wins, as on most PaaS platforms
	port := cfg.Server.Port
	if envPort := os.Getenv("PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil && p > 0 {
			port = p
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Initiating graceful shutdown", "timeout", shutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err, "timeout", shutdownTimeout.String())
	} else {
		logger.Info("Server shutdown gracefully")
	}

	logger.Info("Server stopped")
	return nil
}
