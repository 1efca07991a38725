package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := config()
	cfg.logger.Debug("configuration loaded")
	if cfg.devMode {
		cfg.logger.Debug("development mode enabled, logging at debug level")
	}

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           cfg.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// Leaves room for two upstream calls.
		WriteTimeout: 2*cfg.upstreamTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		cfg.logger.Info("starting server", "port", cfg.port, "version", cfg.version)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.logger.Error("server startup failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		cfg.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.upstreamTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			cfg.logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
