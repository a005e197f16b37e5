package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahulNinjatech/fever/config"
	"github.com/rahulNinjatech/fever/internal/app"
	"github.com/rahulNinjatech/fever/internal/handlers/http"
	"github.com/rahulNinjatech/fever/internal/metrics"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := setupLogger(cfg.Env)
	metrics.Register()

	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutting down...")
		cancel()
	}()

	// Initialize app
	log.Info("Initializing app...")

	app, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to initialize app: %v", err))
		os.Exit(1)
	}

	// Start ingestion pipeline
	log.Info("Starting ingestion pipeline...")
	go app.Ingestor.Run(ctx)

	// Set up HTTP server
	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	httpServer := http.NewServer(httpAddr, app.QueryService, log)

	// Start HTTP server in a goroutine
	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", httpAddr))
		if err := httpServer.Start(); err != nil {
			log.Info(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Clean up app resources
	log.Info("Cleaning up app resources...")
	app.Cleanup(ctx)

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server with timeout
	log.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("Service stopped.")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
