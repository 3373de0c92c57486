package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bto/internal/platform/config"
	"bto/internal/platform/httpserver"
	"bto/internal/platform/logger"
)

// main loads configuration, wires the application and runs the HTTP server
// until SIGINT or SIGTERM. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	log.Info("starting bto server", "addr", cfg.Addr, "storage", app.storage)
	if err := httpserver.Run(ctx, httpserver.New(cfg.Addr, app.router), cfg.ShutdownTimeout, log); err != nil {
		log.Error("server stopped", "error", err)
		app.Close()
		os.Exit(1)
	}
}
