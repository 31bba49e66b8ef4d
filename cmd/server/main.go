package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mafia/internal/app"
	"mafia/internal/config"
	"mafia/internal/metrics"
	"mafia/internal/storage/sqlite"
	"mafia/internal/text"
	httpTransport "mafia/internal/transport/http"
	"mafia/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting mafia game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"locale", cfg.Game.Locale,
	)

	m := metrics.New()

	catalog, err := text.New()
	if err != nil {
		logger.Error("failed to build text catalog", "error", err)
		os.Exit(1)
	}
	rooms := ws.NewRooms(catalog.Printer(cfg.Game.Locale), logger)

	opts := []app.Option{
		app.WithMetrics(m),
		app.WithSettings(app.Settings{
			NightWindow: cfg.Game.NightWindow,
			DayWindow:   cfg.Game.DayWindow,
			RoundPause:  cfg.Game.RoundPause,
		}),
	}

	// Optional finished-game archive
	var history httpTransport.HistoryReader
	if cfg.HistoryEnabled() {
		store, err := sqlite.Open(cfg.History.DBPath)
		if err != nil {
			logger.Error("failed to open history store", "path", cfg.History.DBPath, "error", err)
			os.Exit(1)
		}
		defer store.Close()

		history = store
		opts = append(opts, app.WithArchiver(store))
		logger.Info("game history enabled", "path", cfg.History.DBPath)
	}

	// Create session registry
	registry := app.NewRegistry(rooms, logger, opts...)
	defer registry.Close()

	// Create HTTP server
	wsHandler := ws.NewHandler(registry, rooms, m, cfg.Limits.CommandRate, cfg.Limits.CommandBurst, logger)
	server := httpTransport.NewServer(cfg, registry, wsHandler, history, m, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
