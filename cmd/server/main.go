package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/mztab/internal/config"
	"github.com/JonMunkholm/mztab/internal/logging"
	"github.com/JonMunkholm/mztab/internal/store"
	"github.com/JonMunkholm/mztab/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// The report store is optional; without it reports are only returned.
	var reports web.ReportStore
	if cfg.Database.Enabled() {
		st, err := store.Open(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer st.Close()

		if cfg.Database.AutoMigrate {
			if err := st.EnsureSchema(ctx); err != nil {
				slog.Error("failed to create schema", "error", err)
				os.Exit(1)
			}
		}
		slog.Info("connected to database", "max_conns", cfg.Database.MaxConns)
		reports = st

		if cfg.Database.Retention > 0 {
			go store.StartRetention(ctx, st, store.RetentionConfig{
				MaxAge:        cfg.Database.Retention,
				BatchSize:     cfg.Database.RetentionBatch,
				CheckInterval: cfg.Database.RetentionInterval,
			})
		}
	} else {
		slog.Info("no DATABASE_URL set, reports will not be stored")
	}

	server := web.NewServer(cfg, reports)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("validations did not complete in time", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
