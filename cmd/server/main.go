package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/httpapi"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open progress store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer be.Close()

	manager := progress.NewManager(ctx, progress.Config{
		Store:  be.Store,
		Source: newSource(cfg.Source),
		Events: be.Events,
	})
	if cfg.Source.LoadOnStart {
		go func() {
			// Failures surface through the manager's loadError.
			_ = manager.Load(ctx)
		}()
	}

	asst, err := newAssistant(cfg)
	if err != nil {
		slog.Error("failed to set up study assistant", "error", err)
		os.Exit(1)
	}

	apiCfg := httpapi.Config{Manager: manager, Health: be.Health}
	if asst != nil {
		apiCfg.Assistant = asst
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpapi.New(apiCfg).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"store", cfg.Store.Backend,
			"assistant", asst != nil,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
