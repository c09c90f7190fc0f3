package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/dictamed/backend/external/config"
	"github.com/dictamed/backend/external/httpapi"
	mediaimpl "github.com/dictamed/backend/external/media"
	storeimpl "github.com/dictamed/backend/external/store"
	webhookimpl "github.com/dictamed/backend/external/webhook"
	"github.com/dictamed/backend/internal/config"
	"github.com/dictamed/backend/internal/stats"
	"github.com/dictamed/backend/internal/submission"
	"github.com/dictamed/backend/internal/webhook"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching http server")
	runServer(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	storeimpl.RegisterDI(injector)
	mediaimpl.RegisterDI(injector)
	webhook.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	stats.RegisterDI(injector)
	submission.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func runServer(injector do.Injector) {
	server, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}
	svc, err := do.Invoke[*submission.Service](injector)
	if err != nil {
		slog.Error("failed to resolve submission service", "error", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	if err := server.Shutdown(); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	// Let pending fire-and-forget stat writes land before exit.
	svc.Flush()
}
