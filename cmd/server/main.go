package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/kahnflow/internal/api"
	"github.com/gyaneshwarpardhi/kahnflow/internal/catalog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
	"github.com/gyaneshwarpardhi/kahnflow/internal/ctxlog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/engine"
	"github.com/gyaneshwarpardhi/kahnflow/internal/metrics"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task/builtin"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/pipelines.yaml", "Path to pipelines config (.yaml or .hcl)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format override (text, json)")
	flag.Parse()

	slog.SetDefault(ctxlog.New(*logLevel, *logFormat, os.Stdout))

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	slog.SetDefault(ctxlog.New(override(*logLevel, cfg.Log.Level), override(*logFormat, cfg.Log.Format), os.Stdout))

	// ── Node types ────────────────────────────────────────────────────────────
	reg := task.NewRegistry()
	builtin.Register(reg)

	// ── Build initial catalog ────────────────────────────────────────────────
	cat, err := catalog.Compile(cfg, reg)
	if err != nil {
		slog.Error("failed to build pipelines", "err", err)
		os.Exit(1)
	}
	slog.Info("pipelines built", "pipelines", cat.Len(), "version", cat.Version(), "strategy", cfg.Engine.Strategy)

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, cat, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Engine settings are fixed at startup; a reload only replaces pipelines.
	loader.OnChange(func(newCfg *config.Config) error {
		next, err := catalog.Compile(newCfg, reg)
		if err != nil {
			metrics.CatalogReloads.WithLabelValues("error").Inc()
			slog.Warn("hot-reload skipped: pipelines invalid", "err", err)
			return err
		}
		eng.SwapCatalog(next)
		metrics.CatalogReloads.WithLabelValues("success").Inc()
		slog.Info("pipelines hot-reloaded", "pipelines", next.Len(), "version", next.Version())
		return nil
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown() // finish queued runs
	cancel()
	slog.Info("goodbye")
}

func override(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}
