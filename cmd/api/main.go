package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"company_research/pkg/app"
	"company_research/pkg/core/config"
	"company_research/pkg/core/logging"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("RESEARCH_CONFIG")
	if configPath == "" {
		configPath = "config/research.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()
	a.WatchQuestions(ctx)

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: a.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("API server starting", zap.String("addr", cfg.Server.ListenAddr))
	for _, route := range []string{
		"GET  /healthz",
		"GET  /api/config",
		"GET  /api/questions",
		"POST /api/documents/retrieve",
		"GET  /api/documents/{company}",
		"POST /api/analysis/run",
		"GET  /api/analysis/stream  (SSE)",
		"POST /api/analysis/preset",
		"GET  /api/analysis/runs?company=",
		"GET  /api/analysis/runs/{id}",
		"GET  /api/analysis/runs/{id}/report",
		"GET  /api/exports/{company}/{file}",
	} {
		logger.Debug("route", zap.String("route", route))
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}
