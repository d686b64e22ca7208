// Package main はAPIサーバーのエントリポイント。
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

	"inventory-envelope/config"
	"inventory-envelope/internal/app"
	"inventory-envelope/internal/handler"
	"inventory-envelope/internal/infra"
)

func main() {
	ctx := context.Background()

	// 設定読み込み（.envがあれば読み込む。既存の環境変数は上書きしない）
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// トレーサー初期化（ロガー設定の前に実行）
	shutdownTracer, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg)

	// DB・鍵ストア・サービスの初期化。鍵を用意できなければ起動しない
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close resources", "error", err)
		}
	}()

	handlers := handler.Handlers{
		Envelope: handler.NewEnvelopeHandler(a.Envelope),
		Settings: handler.NewSettingsHandler(a.Settings),
		Items:    handler.NewItemHandler(a.Transfer),
	}
	if a.Metrics != nil {
		handlers.Metrics = a.Metrics.Handler()
		handlers.Recorder = a.Metrics
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server",
		"port", cfg.Port,
		"key_store", cfg.KeyStore,
		"alias", a.Envelope.Alias(),
	)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
