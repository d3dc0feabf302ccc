package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"WarehouseApp/internal/bootstrap"
	"WarehouseApp/internal/config"
	"WarehouseApp/internal/handlers"
	"WarehouseApp/internal/middleware"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()
	if cfg.Version {
		fmt.Printf("Warehouse server\nVersion: %s\nBuild date: %s\n", version, buildDate)
		return
	}

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := bootstrap.Build(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize app", "error", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			sugar.Errorw("failed to close app", "error", err)
		}
	}()

	h := handlers.NewHandler(app.Coordinator, app.Operators, sugar, cfg)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"StoreDriver", cfg.StoreDriver,
		"StorePath", cfg.StorePath,
		"RemoteEnabled", cfg.RemoteEnabled(),
		"UploadDriver", cfg.UploadDriver,
		"OperatorAuth", app.Operators.Enabled(),
	)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	sugar.Infow("Starting server", "addr", cfg.BaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Errorw("Server failed", "error", err)
	}
}
