package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"insightboard/internal/app"
	"insightboard/internal/config"
	"insightboard/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	cfg, err := config.Load(os.Getenv("IB_CONFIG"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		run(ctx, cfg, logger, func(a *app.App) error { return a.Serve(ctx) })
	case "worker":
		run(ctx, cfg, logger, func(a *app.App) error { return a.RunWorker(ctx) })
	default:
		usage()
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, fn func(*app.App) error) {
	appInstance, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("app init error", zap.Error(err))
	}
	defer appInstance.Close()
	if err := fn(appInstance); err != nil {
		logger.Error("exited with error", zap.Error(err))
		_ = appInstance.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: insightboardd <serve|worker>")
}
