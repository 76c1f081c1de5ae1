package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(config.Dir(), config.EnvironmentFromEnv())
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	watcher, err := di.WatchConfig(container, loader)
	if err != nil {
		container.Logger.Warn("config watcher disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	if err := di.Serve(ctx, container); err != nil {
		container.Logger.Error("server stopped with error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	container.Logger.Info("server stopped")
}
