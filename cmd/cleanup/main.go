package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"cex-withdraw-go/internal/common"
	"cex-withdraw-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	watchFlag := flag.Bool("watch", false, "Keep running on the configured schedule until interrupted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *watchFlag {
		if err := services.Scheduler.Start(ctx); err != nil {
			zap.L().Fatal("Failed to start invitation cleanup", zap.Error(err))
		}
		<-ctx.Done()
		services.Scheduler.Stop()
		return
	}

	result, err := services.Scheduler.RunOnce(ctx)
	if err != nil {
		zap.L().Fatal("Invitation cleanup failed", zap.Error(err))
	}
	fmt.Printf("Invitations expired: %d, deleted: %d\n", result.Expired, result.Deleted)
}
