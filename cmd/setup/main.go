package main

import (
	"context"
	"flag"
	"fmt"

	"cex-withdraw-go/internal/common"
	"cex-withdraw-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cleanupFlag := flag.Bool("cleanup", false, "Also run one invitation cleanup pass")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	created, err := services.Dashboard.SetupDemo(ctx)
	if err != nil {
		zap.L().Fatal("Failed to create demo organization", zap.Error(err))
	}

	common.PrintHeader("SETUP", common.DefaultWidth)
	if created {
		fmt.Println("Default organization \"demo\" has been created.")
		fmt.Println("Register users through the web UI or with the adduser command.")
	} else {
		fmt.Println("An organization already exists. Nothing was changed.")
	}
	common.PrintSeparator("=", common.DefaultWidth)

	if *cleanupFlag {
		result, err := services.Scheduler.RunOnce(ctx)
		if err != nil {
			zap.L().Fatal("Invitation cleanup failed", zap.Error(err))
		}
		fmt.Printf("Invitations expired: %d, deleted: %d\n", result.Expired, result.Deleted)
	}

	zap.L().Info("Setup complete", zap.Bool("demo_created", created))
}
