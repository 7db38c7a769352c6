package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/auth"
	"cex-withdraw-go/internal/database"
	"cex-withdraw-go/internal/exchange"
	"cex-withdraw-go/internal/formance"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/scheduler"
	"cex-withdraw-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is everything a binary needs, wired from one config
type Services struct {
	DbService *database.Service
	Registry  *exchange.Registry
	// Journal is nil unless a Formance stack is configured
	Journal   *formance.Service
	Dashboard *api.DashboardService
	Auth      *auth.Service
	Scheduler *scheduler.CleanupScheduler
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	services, err := wireServices(ctx, cfg, dbService)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	return services, nil
}

func wireServices(ctx context.Context, cfg *models.Config, dbService *database.Service) (*Services, error) {
	httpClient, err := exchange.NewHTTPClient(cfg.Exchanges)
	if err != nil {
		return nil, fmt.Errorf("unable to build exchange HTTP client: %w", err)
	}

	catalog, err := loadCatalog(cfg.Exchanges.CatalogFile)
	if err != nil {
		return nil, err
	}
	registry := exchange.NewRegistry(catalog, httpClient)

	var journal store.WithdrawalJournal
	var formanceService *formance.Service
	if cfg.Formance.StackURL != "" {
		zap.L().Info("Connecting to Formance withdrawal journal",
			zap.String("stack_url", cfg.Formance.StackURL),
			zap.String("ledger", cfg.Formance.LedgerName))
		formanceService, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize withdrawal journal: %w", err)
		}
		journal = formanceService
	} else {
		zap.L().Info("Formance journal disabled; withdrawals are recorded locally only")
	}

	dashboard, err := api.NewDashboardService(dbService, registry, journal, cfg.Cleanup)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(dbService, cfg.Auth)
	if err != nil {
		return nil, err
	}

	cleanup, err := scheduler.NewCleanupScheduler(dashboard, cfg.Cleanup.Schedule)
	if err != nil {
		return nil, err
	}

	return &Services{
		DbService: dbService,
		Registry:  registry,
		Journal:   formanceService,
		Dashboard: dashboard,
		Auth:      authService,
		Scheduler: cleanup,
	}, nil
}

// loadCatalog falls back to the built-in exchange list when the file is absent.
func loadCatalog(catalogFile string) (*exchange.Catalog, error) {
	if catalogFile == "" {
		return exchange.DefaultCatalog(), nil
	}
	catalog, err := exchange.LoadCatalog(catalogFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zap.L().Info("Exchange catalog not found, using defaults", zap.String("file", catalogFile))
			return exchange.DefaultCatalog(), nil
		}
		return nil, err
	}
	zap.L().Info("Exchange catalog loaded", zap.String("file", catalogFile), zap.Int("count", len(catalog.Exchanges)))
	return catalog, nil
}

func (cs *Services) Close() {
	if cs.Scheduler != nil {
		cs.Scheduler.Stop()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
