/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"cex-withdraw-go/internal/common"
	"cex-withdraw-go/internal/config"
	"cex-withdraw-go/internal/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalOrganizations int
	orgsWithBalances   int
	totalBalances      int
}

// collectBalances walks every page of the organization's aggregated balances.
func collectBalances(ctx context.Context, services *common.Services, orgId string) ([]models.Balance, map[string]string, error) {
	var all []models.Balance
	errs := make(map[string]string)
	for page := 1; ; page++ {
		result, err := services.Dashboard.Balances(ctx, orgId, page)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, result.Balances...)
		for name, msg := range result.ExchangeErrors {
			errs[name] = msg
		}
		if page >= result.TotalPages {
			return all, errs, nil
		}
	}
}

func processOrganization(ctx context.Context, services *common.Services, org models.Organization) (int, error) {
	balances, exchangeErrors, err := collectBalances(ctx, services, org.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get balances for %s: %w", org.Slug, err)
	}

	var pending []models.Balance
	if services.Journal != nil {
		pending, err = services.Journal.PendingWithdrawals(ctx, org.Id)
		if err != nil {
			zap.L().Warn("Failed to read pending withdrawals from journal",
				zap.String("organization_id", org.Id),
				zap.Error(err))
		}
	}

	if len(balances) == 0 && len(exchangeErrors) == 0 && len(pending) == 0 {
		return 0, nil
	}

	common.PrintOrganizationHeader(org, len(balances))
	common.PrintExchangeErrors(exchangeErrors, services.Dashboard.DisplayName)
	common.PrintBalances(balances, services.Dashboard.DisplayName)
	if len(pending) > 0 {
		fmt.Println("│  Pending withdrawals (journal):")
		common.PrintBalances(pending, func(string) string { return "pending" })
	}

	return len(balances), nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	orgFlag := flag.String("org", "", "Filter by organization slug (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	orgs, err := common.ResolveOrganizations(ctx, services.DbService, *orgFlag)
	if err != nil {
		logger.Fatal("Failed to resolve organizations", zap.Error(err))
	}

	common.PrintHeader("ORGANIZATION BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	var failures error
	for _, org := range orgs {
		stats.totalOrganizations++
		count, err := processOrganization(ctx, services, org)
		if err != nil {
			failures = multierr.Append(failures, err)
			continue
		}
		if count > 0 {
			stats.orgsWithBalances++
			stats.totalBalances += count
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d organizations with balances (%d balances across %d organizations queried)",
		stats.orgsWithBalances, stats.totalBalances, stats.totalOrganizations)
	common.PrintFooter(summary, common.DefaultWidth)

	if failures != nil {
		logger.Error("Some organizations could not be reported", zap.Errors("errors", multierr.Errors(failures)))
	}
	logger.Info("Balance query completed",
		zap.Int("organizations_queried", stats.totalOrganizations),
		zap.Int("organizations_with_balances", stats.orgsWithBalances),
		zap.Int("total_balances", stats.totalBalances))
}
