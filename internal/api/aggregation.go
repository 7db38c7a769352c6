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

package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cex-withdraw-go/internal/exchange"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	BalancePageSize     = 50
	exchangeHistorySize = 100
)

var ErrExchangeNotConfigured = errors.New("exchange not configured")

func (s *DashboardService) buildClient(cfg models.ExchangeConfig) (exchange.Client, error) {
	return s.factory.CreateClient(cfg.ExchangeName, exchange.Credentials{
		ApiKey:     cfg.ApiKey,
		ApiSecret:  cfg.ApiSecret,
		Passphrase: cfg.Passphrase,
		Testnet:    cfg.Testnet,
	})
}

// clientFor resolves the organization's active config for exchangeName.
// Missing or incomplete credentials yield ErrExchangeNotConfigured.
func (s *DashboardService) clientFor(ctx context.Context, organizationId, exchangeName string, requireValid bool) (exchange.Client, error) {
	cfg, err := s.store.GetActiveExchangeConfigByName(ctx, organizationId, exchangeName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrExchangeNotConfigured
		}
		return nil, err
	}
	if !cfg.HasCredentials() || (requireValid && !cfg.IsValid) {
		return nil, ErrExchangeNotConfigured
	}
	return s.buildClient(*cfg)
}

func (s *DashboardService) usableConfigs(ctx context.Context, organizationId string, requireValid bool) ([]models.ExchangeConfig, error) {
	configs, err := s.store.ListActiveExchangeConfigs(ctx, organizationId)
	if err != nil {
		return nil, fmt.Errorf("unable to load exchange configs: %w", err)
	}

	usable := configs[:0]
	for _, cfg := range configs {
		if !cfg.HasCredentials() || (requireValid && !cfg.IsValid) {
			continue
		}
		usable = append(usable, cfg)
	}
	return usable, nil
}

func recordExchangeError(errs map[string]string, exchangeName string, err error) {
	msg := err.Error()
	if msg == "" {
		msg = "unknown error"
	}
	errs[exchangeName] = msg
	zap.L().Warn("Exchange request failed",
		zap.String("exchange", exchangeName),
		zap.Error(err))
}

func positiveBalances(balances []models.Balance, exchangeName string) []models.Balance {
	out := make([]models.Balance, 0, len(balances))
	for _, b := range balances {
		if !b.Total.IsPositive() {
			continue
		}
		b.Exchange = exchangeName
		out = append(out, b)
	}
	return out
}

// Balances merges the non-zero balances of every valid, active exchange,
// largest total first, and returns the requested page.
func (s *DashboardService) Balances(ctx context.Context, organizationId string, page int) (*models.BalancePage, error) {
	configs, err := s.usableConfigs(ctx, organizationId, true)
	if err != nil {
		return nil, err
	}

	exchangeErrors := make(map[string]string)
	var all []models.Balance
	for _, cfg := range configs {
		client, err := s.buildClient(cfg)
		if err != nil {
			recordExchangeError(exchangeErrors, cfg.ExchangeName, err)
			continue
		}

		balances, err := client.GetBalance(ctx, "")
		if err != nil {
			recordExchangeError(exchangeErrors, cfg.ExchangeName, err)
			continue
		}
		all = append(all, positiveBalances(balances, cfg.ExchangeName)...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Total.GreaterThan(all[j].Total)
	})

	if page < 1 {
		page = 1
	}
	total := len(all)
	totalPages := (total + BalancePageSize - 1) / BalancePageSize
	// Pages past the end are empty; checked before multiplying so huge
	// page numbers cannot overflow the offset.
	start := total
	if page <= totalPages {
		start = (page - 1) * BalancePageSize
	}
	end := start + BalancePageSize
	if end > total {
		end = total
	}

	return &models.BalancePage{
		Balances:       all[start:end],
		ExchangeErrors: exchangeErrors,
		Page:           page,
		TotalPages:     totalPages,
		Total:          total,
	}, nil
}

// WithdrawFormData gathers coins and balances of every credentialed exchange.
// Exchanges are visited in order; the two calls per exchange run
// concurrently and either failing marks the whole exchange as failed.
func (s *DashboardService) WithdrawFormData(ctx context.Context, organizationId string) (*models.WithdrawFormData, error) {
	configs, err := s.usableConfigs(ctx, organizationId, false)
	if err != nil {
		return nil, err
	}

	data := &models.WithdrawFormData{ExchangeErrors: make(map[string]string)}
	for _, cfg := range configs {
		data.AvailableExchanges = append(data.AvailableExchanges, models.AvailableExchange{
			Name:        cfg.ExchangeName,
			DisplayName: s.factory.DisplayName(cfg.ExchangeName),
			Implemented: s.factory.IsImplemented(cfg.ExchangeName),
		})

		client, err := s.buildClient(cfg)
		if err != nil {
			recordExchangeError(data.ExchangeErrors, cfg.ExchangeName, err)
			continue
		}

		var coins []models.Coin
		var balances []models.Balance
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			coins, err = client.ListCoins(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			balances, err = client.GetBalance(gctx, "")
			return err
		})
		if err := g.Wait(); err != nil {
			recordExchangeError(data.ExchangeErrors, cfg.ExchangeName, err)
			continue
		}

		for _, c := range coins {
			c.Exchange = cfg.ExchangeName
			data.Coins = append(data.Coins, c)
		}
		data.Balances = append(data.Balances, positiveBalances(balances, cfg.ExchangeName)...)
	}

	wallets, err := s.store.ListWallets(ctx, organizationId)
	if err != nil {
		return nil, fmt.Errorf("unable to load saved wallets: %w", err)
	}
	data.SavedWallets = wallets

	return data, nil
}

// AvailableExchanges lists credentialed exchanges; requireValid additionally
// drops configs whose last connection test failed.
func (s *DashboardService) AvailableExchanges(ctx context.Context, organizationId string, requireValid bool) ([]models.AvailableExchange, error) {
	configs, err := s.usableConfigs(ctx, organizationId, requireValid)
	if err != nil {
		return nil, err
	}

	out := make([]models.AvailableExchange, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, models.AvailableExchange{
			Name:        cfg.ExchangeName,
			DisplayName: s.factory.DisplayName(cfg.ExchangeName),
			Implemented: s.factory.IsImplemented(cfg.ExchangeName),
		})
	}
	return out, nil
}

// CoinBalance returns the free amount of coin on exchangeName, zero when
// the account holds none.
func (s *DashboardService) CoinBalance(ctx context.Context, organizationId, exchangeName, coin string) (decimal.Decimal, error) {
	client, err := s.clientFor(ctx, organizationId, exchangeName, false)
	if err != nil {
		return decimal.Zero, err
	}

	balances, err := client.GetBalance(ctx, coin)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range balances {
		if strings.EqualFold(b.Coin, coin) {
			return b.Free, nil
		}
	}
	return decimal.Zero, nil
}

// Networks lists the networks coin can be withdrawn on, tagged with the exchange.
func (s *DashboardService) Networks(ctx context.Context, organizationId, exchangeName, coin string) ([]models.Network, error) {
	return s.networks(ctx, organizationId, exchangeName, coin, false)
}

// WalletNetworks is Networks restricted to validated credentials.
func (s *DashboardService) WalletNetworks(ctx context.Context, organizationId, exchangeName, coin string) ([]models.Network, error) {
	return s.networks(ctx, organizationId, exchangeName, coin, true)
}

func (s *DashboardService) networks(ctx context.Context, organizationId, exchangeName, coin string, requireValid bool) ([]models.Network, error) {
	client, err := s.clientFor(ctx, organizationId, exchangeName, requireValid)
	if err != nil {
		return nil, err
	}

	networks, err := client.ListNetworks(ctx, coin)
	if err != nil {
		return nil, err
	}
	for i := range networks {
		networks[i].Exchange = strings.ToLower(exchangeName)
	}
	return networks, nil
}

// WalletCoins lists the coins of a validated exchange for the wallet form.
func (s *DashboardService) WalletCoins(ctx context.Context, organizationId, exchangeName string) ([]models.Coin, error) {
	client, err := s.clientFor(ctx, organizationId, exchangeName, true)
	if err != nil {
		return nil, err
	}

	coins, err := client.ListCoins(ctx)
	if err != nil {
		return nil, err
	}
	for i := range coins {
		coins[i].Exchange = strings.ToLower(exchangeName)
	}
	return coins, nil
}

// ExchangeHistory returns withdrawals as reported by the exchange behind configId.
func (s *DashboardService) ExchangeHistory(ctx context.Context, organizationId, configId, coin string) ([]models.ExchangeWithdrawal, error) {
	cfg, err := s.store.GetExchangeConfig(ctx, organizationId, configId)
	if err != nil {
		return nil, err
	}
	if !cfg.HasCredentials() {
		return nil, ErrExchangeNotConfigured
	}

	client, err := s.buildClient(*cfg)
	if err != nil {
		return nil, err
	}

	history, err := client.WithdrawHistory(ctx, coin, exchangeHistorySize)
	if err != nil {
		return nil, err
	}
	for i := range history {
		history[i].Exchange = cfg.ExchangeName
	}
	return history, nil
}
