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

package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cex-withdraw-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const binanceName = "binance"

type binanceNetwork struct {
	Network                 string     `json:"network"`
	Coin                    string     `json:"coin"`
	Name                    string     `json:"name"`
	WithdrawEnable          bool       `json:"withdrawEnable"`
	DepositEnable           bool       `json:"depositEnable"`
	WithdrawFee             flexString `json:"withdrawFee"`
	WithdrawMin             flexString `json:"withdrawMin"`
	WithdrawMax             flexString `json:"withdrawMax"`
	WithdrawIntegerMultiple flexString `json:"withdrawIntegerMultiple"`
	MemoRegex               string     `json:"memoRegex"`
}

type binanceCoin struct {
	Coin        string           `json:"coin"`
	Name        string           `json:"name"`
	NetworkList []binanceNetwork `json:"networkList"`
}

type BinanceClient struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	opts       ClientOptions
}

func NewBinanceClient(creds Credentials, opts ClientOptions) (Client, error) {
	if creds.ApiKey == "" || creds.ApiSecret == "" {
		return nil, fmt.Errorf("binance requires an api key and secret")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.binance.com"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &BinanceClient{
		apiKey:     creds.ApiKey,
		apiSecret:  creds.ApiSecret,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		opts:       opts,
	}, nil
}

func (c *BinanceClient) Name() string {
	return binanceName
}

// makeRequest signs params with a trailing timestamp and decodes the JSON
// answer into out.
func (c *BinanceClient) makeRequest(ctx context.Context, method, endpoint string, params *Params, out interface{}) error {
	if params == nil {
		params = NewParams()
	}
	params.Set("timestamp", strconv.FormatInt(c.opts.now().UnixMilli(), 10))

	queryString := params.Encode()
	signature := Sign(c.apiSecret, queryString)
	url := fmt.Sprintf("%s%s?%s&signature=%s", c.baseURL, endpoint, queryString, signature)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("unable to build binance request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("binance request %s failed: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Debug("Failed to close binance response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			Exchange:   "Binance",
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       string(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode binance %s response: %w", endpoint, err)
	}
	return nil
}

func (c *BinanceClient) capitalConfig(ctx context.Context) ([]binanceCoin, error) {
	var coins []binanceCoin
	if err := c.makeRequest(ctx, http.MethodGet, "/sapi/v1/capital/config/getall", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *BinanceClient) ListCoins(ctx context.Context) ([]models.Coin, error) {
	var (
		info    exchangeInfo
		capital []binanceCoin
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.makeRequest(gctx, http.MethodGet, "/api/v3/exchangeInfo", nil, &info)
	})
	g.Go(func() error {
		var err error
		capital, err = c.capitalConfig(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]capitalCoinSummary, 0, len(capital))
	for _, coin := range capital {
		name := coin.Name
		if name == "" {
			name = coin.Coin
		}
		summary := capitalCoinSummary{symbol: coin.Coin, name: name}
		for _, n := range coin.NetworkList {
			summary.networks = append(summary.networks, coinNetworkLimits{
				network:         n.Network,
				withdrawEnabled: n.WithdrawEnable,
				min:             n.WithdrawMin.Decimal(),
				max:             n.WithdrawMax.Decimal(),
			})
		}
		summaries = append(summaries, summary)
	}

	return buildCoins(summaries, info.Symbols, func(status string) bool {
		return status == "TRADING"
	}), nil
}

func (c *BinanceClient) GetBalance(ctx context.Context, coin string) ([]models.Balance, error) {
	var account accountInfo
	if err := c.makeRequest(ctx, http.MethodGet, "/api/v3/account", nil, &account); err != nil {
		return nil, err
	}
	return filterBalances(account.toBalances(), coin), nil
}

func (c *BinanceClient) ListNetworks(ctx context.Context, coin string) ([]models.Network, error) {
	capital, err := c.capitalConfig(ctx)
	if err != nil {
		return nil, err
	}

	for _, info := range capital {
		if info.Coin != coin {
			continue
		}
		networks := make([]models.Network, 0, len(info.NetworkList))
		for _, n := range info.NetworkList {
			name := n.Name
			if name == "" {
				name = n.Network
			}
			network := models.Network{
				Network:         n.Network,
				Coin:            coin,
				Name:            name,
				WithdrawEnabled: n.WithdrawEnable,
				DepositEnabled:  n.DepositEnable,
				WithdrawFee:     n.WithdrawFee.Decimal(),
				MinWithdraw:     n.WithdrawMin.Decimal(),
				MaxWithdraw:     n.WithdrawMax.Decimal(),
				Precision:       precisionFromMultiple(n.WithdrawIntegerMultiple),
				Memo:            n.MemoRegex != "",
				Status:          networkStatus(n.WithdrawEnable, n.DepositEnable),
			}
			if network.Memo {
				network.MemoName = "memo"
			}
			networks = append(networks, network)
		}
		return networks, nil
	}

	return []models.Network{}, nil
}

func (c *BinanceClient) Withdraw(ctx context.Context, p models.WithdrawParams) (result models.WithdrawResult) {
	defer recoverWithdraw("binance", &result)

	params := NewParams().
		Set("coin", p.Coin).
		Set("network", p.Network).
		Set("address", p.Address).
		Set("amount", p.Amount.String())
	if p.Tag != "" {
		params.Set("addressTag", p.Tag)
	}

	var resp withdrawResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/sapi/v1/capital/withdraw/apply", params, &resp); err != nil {
		zap.L().Warn("Binance withdrawal rejected",
			zap.String("coin", p.Coin),
			zap.String("network", p.Network),
			zap.Error(err))
		return withdrawFailure(err)
	}

	return models.WithdrawResult{
		Success: true,
		OrderId: string(resp.Id),
		Message: withdrawSubmittedMessage,
	}
}

func (c *BinanceClient) CheckNetworkStatus(ctx context.Context, coin, network string) (models.NetworkStatus, error) {
	networks, err := c.ListNetworks(ctx, coin)
	if err != nil {
		return models.NetworkStatus{}, err
	}
	return statusFromNetworks(networks, coin, network), nil
}

func (c *BinanceClient) WithdrawHistory(ctx context.Context, coin string, limit int) ([]models.ExchangeWithdrawal, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	params := NewParams()
	if coin != "" {
		params.Set("coin", coin)
	}
	params.Set("limit", strconv.Itoa(limit))

	var entries []withdrawHistoryEntry
	if err := c.makeRequest(ctx, http.MethodGet, "/sapi/v1/capital/withdraw/history", params, &entries); err != nil {
		return nil, err
	}

	history := make([]models.ExchangeWithdrawal, len(entries))
	for i, e := range entries {
		history[i] = e.toModel(binanceName)
	}
	return history, nil
}

func (c *BinanceClient) TestConnection(ctx context.Context) bool {
	if err := c.makeRequest(ctx, http.MethodGet, "/api/v3/account", nil, nil); err != nil {
		zap.L().Info("Binance connection test failed", zap.Error(err))
		return false
	}
	return true
}
