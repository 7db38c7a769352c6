package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cex-withdraw-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const mexcName = "mexc"

// mexcNetwork carries both spellings MEXC returns for the network id.
type mexcNetwork struct {
	Network        string     `json:"network"`
	NetWork        string     `json:"netWork"`
	Coin           string     `json:"coin"`
	WithdrawEnable bool       `json:"withdrawEnable"`
	DepositEnable  bool       `json:"depositEnable"`
	WithdrawFee    flexString `json:"withdrawFee"`
	WithdrawMin    flexString `json:"withdrawMin"`
	WithdrawMax    flexString `json:"withdrawMax"`
	WithdrawTips   string     `json:"withdrawTips"`
	DepositTips    string     `json:"depositTips"`
}

// id prefers network and falls back to netWork.
func (n mexcNetwork) id() string {
	if n.Network != "" {
		return n.Network
	}
	return n.NetWork
}

type mexcCoin struct {
	Coin        string        `json:"coin"`
	Name        string        `json:"Name"`
	NetworkList []mexcNetwork `json:"networkList"`
}

type MEXCClient struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	opts       ClientOptions
}

func NewMEXCClient(creds Credentials, opts ClientOptions) (Client, error) {
	if creds.ApiKey == "" || creds.ApiSecret == "" {
		return nil, fmt.Errorf("mexc requires an api key and secret")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.mexc.com"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &MEXCClient{
		apiKey:     creds.ApiKey,
		apiSecret:  creds.ApiSecret,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		opts:       opts,
	}, nil
}

func (c *MEXCClient) Name() string {
	return mexcName
}

// makeRequest signs "{query}&timestamp={ts}". An empty parameter set still
// yields the leading ampersand, which is what MEXC verifies against.
func (c *MEXCClient) makeRequest(ctx context.Context, method, endpoint string, params *Params, out interface{}) error {
	if params == nil {
		params = NewParams()
	}

	timestamp := strconv.FormatInt(c.opts.now().UnixMilli(), 10)
	queryString := params.Encode()
	signature := strings.ToLower(Sign(c.apiSecret, queryString+"&timestamp="+timestamp))
	url := fmt.Sprintf("%s%s?%s&timestamp=%s&signature=%s", c.baseURL, endpoint, queryString, timestamp, signature)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("unable to build mexc request: %w", err)
	}
	req.Header.Set("X-MEXC-APIKEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mexc request %s failed: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Debug("Failed to close mexc response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// MEXC errors carry only the status; the body goes to the debug log.
		body, _ := io.ReadAll(resp.Body)
		zap.L().Debug("MEXC request rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(body))))
		return &APIError{
			Exchange:   "MEXC",
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode mexc %s response: %w", endpoint, err)
	}
	return nil
}

func (c *MEXCClient) capitalConfig(ctx context.Context) ([]mexcCoin, error) {
	var coins []mexcCoin
	if err := c.makeRequest(ctx, http.MethodGet, "/api/v3/capital/config/getall", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *MEXCClient) ListCoins(ctx context.Context) ([]models.Coin, error) {
	var (
		info    exchangeInfo
		capital []mexcCoin
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
				network:         n.id(),
				withdrawEnabled: n.WithdrawEnable,
				min:             n.WithdrawMin.Decimal(),
				max:             n.WithdrawMax.Decimal(),
			})
		}
		summaries = append(summaries, summary)
	}

	// MEXC reports spot status as "1"/"ENABLED" on newer API versions.
	return buildCoins(summaries, info.Symbols, func(status string) bool {
		return status == "TRADING" || status == "ENABLED" || status == "1"
	}), nil
}

func (c *MEXCClient) GetBalance(ctx context.Context, coin string) ([]models.Balance, error) {
	var account accountInfo
	if err := c.makeRequest(ctx, http.MethodGet, "/api/v3/account", nil, &account); err != nil {
		return nil, err
	}
	return filterBalances(account.toBalances(), coin), nil
}

func (c *MEXCClient) ListNetworks(ctx context.Context, coin string) ([]models.Network, error) {
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
			network := models.Network{
				Network:         n.id(),
				Coin:            coin,
				Name:            n.id(),
				WithdrawEnabled: n.WithdrawEnable,
				DepositEnabled:  n.DepositEnable,
				WithdrawFee:     n.WithdrawFee.Decimal(),
				MinWithdraw:     n.WithdrawMin.Decimal(),
				MaxWithdraw:     n.WithdrawMax.Decimal(),
				Precision:       defaultPrecision,
				Memo:            strings.Contains(n.WithdrawTips, "MEMO") || strings.Contains(n.DepositTips, "MEMO"),
				Status:          networkStatus(n.WithdrawEnable, n.DepositEnable),
			}
			if strings.Contains(n.WithdrawTips, "MEMO") {
				network.MemoName = "memo"
			}
			networks = append(networks, network)
		}
		return networks, nil
	}

	return []models.Network{}, nil
}

func (c *MEXCClient) Withdraw(ctx context.Context, p models.WithdrawParams) (result models.WithdrawResult) {
	defer recoverWithdraw("mexc", &result)

	params := NewParams().
		Set("coin", p.Coin).
		Set("netWork", p.Network).
		Set("address", p.Address).
		Set("amount", p.Amount.String())
	if p.Tag != "" {
		params.Set("memo", p.Tag)
	}

	var resp withdrawResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/api/v3/capital/withdraw", params, &resp); err != nil {
		zap.L().Warn("MEXC withdrawal rejected",
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

func (c *MEXCClient) CheckNetworkStatus(ctx context.Context, coin, network string) (models.NetworkStatus, error) {
	networks, err := c.ListNetworks(ctx, coin)
	if err != nil {
		return models.NetworkStatus{}, err
	}
	return statusFromNetworks(networks, coin, network), nil
}

func (c *MEXCClient) WithdrawHistory(ctx context.Context, coin string, limit int) ([]models.ExchangeWithdrawal, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	params := NewParams()
	if coin != "" {
		params.Set("coin", coin)
	}
	params.Set("limit", strconv.Itoa(limit))

	var entries []withdrawHistoryEntry
	if err := c.makeRequest(ctx, http.MethodGet, "/api/v3/capital/withdraw/history", params, &entries); err != nil {
		return nil, err
	}

	history := make([]models.ExchangeWithdrawal, len(entries))
	for i, e := range entries {
		history[i] = e.toModel(mexcName)
	}
	return history, nil
}

func (c *MEXCClient) TestConnection(ctx context.Context) bool {
	if err := c.makeRequest(ctx, http.MethodGet, "/api/v3/account", nil, nil); err != nil {
		zap.L().Info("MEXC connection test failed", zap.Error(err))
		return false
	}
	return true
}
