package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/prime"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	primeName           = "coinbaseprime"
	primeWalletType     = "TRADING"
	primeDefaultNetwork = "default"
	primeHistoryWindow  = 90 * 24 * time.Hour
)

// primeAPI is the slice of the Prime service the adapter uses
type primeAPI interface {
	FindDefaultPortfolio(ctx context.Context) (*prime.Portfolio, error)
	ListWallets(ctx context.Context, portfolioId, walletType string, symbols []string) ([]prime.Wallet, error)
	ListPortfolioBalances(ctx context.Context, portfolioId string) ([]prime.PortfolioBalance, error)
	CreateWithdrawal(ctx context.Context, params prime.WithdrawalParams) (string, error)
	ListWithdrawals(ctx context.Context, portfolioId, walletId string, start time.Time) ([]prime.Transaction, error)
}

type PrimeClient struct {
	api  primeAPI
	opts ClientOptions

	mu          sync.Mutex
	portfolioId string
}

func NewPrimeClient(creds Credentials, opts ClientOptions) (Client, error) {
	if creds.ApiKey == "" || creds.ApiSecret == "" || creds.Passphrase == "" {
		return nil, fmt.Errorf("coinbase prime requires an access key, signing key and passphrase")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	svc := prime.NewService(&credentials.Credentials{
		AccessKey:  creds.ApiKey,
		Passphrase: creds.Passphrase,
		SigningKey: creds.ApiSecret,
	}, opts.HTTPClient, opts.BaseURL)

	return newPrimeClient(svc, opts), nil
}

func newPrimeClient(api primeAPI, opts ClientOptions) *PrimeClient {
	return &PrimeClient{api: api, opts: opts}
}

func (c *PrimeClient) Name() string {
	return primeName
}

// portfolio resolves the default portfolio once per client.
func (c *PrimeClient) portfolio(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.portfolioId != "" {
		return c.portfolioId, nil
	}

	p, err := c.api.FindDefaultPortfolio(ctx)
	if err != nil {
		return "", err
	}
	zap.L().Debug("Resolved Prime portfolio",
		zap.String("name", p.Name),
		zap.String("id", p.Id))

	c.portfolioId = p.Id
	return c.portfolioId, nil
}

func (c *PrimeClient) ListCoins(ctx context.Context) ([]models.Coin, error) {
	portfolioId, err := c.portfolio(ctx)
	if err != nil {
		return nil, err
	}

	wallets, err := c.api.ListWallets(ctx, portfolioId, primeWalletType, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	coins := make([]models.Coin, 0, len(wallets))
	for _, w := range wallets {
		symbol := strings.ToUpper(w.Symbol)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		coins = append(coins, models.Coin{
			Symbol:          symbol,
			Name:            symbol,
			Networks:        []string{primeDefaultNetwork},
			Precision:       defaultPrecision,
			WithdrawEnabled: true,
			TradingEnabled:  true,
		})
	}

	return coins, nil
}

func (c *PrimeClient) GetBalance(ctx context.Context, coin string) ([]models.Balance, error) {
	portfolioId, err := c.portfolio(ctx)
	if err != nil {
		return nil, err
	}

	primeBalances, err := c.api.ListPortfolioBalances(ctx, portfolioId)
	if err != nil {
		return nil, err
	}

	balances := make([]models.Balance, 0, len(primeBalances))
	for _, b := range primeBalances {
		total := flexString(b.Amount).Decimal()
		holds := flexString(b.Holds).Decimal()
		balances = append(balances, models.Balance{
			Coin:   b.Symbol,
			Free:   total.Sub(holds),
			Locked: holds,
			Total:  total,
		})
	}

	return filterBalances(balances, strings.ToUpper(coin)), nil
}

// ListNetworks reports a single default network for any coin the portfolio
// holds a trading wallet for. Explicit networks are passed as "id-type".
func (c *PrimeClient) ListNetworks(ctx context.Context, coin string) ([]models.Network, error) {
	wallet, err := c.walletFor(ctx, coin)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return []models.Network{}, nil
	}

	return []models.Network{{
		Network:         primeDefaultNetwork,
		Coin:            coin,
		Name:            "Default network",
		WithdrawEnabled: true,
		DepositEnabled:  true,
		WithdrawFee:     decimal.Zero,
		Precision:       defaultPrecision,
		Status:          networkStatus(true, true),
	}}, nil
}

func (c *PrimeClient) walletFor(ctx context.Context, coin string) (*prime.Wallet, error) {
	portfolioId, err := c.portfolio(ctx)
	if err != nil {
		return nil, err
	}

	wallets, err := c.api.ListWallets(ctx, portfolioId, primeWalletType, []string{strings.ToUpper(coin)})
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, nil
	}
	return &wallets[0], nil
}

// splitPrimeNetwork turns "ethereum-mainnet" into its id and type. The
// default network leaves both empty so Prime picks the asset's native chain.
func splitPrimeNetwork(network string) (string, string) {
	if network == "" || network == primeDefaultNetwork {
		return "", ""
	}
	id, networkType, ok := strings.Cut(network, "-")
	if !ok {
		return network, "mainnet"
	}
	return id, networkType
}

func (c *PrimeClient) Withdraw(ctx context.Context, p models.WithdrawParams) (result models.WithdrawResult) {
	defer recoverWithdraw("coinbaseprime", &result)

	portfolioId, err := c.portfolio(ctx)
	if err != nil {
		return withdrawFailure(err)
	}

	wallet, err := c.walletFor(ctx, p.Coin)
	if err != nil {
		return withdrawFailure(err)
	}
	if wallet == nil {
		return withdrawFailure(fmt.Errorf("no trading wallet for %s", p.Coin))
	}

	networkId, networkType := splitPrimeNetwork(p.Network)
	activityId, err := c.api.CreateWithdrawal(ctx, prime.WithdrawalParams{
		PortfolioId:        portfolioId,
		WalletId:           wallet.Id,
		Symbol:             strings.ToUpper(p.Coin),
		Amount:             p.Amount.String(),
		DestinationAddress: p.Address,
		NetworkId:          networkId,
		NetworkType:        networkType,
		IdempotencyKey:     uuid.New().String(),
	})
	if err != nil {
		return withdrawFailure(err)
	}

	return models.WithdrawResult{
		Success: true,
		OrderId: activityId,
		Message: withdrawSubmittedMessage,
	}
}

func (c *PrimeClient) CheckNetworkStatus(ctx context.Context, coin, network string) (models.NetworkStatus, error) {
	networks, err := c.ListNetworks(ctx, coin)
	if err != nil {
		return models.NetworkStatus{}, err
	}
	return statusFromNetworks(networks, coin, network), nil
}

func (c *PrimeClient) WithdrawHistory(ctx context.Context, coin string, limit int) ([]models.ExchangeWithdrawal, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	portfolioId, err := c.portfolio(ctx)
	if err != nil {
		return nil, err
	}

	var symbols []string
	if coin != "" {
		symbols = []string{strings.ToUpper(coin)}
	}
	wallets, err := c.api.ListWallets(ctx, portfolioId, primeWalletType, symbols)
	if err != nil {
		return nil, err
	}

	start := c.opts.now().Add(-primeHistoryWindow)
	history := make([]models.ExchangeWithdrawal, 0)
	for _, w := range wallets {
		txs, err := c.api.ListWithdrawals(ctx, portfolioId, w.Id, start)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			history = append(history, models.ExchangeWithdrawal{
				Id:       tx.Id,
				Coin:     tx.Symbol,
				Network:  tx.Network,
				Address:  tx.Address,
				Amount:   flexString(tx.Amount).Decimal(),
				TxId:     tx.TransactionId,
				Status:   tx.Status,
				Exchange: primeName,
			})
			if len(history) == limit {
				return history, nil
			}
		}
	}

	return history, nil
}

func (c *PrimeClient) TestConnection(ctx context.Context) bool {
	if _, err := c.api.FindDefaultPortfolio(ctx); err != nil {
		zap.L().Info("Coinbase Prime connection test failed", zap.Error(err))
		return false
	}
	return true
}
