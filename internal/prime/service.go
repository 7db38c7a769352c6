package prime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coinbase-samples/prime-sdk-go/balances"
	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/coinbase-samples/prime-sdk-go/wallets"
	"go.uber.org/zap"
)

const DefaultPortfolioName = "Default Portfolio"

type Portfolio struct {
	Id   string
	Name string
}

type Wallet struct {
	Id     string
	Name   string
	Symbol string
	Type   string
}

type PortfolioBalance struct {
	Symbol string
	Amount string
	Holds  string
}

type Transaction struct {
	Id            string
	WalletId      string
	Type          string
	Status        string
	Symbol        string
	Amount        string
	Network       string
	Address       string
	TransactionId string
	Created       time.Time
}

// WithdrawalParams describes a blockchain withdrawal from one wallet
type WithdrawalParams struct {
	PortfolioId        string
	WalletId           string
	Symbol             string
	Amount             string
	DestinationAddress string
	NetworkId          string
	NetworkType        string
	IdempotencyKey     string
}

type Service struct {
	client          client.RestClient
	portfoliosSvc   portfolios.PortfoliosService
	walletsSvc      wallets.WalletsService
	transactionsSvc transactions.TransactionsService
	balancesSvc     balances.BalancesService
}

// NewService builds the Prime REST services. An empty baseURL keeps the
// SDK's production endpoint.
func NewService(creds *credentials.Credentials, httpClient *http.Client, baseURL string) *Service {
	restClient := client.NewRestClient(creds, *httpClient)
	if baseURL != "" {
		restClient.SetBaseUrl(strings.TrimRight(baseURL, "/"))
	}

	return &Service{
		client:          restClient,
		portfoliosSvc:   portfolios.NewPortfoliosService(restClient),
		walletsSvc:      wallets.NewWalletsService(restClient),
		transactionsSvc: transactions.NewTransactionsService(restClient),
		balancesSvc:     balances.NewBalancesService(restClient),
	}
}

func (s *Service) ListPortfolios(ctx context.Context) ([]Portfolio, error) {
	response, err := s.portfoliosSvc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return nil, fmt.Errorf("unable to list portfolios: %w", err)
	}

	portfolioList := make([]Portfolio, len(response.Portfolios))
	for i, p := range response.Portfolios {
		portfolioList[i] = Portfolio{
			Id:   p.Id,
			Name: p.Name,
		}
	}

	return portfolioList, nil
}

// FindDefaultPortfolio returns the portfolio named "Default Portfolio", or the
// first one when no portfolio carries that name.
func (s *Service) FindDefaultPortfolio(ctx context.Context) (*Portfolio, error) {
	portfolioList, err := s.ListPortfolios(ctx)
	if err != nil {
		return nil, err
	}
	return SelectDefaultPortfolio(portfolioList)
}

func SelectDefaultPortfolio(portfolioList []Portfolio) (*Portfolio, error) {
	if len(portfolioList) == 0 {
		return nil, fmt.Errorf("no portfolios available for these credentials")
	}
	for _, portfolio := range portfolioList {
		if portfolio.Name == DefaultPortfolioName {
			p := portfolio
			return &p, nil
		}
	}
	p := portfolioList[0]
	return &p, nil
}

func (s *Service) ListWallets(ctx context.Context, portfolioId, walletType string, symbols []string) ([]Wallet, error) {
	request := &wallets.ListWalletsRequest{
		PortfolioId: portfolioId,
		Type:        walletType,
		Symbols:     symbols,
	}

	response, err := s.walletsSvc.ListWallets(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to list wallets: %w", err)
	}

	walletList := make([]Wallet, len(response.Wallets))
	for i, w := range response.Wallets {
		walletList[i] = Wallet{
			Id:     w.Id,
			Name:   w.Name,
			Symbol: w.Symbol,
			Type:   w.Type,
		}
	}

	return walletList, nil
}

func (s *Service) ListPortfolioBalances(ctx context.Context, portfolioId string) ([]PortfolioBalance, error) {
	response, err := s.balancesSvc.ListPortfolioBalances(ctx, &balances.ListPortfolioBalancesRequest{
		PortfolioId: portfolioId,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list portfolio balances: %w", err)
	}

	balanceList := make([]PortfolioBalance, 0, len(response.Balances))
	for _, b := range response.Balances {
		balanceList = append(balanceList, PortfolioBalance{
			Symbol: strings.ToUpper(b.Symbol),
			Amount: b.Amount,
			Holds:  b.Holds,
		})
	}

	return balanceList, nil
}

// CreateWithdrawal sends funds from a wallet to a blockchain address and
// returns the Prime activity id.
func (s *Service) CreateWithdrawal(ctx context.Context, params WithdrawalParams) (string, error) {
	zap.L().Info("Creating withdrawal via Prime API",
		zap.String("portfolio_id", params.PortfolioId),
		zap.String("wallet_id", params.WalletId),
		zap.String("symbol", params.Symbol),
		zap.String("amount", params.Amount))

	blockchainAddr := &model.BlockchainAddress{
		Address: params.DestinationAddress,
	}
	if params.NetworkId != "" && params.NetworkType != "" {
		blockchainAddr.Network = &model.NetworkDetails{
			Id:   params.NetworkId,
			Type: params.NetworkType,
		}
	}

	request := &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:       params.PortfolioId,
		SourceWalletId:    params.WalletId,
		Amount:            params.Amount,
		IdempotencyKey:    params.IdempotencyKey,
		Symbol:            params.Symbol,
		DestinationType:   "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: blockchainAddr,
	}

	response, err := s.transactionsSvc.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create withdrawal",
			zap.String("wallet_id", params.WalletId),
			zap.String("symbol", params.Symbol),
			zap.Error(err))
		return "", fmt.Errorf("unable to create withdrawal: %w", err)
	}

	zap.L().Info("Withdrawal created successfully",
		zap.String("activity_id", response.ActivityId),
		zap.String("wallet_id", params.WalletId))

	return response.ActivityId, nil
}

// ListWithdrawals fetches withdrawal transactions for a wallet since start.
func (s *Service) ListWithdrawals(ctx context.Context, portfolioId, walletId string, start time.Time) ([]Transaction, error) {
	request := &transactions.ListWalletTransactionsRequest{
		PortfolioId: portfolioId,
		WalletId:    walletId,
		Start:       start,
		Types:       []string{"WITHDRAWAL"},
		Pagination: &model.PaginationParams{
			Limit: 500,
		},
	}

	response, err := s.transactionsSvc.ListWalletTransactions(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to list wallet transactions: %w", err)
	}

	txs := make([]Transaction, 0, len(response.Transactions))
	for _, tx := range response.Transactions {
		t := Transaction{
			Id:            tx.Id,
			WalletId:      tx.WalletId,
			Type:          tx.Type,
			Status:        tx.Status,
			Symbol:        tx.Symbol,
			Amount:        tx.Amount,
			Network:       tx.Network,
			TransactionId: tx.TransactionId,
			Created:       tx.Created,
		}
		if tx.TransferTo != nil {
			t.Address = tx.TransferTo.Address
		}
		txs = append(txs, t)
	}

	zap.L().Debug("Prime withdrawals fetched",
		zap.String("wallet_id", walletId),
		zap.Int("count", len(txs)))

	return txs, nil
}
