package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cex-withdraw-go/internal/database"
	"cex-withdraw-go/internal/exchange"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/shopspring/decimal"
)

type fakeClient struct {
	name       string
	coins      []models.Coin
	balances   []models.Balance
	networks   []models.Network
	history    []models.ExchangeWithdrawal
	coinsErr   error
	balanceErr error
	connected  bool
}

func (c *fakeClient) Name() string { return c.name }

func (c *fakeClient) ListCoins(ctx context.Context) ([]models.Coin, error) {
	if c.coinsErr != nil {
		return nil, c.coinsErr
	}
	return append([]models.Coin(nil), c.coins...), nil
}

func (c *fakeClient) GetBalance(ctx context.Context, coin string) ([]models.Balance, error) {
	if c.balanceErr != nil {
		return nil, c.balanceErr
	}
	var out []models.Balance
	for _, b := range c.balances {
		if coin == "" || b.Coin == coin {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *fakeClient) ListNetworks(ctx context.Context, coin string) ([]models.Network, error) {
	return append([]models.Network(nil), c.networks...), nil
}

func (c *fakeClient) Withdraw(ctx context.Context, params models.WithdrawParams) models.WithdrawResult {
	return models.WithdrawResult{Success: false, Error: "not used"}
}

func (c *fakeClient) CheckNetworkStatus(ctx context.Context, coin, network string) (models.NetworkStatus, error) {
	return models.NetworkStatus{Coin: coin, Network: network, Status: models.NetworkStatusActive}, nil
}

func (c *fakeClient) WithdrawHistory(ctx context.Context, coin string, limit int) ([]models.ExchangeWithdrawal, error) {
	return append([]models.ExchangeWithdrawal(nil), c.history...), nil
}

func (c *fakeClient) TestConnection(ctx context.Context) bool { return c.connected }

type fakeFactory struct {
	clients map[string]*fakeClient
	created []string
}

func (f *fakeFactory) CreateClient(name string, creds exchange.Credentials) (exchange.Client, error) {
	f.created = append(f.created, name)
	client, ok := f.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", exchange.ErrUnsupportedExchange, name)
	}
	return client, nil
}

func (f *fakeFactory) SupportedExchanges() []string { return []string{"binance", "mexc"} }

func (f *fakeFactory) DisplayName(name string) string { return "Display " + name }

func (f *fakeFactory) IsImplemented(name string) bool {
	_, ok := f.clients[name]
	return ok
}

type fakeJournal struct {
	records []models.WithdrawRecord
	err     error
}

func (j *fakeJournal) RecordWithdrawalIntent(ctx context.Context, record models.WithdrawRecord) error {
	j.records = append(j.records, record)
	return j.err
}

type testEnv struct {
	service *DashboardService
	db      *database.Service
	factory *fakeFactory
	owner   *models.User
	org     *models.Organization
}

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// openTestService returns a service over an empty in-memory database.
func openTestService(t *testing.T, journal store.WithdrawalJournal) (*DashboardService, *database.Service) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(db.Close)

	service, err := NewDashboardService(db, &fakeFactory{clients: map[string]*fakeClient{}}, journal, models.CleanupConfig{})
	if err != nil {
		t.Fatalf("NewDashboardService failed: %v", err)
	}
	service.now = func() time.Time { return testNow }
	return service, db
}

// setupTestService adds an owner and an organization on top of openTestService.
func setupTestService(t *testing.T, journal store.WithdrawalJournal) *testEnv {
	t.Helper()
	ctx := context.Background()

	service, db := openTestService(t, journal)
	factory := service.factory.(*fakeFactory)

	owner, err := db.CreateUser(ctx, store.CreateUserParams{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	org, err := db.CreateOrganization(ctx, store.CreateOrganizationParams{
		Name:        "Acme",
		Slug:        "acme",
		OwnerId:     owner.Id,
		MakeCurrent: true,
	})
	if err != nil {
		t.Fatalf("CreateOrganization failed: %v", err)
	}

	return &testEnv{service: service, db: db, factory: factory, owner: owner, org: org}
}

func (e *testEnv) addConfig(t *testing.T, name string, active, valid bool) *models.ExchangeConfig {
	t.Helper()
	cfg, err := e.db.CreateExchangeConfig(context.Background(), store.SaveExchangeConfigParams{
		OrganizationId: e.org.Id,
		ExchangeName:   name,
		ApiKey:         "key-" + name,
		ApiSecret:      "secret-" + name,
		IsActive:       active,
		IsValid:        valid,
		ValidatedAt:    testNow,
		UserId:         e.owner.Id,
	})
	if err != nil {
		t.Fatalf("CreateExchangeConfig(%s) failed: %v", name, err)
	}
	return cfg
}

func balance(coin, total string) models.Balance {
	d := decimal.RequireFromString(total)
	return models.Balance{Coin: coin, Free: d, Locked: decimal.Zero, Total: d}
}

func TestNewDashboardService_RequiresDependencies(t *testing.T) {
	if _, err := NewDashboardService(nil, &fakeFactory{}, nil, models.CleanupConfig{}); err == nil {
		t.Error("Expected error without store")
	}
}

func TestHealthCheck(t *testing.T) {
	env := setupTestService(t, nil)
	if err := env.service.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestSupportedExchanges(t *testing.T) {
	env := setupTestService(t, nil)
	env.factory.clients = map[string]*fakeClient{"binance": {name: "binance"}}
	got := env.service.SupportedExchanges()
	if len(got) != 2 || got[0].Name != "binance" || got[0].DisplayName != "Display binance" {
		t.Fatalf("Unexpected supported exchanges %+v", got)
	}
	if !got[0].Implemented || got[1].Implemented {
		t.Errorf("Implemented flags = %v, %v, want true, false", got[0].Implemented, got[1].Implemented)
	}
}
