package exchange

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"cex-withdraw-go/internal/models"

	"github.com/shopspring/decimal"
)

const binanceCapitalConfig = `[
  {"coin":"USDT","name":"TetherUS","networkList":[
    {"network":"ETH","coin":"USDT","name":"Ethereum (ERC20)","withdrawEnable":true,"depositEnable":true,"withdrawFee":"3.2","withdrawMin":"10","withdrawMax":"10000000","withdrawIntegerMultiple":"0.000001","memoRegex":""},
    {"network":"TRX","coin":"USDT","name":"","withdrawEnable":false,"depositEnable":true,"withdrawFee":"1","withdrawMin":"5","withdrawMax":"9999999","withdrawIntegerMultiple":"","memoRegex":""}
  ]},
  {"coin":"XRP","name":"Ripple","networkList":[
    {"network":"XRP","coin":"XRP","name":"Ripple","withdrawEnable":true,"depositEnable":false,"withdrawFee":"0.25","withdrawMin":"not-a-number","withdrawMax":"1000","withdrawIntegerMultiple":"1","memoRegex":"^[0-9A-Za-z\\-_]{1,120}$"}
  ]},
  {"coin":"DEAD","name":"Delisted","networkList":[]}
]`

const binanceExchangeInfo = `{"symbols":[
  {"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
  {"symbol":"XRPBTC","status":"BREAK","baseAsset":"XRP","quoteAsset":"BTC"}
]}`

const binanceAccount = `{"balances":[
  {"asset":"BTC","free":"0.50000000","locked":"0.10000000"},
  {"asset":"ETH","free":"0.00000000","locked":"0.00000000"},
  {"asset":"USDT","free":"1200.5","locked":"0"}
]}`

func newTestBinance(t *testing.T) (*stubExchange, Client) {
	t.Helper()
	stub := newStubExchange(t)
	client, err := NewBinanceClient(Credentials{ApiKey: "key", ApiSecret: "secret"}, stub.options())
	if err != nil {
		t.Fatalf("NewBinanceClient() error: %v", err)
	}
	return stub, client
}

func TestNewBinanceClient_RequiresCredentials(t *testing.T) {
	if _, err := NewBinanceClient(Credentials{ApiKey: "key"}, ClientOptions{}); err == nil {
		t.Fatal("expected error without api secret")
	}
}

func TestBinance_SignsTimestampLast(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/api/v3/account", http.StatusOK, binanceAccount)

	if !client.TestConnection(context.Background()) {
		t.Fatal("TestConnection() = false, want true")
	}

	req, ok := stub.lastRequest("/api/v3/account")
	if !ok {
		t.Fatal("account endpoint was not called")
	}
	if got := req.Header.Get("X-MBX-APIKEY"); got != "key" {
		t.Errorf("X-MBX-APIKEY = %q, want key", got)
	}

	qs := "timestamp=1700000000000"
	want := qs + "&signature=" + Sign("secret", qs)
	if req.RawQuery != want {
		t.Errorf("query = %q, want %q", req.RawQuery, want)
	}
}

func TestBinance_WithdrawParameterOrder(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/withdraw/apply", http.StatusOK, `{"id":"7213fea8e94b4a5593d507237e5a555b"}`)

	result := client.Withdraw(context.Background(), models.WithdrawParams{
		Coin:    "XRP",
		Network: "XRP",
		Address: "rEb8TK3gBgk5auZkwc6sHnwrGVJH8DuaLh",
		Amount:  decimal.RequireFromString("25.5"),
		Tag:     "103",
	})
	if !result.Success {
		t.Fatalf("Withdraw() failed: %s", result.Error)
	}
	if result.OrderId != "7213fea8e94b4a5593d507237e5a555b" {
		t.Errorf("OrderId = %q", result.OrderId)
	}
	if result.Message != "Withdrawal request submitted successfully" {
		t.Errorf("Message = %q", result.Message)
	}

	req, _ := stub.lastRequest("/sapi/v1/capital/withdraw/apply")
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	qs := "coin=XRP&network=XRP&address=rEb8TK3gBgk5auZkwc6sHnwrGVJH8DuaLh&amount=25.5&addressTag=103&timestamp=1700000000000"
	if want := qs + "&signature=" + Sign("secret", qs); req.RawQuery != want {
		t.Errorf("query = %q, want %q", req.RawQuery, want)
	}
}

func TestBinance_WithdrawFailureIsResult(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/withdraw/apply", http.StatusBadRequest, `{"code":-4026,"msg":"User has insufficient balance"}`)

	result := client.Withdraw(context.Background(), models.WithdrawParams{
		Coin: "BTC", Network: "BTC", Address: "bc1q", Amount: decimal.NewFromInt(1),
	})
	if result.Success {
		t.Fatal("Withdraw() succeeded, want failure")
	}
	if !strings.HasPrefix(result.Error, "Binance API error: 400 Bad Request - ") {
		t.Errorf("Error = %q", result.Error)
	}
	if !strings.Contains(result.Error, "insufficient balance") {
		t.Errorf("Error = %q, want exchange message", result.Error)
	}
}

func TestWithdraw_PanicBecomesFailedResult(t *testing.T) {
	tests := []struct {
		name        string
		constructor Constructor
		prefix      string
	}{
		{name: "binance", constructor: NewBinanceClient, prefix: "binance withdraw failed: "},
		{name: "mexc", constructor: NewMEXCClient, prefix: "mexc withdraw failed: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubExchange(t)
			opts := stub.options()
			opts.Now = func() time.Time { panic("clock unavailable") }

			client, err := tt.constructor(Credentials{ApiKey: "key", ApiSecret: "secret"}, opts)
			if err != nil {
				t.Fatalf("constructor error: %v", err)
			}

			result := client.Withdraw(context.Background(), models.WithdrawParams{
				Coin: "BTC", Network: "BTC", Address: "bc1q", Amount: decimal.NewFromInt(1),
			})
			if result.Success {
				t.Fatal("Withdraw() succeeded, want failure")
			}
			if result.Error != tt.prefix+"clock unavailable" {
				t.Errorf("Error = %q, want %q", result.Error, tt.prefix+"clock unavailable")
			}
		})
	}
}

func TestBinance_GetBalanceDropsZeroTotals(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/api/v3/account", http.StatusOK, binanceAccount)

	balances, err := client.GetBalance(context.Background(), "")
	if err != nil {
		t.Fatalf("GetBalance() error: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	for _, b := range balances {
		if b.Total.IsZero() {
			t.Errorf("zero-total balance returned for %s", b.Coin)
		}
	}
	if !balances[0].Total.Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("BTC total = %s, want 0.6", balances[0].Total)
	}

	filtered, err := client.GetBalance(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("GetBalance(USDT) error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Coin != "USDT" {
		t.Errorf("GetBalance(USDT) = %+v", filtered)
	}
}

func TestBinance_ListNetworks(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, binanceCapitalConfig)

	networks, err := client.ListNetworks(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("ListNetworks() error: %v", err)
	}
	if len(networks) != 2 {
		t.Fatalf("got %d networks, want 2", len(networks))
	}

	statuses := []string{networks[0].Status, networks[1].Status}
	if statuses[0] != models.NetworkStatusActive || statuses[1] != models.NetworkStatusDisabled {
		t.Errorf("statuses = %v, want [active disabled]", statuses)
	}
	if networks[0].Precision != 6 {
		t.Errorf("ETH precision = %d, want 6", networks[0].Precision)
	}
	if networks[1].Precision != 8 {
		t.Errorf("TRX precision = %d, want default 8", networks[1].Precision)
	}
	if networks[1].Name != "TRX" {
		t.Errorf("TRX name = %q, want network id fallback", networks[1].Name)
	}
	if networks[0].Memo {
		t.Error("ETH network should not require memo")
	}
}

func TestBinance_ListNetworksMemo(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, binanceCapitalConfig)

	networks, err := client.ListNetworks(context.Background(), "XRP")
	if err != nil {
		t.Fatalf("ListNetworks() error: %v", err)
	}
	if len(networks) != 1 {
		t.Fatalf("got %d networks, want 1", len(networks))
	}
	n := networks[0]
	if !n.Memo || n.MemoName != "memo" {
		t.Errorf("memo = %v/%q, want true/memo", n.Memo, n.MemoName)
	}
	if n.Precision != 0 {
		t.Errorf("precision = %d, want 0", n.Precision)
	}
	if !n.MinWithdraw.IsZero() {
		t.Errorf("unparsable min = %s, want 0", n.MinWithdraw)
	}
}

func TestBinance_ListNetworksUnknownCoin(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, binanceCapitalConfig)

	networks, err := client.ListNetworks(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("ListNetworks() error: %v", err)
	}
	if networks == nil || len(networks) != 0 {
		t.Errorf("ListNetworks(NOPE) = %v, want empty list", networks)
	}
}

func TestBinance_ListCoins(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, binanceCapitalConfig)
	stub.handle("/api/v3/exchangeInfo", http.StatusOK, binanceExchangeInfo)

	coins, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins() error: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("got %d coins, want 2 (coin without networks dropped)", len(coins))
	}

	usdt := coins[0]
	if usdt.Symbol != "USDT" || usdt.Name != "TetherUS" {
		t.Errorf("coin = %s/%s", usdt.Symbol, usdt.Name)
	}
	if !usdt.TradingEnabled {
		t.Error("USDT should be trading enabled through BTCUSDT")
	}
	if !usdt.WithdrawEnabled {
		t.Error("USDT withdraw enabled should be OR across networks")
	}
	if !usdt.MinWithdraw.Equal(decimal.NewFromInt(5)) {
		t.Errorf("MinWithdraw = %s, want 5", usdt.MinWithdraw)
	}
	if !usdt.MaxWithdraw.Equal(decimal.NewFromInt(10000000)) {
		t.Errorf("MaxWithdraw = %s, want 10000000", usdt.MaxWithdraw)
	}
	if usdt.Precision != 8 {
		t.Errorf("Precision = %d, want 8", usdt.Precision)
	}
	if len(usdt.Networks) != 2 || usdt.Networks[0] != "ETH" {
		t.Errorf("Networks = %v", usdt.Networks)
	}

	if coins[1].TradingEnabled {
		t.Error("XRP only appears in a non-trading pair")
	}
}

func TestBinance_ListCoinsNameFallsBackToSymbol(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, `[
  {"coin":"NEWT","name":"","networkList":[
    {"network":"ETH","coin":"NEWT","name":"Ethereum (ERC20)","withdrawEnable":true,"depositEnable":true,"withdrawFee":"1","withdrawMin":"2","withdrawMax":"100","withdrawIntegerMultiple":"1"}
  ]}
]`)
	stub.handle("/api/v3/exchangeInfo", http.StatusOK, `{"symbols":[]}`)

	coins, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins() error: %v", err)
	}
	if len(coins) != 1 {
		t.Fatalf("got %d coins, want 1", len(coins))
	}
	if coins[0].Name != "NEWT" {
		t.Errorf("Name = %q, want NEWT", coins[0].Name)
	}
}

func TestBinance_ListCoinsMergesRepeatedSymbol(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, `[
  {"coin":"USDT","name":"TetherUS","networkList":[
    {"network":"TRX","coin":"USDT","withdrawEnable":false,"depositEnable":true,"withdrawFee":"1","withdrawMin":"1","withdrawMax":"20","withdrawIntegerMultiple":"0.000001"}
  ]},
  {"coin":"USDT","name":"Tether duplicate","networkList":[
    {"network":"ETH","coin":"USDT","withdrawEnable":true,"depositEnable":true,"withdrawFee":"5","withdrawMin":"10","withdrawMax":"50","withdrawIntegerMultiple":"0.000001"}
  ]}
]`)
	stub.handle("/api/v3/exchangeInfo", http.StatusOK, `{"symbols":[]}`)

	coins, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins() error: %v", err)
	}
	if len(coins) != 1 {
		t.Fatalf("got %d coins, want 1", len(coins))
	}
	coin := coins[0]
	if coin.Name != "TetherUS" {
		t.Errorf("Name = %q, want TetherUS", coin.Name)
	}
	if len(coin.Networks) != 2 || coin.Networks[0] != "TRX" || coin.Networks[1] != "ETH" {
		t.Errorf("Networks = %v, want [TRX ETH]", coin.Networks)
	}
	if !coin.MinWithdraw.Equal(decimal.NewFromInt(1)) || !coin.MaxWithdraw.Equal(decimal.NewFromInt(50)) {
		t.Errorf("limits = %s..%s, want 1..50", coin.MinWithdraw, coin.MaxWithdraw)
	}
	if !coin.WithdrawEnabled {
		t.Error("withdraw should be enabled by the ETH network")
	}
}

func TestBinance_ListCoinsSurfacesHTTPError(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusUnauthorized, `{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`)
	stub.handle("/api/v3/exchangeInfo", http.StatusOK, binanceExchangeInfo)

	_, err := client.ListCoins(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API-key") {
		t.Errorf("error = %q, want status and exchange message", err)
	}
}

func TestBinance_CheckNetworkStatus(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/config/getall", http.StatusOK, binanceCapitalConfig)

	status, err := client.CheckNetworkStatus(context.Background(), "USDT", "ETH")
	if err != nil {
		t.Fatalf("CheckNetworkStatus() error: %v", err)
	}
	if status.Status != models.NetworkStatusActive || !status.WithdrawEnabled {
		t.Errorf("status = %+v", status)
	}

	missing, err := client.CheckNetworkStatus(context.Background(), "USDT", "SOL")
	if err != nil {
		t.Fatalf("CheckNetworkStatus() error: %v", err)
	}
	if missing.Status != models.NetworkStatusDisabled || missing.WithdrawEnabled || missing.DepositEnabled {
		t.Errorf("missing network status = %+v, want disabled", missing)
	}
}

func TestBinance_WithdrawHistory(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/sapi/v1/capital/withdraw/history", http.StatusOK, `[
	  {"id":"b6ae22b3aa844210a7041aee7589627c","amount":"8.91000000","transactionFee":"0.004","coin":"USDT","status":6,"address":"0x94df8b352de7f46f64b01d3666bf6e936e44ce60","txId":"0xb5ef8c13b968a406cc62a93a8bd80f9e9a906ef1b3fcf20a2e48573c17659268","network":"ETH"}
	]`)

	history, err := client.WithdrawHistory(context.Background(), "USDT", 0)
	if err != nil {
		t.Fatalf("WithdrawHistory() error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d entries, want 1", len(history))
	}
	if history[0].Status != "6" || history[0].Exchange != "binance" {
		t.Errorf("entry = %+v", history[0])
	}

	req, _ := stub.lastRequest("/sapi/v1/capital/withdraw/history")
	if !strings.HasPrefix(req.RawQuery, "coin=USDT&limit=100&timestamp=") {
		t.Errorf("query = %q, want default limit 100", req.RawQuery)
	}
}

func TestBinance_TestConnectionFailure(t *testing.T) {
	stub, client := newTestBinance(t)
	stub.handle("/api/v3/account", http.StatusUnauthorized, `{"code":-2015,"msg":"Invalid API-key"}`)

	if client.TestConnection(context.Background()) {
		t.Error("TestConnection() = true, want false")
	}
}

func TestPrecisionFromMultiple(t *testing.T) {
	tests := []struct {
		multiple flexString
		want     int
	}{
		{"0.00000001", 8},
		{"0.00010000", 4},
		{"0.1", 1},
		{"1", 0},
		{"10", 0},
		{"", 8},
		{"0", 8},
		{"garbage", 8},
	}

	for _, tt := range tests {
		if got := precisionFromMultiple(tt.multiple); got != tt.want {
			t.Errorf("precisionFromMultiple(%q) = %d, want %d", tt.multiple, got, tt.want)
		}
	}
}
