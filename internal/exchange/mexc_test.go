package exchange

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"cex-withdraw-go/internal/models"

	"github.com/shopspring/decimal"
)

const mexcCapitalConfig = `[
  {"coin":"EOS","Name":"EOS","networkList":[
    {"coin":"EOS","depositDesc":null,"depositEnable":true,"minConfirm":0,"Name":"EOS","network":"EOS","netWork":"eos","withdrawEnable":true,"withdrawFee":"0.1","withdrawIntegerMultiple":null,"withdrawMax":"10000","withdrawMin":"1","sameAddress":false,"contract":"","withdrawTips":"Please fill in the MEMO","depositTips":"MEMO required"},
    {"coin":"EOS","depositEnable":true,"Name":"EOS","network":"BEP20(BSC)","netWork":"bsc","withdrawEnable":false,"withdrawFee":"0.01","withdrawMax":"5000","withdrawMin":"0.5","withdrawTips":null,"depositTips":"Send only EOS"}
  ]},
  {"coin":"TON","Name":"Toncoin","networkList":[
    {"coin":"TON","depositEnable":true,"network":"TON","withdrawEnable":true,"withdrawFee":"0.05","withdrawMax":"100000","withdrawMin":"1","withdrawTips":"","depositTips":"Deposits require a MEMO"}
  ]},
  {"coin":"NONET","Name":"Nothing","networkList":[]}
]`

const mexcExchangeInfo = `{"symbols":[
  {"symbol":"EOSUSDT","status":"1","baseAsset":"EOS","quoteAsset":"USDT"},
  {"symbol":"TONUSDT","status":"2","baseAsset":"TON","quoteAsset":"USDT"}
]}`

func newTestMEXC(t *testing.T) (*stubExchange, Client) {
	t.Helper()
	stub := newStubExchange(t)
	client, err := NewMEXCClient(Credentials{ApiKey: "mx-key", ApiSecret: "mx-secret"}, stub.options())
	if err != nil {
		t.Fatalf("NewMEXCClient() error: %v", err)
	}
	return stub, client
}

func TestMEXC_SignsWithLeadingAmpersandForEmptyParams(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/account", http.StatusOK, `{"balances":[]}`)

	if !client.TestConnection(context.Background()) {
		t.Fatal("TestConnection() = false, want true")
	}

	req, _ := stub.lastRequest("/api/v3/account")
	if got := req.Header.Get("X-MEXC-APIKEY"); got != "mx-key" {
		t.Errorf("X-MEXC-APIKEY = %q, want mx-key", got)
	}

	signature := Sign("mx-secret", "&timestamp=1700000000000")
	want := "&timestamp=1700000000000&signature=" + signature
	if req.RawQuery != want {
		t.Errorf("query = %q, want %q", req.RawQuery, want)
	}
}

func TestMEXC_WithdrawUsesNetWorkAndMemo(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/withdraw", http.StatusOK, `{"id":"bb17a2d452684f00a523c015d512a341"}`)

	result := client.Withdraw(context.Background(), models.WithdrawParams{
		Coin:    "EOS",
		Network: "EOS",
		Address: "zzqqqqqqqqqq",
		Amount:  decimal.RequireFromString("10"),
		Tag:     "memo-1",
	})
	if !result.Success {
		t.Fatalf("Withdraw() failed: %s", result.Error)
	}
	if result.OrderId != "bb17a2d452684f00a523c015d512a341" {
		t.Errorf("OrderId = %q", result.OrderId)
	}

	req, _ := stub.lastRequest("/api/v3/capital/withdraw")
	qs := "coin=EOS&netWork=EOS&address=zzqqqqqqqqqq&amount=10&memo=memo-1"
	want := qs + "&timestamp=1700000000000&signature=" + Sign("mx-secret", qs+"&timestamp=1700000000000")
	if req.RawQuery != want {
		t.Errorf("query = %q, want %q", req.RawQuery, want)
	}
}

func TestMEXC_WithdrawFailureIsResult(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/withdraw", http.StatusForbidden, `{"code":700003,"msg":"Timestamp for this request is outside of the recvWindow."}`)

	result := client.Withdraw(context.Background(), models.WithdrawParams{
		Coin: "EOS", Network: "EOS", Address: "x", Amount: decimal.NewFromInt(1),
	})
	if result.Success {
		t.Fatal("Withdraw() succeeded, want failure")
	}
	if !strings.HasPrefix(result.Error, "MEXC API error: 403 Forbidden") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestMEXC_WithdrawTransportFailureIsResult(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.server.Close()

	result := client.Withdraw(context.Background(), models.WithdrawParams{
		Coin: "EOS", Network: "EOS", Address: "x", Amount: decimal.NewFromInt(1),
	})
	if result.Success || result.Error == "" {
		t.Errorf("result = %+v, want failure with message", result)
	}
}

func TestMEXC_ListNetworks(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/config/getall", http.StatusOK, mexcCapitalConfig)

	networks, err := client.ListNetworks(context.Background(), "EOS")
	if err != nil {
		t.Fatalf("ListNetworks() error: %v", err)
	}
	if len(networks) != 2 {
		t.Fatalf("got %d networks, want 2", len(networks))
	}

	eos := networks[0]
	if eos.Network != "EOS" || eos.Name != "EOS" {
		t.Errorf("network id = %q name = %q, want EOS", eos.Network, eos.Name)
	}
	if eos.Status != models.NetworkStatusActive {
		t.Errorf("EOS status = %s, want active", eos.Status)
	}
	if !eos.Memo || eos.MemoName != "memo" {
		t.Errorf("EOS memo = %v/%q", eos.Memo, eos.MemoName)
	}
	if eos.Precision != 8 {
		t.Errorf("precision = %d, want 8", eos.Precision)
	}

	bsc := networks[1]
	if bsc.Network != "BEP20(BSC)" {
		t.Errorf("network id = %q, want BEP20(BSC)", bsc.Network)
	}
	if bsc.Status != models.NetworkStatusDisabled {
		t.Errorf("BSC status = %s, want disabled", bsc.Status)
	}
	if bsc.Memo {
		t.Error("BSC should not require memo")
	}
}

func TestMEXC_ListNetworksFallsBackToNetWork(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/config/getall", http.StatusOK, `[
  {"coin":"SOL","Name":"Solana","networkList":[
    {"netWork":"SOL","coin":"SOL","withdrawEnable":true,"depositEnable":true,"withdrawFee":"0.01","withdrawMin":"0.1","withdrawMax":"5000"}
  ]}
]`)

	networks, err := client.ListNetworks(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("ListNetworks() error: %v", err)
	}
	if len(networks) != 1 {
		t.Fatalf("got %d networks, want 1", len(networks))
	}
	if networks[0].Network != "SOL" || networks[0].Name != "SOL" {
		t.Errorf("network id = %q name = %q, want SOL", networks[0].Network, networks[0].Name)
	}

	stub.handle("/api/v3/exchangeInfo", http.StatusOK, `{"symbols":[]}`)
	coins, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins() error: %v", err)
	}
	if len(coins) != 1 || len(coins[0].Networks) != 1 || coins[0].Networks[0] != "SOL" {
		t.Errorf("coins = %+v, want SOL on network SOL", coins)
	}
}

func TestMEXC_MemoFromDepositTipsHasNoMemoName(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/config/getall", http.StatusOK, mexcCapitalConfig)

	networks, err := client.ListNetworks(context.Background(), "TON")
	if err != nil {
		t.Fatalf("ListNetworks() error: %v", err)
	}
	if len(networks) != 1 {
		t.Fatalf("got %d networks, want 1", len(networks))
	}
	if !networks[0].Memo {
		t.Error("memo should be required from deposit tips")
	}
	if networks[0].MemoName != "" {
		t.Errorf("MemoName = %q, want empty", networks[0].MemoName)
	}
}

func TestMEXC_ListCoins(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/config/getall", http.StatusOK, mexcCapitalConfig)
	stub.handle("/api/v3/exchangeInfo", http.StatusOK, mexcExchangeInfo)

	coins, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins() error: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("got %d coins, want 2", len(coins))
	}
	if coins[1].Name != "Toncoin" {
		t.Errorf("Name = %q, want Toncoin", coins[1].Name)
	}
	if !coins[0].TradingEnabled {
		t.Error("EOS should be trading enabled")
	}
	if coins[1].TradingEnabled {
		t.Error("TON pair is not tradeable")
	}
	if !coins[0].MinWithdraw.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("EOS min = %s, want 0.5", coins[0].MinWithdraw)
	}
}

func TestMEXC_GetBalance(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/account", http.StatusOK, `{"balances":[
	  {"asset":"USDT","free":"100","locked":"5"},
	  {"asset":"MX","free":"0","locked":"0"}
	]}`)

	balances, err := client.GetBalance(context.Background(), "")
	if err != nil {
		t.Fatalf("GetBalance() error: %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("got %d balances, want 1", len(balances))
	}
	if !balances[0].Total.Equal(decimal.NewFromInt(105)) {
		t.Errorf("total = %s, want 105", balances[0].Total)
	}
}

func TestMEXC_ErrorIncludesStatus(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/account", http.StatusUnauthorized, `{"code":10072,"msg":"Api key info invalid"}`)

	_, err := client.GetBalance(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "MEXC API error: 401 Unauthorized" {
		t.Errorf("error = %q, want status only", err)
	}
}

func TestMEXC_ListCoinsNameFallsBackToSymbol(t *testing.T) {
	stub, client := newTestMEXC(t)
	stub.handle("/api/v3/capital/config/getall", http.StatusOK, `[
  {"coin":"USDT","networkList":[
    {"network":"TRC20","coin":"USDT","withdrawEnable":true,"depositEnable":true,"withdrawFee":"1","withdrawMin":"10","withdrawMax":"1000"}
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
	if coins[0].Name != "USDT" {
		t.Errorf("Name = %q, want USDT", coins[0].Name)
	}
}
