package exchange

import (
	"cex-withdraw-go/internal/models"

	"github.com/shopspring/decimal"
)

// symbolInfo is one trading pair from /api/v3/exchangeInfo
type symbolInfo struct {
	Symbol     string     `json:"symbol"`
	Status     flexString `json:"status"`
	BaseAsset  string     `json:"baseAsset"`
	QuoteAsset string     `json:"quoteAsset"`
}

type exchangeInfo struct {
	Symbols []symbolInfo `json:"symbols"`
}

// accountInfo is the /api/v3/account snapshot both Binance and MEXC return
type accountInfo struct {
	Balances []struct {
		Asset  string     `json:"asset"`
		Free   flexString `json:"free"`
		Locked flexString `json:"locked"`
	} `json:"balances"`
}

func (a accountInfo) toBalances() []models.Balance {
	balances := make([]models.Balance, 0, len(a.Balances))
	for _, b := range a.Balances {
		free := b.Free.Decimal()
		locked := b.Locked.Decimal()
		balances = append(balances, models.Balance{
			Coin:   b.Asset,
			Free:   free,
			Locked: locked,
			Total:  free.Add(locked),
		})
	}
	return balances
}

type withdrawResponse struct {
	Id flexString `json:"id"`
}

type withdrawHistoryEntry struct {
	Id      flexString `json:"id"`
	Coin    string     `json:"coin"`
	Network string     `json:"network"`
	Address string     `json:"address"`
	Amount  flexString `json:"amount"`
	TxId    flexString `json:"txId"`
	Status  flexString `json:"status"`
}

func (e withdrawHistoryEntry) toModel(exchange string) models.ExchangeWithdrawal {
	return models.ExchangeWithdrawal{
		Id:       string(e.Id),
		Coin:     e.Coin,
		Network:  e.Network,
		Address:  e.Address,
		Amount:   e.Amount.Decimal(),
		TxId:     string(e.TxId),
		Status:   string(e.Status),
		Exchange: exchange,
	}
}

// coinNetworkLimits is the per-network slice of a capital-config coin that
// coin aggregation needs.
type coinNetworkLimits struct {
	withdrawEnabled bool
	min             decimal.Decimal
	max             decimal.Decimal
	network         string
}

type capitalCoinSummary struct {
	symbol   string
	name     string
	networks []coinNetworkLimits
}

// mergeSummaries folds repeated symbols into their first entry, keeping
// that entry's name and appending later networks.
func mergeSummaries(summaries []capitalCoinSummary) []capitalCoinSummary {
	index := make(map[string]int, len(summaries))
	merged := make([]capitalCoinSummary, 0, len(summaries))
	for _, summary := range summaries {
		if i, ok := index[summary.symbol]; ok {
			merged[i].networks = append(merged[i].networks, summary.networks...)
			continue
		}
		index[summary.symbol] = len(merged)
		merged = append(merged, summary)
	}
	return merged
}

// buildCoins folds capital config and trading symbols into one Coin per
// symbol. Coins with no networks are dropped; first-seen order is kept.
func buildCoins(summaries []capitalCoinSummary, symbols []symbolInfo, tradeable func(string) bool) []models.Coin {
	summaries = mergeSummaries(summaries)

	trading := make(map[string]bool)
	for _, s := range symbols {
		if !tradeable(string(s.Status)) {
			continue
		}
		trading[s.BaseAsset] = true
		trading[s.QuoteAsset] = true
	}

	coins := make([]models.Coin, 0, len(summaries))
	for _, summary := range summaries {
		if len(summary.networks) == 0 {
			continue
		}

		coin := models.Coin{
			Symbol:         summary.symbol,
			Name:           summary.name,
			Networks:       make([]string, 0, len(summary.networks)),
			Precision:      defaultPrecision,
			TradingEnabled: trading[summary.symbol],
		}
		for i, n := range summary.networks {
			coin.Networks = append(coin.Networks, n.network)
			coin.WithdrawEnabled = coin.WithdrawEnabled || n.withdrawEnabled
			if i == 0 || n.min.LessThan(coin.MinWithdraw) {
				coin.MinWithdraw = n.min
			}
			if i == 0 || n.max.GreaterThan(coin.MaxWithdraw) {
				coin.MaxWithdraw = n.max
			}
		}
		coins = append(coins, coin)
	}

	return coins
}

// precisionFromMultiple derives decimal places from a withdraw step such as
// "0.00010000". Missing or zero steps fall back to the default precision.
func precisionFromMultiple(multiple flexString) int {
	step := multiple.Decimal()
	if !step.IsPositive() {
		return defaultPrecision
	}
	normalized, err := decimal.NewFromString(step.String())
	if err != nil {
		return defaultPrecision
	}
	if exp := normalized.Exponent(); exp < 0 {
		return int(-exp)
	}
	return 0
}
