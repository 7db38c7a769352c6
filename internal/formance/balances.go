package formance

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"cex-withdraw-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// PendingWithdrawals returns the journaled, not yet settled withdrawal
// totals of an organization, one entry per asset.
func (s *Service) PendingWithdrawals(ctx context.Context, organizationId string) ([]models.Balance, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: pendingAccount(organizationId),
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to get pending withdrawals account: %w", err)
	}
	return volumesToBalances(resp.V2AccountResponse.Data.Volumes), nil
}

func volumesToBalances(vols map[string]shared.V2Volume) []models.Balance {
	var balances []models.Balance
	for fAsset, vol := range vols {
		bal := volumeBalance(vol)
		if bal == nil || bal.Sign() == 0 {
			continue
		}
		symbol := assetSymbol(fAsset)
		amount := bigIntToDecimal(bal, symbol)
		balances = append(balances, models.Balance{
			Coin:   symbol,
			Free:   decimal.Zero,
			Locked: amount,
			Total:  amount,
		})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Coin < balances[j].Coin })
	return balances
}

// volumeBalance extracts the balance from a volume, falling back to input
// minus output.
func volumeBalance(vol shared.V2Volume) *big.Int {
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in smallest-unit to a human-readable decimal.
func bigIntToDecimal(raw *big.Int, symbol string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(precisionFor(symbol)))
}

// assetSymbol extracts the symbol from a Formance asset like "USDC/6".
func assetSymbol(fAsset string) string {
	for i, c := range fAsset {
		if c == '/' {
			return fAsset[:i]
		}
	}
	return fAsset
}
