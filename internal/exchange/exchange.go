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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cex-withdraw-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	withdrawSubmittedMessage = "Withdrawal request submitted successfully"
	defaultPrecision         = 8
	defaultHistoryLimit      = 100
)

var ErrUnsupportedExchange = errors.New("unsupported exchange")

// Client is the operation set every exchange adapter implements
type Client interface {
	Name() string
	ListCoins(ctx context.Context) ([]models.Coin, error)
	GetBalance(ctx context.Context, coin string) ([]models.Balance, error)
	ListNetworks(ctx context.Context, coin string) ([]models.Network, error)
	// Withdraw reports every failure through the result; it never returns an error.
	Withdraw(ctx context.Context, params models.WithdrawParams) models.WithdrawResult
	CheckNetworkStatus(ctx context.Context, coin, network string) (models.NetworkStatus, error)
	WithdrawHistory(ctx context.Context, coin string, limit int) ([]models.ExchangeWithdrawal, error)
	TestConnection(ctx context.Context) bool
}

// Credentials is the secret material an adapter signs with
type Credentials struct {
	ApiKey     string
	ApiSecret  string
	Passphrase string
	Testnet    bool
}

// ClientOptions carries the per-construction environment of an adapter
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Now        func() time.Time
}

func (o ClientOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Constructor builds an adapter from credentials
type Constructor func(creds Credentials, opts ClientOptions) (Client, error)

// APIError is a non-2xx answer from an exchange
type APIError struct {
	Exchange   string
	StatusCode int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: %d %s", e.Exchange, e.StatusCode, e.StatusText)
	}
	return fmt.Sprintf("%s API error: %d %s - %s", e.Exchange, e.StatusCode, e.StatusText, e.Body)
}

// flexString decodes a JSON string or bare number into its text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*f = ""
		return nil
	}
	*f = flexString(strings.Trim(s, `"`))
	return nil
}

// Decimal parses the value, treating anything unparsable as zero.
func (f flexString) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(f)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func networkStatus(withdrawEnabled, depositEnabled bool) string {
	if withdrawEnabled && depositEnabled {
		return models.NetworkStatusActive
	}
	return models.NetworkStatusDisabled
}

// statusFromNetworks picks one network out of a ListNetworks result.
func statusFromNetworks(networks []models.Network, coin, network string) models.NetworkStatus {
	for _, n := range networks {
		if n.Network == network {
			return models.NetworkStatus{
				Network:         n.Network,
				Coin:            coin,
				Status:          n.Status,
				WithdrawEnabled: n.WithdrawEnabled,
				DepositEnabled:  n.DepositEnabled,
			}
		}
	}
	return models.NetworkStatus{
		Network: network,
		Coin:    coin,
		Status:  models.NetworkStatusDisabled,
	}
}

// filterBalances drops empty entries and, when coin is set, every other coin.
func filterBalances(balances []models.Balance, coin string) []models.Balance {
	out := make([]models.Balance, 0, len(balances))
	for _, b := range balances {
		if coin != "" && b.Coin != coin {
			continue
		}
		if b.Total.IsZero() {
			continue
		}
		out = append(out, b)
	}
	return out
}

func withdrawFailure(err error) models.WithdrawResult {
	return models.WithdrawResult{Success: false, Error: err.Error()}
}

// recoverWithdraw turns a panic inside Withdraw into a failed result.
func recoverWithdraw(exchange string, result *models.WithdrawResult) {
	if r := recover(); r != nil {
		*result = models.WithdrawResult{
			Success: false,
			Error:   fmt.Sprintf("%s withdraw failed: %v", exchange, r),
		}
	}
}
