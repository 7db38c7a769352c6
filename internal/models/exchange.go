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

package models

import "github.com/shopspring/decimal"

// Network status values
const (
	NetworkStatusActive      = "active"
	NetworkStatusMaintenance = "maintenance"
	NetworkStatusDisabled    = "disabled"
)

// Coin is an asset an exchange can withdraw, fetched live and never stored
type Coin struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Networks        []string        `json:"networks"`
	Precision       int             `json:"precision"`
	MinWithdraw     decimal.Decimal `json:"min_withdraw"`
	MaxWithdraw     decimal.Decimal `json:"max_withdraw"`
	WithdrawEnabled bool            `json:"withdraw_enabled"`
	TradingEnabled  bool            `json:"trading_enabled"`
	Exchange        string          `json:"exchange,omitempty"`
}

// Network is one chain a coin can move on
type Network struct {
	Network         string          `json:"network"`
	Coin            string          `json:"coin"`
	Name            string          `json:"name"`
	WithdrawEnabled bool            `json:"withdraw_enabled"`
	DepositEnabled  bool            `json:"deposit_enabled"`
	WithdrawFee     decimal.Decimal `json:"withdraw_fee"`
	MinWithdraw     decimal.Decimal `json:"min_withdraw"`
	MaxWithdraw     decimal.Decimal `json:"max_withdraw"`
	Precision       int             `json:"precision"`
	Memo            bool            `json:"memo"`
	MemoName        string          `json:"memo_name,omitempty"`
	Status          string          `json:"status"`
	Exchange        string          `json:"exchange,omitempty"`
}

// Selectable reports whether a withdrawal can be sent on this network
func (n Network) Selectable() bool {
	return n.WithdrawEnabled && n.Status == NetworkStatusActive
}

// Balance is an account balance for a single coin
type Balance struct {
	Coin     string          `json:"coin"`
	Free     decimal.Decimal `json:"free"`
	Locked   decimal.Decimal `json:"locked"`
	Total    decimal.Decimal `json:"total"`
	Exchange string          `json:"exchange,omitempty"`
}

// WithdrawParams is a single withdrawal submission
type WithdrawParams struct {
	Coin    string
	Network string
	Address string
	Amount  decimal.Decimal
	Tag     string // memo/tag for networks that require it
}

// WithdrawResult is the outcome of a withdrawal submission
type WithdrawResult struct {
	Success bool             `json:"success"`
	OrderId string           `json:"order_id,omitempty"`
	TxId    string           `json:"tx_id,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
	Fee     *decimal.Decimal `json:"fee,omitempty"`
}

// NetworkStatus is the withdraw/deposit state of a single network
type NetworkStatus struct {
	Network         string `json:"network"`
	Coin            string `json:"coin"`
	Status          string `json:"status"`
	WithdrawEnabled bool   `json:"withdraw_enabled"`
	DepositEnabled  bool   `json:"deposit_enabled"`
}

// ExchangeWithdrawal is a withdrawal as reported by the exchange itself
type ExchangeWithdrawal struct {
	Id       string          `json:"id"`
	Coin     string          `json:"coin"`
	Network  string          `json:"network"`
	Address  string          `json:"address"`
	Amount   decimal.Decimal `json:"amount"`
	TxId     string          `json:"tx_id"`
	Status   string          `json:"status"`
	Exchange string          `json:"exchange,omitempty"`
}
