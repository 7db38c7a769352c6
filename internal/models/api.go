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

// AvailableExchange is an exchange the organization can act on
type AvailableExchange struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Implemented bool   `json:"implemented"`
}

// BalancePage is one page of aggregated balances
type BalancePage struct {
	Balances       []Balance         `json:"balances"`
	ExchangeErrors map[string]string `json:"exchange_errors"`
	Page           int               `json:"page"`
	TotalPages     int               `json:"total_pages"`
	Total          int               `json:"total"`
}

// WithdrawFormData is everything the withdraw form needs
type WithdrawFormData struct {
	Coins              []Coin              `json:"coins"`
	Balances           []Balance           `json:"balances"`
	SavedWallets       []SavedWallet       `json:"saved_wallets"`
	ExchangeErrors     map[string]string   `json:"exchange_errors"`
	AvailableExchanges []AvailableExchange `json:"available_exchanges"`
}

// WithdrawRequest is the withdraw form as submitted
type WithdrawRequest struct {
	Exchange string `form:"exchange" json:"exchange" validate:"required"`
	Coin     string `form:"coin" json:"coin" validate:"required"`
	Network  string `form:"network" json:"network" validate:"required"`
	Amount   string `form:"amount" json:"amount" validate:"required,positive_decimal,bounded_decimal"`
	Address  string `form:"address" json:"address" validate:"required"`
	Memo     string `form:"memo" json:"memo,omitempty"`
}

// CleanupResult counts the invitations touched by one cleanup run
type CleanupResult struct {
	Expired int64 `json:"expired"`
	Deleted int64 `json:"deleted"`
}

// CredentialCheck is the outcome of validating exchange credentials
type CredentialCheck struct {
	Valid bool
	Error string
}

// LoginRequest is the login form
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// RegisterRequest is the registration form
type RegisterRequest struct {
	Username  string `form:"username" validate:"min=3"`
	Email     string `form:"email" validate:"email"`
	Password  string `form:"password" validate:"min=6"`
	FirstName string `form:"firstName"`
	LastName  string `form:"lastName"`
}

// OrganizationRequest is the create-organization form
type OrganizationRequest struct {
	Name        string `form:"name" validate:"required"`
	Slug        string `form:"slug" validate:"required,slug"`
	Description string `form:"description"`
}

// InvitationRequest is the invite-member form. Role defaults to member.
type InvitationRequest struct {
	Email string `form:"email" validate:"email"`
	Role  string `form:"role" validate:"omitempty,oneof=member admin"`
}

// WalletRequest is the saved-wallet form
type WalletRequest struct {
	Label       string `form:"label" validate:"required"`
	Coin        string `form:"coin" validate:"required"`
	Network     string `form:"network" validate:"required"`
	Address     string `form:"address" validate:"required"`
	Exchange    string `form:"exchange" validate:"required"`
	Description string `form:"description"`
}

// ExchangeConfigRequest is the exchange settings form. Checkbox fields are
// decoded by the handler.
type ExchangeConfigRequest struct {
	ExchangeName string `form:"exchangeName" validate:"required"`
	ApiKey       string `form:"apiKey" validate:"required"`
	ApiSecret    string `form:"apiSecret" validate:"required"`
	Passphrase   string `form:"passphrase"`
	Testnet      bool   `form:"-"`
	IsActive     bool   `form:"-"`
}

// OrganizationSettings is the owner-only settings view
type OrganizationSettings struct {
	Organization Organization
	Members      []MemberWithUser
	Invitations  []Invitation
}
