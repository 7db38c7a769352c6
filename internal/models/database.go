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

import (
	"time"

	"github.com/shopspring/decimal"
)

// Membership roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Membership statuses
const (
	MembershipActive    = "active"
	MembershipSuspended = "suspended"
	MembershipPending   = "pending"
)

// Invitation statuses
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

// Withdrawal statuses and sources
const (
	WithdrawStatusPending = "pending"
	WithdrawSourceApp     = "app"
)

// Organization is the tenant every scoped record belongs to
type Organization struct {
	Id          string    `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	OwnerId     string    `db:"owner_id"`
	IsPersonal  bool      `db:"is_personal"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// User represents a dashboard login
type User struct {
	Id                    string     `db:"id"`
	Username              string     `db:"username"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	FirstName             string     `db:"first_name"`
	LastName              string     `db:"last_name"`
	Avatar                string     `db:"avatar"`
	CurrentOrganizationId string     `db:"current_organization_id"`
	IsActive              bool       `db:"is_active"`
	LastLoginAt           *time.Time `db:"last_login_at"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// DisplayName returns the user's full name, or the username when unset
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Username
}

// Membership links a user to an organization with a role
type Membership struct {
	Id             string    `db:"id"`
	UserId         string    `db:"user_id"`
	OrganizationId string    `db:"organization_id"`
	Role           string    `db:"role"`
	Status         string    `db:"status"`
	InvitedBy      string    `db:"invited_by"`
	JoinedAt       time.Time `db:"joined_at"`
}

// OrganizationMembership pairs a membership with its organization
type OrganizationMembership struct {
	Membership   Membership
	Organization Organization
}

// MemberWithUser pairs a membership with its user
type MemberWithUser struct {
	Membership Membership
	User       User
}

// Invitation is an invitation code for joining an organization
type Invitation struct {
	Id             string     `db:"id"`
	OrganizationId string     `db:"organization_id"`
	InvitedBy      string     `db:"invited_by"`
	Email          string     `db:"email"`
	Role           string     `db:"role"`
	Token          string     `db:"token"`
	Status         string     `db:"status"`
	ExpiresAt      time.Time  `db:"expires_at"`
	AcceptedAt     *time.Time `db:"accepted_at"`
	AcceptedBy     string     `db:"accepted_by"`
	CreatedAt      time.Time  `db:"created_at"`
}

// ExchangeConfig is an organization's credential set for one exchange
type ExchangeConfig struct {
	Id               string     `db:"id"`
	OrganizationId   string     `db:"organization_id"`
	ExchangeName     string     `db:"exchange_name"`
	ApiKey           string     `db:"api_key"`
	ApiSecret        string     `db:"api_secret"`
	Passphrase       string     `db:"passphrase"`
	Testnet          bool       `db:"testnet"`
	IsActive         bool       `db:"is_active"`
	IsValid          bool       `db:"is_valid"`
	LastValidationAt *time.Time `db:"last_validation_at"`
	ValidationError  string     `db:"validation_error"`
	CreatedBy        string     `db:"created_by"`
	UpdatedBy        string     `db:"updated_by"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// HasCredentials reports whether both key and secret are present
func (c ExchangeConfig) HasCredentials() bool {
	return c.ApiKey != "" && c.ApiSecret != ""
}

// SavedWallet is a named destination address
type SavedWallet struct {
	Id             string    `db:"id"`
	OrganizationId string    `db:"organization_id"`
	CreatedBy      string    `db:"created_by"`
	Label          string    `db:"label"`
	Address        string    `db:"address"`
	Coin           string    `db:"coin"`
	Network        string    `db:"network"`
	Exchange       string    `db:"exchange"`
	Description    string    `db:"description"`
	IsShared       bool      `db:"is_shared"`
	CreatedAt      time.Time `db:"created_at"`
}

// WithdrawRecord is one submitted withdrawal attempt
type WithdrawRecord struct {
	Id              string           `db:"id"`
	OrganizationId  string           `db:"organization_id"`
	InitiatedBy     string           `db:"initiated_by"`
	ExchangeName    string           `db:"exchange_name"`
	Coin            string           `db:"coin"`
	Network         string           `db:"network"`
	Amount          decimal.Decimal  `db:"amount"`
	Address         string           `db:"address"`
	Tag             string           `db:"tag"`
	Status          string           `db:"status"`
	TxId            string           `db:"tx_id"`
	Fee             *decimal.Decimal `db:"fee"`
	ExchangeOrderId string           `db:"exchange_order_id"`
	Error           string           `db:"error"`
	Source          string           `db:"source"`
	Notes           string           `db:"notes"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

// ActivityEntry is an append-only audit log row
type ActivityEntry struct {
	Id             string    `db:"id"`
	OrganizationId string    `db:"organization_id"`
	UserId         string    `db:"user_id"`
	Action         string    `db:"action"`
	Entity         string    `db:"entity"`
	EntityId       string    `db:"entity_id"`
	Details        string    `db:"details"`
	IpAddress      string    `db:"ip_address"`
	UserAgent      string    `db:"user_agent"`
	CreatedAt      time.Time `db:"created_at"`
}
