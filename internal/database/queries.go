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

package database

const (
	// User queries
	userColumns = `
		id, username, email, password_hash, COALESCE(first_name, ''), COALESCE(last_name, ''),
		COALESCE(avatar, ''), COALESCE(current_organization_id, ''), is_active, last_login_at,
		created_at, updated_at`

	queryInsertUser = `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetUserById = `SELECT` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByUsername = `SELECT` + userColumns + `
		FROM users
		WHERE username = ?`

	queryUserExists = `
		SELECT COUNT(*)
		FROM users
		WHERE username = ? OR email = ?`

	queryUpdateLastLogin = `
		UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`

	querySetCurrentOrganization = `
		UPDATE users SET current_organization_id = ?, updated_at = ? WHERE id = ?`

	querySetCurrentOrganizationIfUnset = `
		UPDATE users SET current_organization_id = ?, updated_at = ?
		WHERE id = ? AND current_organization_id IS NULL`

	queryClearCurrentOrganization = `
		UPDATE users SET current_organization_id = NULL, updated_at = ?
		WHERE id = ? AND current_organization_id = ?`

	// Organization queries
	organizationColumns = `
		o.id, o.name, o.slug, COALESCE(o.description, ''), o.owner_id, o.is_personal, o.created_at, o.updated_at`

	queryCountOrganizations = `SELECT COUNT(*) FROM organizations`

	queryInsertOrganization = `
		INSERT INTO organizations (id, name, slug, description, owner_id, is_personal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetOrganizationById = `SELECT` + organizationColumns + `
		FROM organizations o
		WHERE o.id = ?`

	queryGetOrganizationBySlug = `SELECT` + organizationColumns + `
		FROM organizations o
		WHERE o.slug = ?`

	queryListOrganizations = `SELECT` + organizationColumns + `
		FROM organizations o
		ORDER BY o.name, o.rowid`

	// Membership queries
	membershipColumns = `
		m.id, m.user_id, m.organization_id, m.role, m.status, COALESCE(m.invited_by, ''), m.joined_at`

	queryInsertMembership = `
		INSERT INTO organization_memberships (id, user_id, organization_id, role, status, invited_by, joined_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetMembership = `SELECT` + membershipColumns + `
		FROM organization_memberships m
		WHERE m.user_id = ? AND m.organization_id = ?`

	queryGetMembershipInOrg = `SELECT` + membershipColumns + `
		FROM organization_memberships m
		WHERE m.id = ? AND m.organization_id = ?`

	queryListUserOrganizations = `SELECT` + membershipColumns + `,` + organizationColumns + `
		FROM organization_memberships m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = ? AND m.status = 'active'
		ORDER BY m.joined_at, m.rowid`

	queryListMembers = `SELECT` + membershipColumns + `,
		u.id, u.username, u.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), u.is_active, u.created_at
		FROM organization_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = ?
		ORDER BY m.joined_at, m.rowid`

	queryDeleteMembership = `
		DELETE FROM organization_memberships WHERE id = ? AND organization_id = ?`

	// Invitation queries
	invitationColumns = `
		id, organization_id, invited_by, COALESCE(email, ''), role, token, status, expires_at,
		accepted_at, COALESCE(accepted_by, ''), created_at`

	queryInsertInvitation = `
		INSERT INTO organization_invitations (id, organization_id, invited_by, email, role, token, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?)`

	queryGetInvitationByToken = `SELECT` + invitationColumns + `
		FROM organization_invitations
		WHERE token = ?`

	queryGetInvitationById = `SELECT` + invitationColumns + `
		FROM organization_invitations
		WHERE id = ?`

	queryListPendingInvitations = `SELECT` + invitationColumns + `
		FROM organization_invitations
		WHERE organization_id = ? AND status = 'pending'
		ORDER BY created_at DESC, rowid DESC`

	queryCancelInvitation = `
		UPDATE organization_invitations SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = 'pending'`

	queryAcceptInvitation = `
		UPDATE organization_invitations SET status = 'accepted', accepted_at = ?, accepted_by = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`

	queryExpireInvitations = `
		UPDATE organization_invitations SET status = 'expired', updated_at = ?
		WHERE status = 'pending' AND expires_at < ?`

	queryDeleteExpiredInvitations = `
		DELETE FROM organization_invitations
		WHERE status = 'expired' AND expires_at < ?`

	// Exchange configuration queries
	exchangeConfigColumns = `
		id, organization_id, exchange_name, api_key, api_secret, COALESCE(passphrase, ''), testnet,
		is_active, is_valid, last_validation_at, COALESCE(validation_error, ''),
		COALESCE(created_by, ''), COALESCE(updated_by, ''), created_at, updated_at`

	queryListExchangeConfigs = `SELECT` + exchangeConfigColumns + `
		FROM exchange_configs
		WHERE organization_id = ?
		ORDER BY created_at, rowid`

	queryListActiveExchangeConfigs = `SELECT` + exchangeConfigColumns + `
		FROM exchange_configs
		WHERE organization_id = ? AND is_active = 1
		ORDER BY created_at, rowid`

	queryGetExchangeConfig = `SELECT` + exchangeConfigColumns + `
		FROM exchange_configs
		WHERE id = ? AND organization_id = ?`

	queryGetActiveExchangeConfigByName = `SELECT` + exchangeConfigColumns + `
		FROM exchange_configs
		WHERE organization_id = ? AND LOWER(exchange_name) = LOWER(?) AND is_active = 1
		LIMIT 1`

	queryInsertExchangeConfig = `
		INSERT INTO exchange_configs (id, organization_id, exchange_name, api_key, api_secret, passphrase, testnet,
			is_active, is_valid, last_validation_at, validation_error, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateExchangeConfig = `
		UPDATE exchange_configs
		SET exchange_name = ?, api_key = ?, api_secret = ?, passphrase = ?, testnet = ?, is_active = ?,
			is_valid = ?, last_validation_at = ?, validation_error = ?, updated_by = ?, updated_at = ?
		WHERE id = ? AND organization_id = ?`

	queryDeleteExchangeConfig = `
		DELETE FROM exchange_configs WHERE id = ? AND organization_id = ?`

	queryUpdateExchangeValidation = `
		UPDATE exchange_configs
		SET is_valid = ?, last_validation_at = ?, validation_error = ?, updated_at = ?
		WHERE id = ? AND organization_id = ?`

	// Saved wallet queries
	walletColumns = `
		id, organization_id, created_by, label, address, coin, network, COALESCE(exchange, ''),
		COALESCE(description, ''), is_shared, created_at`

	queryInsertWallet = `
		INSERT INTO saved_wallets (id, organization_id, created_by, label, address, coin, network, exchange, description, is_shared, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	queryListWallets = `SELECT` + walletColumns + `
		FROM saved_wallets
		WHERE organization_id = ?
		ORDER BY created_at DESC, rowid DESC`

	queryGetWallet = `SELECT` + walletColumns + `
		FROM saved_wallets
		WHERE id = ? AND organization_id = ?`

	queryDeleteWallet = `
		DELETE FROM saved_wallets WHERE id = ? AND organization_id = ? AND created_by = ?`

	// Withdrawal history queries
	withdrawalColumns = `
		id, organization_id, initiated_by, exchange_name, coin, network, amount, address,
		COALESCE(tag, ''), status, COALESCE(tx_id, ''), fee, COALESCE(exchange_order_id, ''),
		COALESCE(error, ''), source, COALESCE(notes, ''), created_at, updated_at`

	queryInsertWithdrawal = `
		INSERT INTO withdraw_history (id, organization_id, initiated_by, exchange_name, coin, network, amount, address,
			tag, status, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListWithdrawals = `SELECT` + withdrawalColumns + `
		FROM withdraw_history
		WHERE organization_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`

	queryGetWithdrawal = `SELECT` + withdrawalColumns + `
		FROM withdraw_history
		WHERE id = ? AND organization_id = ?`

	// Activity log queries
	queryInsertActivity = `
		INSERT INTO activity_log (id, organization_id, user_id, action, entity, entity_id, details, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListActivity = `
		SELECT id, organization_id, COALESCE(user_id, ''), action, entity, COALESCE(entity_id, ''),
			COALESCE(details, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM activity_log
		WHERE organization_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`
)
