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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	activityWithdrawal    = "withdrawal"
	entityWithdrawHistory = "withdraw_history"
)

func scanWithdrawal(row rowScanner) (*models.WithdrawRecord, error) {
	var w models.WithdrawRecord
	var fee decimal.NullDecimal
	err := row.Scan(&w.Id, &w.OrganizationId, &w.InitiatedBy, &w.ExchangeName, &w.Coin, &w.Network,
		&w.Amount, &w.Address, &w.Tag, &w.Status, &w.TxId, &fee, &w.ExchangeOrderId,
		&w.Error, &w.Source, &w.Notes, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if fee.Valid {
		w.Fee = &fee.Decimal
	}
	return &w, nil
}

// RecordWithdrawal stores a pending withdrawal intent and its audit entry in
// one transaction. No exchange is contacted.
func (s *Service) RecordWithdrawal(ctx context.Context, params store.RecordWithdrawalParams) (*models.WithdrawRecord, error) {
	now := s.timestamp()
	record := &models.WithdrawRecord{
		Id:             uuid.New().String(),
		OrganizationId: params.OrganizationId,
		InitiatedBy:    params.UserId,
		ExchangeName:   params.ExchangeName,
		Coin:           params.Coin,
		Network:        params.Network,
		Amount:         params.Amount,
		Address:        params.Address,
		Tag:            params.Tag,
		Status:         models.WithdrawStatusPending,
		Source:         models.WithdrawSourceApp,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	amountText := params.AmountText
	if amountText == "" {
		amountText = params.Amount.String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, queryInsertWithdrawal, record.Id, record.OrganizationId, record.InitiatedBy,
		record.ExchangeName, record.Coin, record.Network, amountText, record.Address,
		nullString(record.Tag), record.Status, record.Source, now, now)
	if err != nil {
		zap.L().Error("Failed to insert withdrawal", zap.String("id", record.Id), zap.Error(err))
		return nil, fmt.Errorf("unable to insert withdrawal: %w", err)
	}

	err = insertActivity(ctx, tx, now, store.ActivityParams{
		OrganizationId: params.OrganizationId,
		UserId:         params.UserId,
		Action:         activityWithdrawal,
		Entity:         entityWithdrawHistory,
		EntityId:       record.Id,
		Details: map[string]interface{}{
			"exchange": params.ExchangeName,
			"coin":     params.Coin,
			"network":  params.Network,
			"amount":   amountText,
			"address":  params.Address,
		},
		IpAddress: params.IpAddress,
		UserAgent: params.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}

	zap.L().Info("Withdrawal recorded",
		zap.String("id", record.Id),
		zap.String("organization_id", record.OrganizationId),
		zap.String("exchange", record.ExchangeName),
		zap.String("coin", record.Coin),
		zap.String("amount", amountText))

	return record, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, organizationId string, limit int) ([]models.WithdrawRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryListWithdrawals, organizationId, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawals: %w", err)
	}
	defer closeRows(rows)

	var withdrawals []models.WithdrawRecord
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal row: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}
	return withdrawals, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, organizationId, withdrawalId string) (*models.WithdrawRecord, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, withdrawalId, organizationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("withdrawal %s: %w", withdrawalId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query withdrawal: %w", err)
	}
	return w, nil
}
