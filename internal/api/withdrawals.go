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

package api

import (
	"context"
	"fmt"
	"strings"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const HistoryLimit = 50

// SubmitWithdrawal validates the form and records a pending withdrawal
// together with its audit entry. No exchange is contacted.
func (s *DashboardService) SubmitWithdrawal(ctx context.Context, organizationId, userId string, req models.WithdrawRequest) (*models.WithdrawRecord, error) {
	req.Exchange = strings.TrimSpace(req.Exchange)
	req.Coin = strings.TrimSpace(req.Coin)
	req.Network = strings.TrimSpace(req.Network)
	req.Address = strings.TrimSpace(req.Address)
	req.Amount = strings.TrimSpace(req.Amount)
	if err := s.Validate(req); err != nil {
		zap.L().Info("Withdrawal rejected by validation",
			zap.String("organization_id", organizationId),
			zap.Error(err))
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	meta := models.GetRequestMeta(ctx)
	record, err := s.store.RecordWithdrawal(ctx, store.RecordWithdrawalParams{
		OrganizationId: organizationId,
		UserId:         userId,
		ExchangeName:   req.Exchange,
		Coin:           req.Coin,
		Network:        req.Network,
		Amount:         amount,
		AmountText:     req.Amount,
		Address:        req.Address,
		Tag:            strings.TrimSpace(req.Memo),
		IpAddress:      meta.IpAddress,
		UserAgent:      meta.UserAgent,
	})
	if err != nil {
		zap.L().Error("Withdrawal recording failed",
			zap.String("organization_id", organizationId),
			zap.String("exchange", req.Exchange),
			zap.String("coin", req.Coin),
			zap.Error(err))
		return nil, err
	}

	if s.journal != nil {
		if err := s.journal.RecordWithdrawalIntent(ctx, *record); err != nil {
			zap.L().Warn("Failed to journal withdrawal intent",
				zap.String("withdrawal_id", record.Id),
				zap.Error(err))
		}
	}

	zap.L().Info("Withdrawal request recorded",
		zap.String("withdrawal_id", record.Id),
		zap.String("organization_id", organizationId),
		zap.String("exchange", record.ExchangeName),
		zap.String("coin", record.Coin),
		zap.String("amount", req.Amount))
	return record, nil
}

// ListWithdrawals returns the organization's most recent withdrawals.
func (s *DashboardService) ListWithdrawals(ctx context.Context, organizationId string) ([]models.WithdrawRecord, error) {
	return s.store.ListWithdrawals(ctx, organizationId, HistoryLimit)
}

func (s *DashboardService) GetWithdrawal(ctx context.Context, organizationId, withdrawalId string) (*models.WithdrawRecord, error) {
	return s.store.GetWithdrawal(ctx, organizationId, withdrawalId)
}

// RecentActivity returns the latest audit entries for the dashboard.
func (s *DashboardService) RecentActivity(ctx context.Context, organizationId string, limit int) ([]models.ActivityEntry, error) {
	return s.store.ListActivity(ctx, organizationId, limit)
}
