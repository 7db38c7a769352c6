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
	"strings"
	"time"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanExchangeConfig(row rowScanner) (*models.ExchangeConfig, error) {
	var cfg models.ExchangeConfig
	var validatedAt sql.NullTime
	err := row.Scan(&cfg.Id, &cfg.OrganizationId, &cfg.ExchangeName, &cfg.ApiKey, &cfg.ApiSecret,
		&cfg.Passphrase, &cfg.Testnet, &cfg.IsActive, &cfg.IsValid, &validatedAt, &cfg.ValidationError,
		&cfg.CreatedBy, &cfg.UpdatedBy, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cfg.LastValidationAt = timePtr(validatedAt)
	return &cfg, nil
}

func (s *Service) queryExchangeConfigs(ctx context.Context, query, organizationId string) ([]models.ExchangeConfig, error) {
	rows, err := s.db.QueryContext(ctx, query, organizationId)
	if err != nil {
		return nil, fmt.Errorf("unable to query exchange configs: %w", err)
	}
	defer closeRows(rows)

	var configs []models.ExchangeConfig
	for rows.Next() {
		cfg, err := scanExchangeConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan exchange config row: %w", err)
		}
		configs = append(configs, *cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange config rows: %w", err)
	}
	return configs, nil
}

func (s *Service) ListExchangeConfigs(ctx context.Context, organizationId string) ([]models.ExchangeConfig, error) {
	return s.queryExchangeConfigs(ctx, queryListExchangeConfigs, organizationId)
}

func (s *Service) ListActiveExchangeConfigs(ctx context.Context, organizationId string) ([]models.ExchangeConfig, error) {
	return s.queryExchangeConfigs(ctx, queryListActiveExchangeConfigs, organizationId)
}

func (s *Service) GetExchangeConfig(ctx context.Context, organizationId, configId string) (*models.ExchangeConfig, error) {
	cfg, err := scanExchangeConfig(s.db.QueryRowContext(ctx, queryGetExchangeConfig, configId, organizationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exchange config %s: %w", configId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query exchange config: %w", err)
	}
	return cfg, nil
}

// GetActiveExchangeConfigByName matches the exchange name case-insensitively.
func (s *Service) GetActiveExchangeConfigByName(ctx context.Context, organizationId, exchangeName string) (*models.ExchangeConfig, error) {
	cfg, err := scanExchangeConfig(s.db.QueryRowContext(ctx, queryGetActiveExchangeConfigByName, organizationId, exchangeName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exchange config %s: %w", exchangeName, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query exchange config: %w", err)
	}
	return cfg, nil
}

func (s *Service) CreateExchangeConfig(ctx context.Context, params store.SaveExchangeConfigParams) (*models.ExchangeConfig, error) {
	configId := uuid.New().String()
	now := s.timestamp()
	name := strings.ToLower(params.ExchangeName)

	_, err := s.db.ExecContext(ctx, queryInsertExchangeConfig, configId, params.OrganizationId, name,
		params.ApiKey, params.ApiSecret, nullString(params.Passphrase), params.Testnet, params.IsActive, params.IsValid,
		nullTime(params.ValidatedAt.UTC()), nullString(params.ValidationError),
		nullString(params.UserId), nullString(params.UserId), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("exchange config %s: %w", name, store.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("unable to insert exchange config: %w", err)
	}

	zap.L().Info("Exchange config created",
		zap.String("id", configId),
		zap.String("organization_id", params.OrganizationId),
		zap.String("exchange", name),
		zap.Bool("valid", params.IsValid))

	return s.GetExchangeConfig(ctx, params.OrganizationId, configId)
}

// UpdateExchangeConfig replaces the credentials and validation outcome of an
// existing config in the same organization.
func (s *Service) UpdateExchangeConfig(ctx context.Context, configId string, params store.SaveExchangeConfigParams) (*models.ExchangeConfig, error) {
	name := strings.ToLower(params.ExchangeName)

	result, err := s.db.ExecContext(ctx, queryUpdateExchangeConfig, name, params.ApiKey, params.ApiSecret,
		nullString(params.Passphrase), params.Testnet, params.IsActive, params.IsValid, nullTime(params.ValidatedAt.UTC()),
		nullString(params.ValidationError), nullString(params.UserId), s.timestamp(),
		configId, params.OrganizationId)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("exchange config %s: %w", name, store.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("unable to update exchange config: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("exchange config %s: %w", configId, store.ErrNotFound)
	}

	return s.GetExchangeConfig(ctx, params.OrganizationId, configId)
}

func (s *Service) DeleteExchangeConfig(ctx context.Context, organizationId, configId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteExchangeConfig, configId, organizationId)
	if err != nil {
		return fmt.Errorf("unable to delete exchange config: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("exchange config %s: %w", configId, store.ErrNotFound)
	}
	return nil
}

func (s *Service) UpdateExchangeValidation(ctx context.Context, organizationId, configId string, valid bool, validationError string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, queryUpdateExchangeValidation, valid, at.UTC(),
		nullString(validationError), s.timestamp(), configId, organizationId)
	if err != nil {
		return fmt.Errorf("unable to update exchange validation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("exchange config %s: %w", configId, store.ErrNotFound)
	}
	return nil
}
