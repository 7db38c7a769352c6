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
	"time"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.Id, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Avatar, &user.CurrentOrganizationId,
		&user.IsActive, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = timePtr(lastLogin)
	return &user, nil
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	userId := uuid.New().String()
	now := s.timestamp()

	zap.L().Info("Creating user", zap.String("id", userId), zap.String("username", params.Username))

	_, err := s.db.ExecContext(ctx, queryInsertUser, userId, params.Username, params.Email,
		params.PasswordHash, nullString(params.FirstName), nullString(params.LastName), params.IsActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", params.Username, store.ErrAlreadyExists)
		}
		zap.L().Error("Failed to insert user", zap.String("username", params.Username), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	return &models.User{
		Id:           userId,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		IsActive:     params.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userId, store.ErrNotFound)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByUsername, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
		}
		zap.L().Error("Failed to query user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by username: %w", err)
	}
	return user, nil
}

// UserExists reports whether the username or the email is already taken.
func (s *Service) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryUserExists, username, email).Scan(&count); err != nil {
		return false, fmt.Errorf("unable to check user existence: %w", err)
	}
	return count > 0, nil
}

func (s *Service) UpdateLastLogin(ctx context.Context, userId string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, queryUpdateLastLogin, at.UTC(), s.timestamp(), userId); err != nil {
		return fmt.Errorf("unable to update last login: %w", err)
	}
	return nil
}

// SetCurrentOrganization points the user at an organization; an empty id
// clears it.
func (s *Service) SetCurrentOrganization(ctx context.Context, userId, organizationId string) error {
	result, err := s.db.ExecContext(ctx, querySetCurrentOrganization, nullString(organizationId), s.timestamp(), userId)
	if err != nil {
		return fmt.Errorf("unable to set current organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", userId, store.ErrNotFound)
	}
	return nil
}
