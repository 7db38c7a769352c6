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

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts, try again later")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
)

const defaultTokenTTL = 7 * 24 * time.Hour

// Service handles passwords, sessions and login throttling
type Service struct {
	users    store.UserStore
	secret   []byte
	ttl      time.Duration
	throttle *loginThrottle
	now      func() time.Time
}

func NewService(users store.UserStore, cfg models.AuthConfig) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	window := cfg.LoginLockoutWindow
	if window <= 0 {
		window = 15 * time.Minute
	}

	return &Service{
		users:    users,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		throttle: newLoginThrottle(cfg.LoginMaxAttempts, window),
		now:      time.Now,
	}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("unable to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login verifies the password and returns a signed token. Unknown users,
// wrong passwords and inactive accounts all report ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password, ip string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	key := throttleKey(username, ip)
	if s.throttle.blocked(key) {
		zap.L().Warn("Login throttled", zap.String("username", username), zap.String("ip", ip))
		return "", nil, ErrTooManyAttempts
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.throttle.fail(key)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive || user.PasswordHash == "" || !CheckPassword(user.PasswordHash, password) {
		s.throttle.fail(key)
		return "", nil, ErrInvalidCredentials
	}
	s.throttle.reset(key)

	if err := s.users.UpdateLastLogin(ctx, user.Id, s.now()); err != nil {
		zap.L().Warn("Failed to update last login", zap.String("user_id", user.Id), zap.Error(err))
	}

	token, err := s.IssueToken(user.Id)
	if err != nil {
		return "", nil, err
	}

	zap.L().Info("User logged in", zap.String("user_id", user.Id), zap.String("username", user.Username))
	return token, user, nil
}

// Register creates an active user. No organization is created; the user
// creates or joins one afterwards.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, store.CreateUserParams{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a token to an active user.
func (s *Service) Authenticate(ctx context.Context, authToken string) (*models.User, error) {
	userId, err := s.ParseToken(authToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserById(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}
