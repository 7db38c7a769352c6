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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cex-withdraw-go/internal/models"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	// Aggregation waits on exchange calls, so the write timeout has to
	// outlast the exchange HTTP client timeout.
	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 90*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	exchangeTimeout, err := getEnvDuration("EXCHANGE_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("AUTH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	lockoutWindow, err := getEnvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	retention, err := getEnvDuration("INVITATION_RETENTION", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	invitationTTL, err := getEnvDuration("INVITATION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "cex-withdraw.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":3000"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
			TrustedProxies:  getEnvList("TRUSTED_PROXIES"),
			TemplatesDebug:  getEnvBool("TEMPLATES_DEBUG", false),
		},
		Auth: models.AuthConfig{
			JWTSecret:          getEnvString("JWT_SECRET", defaultJWTSecret),
			TokenTTL:           tokenTTL,
			CookieSecure:       getEnvBool("COOKIE_SECURE", false),
			LoginMaxAttempts:   getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginLockoutWindow: lockoutWindow,
		},
		Exchanges: models.ExchangesConfig{
			CatalogFile:     getEnvString("EXCHANGES_FILE", "exchanges.yaml"),
			RequestTimeout:  exchangeTimeout,
			MaxConnsPerHost: getEnvInt("EXCHANGE_MAX_CONNS_PER_HOST", 5),
		},
		Cleanup: models.CleanupConfig{
			Schedule:      getEnvString("INVITATION_CLEANUP_SCHEDULE", "@every 24h"),
			Retention:     retention,
			InvitationTTL: invitationTTL,
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "cex-withdrawals"),
		},
	}, nil
}

// UsesDefaultSecret reports whether the JWT secret was left at its default.
func UsesDefaultSecret(cfg *models.Config) bool {
	return cfg.Auth.JWTSecret == defaultJWTSecret
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
