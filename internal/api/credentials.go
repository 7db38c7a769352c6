package api

import (
	"context"
	"fmt"
	"strings"

	"cex-withdraw-go/internal/exchange"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"go.uber.org/zap"
)

const (
	activityConfigChange  = "config_change"
	entityExchangeConfigs = "exchange_configs"

	connectFailedMessage = "Failed to connect to exchange with provided credentials"
	testFailedMessage    = "Connection test failed"
)

// CredentialsError rejects a credential set that failed its connection test
type CredentialsError struct {
	Reason string
}

func (e *CredentialsError) Error() string {
	return "Invalid credentials: " + e.Reason
}

// checkCredentials builds a throwaway adapter and probes it. failedMessage
// is reported when the probe answers false; construction errors report
// their own text.
func (s *DashboardService) checkCredentials(ctx context.Context, exchangeName string, creds exchange.Credentials, failedMessage string) models.CredentialCheck {
	client, err := s.factory.CreateClient(exchangeName, creds)
	if err != nil {
		return models.CredentialCheck{Error: err.Error()}
	}
	if !client.TestConnection(ctx) {
		return models.CredentialCheck{Error: failedMessage}
	}
	return models.CredentialCheck{Valid: true}
}

func (s *DashboardService) ListExchangeConfigs(ctx context.Context, organizationId string) ([]models.ExchangeConfig, error) {
	return s.store.ListExchangeConfigs(ctx, organizationId)
}

func (s *DashboardService) GetExchangeConfig(ctx context.Context, organizationId, configId string) (*models.ExchangeConfig, error) {
	return s.store.GetExchangeConfig(ctx, organizationId, configId)
}

// SaveExchangeConfig tests the credentials and only then creates the config,
// or replaces configId when it is set. Rejected credentials are never stored.
func (s *DashboardService) SaveExchangeConfig(ctx context.Context, organizationId, userId, configId string, req models.ExchangeConfigRequest) (*models.ExchangeConfig, error) {
	req.ExchangeName = strings.ToLower(strings.TrimSpace(req.ExchangeName))
	req.ApiKey = strings.TrimSpace(req.ApiKey)
	req.ApiSecret = strings.TrimSpace(req.ApiSecret)
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	check := s.checkCredentials(ctx, req.ExchangeName, exchange.Credentials{
		ApiKey:     req.ApiKey,
		ApiSecret:  req.ApiSecret,
		Passphrase: req.Passphrase,
		Testnet:    req.Testnet,
	}, connectFailedMessage)
	if !check.Valid {
		zap.L().Info("Exchange credentials rejected",
			zap.String("organization_id", organizationId),
			zap.String("exchange", req.ExchangeName),
			zap.String("reason", check.Error))
		return nil, &CredentialsError{Reason: check.Error}
	}

	params := store.SaveExchangeConfigParams{
		OrganizationId: organizationId,
		ExchangeName:   req.ExchangeName,
		ApiKey:         req.ApiKey,
		ApiSecret:      req.ApiSecret,
		Passphrase:     req.Passphrase,
		Testnet:        req.Testnet,
		IsActive:       req.IsActive,
		IsValid:        true,
		ValidatedAt:    s.now(),
		UserId:         userId,
	}

	var cfg *models.ExchangeConfig
	var err error
	action := "created"
	if configId == "" {
		cfg, err = s.store.CreateExchangeConfig(ctx, params)
	} else {
		action = "updated"
		cfg, err = s.store.UpdateExchangeConfig(ctx, configId, params)
	}
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, organizationId, userId, activityConfigChange, entityExchangeConfigs, cfg.Id, map[string]interface{}{
		"exchange": cfg.ExchangeName,
		"action":   action,
		"testnet":  cfg.Testnet,
		"active":   cfg.IsActive,
	})
	return cfg, nil
}

// TestExchangeConfig re-probes stored credentials and records the outcome.
func (s *DashboardService) TestExchangeConfig(ctx context.Context, organizationId, configId string) (models.CredentialCheck, error) {
	cfg, err := s.store.GetExchangeConfig(ctx, organizationId, configId)
	if err != nil {
		return models.CredentialCheck{}, err
	}

	check := s.checkCredentials(ctx, cfg.ExchangeName, exchange.Credentials{
		ApiKey:     cfg.ApiKey,
		ApiSecret:  cfg.ApiSecret,
		Passphrase: cfg.Passphrase,
		Testnet:    cfg.Testnet,
	}, testFailedMessage)

	if err := s.store.UpdateExchangeValidation(ctx, organizationId, configId, check.Valid, check.Error, s.now()); err != nil {
		return models.CredentialCheck{}, fmt.Errorf("unable to record connection test: %w", err)
	}

	zap.L().Info("Exchange connection tested",
		zap.String("config_id", configId),
		zap.String("exchange", cfg.ExchangeName),
		zap.Bool("valid", check.Valid))
	return check, nil
}

func (s *DashboardService) DeleteExchangeConfig(ctx context.Context, organizationId, userId, configId string) error {
	if err := s.store.DeleteExchangeConfig(ctx, organizationId, configId); err != nil {
		return err
	}
	s.logActivity(ctx, organizationId, userId, activityConfigChange, entityExchangeConfigs, configId, map[string]interface{}{
		"action": "deleted",
	})
	return nil
}
