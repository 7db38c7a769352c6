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
	"errors"
	"fmt"
	"time"

	"cex-withdraw-go/internal/exchange"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"go.uber.org/zap"
)

const (
	defaultInvitationTTL = 7 * 24 * time.Hour
	defaultRetention     = 30 * 24 * time.Hour
)

// ClientFactory builds exchange adapters by name. *exchange.Registry
// satisfies it.
type ClientFactory interface {
	CreateClient(name string, creds exchange.Credentials) (exchange.Client, error)
	SupportedExchanges() []string
	DisplayName(name string) string
	IsImplemented(name string) bool
}

var _ ClientFactory = (*exchange.Registry)(nil)

// DashboardService is the organization-scoped API behind the web handlers
// and the CLI tools
type DashboardService struct {
	store     store.Store
	factory   ClientFactory
	journal   store.WithdrawalJournal
	validator *Validator

	invitationTTL time.Duration
	retention     time.Duration
	now           func() time.Time
}

// NewDashboardService wires the store and the adapter factory. journal may
// be nil, in which case withdrawal intents are only kept locally.
func NewDashboardService(db store.Store, factory ClientFactory, journal store.WithdrawalJournal, cleanup models.CleanupConfig) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("store is required")
	}
	if factory == nil {
		return nil, errors.New("exchange client factory is required")
	}

	v, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("unable to build validator: %w", err)
	}

	s := &DashboardService{
		store:         db,
		factory:       factory,
		journal:       journal,
		validator:     v,
		invitationTTL: cleanup.InvitationTTL,
		retention:     cleanup.Retention,
		now:           time.Now,
	}
	if s.invitationTTL <= 0 {
		s.invitationTTL = defaultInvitationTTL
	}
	if s.retention <= 0 {
		s.retention = defaultRetention
	}
	return s, nil
}

// Validate checks a bound form against its validate tags.
func (s *DashboardService) Validate(form interface{}) error {
	return s.validator.Struct(form)
}

// SupportedExchanges lists the exchanges offered on the settings form.
// Names without an adapter are still listed but flagged.
func (s *DashboardService) SupportedExchanges() []models.AvailableExchange {
	names := s.factory.SupportedExchanges()
	out := make([]models.AvailableExchange, 0, len(names))
	for _, name := range names {
		out = append(out, models.AvailableExchange{
			Name:        name,
			DisplayName: s.factory.DisplayName(name),
			Implemented: s.factory.IsImplemented(name),
		})
	}
	return out
}

func (s *DashboardService) DisplayName(name string) string {
	return s.factory.DisplayName(name)
}

func (s *DashboardService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// logActivity writes an audit row. Failures are logged and swallowed.
func (s *DashboardService) logActivity(ctx context.Context, organizationId, userId, action, entity, entityId string, details map[string]interface{}) {
	meta := models.GetRequestMeta(ctx)
	err := s.store.LogActivity(ctx, store.ActivityParams{
		OrganizationId: organizationId,
		UserId:         userId,
		Action:         action,
		Entity:         entity,
		EntityId:       entityId,
		Details:        details,
		IpAddress:      meta.IpAddress,
		UserAgent:      meta.UserAgent,
	})
	if err != nil {
		zap.L().Warn("Failed to write activity log",
			zap.String("organization_id", organizationId),
			zap.String("action", action),
			zap.Error(err))
	}
}
