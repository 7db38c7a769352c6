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

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cex-withdraw-go/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 24h"

// InvitationCleaner is the job the scheduler runs
type InvitationCleaner interface {
	CleanupInvitations(ctx context.Context) (models.CleanupResult, error)
}

// CleanupScheduler runs invitation cleanup once at Start and then on a cron
// schedule until Stop.
type CleanupScheduler struct {
	cleaner  InvitationCleaner
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	initial sync.WaitGroup
}

// NewCleanupScheduler validates schedule, which accepts five-field cron
// expressions and descriptors such as "@every 24h".
func NewCleanupScheduler(cleaner InvitationCleaner, schedule string) (*CleanupScheduler, error) {
	if cleaner == nil {
		return nil, errors.New("invitation cleaner is required")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	return &CleanupScheduler{cleaner: cleaner, schedule: schedule}, nil
}

// Start launches the first run immediately and registers the recurring one.
// Runs never overlap.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("cleanup scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	logger := zapCronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))

	var running sync.Mutex
	job := func() {
		running.Lock()
		defer running.Unlock()
		s.run(runCtx)
	}
	if _, err := c.AddFunc(s.schedule, job); err != nil {
		cancel()
		return fmt.Errorf("unable to schedule cleanup: %w", err)
	}

	s.cron = c
	s.cancel = cancel

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		job()
	}()
	c.Start()

	zap.L().Info("Invitation cleanup scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop cancels the job context and waits for any running cleanup to return.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	zap.L().Info("Stopping invitation cleanup scheduler")
	cancel()
	<-c.Stop().Done()
	s.initial.Wait()
	zap.L().Info("Invitation cleanup scheduler stopped")
}

// RunOnce performs a single cleanup outside the schedule.
func (s *CleanupScheduler) RunOnce(ctx context.Context) (models.CleanupResult, error) {
	return s.cleaner.CleanupInvitations(ctx)
}

func (s *CleanupScheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.cleaner.CleanupInvitations(ctx)
	if err != nil {
		zap.L().Error("Invitation cleanup failed", zap.Error(err))
		return
	}
	zap.L().Debug("Invitation cleanup run finished",
		zap.Int64("expired", result.Expired),
		zap.Int64("deleted", result.Deleted))
}

// zapCronLogger routes cron's own logging through the global zap logger.
type zapCronLogger struct{}

func (zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
