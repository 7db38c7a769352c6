package api

import (
	"context"
	"fmt"

	"cex-withdraw-go/internal/models"

	"go.uber.org/zap"
)

// CleanupInvitations expires pending invitations past their expiry, then
// deletes expired ones older than the retention window.
func (s *DashboardService) CleanupInvitations(ctx context.Context) (models.CleanupResult, error) {
	now := s.now()

	expired, err := s.store.ExpireInvitations(ctx, now)
	if err != nil {
		return models.CleanupResult{}, fmt.Errorf("expire invitations: %w", err)
	}

	deleted, err := s.store.DeleteExpiredInvitations(ctx, now.Add(-s.retention))
	if err != nil {
		return models.CleanupResult{Expired: expired}, fmt.Errorf("delete expired invitations: %w", err)
	}

	if expired > 0 || deleted > 0 {
		zap.L().Info("Invitation cleanup completed",
			zap.Int64("expired", expired),
			zap.Int64("deleted", deleted))
	}
	return models.CleanupResult{Expired: expired, Deleted: deleted}, nil
}
