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

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var inv models.Invitation
	var acceptedAt sql.NullTime
	err := row.Scan(&inv.Id, &inv.OrganizationId, &inv.InvitedBy, &inv.Email, &inv.Role,
		&inv.Token, &inv.Status, &inv.ExpiresAt, &acceptedAt, &inv.AcceptedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.AcceptedAt = timePtr(acceptedAt)
	return &inv, nil
}

func (s *Service) CreateInvitation(ctx context.Context, params store.CreateInvitationParams) (*models.Invitation, error) {
	invitationId := uuid.New().String()
	now := s.timestamp()
	expiresAt := params.ExpiresAt.UTC()

	_, err := s.db.ExecContext(ctx, queryInsertInvitation, invitationId, params.OrganizationId, params.InvitedBy,
		nullString(params.Email), params.Role, params.Token, expiresAt, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("invitation token: %w", store.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("unable to insert invitation: %w", err)
	}

	zap.L().Info("Invitation created",
		zap.String("id", invitationId),
		zap.String("organization_id", params.OrganizationId),
		zap.String("role", params.Role))

	return &models.Invitation{
		Id:             invitationId,
		OrganizationId: params.OrganizationId,
		InvitedBy:      params.InvitedBy,
		Email:          params.Email,
		Role:           params.Role,
		Token:          params.Token,
		Status:         models.InvitationPending,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}, nil
}

func (s *Service) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRowContext(ctx, queryGetInvitationByToken, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invitation: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query invitation: %w", err)
	}
	return inv, nil
}

func (s *Service) ListPendingInvitations(ctx context.Context, organizationId string) ([]models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, queryListPendingInvitations, organizationId)
	if err != nil {
		return nil, fmt.Errorf("unable to query invitations: %w", err)
	}
	defer closeRows(rows)

	var invitations []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan invitation row: %w", err)
		}
		invitations = append(invitations, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitation rows: %w", err)
	}
	return invitations, nil
}

// CancelInvitation only touches pending invitations of the organization.
func (s *Service) CancelInvitation(ctx context.Context, organizationId, invitationId string) error {
	result, err := s.db.ExecContext(ctx, queryCancelInvitation, s.timestamp(), invitationId, organizationId)
	if err != nil {
		return fmt.Errorf("unable to cancel invitation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invitation %s: %w", invitationId, store.ErrNotFound)
	}
	return nil
}

// AcceptInvitation creates the membership and marks the invitation accepted
// in one transaction. The organization becomes the user's current one only
// when none is set. Expiry is checked by the caller.
func (s *Service) AcceptInvitation(ctx context.Context, invitationId, userId string) (*models.Membership, error) {
	now := s.timestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	inv, err := scanInvitation(tx.QueryRowContext(ctx, queryGetInvitationById, invitationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrInvalidInvitation
		}
		return nil, fmt.Errorf("unable to query invitation: %w", err)
	}
	if inv.Status != models.InvitationPending {
		return nil, store.ErrInvalidInvitation
	}

	_, err = scanMembership(tx.QueryRowContext(ctx, queryGetMembership, userId, inv.OrganizationId))
	switch {
	case err == nil:
		return nil, store.ErrAlreadyMember
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("unable to query membership: %w", err)
	}

	membership := &models.Membership{
		Id:             uuid.New().String(),
		UserId:         userId,
		OrganizationId: inv.OrganizationId,
		Role:           inv.Role,
		Status:         models.MembershipActive,
		InvitedBy:      inv.InvitedBy,
		JoinedAt:       now,
	}

	_, err = tx.ExecContext(ctx, queryInsertMembership, membership.Id, userId, inv.OrganizationId,
		membership.Role, membership.Status, nullString(inv.InvitedBy), now, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyMember
		}
		return nil, fmt.Errorf("unable to insert membership: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryAcceptInvitation, now, userId, now, invitationId)
	if err != nil {
		return nil, fmt.Errorf("unable to accept invitation: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	} else if rows == 0 {
		return nil, store.ErrInvalidInvitation
	}

	if _, err := tx.ExecContext(ctx, querySetCurrentOrganizationIfUnset, inv.OrganizationId, now, userId); err != nil {
		return nil, fmt.Errorf("unable to set current organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation acceptance: %w", err)
	}

	zap.L().Info("Invitation accepted",
		zap.String("invitation_id", invitationId),
		zap.String("organization_id", inv.OrganizationId),
		zap.String("user_id", userId))
	return membership, nil
}

// ExpireInvitations marks pending invitations past their expiry as expired.
func (s *Service) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryExpireInvitations, s.timestamp(), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("unable to expire invitations: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpiredInvitations removes expired invitations whose expiry is older
// than before.
func (s *Service) DeleteExpiredInvitations(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryDeleteExpiredInvitations, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("unable to delete expired invitations: %w", err)
	}
	return result.RowsAffected()
}
