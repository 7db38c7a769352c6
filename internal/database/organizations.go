package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanOrganization(row rowScanner) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(&org.Id, &org.Name, &org.Slug, &org.Description, &org.OwnerId,
		&org.IsPersonal, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func membershipFields(m *models.Membership) []interface{} {
	return []interface{}{&m.Id, &m.UserId, &m.OrganizationId, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt}
}

func scanMembership(row rowScanner) (*models.Membership, error) {
	var m models.Membership
	if err := row.Scan(membershipFields(&m)...); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) CountOrganizations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountOrganizations).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count organizations: %w", err)
	}
	return count, nil
}

// CreateOrganization inserts the organization and its owner membership in
// one transaction.
func (s *Service) CreateOrganization(ctx context.Context, params store.CreateOrganizationParams) (*models.Organization, error) {
	orgId := uuid.New().String()
	now := s.timestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, queryInsertOrganization, orgId, params.Name, params.Slug,
		nullString(params.Description), params.OwnerId, params.IsPersonal, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("organization slug %s: %w", params.Slug, store.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("unable to insert organization: %w", err)
	}

	_, err = tx.ExecContext(ctx, queryInsertMembership, uuid.New().String(), params.OwnerId, orgId,
		models.RoleOwner, models.MembershipActive, nil, now, now, now)
	if err != nil {
		return nil, fmt.Errorf("unable to insert owner membership: %w", err)
	}

	if params.MakeCurrent {
		if _, err := tx.ExecContext(ctx, querySetCurrentOrganization, orgId, now, params.OwnerId); err != nil {
			return nil, fmt.Errorf("unable to set current organization: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit organization: %w", err)
	}

	zap.L().Info("Organization created",
		zap.String("id", orgId),
		zap.String("slug", params.Slug),
		zap.String("owner_id", params.OwnerId))

	return &models.Organization{
		Id:          orgId,
		Name:        params.Name,
		Slug:        params.Slug,
		Description: params.Description,
		OwnerId:     params.OwnerId,
		IsPersonal:  params.IsPersonal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) GetOrganizationById(ctx context.Context, organizationId string) (*models.Organization, error) {
	org, err := scanOrganization(s.db.QueryRowContext(ctx, queryGetOrganizationById, organizationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization %s: %w", organizationId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query organization: %w", err)
	}
	return org, nil
}

func (s *Service) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	org, err := scanOrganization(s.db.QueryRowContext(ctx, queryGetOrganizationBySlug, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization %s: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query organization: %w", err)
	}
	return org, nil
}

// ListOrganizations returns every organization, ordered by name.
func (s *Service) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, queryListOrganizations)
	if err != nil {
		return nil, fmt.Errorf("unable to query organizations: %w", err)
	}
	defer closeRows(rows)

	var result []models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan organization row: %w", err)
		}
		result = append(result, *org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organization rows: %w", err)
	}
	return result, nil
}

// ListUserOrganizations returns the user's active memberships with their
// organizations.
func (s *Service) ListUserOrganizations(ctx context.Context, userId string) ([]models.OrganizationMembership, error) {
	rows, err := s.db.QueryContext(ctx, queryListUserOrganizations, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query user organizations: %w", err)
	}
	defer closeRows(rows)

	var result []models.OrganizationMembership
	for rows.Next() {
		var om models.OrganizationMembership
		fields := membershipFields(&om.Membership)
		fields = append(fields, &om.Organization.Id, &om.Organization.Name, &om.Organization.Slug,
			&om.Organization.Description, &om.Organization.OwnerId, &om.Organization.IsPersonal,
			&om.Organization.CreatedAt, &om.Organization.UpdatedAt)
		if err := rows.Scan(fields...); err != nil {
			return nil, fmt.Errorf("unable to scan organization row: %w", err)
		}
		result = append(result, om)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organization rows: %w", err)
	}
	return result, nil
}

func (s *Service) GetMembership(ctx context.Context, userId, organizationId string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx, queryGetMembership, userId, organizationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership %s/%s: %w", userId, organizationId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query membership: %w", err)
	}
	return m, nil
}

func (s *Service) ListMembers(ctx context.Context, organizationId string) ([]models.MemberWithUser, error) {
	rows, err := s.db.QueryContext(ctx, queryListMembers, organizationId)
	if err != nil {
		return nil, fmt.Errorf("unable to query members: %w", err)
	}
	defer closeRows(rows)

	var members []models.MemberWithUser
	for rows.Next() {
		var mu models.MemberWithUser
		fields := membershipFields(&mu.Membership)
		fields = append(fields, &mu.User.Id, &mu.User.Username, &mu.User.Email,
			&mu.User.FirstName, &mu.User.LastName, &mu.User.IsActive, &mu.User.CreatedAt)
		if err := rows.Scan(fields...); err != nil {
			return nil, fmt.Errorf("unable to scan member row: %w", err)
		}
		members = append(members, mu)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

// RemoveMember deletes a non-owner membership and clears the removed user's
// current organization when it pointed here.
func (s *Service) RemoveMember(ctx context.Context, organizationId, membershipId string) (*models.Membership, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	m, err := scanMembership(tx.QueryRowContext(ctx, queryGetMembershipInOrg, membershipId, organizationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership %s: %w", membershipId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query membership: %w", err)
	}
	if m.Role == models.RoleOwner {
		return nil, store.ErrOwnerRemoval
	}

	if _, err := tx.ExecContext(ctx, queryDeleteMembership, membershipId, organizationId); err != nil {
		return nil, fmt.Errorf("unable to delete membership: %w", err)
	}
	if _, err := tx.ExecContext(ctx, queryClearCurrentOrganization, s.timestamp(), m.UserId, organizationId); err != nil {
		return nil, fmt.Errorf("unable to clear current organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit member removal: %w", err)
	}

	zap.L().Info("Member removed",
		zap.String("organization_id", organizationId),
		zap.String("user_id", m.UserId))
	return m, nil
}
