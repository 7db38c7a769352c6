package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	systemUsername = "system"
	systemEmail    = "system@transnet.local"

	demoOrganizationName = "Demo Organization"
	demoOrganizationSlug = "demo"
	demoDescription      = "Default demo organization for TransNet"
)

var ErrInvitationCodeRequired = errors.New("invitation code is required")

// requireOwner returns store.ErrForbidden unless userId actively owns the organization.
func (s *DashboardService) requireOwner(ctx context.Context, userId, organizationId string) error {
	membership, err := s.store.GetMembership(ctx, userId, organizationId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrForbidden
		}
		return err
	}
	if membership.Role != models.RoleOwner || membership.Status != models.MembershipActive {
		return store.ErrForbidden
	}
	return nil
}

// CreateOrganization creates the organization with userId as owner and makes
// it the user's current organization.
func (s *DashboardService) CreateOrganization(ctx context.Context, userId string, req models.OrganizationRequest) (*models.Organization, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	return s.store.CreateOrganization(ctx, store.CreateOrganizationParams{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: strings.TrimSpace(req.Description),
		OwnerId:     userId,
		MakeCurrent: true,
	})
}

// CurrentOrganization returns the user's current organization, or nil when
// the user has none or is no longer an active member of it.
func (s *DashboardService) CurrentOrganization(ctx context.Context, user *models.User) (*models.Organization, error) {
	if user == nil || user.CurrentOrganizationId == "" {
		return nil, nil
	}

	membership, err := s.store.GetMembership(ctx, user.Id, user.CurrentOrganizationId)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if membership.Status != models.MembershipActive {
		return nil, nil
	}

	org, err := s.store.GetOrganizationById(ctx, user.CurrentOrganizationId)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return org, err
}

func (s *DashboardService) GetOrganization(ctx context.Context, organizationId string) (*models.Organization, error) {
	return s.store.GetOrganizationById(ctx, organizationId)
}

func (s *DashboardService) ListOrganizations(ctx context.Context, userId string) ([]models.OrganizationMembership, error) {
	return s.store.ListUserOrganizations(ctx, userId)
}

// SwitchOrganization requires an active membership in the target organization.
func (s *DashboardService) SwitchOrganization(ctx context.Context, userId, organizationId string) error {
	membership, err := s.store.GetMembership(ctx, userId, organizationId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrForbidden
		}
		return err
	}
	if membership.Status != models.MembershipActive {
		return store.ErrForbidden
	}
	return s.store.SetCurrentOrganization(ctx, userId, organizationId)
}

// JoinOrganization redeems an invitation code. Codes found past their expiry
// are marked expired before ErrInvitationExpired is returned.
func (s *DashboardService) JoinOrganization(ctx context.Context, userId, code string) (*models.Organization, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvitationCodeRequired
	}

	inv, err := s.store.GetInvitationByToken(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrInvalidInvitation
		}
		return nil, err
	}
	if inv.Status != models.InvitationPending {
		return nil, store.ErrInvalidInvitation
	}

	now := s.now()
	if now.After(inv.ExpiresAt) {
		if _, err := s.store.ExpireInvitations(ctx, now); err != nil {
			zap.L().Warn("Failed to expire invitations", zap.Error(err))
		}
		return nil, store.ErrInvitationExpired
	}

	if _, err := s.store.AcceptInvitation(ctx, inv.Id, userId); err != nil {
		return nil, err
	}
	return s.store.GetOrganizationById(ctx, inv.OrganizationId)
}

// OrganizationSettings is available to the organization owner only.
func (s *DashboardService) OrganizationSettings(ctx context.Context, userId, slug string) (*models.OrganizationSettings, error) {
	org, err := s.store.GetOrganizationBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, userId, org.Id); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, org.Id)
	if err != nil {
		return nil, err
	}
	invitations, err := s.store.ListPendingInvitations(ctx, org.Id)
	if err != nil {
		return nil, err
	}

	return &models.OrganizationSettings{
		Organization: *org,
		Members:      members,
		Invitations:  invitations,
	}, nil
}

// CreateInvitation issues a fresh invitation code. Role defaults to member.
func (s *DashboardService) CreateInvitation(ctx context.Context, userId, organizationId string, req models.InvitationRequest) (*models.Invitation, error) {
	if err := s.requireOwner(ctx, userId, organizationId); err != nil {
		return nil, err
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	return s.store.CreateInvitation(ctx, store.CreateInvitationParams{
		OrganizationId: organizationId,
		InvitedBy:      userId,
		Email:          req.Email,
		Role:           req.Role,
		Token:          uuid.New().String(),
		ExpiresAt:      s.now().Add(s.invitationTTL),
	})
}

func (s *DashboardService) CancelInvitation(ctx context.Context, userId, organizationId, invitationId string) error {
	if err := s.requireOwner(ctx, userId, organizationId); err != nil {
		return err
	}
	return s.store.CancelInvitation(ctx, organizationId, invitationId)
}

// RemoveMember returns the organization so callers can redirect to its settings.
func (s *DashboardService) RemoveMember(ctx context.Context, userId, organizationId, membershipId string) (*models.Organization, error) {
	if err := s.requireOwner(ctx, userId, organizationId); err != nil {
		return nil, err
	}
	if _, err := s.store.RemoveMember(ctx, organizationId, membershipId); err != nil {
		return nil, err
	}
	return s.store.GetOrganizationById(ctx, organizationId)
}

// SetupDemo creates the inactive system user and the demo organization when
// no organization exists yet. It reports whether anything was created.
func (s *DashboardService) SetupDemo(ctx context.Context) (bool, error) {
	count, err := s.store.CountOrganizations(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	system, err := s.store.GetUserByUsername(ctx, systemUsername)
	if errors.Is(err, store.ErrNotFound) {
		system, err = s.store.CreateUser(ctx, store.CreateUserParams{
			Username: systemUsername,
			Email:    systemEmail,
		})
	}
	if err != nil {
		return false, fmt.Errorf("unable to prepare system user: %w", err)
	}

	org, err := s.store.CreateOrganization(ctx, store.CreateOrganizationParams{
		Name:        demoOrganizationName,
		Slug:        demoOrganizationSlug,
		Description: demoDescription,
		OwnerId:     system.Id,
		MakeCurrent: true,
	})
	if err != nil {
		return false, fmt.Errorf("unable to create demo organization: %w", err)
	}

	zap.L().Info("Demo organization created",
		zap.String("organization_id", org.Id),
		zap.String("owner_id", system.Id))
	return true, nil
}
