package web

import (
	"context"
	"errors"
	"net/http"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type organizationsView struct {
	User        *models.User
	Current     *models.Organization
	Memberships []models.OrganizationMembership
}

type organizationSettingsView struct {
	User *models.User
	*models.OrganizationSettings
}

func (r *Router) organizations(c *gin.Context) {
	user := currentUser(c)
	memberships, err := r.svc.ListOrganizations(c.Request.Context(), user.Id)
	if err != nil {
		zap.L().Error("Failed to list organizations", zap.String("user_id", user.Id), zap.Error(err))
		r.fail(c, http.StatusInternalServerError, "Failed to load organizations")
		return
	}

	r.render(c, http.StatusOK, "Organizations", "organizations", organizationsView{
		User:        user,
		Current:     currentOrganization(c),
		Memberships: memberships,
	})
}

func (r *Router) createOrganization(c *gin.Context) {
	var req models.OrganizationRequest
	if err := c.ShouldBind(&req); err != nil {
		toastText(c, http.StatusBadRequest, "Validation failed")
		return
	}

	if _, err := r.svc.CreateOrganization(c.Request.Context(), currentUser(c).Id, req); err != nil {
		var verr *api.ValidationError
		switch {
		case errors.As(err, &verr):
			toastText(c, http.StatusBadRequest, verr.First())
		case errors.Is(err, store.ErrAlreadyExists):
			toastText(c, http.StatusBadRequest, "Organization slug already exists")
		default:
			zap.L().Error("Failed to create organization", zap.Error(err))
			toastText(c, http.StatusBadRequest, "Failed to create organization")
		}
		return
	}

	setToast(c, "Organization created successfully", toastSuccess)
	setRedirect(c, "/dashboard")
	c.String(http.StatusOK, "Organization created")
}

func (r *Router) switchOrganization(c *gin.Context) {
	if err := r.svc.SwitchOrganization(c.Request.Context(), currentUser(c).Id, c.Param("id")); err != nil {
		if errors.Is(err, store.ErrForbidden) {
			toastText(c, http.StatusBadRequest, "User is not a member of this organization")
			return
		}
		zap.L().Error("Failed to switch organization", zap.Error(err))
		toastText(c, http.StatusBadRequest, "Failed to switch organization")
		return
	}

	setToast(c, "Switched organization successfully", toastSuccess)
	setRedirect(c, "/dashboard")
	c.String(http.StatusOK, "Organization switched")
}

func (r *Router) joinOrganization(c *gin.Context) {
	_, err := r.svc.JoinOrganization(c.Request.Context(), currentUser(c).Id, c.PostForm("invitationCode"))
	switch {
	case err == nil:
		setToast(c, "Successfully joined organization", toastSuccess)
		setRedirect(c, "/dashboard")
		c.String(http.StatusOK, "Joined organization")
	case errors.Is(err, api.ErrInvitationCodeRequired):
		toastText(c, http.StatusBadRequest, "Invitation code is required")
	case errors.Is(err, store.ErrInvalidInvitation):
		toastText(c, http.StatusBadRequest, "Invalid or expired invitation code")
	case errors.Is(err, store.ErrInvitationExpired):
		toastText(c, http.StatusBadRequest, "Invitation has expired")
	case errors.Is(err, store.ErrAlreadyMember):
		setToast(c, "You are already a member of this organization", toastError)
		c.String(http.StatusBadRequest, "Already a member")
	default:
		zap.L().Error("Failed to join organization", zap.Error(err))
		toastText(c, http.StatusBadRequest, "Failed to join organization")
	}
}

func (r *Router) organizationSettings(c *gin.Context) {
	user := currentUser(c)
	settings, err := r.svc.OrganizationSettings(c.Request.Context(), user.Id, c.Param("slug"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.fragment(c, http.StatusNotFound, "alert", alert{Kind: toastError, Message: "Organization not found"})
		return
	case errors.Is(err, store.ErrForbidden):
		setToast(c, "Only organization owners can access settings", toastError)
		setRedirect(c, "/organizations")
		c.String(http.StatusForbidden, "Unauthorized")
		return
	case err != nil:
		zap.L().Error("Failed to load organization settings", zap.Error(err))
		r.fail(c, http.StatusInternalServerError, "Failed to load organization settings")
		return
	}

	r.render(c, http.StatusOK, settings.Organization.Name+" Settings", "organization-settings",
		organizationSettingsView{User: user, OrganizationSettings: settings})
}

// redirectToSettings points the client at the organization's settings page.
func (r *Router) redirectToSettings(ctx context.Context, c *gin.Context, organizationId string) {
	org, err := r.svc.GetOrganization(ctx, organizationId)
	if err != nil {
		zap.L().Warn("Unable to resolve organization for redirect", zap.String("organization_id", organizationId), zap.Error(err))
		setRedirect(c, "/organizations")
		return
	}
	setRedirect(c, "/organizations/"+org.Slug+"/settings")
}

func (r *Router) createInvitation(c *gin.Context) {
	ctx := c.Request.Context()
	orgId := c.Param("orgId")

	var req models.InvitationRequest
	if err := c.ShouldBind(&req); err != nil {
		toastText(c, http.StatusBadRequest, "Validation failed")
		return
	}

	if _, err := r.svc.CreateInvitation(ctx, currentUser(c).Id, orgId, req); err != nil {
		var verr *api.ValidationError
		switch {
		case errors.Is(err, store.ErrForbidden):
			setToast(c, "Only owners can invite members", toastError)
			c.String(http.StatusForbidden, "Unauthorized")
		case errors.As(err, &verr):
			toastText(c, http.StatusBadRequest, verr.First())
		default:
			zap.L().Error("Failed to create invitation", zap.String("organization_id", orgId), zap.Error(err))
			toastText(c, http.StatusBadRequest, "Failed to create invitation")
		}
		return
	}

	setToast(c, "Invitation created successfully", toastSuccess)
	r.redirectToSettings(ctx, c, orgId)
	c.String(http.StatusOK, "Invitation created")
}

func (r *Router) cancelInvitation(c *gin.Context) {
	ctx := c.Request.Context()
	orgId := c.Param("orgId")

	if err := r.svc.CancelInvitation(ctx, currentUser(c).Id, orgId, c.Param("invId")); err != nil {
		if errors.Is(err, store.ErrForbidden) {
			setToast(c, "Only owners can manage invitations", toastError)
			c.String(http.StatusForbidden, "Unauthorized")
			return
		}
		zap.L().Error("Failed to cancel invitation", zap.String("organization_id", orgId), zap.Error(err))
		toastText(c, http.StatusBadRequest, "Failed to cancel invitation")
		return
	}

	setToast(c, "Invitation cancelled", toastSuccess)
	r.redirectToSettings(ctx, c, orgId)
	c.String(http.StatusOK, "Invitation cancelled")
}

func (r *Router) removeMember(c *gin.Context) {
	orgId := c.Param("orgId")

	org, err := r.svc.RemoveMember(c.Request.Context(), currentUser(c).Id, orgId, c.Param("memberId"))
	switch {
	case errors.Is(err, store.ErrForbidden):
		setToast(c, "Only owners can remove members", toastError)
		c.String(http.StatusForbidden, "Unauthorized")
		return
	case errors.Is(err, store.ErrOwnerRemoval), errors.Is(err, store.ErrNotFound):
		setToast(c, "Cannot remove this member", toastError)
		c.String(http.StatusBadRequest, "Cannot remove member")
		return
	case err != nil:
		zap.L().Error("Failed to remove member", zap.String("organization_id", orgId), zap.Error(err))
		toastText(c, http.StatusBadRequest, "Failed to remove member")
		return
	}

	setToast(c, "Member removed successfully", toastSuccess)
	setRedirect(c, "/organizations/"+org.Slug+"/settings")
	c.String(http.StatusOK, "Member removed")
}
