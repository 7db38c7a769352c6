package web

import (
	"errors"
	"net/http"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/auth"
	"cex-withdraw-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type authForm struct {
	Errors map[string]string
	Values map[string]string
}

type dashboardView struct {
	User         *models.User
	Organization *models.Organization
	Activity     []models.ActivityEntry
}

const dashboardActivityLimit = 10

func formValues(c *gin.Context, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = c.PostForm(f)
	}
	return values
}

// validationMessages turns a validation failure into per-field messages.
// Other errors land under "general".
func validationMessages(err error) map[string]string {
	var verr *api.ValidationError
	if errors.As(err, &verr) {
		return verr.Messages()
	}
	return map[string]string{"general": err.Error()}
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrTooManyAttempts):
		return "Too many login attempts. Please try again later."
	case errors.Is(err, auth.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, auth.ErrEmailTaken):
		return "Email already exists"
	}
	zap.L().Error("Authentication request failed", zap.Error(err))
	return "Authentication failed"
}

func (r *Router) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, int(r.auth.TokenMaxAge().Seconds()), "/", "", r.cookieSecure, true)
}

func (r *Router) setup(c *gin.Context) {
	created, err := r.svc.SetupDemo(c.Request.Context())
	if err != nil {
		zap.L().Error("Setup failed", zap.Error(err))
		r.fail(c, http.StatusInternalServerError, "Setup failed")
		return
	}
	r.render(c, http.StatusOK, "Setup Complete", "setup", gin.H{"Created": created})
}

func (r *Router) home(c *gin.Context) {
	if currentUser(c) == nil {
		r.render(c, http.StatusOK, "CEX Withdraw System", "welcome", nil)
		return
	}
	r.dashboard(c)
}

func (r *Router) dashboard(c *gin.Context) {
	view := dashboardView{User: currentUser(c), Organization: currentOrganization(c)}
	if view.Organization != nil {
		activity, err := r.svc.RecentActivity(c.Request.Context(), view.Organization.Id, dashboardActivityLimit)
		if err != nil {
			zap.L().Warn("Unable to load recent activity", zap.Error(err))
		}
		view.Activity = activity
	}
	r.render(c, http.StatusOK, "Dashboard", "dashboard", view)
}

func (r *Router) loginForm(c *gin.Context) {
	r.render(c, http.StatusOK, "Login", "login", authForm{})
}

func (r *Router) registerForm(c *gin.Context) {
	r.render(c, http.StatusOK, "Register", "register", authForm{})
}

func (r *Router) login(c *gin.Context) {
	values := formValues(c, "username")

	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		r.render(c, http.StatusBadRequest, "Login", "login", authForm{Errors: map[string]string{"general": "Invalid form data"}, Values: values})
		return
	}
	if err := r.svc.Validate(req); err != nil {
		r.render(c, http.StatusBadRequest, "Login", "login", authForm{Errors: validationMessages(err), Values: values})
		return
	}

	ctx := c.Request.Context()
	token, _, err := r.auth.Login(ctx, req.Username, req.Password, c.ClientIP())
	if err != nil {
		r.render(c, http.StatusBadRequest, "Login", "login", authForm{
			Errors: map[string]string{"general": authErrorMessage(err)},
			Values: values,
		})
		return
	}

	r.setAuthCookie(c, token)
	setRedirect(c, "/")
	c.String(http.StatusOK, "Login successful")
}

func (r *Router) register(c *gin.Context) {
	values := formValues(c, "username", "email", "firstName", "lastName")

	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		r.render(c, http.StatusBadRequest, "Register", "register", authForm{Errors: map[string]string{"general": "Invalid form data"}, Values: values})
		return
	}
	if err := r.svc.Validate(req); err != nil {
		r.render(c, http.StatusBadRequest, "Register", "register", authForm{Errors: validationMessages(err), Values: values})
		return
	}

	user, err := r.auth.Register(c.Request.Context(), req)
	if err != nil {
		r.render(c, http.StatusBadRequest, "Register", "register", authForm{
			Errors: map[string]string{"general": authErrorMessage(err)},
			Values: values,
		})
		return
	}

	token, err := r.auth.IssueToken(user.Id)
	if err != nil {
		zap.L().Error("Unable to issue token", zap.String("user_id", user.Id), zap.Error(err))
		r.render(c, http.StatusInternalServerError, "Register", "register", authForm{
			Errors: map[string]string{"general": "Registration failed"},
			Values: values,
		})
		return
	}

	r.setAuthCookie(c, token)
	setRedirect(c, "/")
	c.String(http.StatusOK, "Registration successful")
}

func (r *Router) logout(c *gin.Context) {
	c.SetCookie(authCookieName, "", -1, "/", "", r.cookieSecure, true)
	setRedirect(c, "/")
	c.String(http.StatusOK, "Logged out")
}
