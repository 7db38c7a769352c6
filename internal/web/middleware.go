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

package web

import (
	"net/http"
	"strings"
	"time"

	"cex-withdraw-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	authCookieName = "auth_token"

	ctxUser         = "user"
	ctxOrganization = "organization"

	organizationRequiredMessage = "Organization access required. Please join or create an organization."
)

// Logger writes one access log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Filter out HTTP/2 connection preface attempts
		if c.Request.Method == "PRI" {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		zap.L().Info("HTTP request", fields...)
	}
}

// Recovery turns a panicking handler into a 500 and keeps the server running.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				zap.L().Error("Panic recovered",
					zap.Any("panic", err),
					zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// RequestMeta records the caller's address and user agent for audit rows.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := &models.RequestMeta{
			IpAddress: firstNonEmpty(c.GetHeader("CF-Connecting-IP"), c.GetHeader("X-Forwarded-For"), "unknown"),
			UserAgent: firstNonEmpty(c.GetHeader("User-Agent"), "unknown"),
		}
		c.Request = c.Request.WithContext(models.WithRequestMeta(c.Request.Context(), meta))
		c.Next()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// tokenFrom reads the bearer token, falling back to the auth cookie.
func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// loadSession resolves the token into a user and the user's current
// organization. It reports false when the token is missing or invalid.
func (r *Router) loadSession(c *gin.Context) (bool, string) {
	token := tokenFrom(c)
	if token == "" {
		return false, "Authentication required"
	}

	ctx := c.Request.Context()
	user, err := r.auth.Authenticate(ctx, token)
	if err != nil {
		return false, "Invalid token"
	}

	org, err := r.svc.CurrentOrganization(ctx, user)
	if err != nil {
		zap.L().Warn("Unable to resolve current organization",
			zap.String("user_id", user.Id),
			zap.Error(err))
	}

	c.Set(ctxUser, user)
	if org != nil {
		c.Set(ctxOrganization, org)
	}
	return true, ""
}

// AuthRequired rejects requests without a valid session with 401.
func (r *Router) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, reason := r.loadSession(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
			return
		}
		c.Next()
	}
}

// OptionalAuth loads the session when there is one and never rejects.
func (r *Router) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.loadSession(c)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		return v.(*models.User)
	}
	return nil
}

func currentOrganization(c *gin.Context) *models.Organization {
	if v, ok := c.Get(ctxOrganization); ok {
		return v.(*models.Organization)
	}
	return nil
}

// requireOrganization answers with an error when the user has no current
// organization.
func (r *Router) requireOrganization(c *gin.Context) (*models.Organization, bool) {
	org := currentOrganization(c)
	if org == nil {
		r.fail(c, http.StatusBadRequest, organizationRequiredMessage)
		return nil, false
	}
	return org, true
}
