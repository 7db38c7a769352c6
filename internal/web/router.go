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
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/auth"
	"cex-withdraw-go/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router wraps the Gin engine with the dashboard handlers
type Router struct {
	engine       *gin.Engine
	svc          *api.DashboardService
	auth         *auth.Service
	templates    *template.Template
	cookieSecure bool
}

// NewRouter builds the engine, its middleware and every route.
func NewRouter(svc *api.DashboardService, authService *auth.Service, serverCfg models.ServerConfig, authCfg models.AuthConfig) (*Router, error) {
	if svc == nil || authService == nil {
		return nil, errors.New("dashboard and auth services are required")
	}

	if serverCfg.TemplatesDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:       gin.New(),
		svc:          svc,
		auth:         authService,
		cookieSecure: authCfg.CookieSecure,
	}

	templates, err := r.loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("unable to parse templates: %w", err)
	}
	r.templates = templates
	r.engine.SetHTMLTemplate(templates)

	// With no trusted proxies ClientIP is the socket peer and forwarding
	// headers are ignored.
	if err := r.engine.SetTrustedProxies(serverCfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r.setupMiddleware(serverCfg.AllowedOrigins)
	r.setupRoutes()

	return r, nil
}

func (r *Router) setupMiddleware(allowedOrigins []string) {
	r.engine.Use(Recovery())
	r.engine.Use(Logger())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders,
		"Authorization", "HX-Request", "HX-Target", "HX-Current-URL", "HX-Trigger")
	corsCfg.ExposeHeaders = []string{"HX-Trigger", "HX-Redirect"}
	corsCfg.MaxAge = 12 * time.Hour
	r.engine.Use(cors.New(corsCfg))

	r.engine.Use(RequestMeta())
}

func (r *Router) setupRoutes() {
	e := r.engine

	e.GET("/health", r.health)
	e.GET("/setup", r.setup)

	e.GET("/", r.OptionalAuth(), r.home)
	e.GET("/login", r.loginForm)
	e.GET("/register", r.registerForm)
	e.POST("/login", r.login)
	e.POST("/register", r.register)
	e.POST("/logout", r.logout)

	authed := e.Group("/")
	authed.Use(r.AuthRequired())
	{
		authed.GET("/dashboard", r.dashboard)
		authed.GET("/balances", r.balances)
		authed.GET("/withdraw", r.withdrawForm)

		authed.GET("/wallets", r.wallets)
		authed.GET("/wallets/add", r.addWalletForm)

		authed.GET("/history", r.history)

		authed.GET("/organizations", r.organizations)
		authed.GET("/organizations/:slug/settings", r.organizationSettings)

		authed.GET("/settings", r.exchangeSettings)
		authed.GET("/settings/exchanges/add", r.addExchangeForm)
		authed.GET("/settings/exchanges/:id", r.editExchangeForm)
	}

	apiGroup := e.Group("/api")
	apiGroup.Use(r.AuthRequired())
	{
		apiGroup.GET("/balance", r.coinBalance)
		apiGroup.GET("/networks", r.networks)
		apiGroup.POST("/withdraw", r.submitWithdrawal)

		apiGroup.GET("/wallet-coins", r.walletCoins)
		apiGroup.GET("/wallet-networks", r.walletNetworks)
		apiGroup.GET("/wallet-address", r.walletAddress)
		apiGroup.POST("/wallets", r.createWallet)
		apiGroup.DELETE("/wallets/:id", r.deleteWallet)

		apiGroup.GET("/transaction/:id", r.transaction)

		orgs := apiGroup.Group("/organizations")
		{
			orgs.POST("/create", r.createOrganization)
			orgs.POST("/switch/:id", r.switchOrganization)
			orgs.POST("/join", r.joinOrganization)
			orgs.POST("/:orgId/invitations", r.createInvitation)
			orgs.DELETE("/:orgId/invitations/:invId", r.cancelInvitation)
			orgs.DELETE("/:orgId/members/:memberId", r.removeMember)
		}

		exchanges := apiGroup.Group("/exchanges")
		{
			exchanges.POST("", r.createExchangeConfig)
			exchanges.POST("/:id", r.updateExchangeConfig)
			exchanges.DELETE("/:id", r.deleteExchangeConfig)
			exchanges.POST("/:id/test", r.testExchangeConfig)
			exchanges.GET("/:id/history", r.exchangeHistory)
		}
	}
}

func (r *Router) health(c *gin.Context) {
	if err := r.svc.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Handler returns the engine as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}
