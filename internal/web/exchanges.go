package web

import (
	"errors"
	"net/http"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const newConfigId = "new"

type exchangeFormView struct {
	Config    *models.ExchangeConfig
	Exchange  string
	Supported []models.AvailableExchange
}

type exchangeHistoryView struct {
	Withdrawals []models.ExchangeWithdrawal
	Error       string
}

func (r *Router) exchangeSettings(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	configs, err := r.svc.ListExchangeConfigs(c.Request.Context(), org.Id)
	if err != nil {
		zap.L().Error("Failed to list exchange configs", zap.String("organization_id", org.Id), zap.Error(err))
		r.fail(c, http.StatusInternalServerError, "Failed to load exchange settings")
		return
	}
	r.render(c, http.StatusOK, "Settings", "exchange-settings", gin.H{
		"Configs":   configs,
		"Supported": r.svc.SupportedExchanges(),
	})
}

func (r *Router) addExchangeForm(c *gin.Context) {
	r.render(c, http.StatusOK, "Add Exchange", "exchange-form", exchangeFormView{
		Exchange:  c.Query("exchange"),
		Supported: r.svc.SupportedExchanges(),
	})
}

func (r *Router) editExchangeForm(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	configId := c.Param("id")
	if configId == newConfigId {
		r.addExchangeForm(c)
		return
	}

	cfg, err := r.svc.GetExchangeConfig(c.Request.Context(), org.Id, configId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.render(c, http.StatusNotFound, "Error", "alert", alert{Kind: toastError, Message: "Exchange configuration not found"})
			return
		}
		zap.L().Error("Failed to load exchange config", zap.String("config_id", configId), zap.Error(err))
		r.fail(c, http.StatusBadRequest, "Failed to load exchange configuration")
		return
	}

	r.render(c, http.StatusOK, "Edit Exchange", "exchange-form", exchangeFormView{
		Config:    cfg,
		Exchange:  cfg.ExchangeName,
		Supported: r.svc.SupportedExchanges(),
	})
}

// bindExchangeConfig reads the settings form. An absent isActive checkbox
// means active; present, it must be "on".
func bindExchangeConfig(c *gin.Context) (models.ExchangeConfigRequest, error) {
	var req models.ExchangeConfigRequest
	if err := c.ShouldBind(&req); err != nil {
		return req, err
	}
	req.Testnet = c.PostForm("testnet") == "on"
	if v, present := c.GetPostForm("isActive"); present {
		req.IsActive = v == "on"
	} else {
		req.IsActive = true
	}
	return req, nil
}

func (r *Router) createExchangeConfig(c *gin.Context) {
	r.saveExchangeConfig(c, "", "Exchange configuration saved successfully!")
}

func (r *Router) updateExchangeConfig(c *gin.Context) {
	r.saveExchangeConfig(c, c.Param("id"), "Exchange configuration updated successfully!")
}

func (r *Router) saveExchangeConfig(c *gin.Context, configId, successMessage string) {
	org := currentOrganization(c)
	if org == nil {
		r.fragment(c, http.StatusBadRequest, "alert", alert{Kind: toastError, Message: "Organization context required"})
		return
	}

	req, err := bindExchangeConfig(c)
	if err == nil {
		_, err = r.svc.SaveExchangeConfig(c.Request.Context(), org.Id, currentUser(c).Id, configId, req)
	}
	if err != nil {
		r.fragment(c, http.StatusBadRequest, "alert", alert{Kind: toastError, Message: saveConfigErrorMessage(err)})
		return
	}

	r.fragment(c, http.StatusOK, "alert", alert{Kind: toastSuccess, Message: successMessage, Reload: true})
}

func saveConfigErrorMessage(err error) string {
	var verr *api.ValidationError
	var cerr *api.CredentialsError
	switch {
	case errors.As(err, &verr):
		return "Exchange name, API key, and API secret are required"
	case errors.As(err, &cerr):
		return cerr.Error()
	case errors.Is(err, store.ErrAlreadyExists):
		return "This exchange is already configured for the organization"
	case errors.Is(err, store.ErrNotFound):
		return "Exchange configuration not found"
	}
	zap.L().Error("Failed to save exchange config", zap.Error(err))
	return "Failed to save configuration"
}

func (r *Router) deleteExchangeConfig(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		r.fragment(c, http.StatusBadRequest, "alert", alert{Kind: toastError, Message: "Organization context required"})
		return
	}

	if err := r.svc.DeleteExchangeConfig(c.Request.Context(), org.Id, currentUser(c).Id, c.Param("id")); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to delete exchange config", zap.String("config_id", c.Param("id")), zap.Error(err))
		}
		r.fragment(c, http.StatusBadRequest, "alert", alert{Kind: toastError, Message: "Failed to delete exchange configuration"})
		return
	}
	c.String(http.StatusOK, "")
}

func (r *Router) testExchangeConfig(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		r.fragment(c, http.StatusOK, "alert", alert{Kind: toastError, Message: "❌ Error: Organization context required"})
		return
	}

	check, err := r.svc.TestExchangeConfig(c.Request.Context(), org.Id, c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.fragment(c, http.StatusOK, "alert", alert{Kind: toastError, Message: "❌ Error: Exchange configuration not found"})
	case err != nil:
		zap.L().Error("Connection test failed", zap.String("config_id", c.Param("id")), zap.Error(err))
		r.fragment(c, http.StatusOK, "alert", alert{Kind: toastError, Message: "❌ Error: " + err.Error()})
	case check.Valid:
		r.fragment(c, http.StatusOK, "alert", alert{Kind: toastSuccess, Message: "✅ Connection successful! Validation status updated."})
	default:
		r.fragment(c, http.StatusOK, "alert", alert{Kind: toastError, Message: "❌ Connection failed. Validation status updated."})
	}
}

func (r *Router) exchangeHistory(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		r.fragment(c, http.StatusOK, "exchange-history", exchangeHistoryView{Error: organizationRequiredMessage})
		return
	}

	history, err := r.svc.ExchangeHistory(c.Request.Context(), org.Id, c.Param("id"), c.Query("coin"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.fragment(c, http.StatusNotFound, "exchange-history", exchangeHistoryView{Error: "Exchange configuration not found"})
	case errors.Is(err, api.ErrExchangeNotConfigured):
		r.fragment(c, http.StatusOK, "exchange-history", exchangeHistoryView{Error: "Exchange not configured"})
	case err != nil:
		zap.L().Warn("Failed to load exchange history", zap.String("config_id", c.Param("id")), zap.Error(err))
		r.fragment(c, http.StatusOK, "exchange-history", exchangeHistoryView{Error: err.Error()})
	default:
		r.fragment(c, http.StatusOK, "exchange-history", exchangeHistoryView{Withdrawals: history})
	}
}
