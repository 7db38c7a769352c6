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

// coinSelect is the data of the "wallet-coin-select" fragment
type coinSelect struct {
	Placeholder string
	Disabled    bool
	Coins       []models.Coin
}

func (r *Router) wallets(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	wallets, err := r.svc.ListWallets(c.Request.Context(), org.Id)
	if err != nil {
		zap.L().Error("Failed to list wallets", zap.String("organization_id", org.Id), zap.Error(err))
		r.fail(c, http.StatusInternalServerError, "Failed to load wallets")
		return
	}
	r.render(c, http.StatusOK, "Wallets", "wallets", gin.H{"Wallets": wallets, "User": currentUser(c)})
}

func (r *Router) addWalletForm(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	exchanges, err := r.svc.AvailableExchanges(c.Request.Context(), org.Id, true)
	if err != nil {
		zap.L().Error("Failed to load exchanges", zap.String("organization_id", org.Id), zap.Error(err))
		r.fail(c, http.StatusBadRequest, "Failed to load add wallet form")
		return
	}
	r.render(c, http.StatusOK, "Add Wallet", "wallet-add", exchanges)
}

func (r *Router) walletCoins(c *gin.Context) {
	exchangeName := c.Query("exchange")
	if exchangeName == "" {
		r.fragment(c, http.StatusOK, "wallet-coin-select", coinSelect{Placeholder: "Select exchange first", Disabled: true})
		return
	}

	org := currentOrganization(c)
	if org == nil {
		setToast(c, organizationRequiredMessage, toastError)
		r.fragment(c, http.StatusOK, "wallet-coin-select", coinSelect{Placeholder: "Error loading coins", Disabled: true})
		return
	}

	coins, err := r.svc.WalletCoins(c.Request.Context(), org.Id, exchangeName)
	switch {
	case errors.Is(err, api.ErrExchangeNotConfigured):
		r.fragment(c, http.StatusOK, "wallet-coin-select", coinSelect{Placeholder: "Exchange not configured or invalid", Disabled: true})
	case err != nil:
		zap.L().Warn("Failed to load coins", zap.String("exchange", exchangeName), zap.Error(err))
		r.fragment(c, http.StatusOK, "wallet-coin-select", coinSelect{Placeholder: "Error loading coins", Disabled: true})
	default:
		r.fragment(c, http.StatusOK, "wallet-coin-select", coinSelect{Placeholder: "Select Coin", Coins: coins})
	}
}

func (r *Router) walletNetworks(c *gin.Context) {
	coin, exchangeName := c.Query("coin"), c.Query("exchange")
	if coin == "" || exchangeName == "" {
		r.fragment(c, http.StatusOK, "network-select", networkSelect{Placeholder: "Select coin first", Disabled: true})
		return
	}

	org := currentOrganization(c)
	if org == nil {
		setToast(c, organizationRequiredMessage, toastError)
		r.fragment(c, http.StatusOK, "network-select", networkSelect{Placeholder: "Error loading networks", Disabled: true})
		return
	}

	networks, err := r.svc.WalletNetworks(c.Request.Context(), org.Id, exchangeName, coin)
	r.renderNetworks(c, networks, err, true)
}

// walletAddress prefills the address input from a saved wallet. Unknown
// wallets leave it empty.
func (r *Router) walletAddress(c *gin.Context) {
	walletId := c.Query("wallet")
	org := currentOrganization(c)
	if walletId == "" || org == nil {
		r.fragment(c, http.StatusOK, "address-input", "")
		return
	}

	wallet, err := r.svc.GetWallet(c.Request.Context(), org.Id, walletId)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("Failed to load wallet", zap.String("wallet_id", walletId), zap.Error(err))
		}
		r.fragment(c, http.StatusOK, "address-input", "")
		return
	}
	r.fragment(c, http.StatusOK, "address-input", wallet.Address)
}

func (r *Router) createWallet(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		setToast(c, organizationRequiredMessage, toastError)
		c.String(http.StatusBadRequest, "")
		return
	}

	var req models.WalletRequest
	if err := c.ShouldBind(&req); err != nil {
		setToast(c, "All fields are required", toastError)
		c.String(http.StatusBadRequest, "")
		return
	}

	if _, err := r.svc.CreateWallet(c.Request.Context(), org.Id, currentUser(c).Id, req); err != nil {
		message := "Failed to save wallet"
		var verr *api.ValidationError
		if errors.As(err, &verr) {
			message = "All fields are required"
		} else {
			zap.L().Error("Failed to save wallet", zap.String("organization_id", org.Id), zap.Error(err))
		}
		setToast(c, message, toastError)
		c.String(http.StatusBadRequest, "")
		return
	}

	setToast(c, "Wallet saved successfully!", toastSuccess)
	setRedirect(c, "/wallets")
	c.String(http.StatusOK, "")
}

func (r *Router) deleteWallet(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		setToast(c, organizationRequiredMessage, toastError)
		c.String(http.StatusBadRequest, "")
		return
	}

	if err := r.svc.DeleteWallet(c.Request.Context(), org.Id, currentUser(c).Id, c.Param("id")); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to delete wallet", zap.String("wallet_id", c.Param("id")), zap.Error(err))
		}
		setToast(c, "Failed to delete wallet", toastError)
		c.String(http.StatusBadRequest, "")
		return
	}

	setToast(c, "Wallet deleted successfully!", toastSuccess)
	c.String(http.StatusOK, "")
}

func (r *Router) history(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	records, err := r.svc.ListWithdrawals(c.Request.Context(), org.Id)
	if err != nil {
		zap.L().Error("Failed to list withdrawals", zap.String("organization_id", org.Id), zap.Error(err))
		r.fail(c, http.StatusInternalServerError, "Failed to load history")
		return
	}
	r.render(c, http.StatusOK, "History", "history", records)
}

func (r *Router) transaction(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		r.fragment(c, http.StatusNotFound, "alert", alert{Kind: toastError, Message: "Transaction not found"})
		return
	}

	record, err := r.svc.GetWithdrawal(c.Request.Context(), org.Id, c.Param("id"))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to load withdrawal", zap.String("withdrawal_id", c.Param("id")), zap.Error(err))
		}
		r.fragment(c, http.StatusNotFound, "alert", alert{Kind: toastError, Message: "Transaction not found"})
		return
	}
	r.fragment(c, http.StatusOK, "transaction", record)
}
