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
	"net/http"
	"strconv"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// networkSelect is the data of the "network-select" fragment
type networkSelect struct {
	Placeholder string
	Disabled    bool
	Networks    []models.Network
}

func (r *Router) balances(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	result, err := r.svc.Balances(c.Request.Context(), org.Id, page)
	if err != nil {
		zap.L().Error("Failed to load balances", zap.String("organization_id", org.Id), zap.Error(err))
		r.fail(c, http.StatusBadRequest, "Failed to load balances")
		return
	}
	r.render(c, http.StatusOK, "Balances", "balances", result)
}

func (r *Router) withdrawForm(c *gin.Context) {
	org, ok := r.requireOrganization(c)
	if !ok {
		return
	}

	data, err := r.svc.WithdrawFormData(c.Request.Context(), org.Id)
	if err != nil {
		zap.L().Error("Failed to load withdraw form", zap.String("organization_id", org.Id), zap.Error(err))
		r.fail(c, http.StatusBadRequest, "Failed to load withdraw page")
		return
	}

	if len(data.AvailableExchanges) == 0 {
		r.render(c, http.StatusOK, "Withdraw", "no-exchanges", nil)
		return
	}
	r.render(c, http.StatusOK, "Withdraw", "withdraw", data)
}

func (r *Router) coinBalance(c *gin.Context) {
	coin, exchangeName := c.Query("coin"), c.Query("exchange")
	if coin == "" || exchangeName == "" {
		r.fragment(c, http.StatusOK, "balance-amount", "Select coin and exchange")
		return
	}

	org := currentOrganization(c)
	if org == nil {
		setToast(c, organizationRequiredMessage, toastError)
		r.fragment(c, http.StatusOK, "balance-amount", "Error loading balance")
		return
	}

	free, err := r.svc.CoinBalance(c.Request.Context(), org.Id, exchangeName, coin)
	switch {
	case errors.Is(err, api.ErrExchangeNotConfigured):
		r.fragment(c, http.StatusOK, "balance-amount", "Exchange not configured")
	case err != nil:
		zap.L().Warn("Failed to load balance",
			zap.String("exchange", exchangeName),
			zap.String("coin", coin),
			zap.Error(err))
		r.fragment(c, http.StatusOK, "balance-amount", "Error loading balance")
	default:
		r.fragment(c, http.StatusOK, "balance-amount", fmt.Sprintf("%s %s", free.String(), coin))
	}
}

func (r *Router) networks(c *gin.Context) {
	coin, exchangeName := c.Query("coin"), c.Query("exchange")
	if coin == "" || exchangeName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing coin or exchange parameter"})
		return
	}

	org := currentOrganization(c)
	if org == nil {
		setToast(c, organizationRequiredMessage, toastError)
		r.fragment(c, http.StatusOK, "network-select", networkSelect{Placeholder: "Error loading networks"})
		return
	}

	networks, err := r.svc.Networks(c.Request.Context(), org.Id, exchangeName, coin)
	r.renderNetworks(c, networks, err, false)
}

// renderNetworks answers with the network <select>. Wallet forms disable
// the select when nothing can be chosen.
func (r *Router) renderNetworks(c *gin.Context, networks []models.Network, err error, disableOnError bool) {
	switch {
	case errors.Is(err, api.ErrExchangeNotConfigured):
		r.fragment(c, http.StatusOK, "network-select", networkSelect{Placeholder: "Exchange not configured", Disabled: disableOnError})
	case err != nil:
		zap.L().Warn("Failed to load networks", zap.Error(err))
		r.fragment(c, http.StatusOK, "network-select", networkSelect{Placeholder: "Error loading networks", Disabled: disableOnError})
	default:
		r.fragment(c, http.StatusOK, "network-select", networkSelect{Placeholder: "Select Network", Networks: networks})
	}
}

func (r *Router) submitWithdrawal(c *gin.Context) {
	org := currentOrganization(c)
	if org == nil {
		toastText(c, http.StatusBadRequest, organizationRequiredMessage)
		return
	}

	var req models.WithdrawRequest
	if err := c.ShouldBind(&req); err != nil {
		toastText(c, http.StatusBadRequest, "Validation error: invalid form data")
		return
	}

	record, err := r.svc.SubmitWithdrawal(c.Request.Context(), org.Id, currentUser(c).Id, req)
	if err != nil {
		var verr *api.ValidationError
		if errors.As(err, &verr) {
			toastText(c, http.StatusBadRequest, "Validation error: "+verr.Error())
			return
		}
		zap.L().Error("Withdrawal submission failed", zap.String("organization_id", org.Id), zap.Error(err))
		toastText(c, http.StatusBadRequest, "Withdrawal failed")
		return
	}

	setToast(c, "Withdrawal request submitted successfully! Transaction ID: "+record.Id, toastSuccess)
	c.String(http.StatusOK, "")
}
