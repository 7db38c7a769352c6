package api

import (
	"context"
	"strings"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"
)

const (
	activityWalletCreate = "wallet_create"
	activityWalletDelete = "wallet_delete"
	entitySavedWallets   = "saved_wallets"
)

func (s *DashboardService) ListWallets(ctx context.Context, organizationId string) ([]models.SavedWallet, error) {
	return s.store.ListWallets(ctx, organizationId)
}

func (s *DashboardService) GetWallet(ctx context.Context, organizationId, walletId string) (*models.SavedWallet, error) {
	return s.store.GetWallet(ctx, organizationId, walletId)
}

func (s *DashboardService) CreateWallet(ctx context.Context, organizationId, userId string, req models.WalletRequest) (*models.SavedWallet, error) {
	req.Label = strings.TrimSpace(req.Label)
	req.Address = strings.TrimSpace(req.Address)
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	wallet, err := s.store.CreateWallet(ctx, store.CreateWalletParams{
		OrganizationId: organizationId,
		CreatedBy:      userId,
		Label:          req.Label,
		Address:        req.Address,
		Coin:           req.Coin,
		Network:        req.Network,
		Exchange:       strings.ToLower(req.Exchange),
		Description:    strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, organizationId, userId, activityWalletCreate, entitySavedWallets, wallet.Id, map[string]interface{}{
		"label":    wallet.Label,
		"coin":     wallet.Coin,
		"network":  wallet.Network,
		"exchange": wallet.Exchange,
	})
	return wallet, nil
}

// DeleteWallet only succeeds for the wallet's creator.
func (s *DashboardService) DeleteWallet(ctx context.Context, organizationId, userId, walletId string) error {
	if err := s.store.DeleteWallet(ctx, organizationId, walletId, userId); err != nil {
		return err
	}
	s.logActivity(ctx, organizationId, userId, activityWalletDelete, entitySavedWallets, walletId, nil)
	return nil
}
