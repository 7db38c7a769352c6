package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanWallet(row rowScanner) (*models.SavedWallet, error) {
	var w models.SavedWallet
	err := row.Scan(&w.Id, &w.OrganizationId, &w.CreatedBy, &w.Label, &w.Address, &w.Coin,
		&w.Network, &w.Exchange, &w.Description, &w.IsShared, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Service) CreateWallet(ctx context.Context, params store.CreateWalletParams) (*models.SavedWallet, error) {
	walletId := uuid.New().String()
	now := s.timestamp()
	coin := strings.ToUpper(params.Coin)

	_, err := s.db.ExecContext(ctx, queryInsertWallet, walletId, params.OrganizationId, params.CreatedBy,
		params.Label, params.Address, coin, params.Network, nullString(params.Exchange),
		nullString(params.Description), now, now)
	if err != nil {
		return nil, fmt.Errorf("unable to insert wallet: %w", err)
	}

	zap.L().Debug("Saved wallet created",
		zap.String("id", walletId),
		zap.String("organization_id", params.OrganizationId),
		zap.String("coin", coin))

	return &models.SavedWallet{
		Id:             walletId,
		OrganizationId: params.OrganizationId,
		CreatedBy:      params.CreatedBy,
		Label:          params.Label,
		Address:        params.Address,
		Coin:           coin,
		Network:        params.Network,
		Exchange:       params.Exchange,
		Description:    params.Description,
		IsShared:       true,
		CreatedAt:      now,
	}, nil
}

func (s *Service) ListWallets(ctx context.Context, organizationId string) ([]models.SavedWallet, error) {
	rows, err := s.db.QueryContext(ctx, queryListWallets, organizationId)
	if err != nil {
		return nil, fmt.Errorf("unable to query wallets: %w", err)
	}
	defer closeRows(rows)

	var wallets []models.SavedWallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan wallet row: %w", err)
		}
		wallets = append(wallets, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}
	return wallets, nil
}

func (s *Service) GetWallet(ctx context.Context, organizationId, walletId string) (*models.SavedWallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, queryGetWallet, walletId, organizationId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("wallet %s: %w", walletId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query wallet: %w", err)
	}
	return w, nil
}

// DeleteWallet only removes wallets created by the given user.
func (s *Service) DeleteWallet(ctx context.Context, organizationId, walletId, userId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteWallet, walletId, organizationId, userId)
	if err != nil {
		return fmt.Errorf("unable to delete wallet: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("wallet %s: %w", walletId, store.ErrNotFound)
	}
	return nil
}
