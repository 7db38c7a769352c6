package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"
)

func TestWallets_CreateAndDelete(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()
	bob := env.addUser(t, "bob")

	if _, err := env.service.CreateWallet(ctx, env.org.Id, env.owner.Id, models.WalletRequest{Label: "Cold"}); err == nil {
		t.Fatal("Expected validation error for incomplete wallet")
	}

	wallet, err := env.service.CreateWallet(ctx, env.org.Id, env.owner.Id, models.WalletRequest{
		Label:    "Cold",
		Coin:     "usdt",
		Network:  "TRX",
		Address:  " TXYZ ",
		Exchange: "Binance",
	})
	if err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}
	if wallet.Coin != "USDT" || wallet.Exchange != "binance" || wallet.Address != "TXYZ" {
		t.Errorf("Unexpected wallet %+v", wallet)
	}

	got, err := env.service.GetWallet(ctx, env.org.Id, wallet.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if got.Label != "Cold" {
		t.Errorf("Expected label Cold, got %s", got.Label)
	}

	if err := env.service.DeleteWallet(ctx, env.org.Id, bob.Id, wallet.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-creator, got %v", err)
	}
	if err := env.service.DeleteWallet(ctx, env.org.Id, env.owner.Id, wallet.Id); err != nil {
		t.Fatalf("DeleteWallet failed: %v", err)
	}

	wallets, err := env.service.ListWallets(ctx, env.org.Id)
	if err != nil {
		t.Fatalf("ListWallets failed: %v", err)
	}
	if len(wallets) != 0 {
		t.Errorf("Expected no wallets after delete, got %d", len(wallets))
	}

	activity, err := env.service.RecentActivity(ctx, env.org.Id, 10)
	if err != nil {
		t.Fatalf("RecentActivity failed: %v", err)
	}
	actions := map[string]bool{}
	for _, entry := range activity {
		actions[entry.Action] = true
	}
	if !actions[activityWalletCreate] || !actions[activityWalletDelete] {
		t.Errorf("Expected wallet create and delete activity, got %+v", activity)
	}
}

func TestCleanupInvitations(t *testing.T) {
	env := setupTestService(t, nil)
	ctx := context.Background()

	inv, err := env.service.CreateInvitation(ctx, env.owner.Id, env.org.Id, models.InvitationRequest{Email: "late@example.com"})
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	if _, err := env.service.CreateInvitation(ctx, env.owner.Id, env.org.Id, models.InvitationRequest{Email: "fresh@example.com"}); err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	result, err := env.service.CleanupInvitations(ctx)
	if err != nil {
		t.Fatalf("CleanupInvitations failed: %v", err)
	}
	if result.Expired != 0 || result.Deleted != 0 {
		t.Errorf("Expected nothing to clean yet, got %+v", result)
	}

	env.service.now = func() time.Time { return inv.ExpiresAt.Add(time.Hour) }
	result, err = env.service.CleanupInvitations(ctx)
	if err != nil {
		t.Fatalf("CleanupInvitations failed: %v", err)
	}
	if result.Expired != 2 || result.Deleted != 0 {
		t.Errorf("Expected 2 expired and 0 deleted, got %+v", result)
	}

	env.service.now = func() time.Time { return inv.ExpiresAt.Add(31 * 24 * time.Hour) }
	result, err = env.service.CleanupInvitations(ctx)
	if err != nil {
		t.Fatalf("CleanupInvitations failed: %v", err)
	}
	if result.Expired != 0 || result.Deleted != 2 {
		t.Errorf("Expected 0 expired and 2 deleted, got %+v", result)
	}

	if _, err := env.db.GetInvitationByToken(ctx, inv.Token); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected invitation to be deleted, got %v", err)
	}
}
