package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investment-platform/internal/blockchain"
	"investment-platform/internal/models"
)

type fakeChain struct {
	confirmed bool
	balance   decimal.Decimal
}

func (f *fakeChain) IsTransactionConfirmed(context.Context, string) (bool, error) {
	return f.confirmed, nil
}

func (f *fakeChain) GetSOLBalance(context.Context, string) (decimal.Decimal, error) {
	return f.balance, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	requested int
	changes   []models.WithdrawalStatus
}

func (n *recordingNotifier) WithdrawalRequested(context.Context, *models.WithdrawalRequest, *models.AssetConfig) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested++
}

func (n *recordingNotifier) WithdrawalStatusChanged(_ context.Context, w *models.WithdrawalRequest, _ models.WithdrawalStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, w.Status)
}

func newWalletService(t *testing.T, db *gorm.DB, chain ChainReader) (*WalletService, *recordingNotifier) {
	t.Helper()
	addresses, err := blockchain.NewAddressGenerator("")
	if err != nil {
		t.Fatalf("NewAddressGenerator failed: %v", err)
	}
	notifier := &recordingNotifier{}
	return NewWalletService(db, addresses, chain, notifier), notifier
}

func seedAsset(t *testing.T, wallet *WalletService) *models.AssetConfig {
	t.Helper()
	asset, err := wallet.UpsertAsset(context.Background(), AssetParams{
		Symbol:            "usdt",
		Network:           "Simnet",
		Name:              "Test Dollar",
		Chain:             "simulated",
		Decimals:          6,
		MinDeposit:        "1",
		MinWithdrawal:     "10",
		WithdrawalFee:     "2",
		DepositEnabled:    true,
		WithdrawalEnabled: true,
		IsActive:          true,
	})
	if err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}
	return asset
}

func assetBalance(t *testing.T, db *gorm.DB, userID, assetID uint) models.UserAssetBalance {
	t.Helper()
	var b models.UserAssetBalance
	if err := db.Where("user_id = ? AND asset_id = ?", userID, assetID).First(&b).Error; err != nil {
		t.Fatalf("failed to load asset balance: %v", err)
	}
	return b
}

const simDestination = "sim_destination_address"

func TestUpsertAssetNormalizesKey(t *testing.T) {
	db := setupTestDB(t)
	wallet, _ := newWalletService(t, db, nil)
	ctx := context.Background()

	first := seedAsset(t, wallet)
	if first.Symbol != "USDT" || first.Network != "simnet" {
		t.Errorf("expected USDT/simnet, got %s/%s", first.Symbol, first.Network)
	}

	second, err := wallet.UpsertAsset(ctx, AssetParams{
		Symbol: "USDT", Network: "simnet", Chain: "simulated", WithdrawalFee: "3",
	})
	if err != nil {
		t.Fatalf("second UpsertAsset failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected upsert to keep id %d, got %d", first.ID, second.ID)
	}
	assertDecimal(t, "withdrawal fee", second.WithdrawalFee, "3")

	if _, err := wallet.UpsertAsset(ctx, AssetParams{Symbol: "X", Network: "y", Chain: "cosmos"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for unknown chain, got %v", err)
	}
	if _, err := wallet.UpsertAsset(ctx, AssetParams{Symbol: "X", Network: "y", Chain: "evm", MinDeposit: "abc"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for bad amount, got %v", err)
	}
}

func TestLoadAssetsFromYAML(t *testing.T) {
	db := setupTestDB(t)
	wallet, _ := newWalletService(t, db, nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "assets.yaml")
	content := strings.Join([]string{
		"assets:",
		"  - symbol: ETH",
		"    network: ethereum",
		"    chain: evm",
		"    decimals: 18",
		"    min_deposit: \"0.01\"",
		"    deposit_enabled: true",
		"    is_active: true",
		"  - symbol: SOL",
		"    network: solana",
		"    chain: solana",
		"    decimals: 9",
		"    is_active: false",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	n, err := wallet.LoadAssets(ctx, path)
	if err != nil {
		t.Fatalf("LoadAssets failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 assets loaded, got %d", n)
	}

	active, _ := wallet.ListAssets(ctx, true)
	all, _ := wallet.ListAssets(ctx, false)
	if len(active) != 1 || len(all) != 2 {
		t.Errorf("expected 1 active of 2, got %d of %d", len(active), len(all))
	}

	if n, err := wallet.LoadAssets(ctx, filepath.Join(t.TempDir(), "missing.yaml")); err != nil || n != 0 {
		t.Errorf("expected a missing catalog to be skipped, got %d, %v", n, err)
	}
}

func TestDepositAddressIsStable(t *testing.T) {
	db := setupTestDB(t)
	wallet, _ := newWalletService(t, db, nil)
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)

	first, err := wallet.DepositAddress(ctx, user.ID, asset.ID)
	if err != nil {
		t.Fatalf("DepositAddress failed: %v", err)
	}
	if !strings.HasPrefix(first.Address, "sim_") {
		t.Errorf("expected a simulated address, got %s", first.Address)
	}

	second, err := wallet.DepositAddress(ctx, user.ID, asset.ID)
	if err != nil {
		t.Fatalf("second DepositAddress failed: %v", err)
	}
	if second.Address != first.Address {
		t.Errorf("expected the same address, got %s then %s", first.Address, second.Address)
	}

	if _, err := wallet.SetAssetActive(ctx, asset.ID, false); err != nil {
		t.Fatalf("SetAssetActive failed: %v", err)
	}
	other := createUser(t, db, "0")
	if _, err := wallet.DepositAddress(ctx, other.ID, asset.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state for a disabled asset, got %v", err)
	}
}

func TestCreditDeposit(t *testing.T) {
	db := setupTestDB(t)
	chain := &fakeChain{}
	wallet, _ := newWalletService(t, db, chain)
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)

	if _, err := wallet.CreditDeposit(ctx, 1, CreditDepositParams{
		UserID: user.ID, AssetID: asset.ID, Amount: decimal.RequireFromString("0.5"),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input below minimum deposit, got %v", err)
	}

	deposit, err := wallet.CreditDeposit(ctx, 1, CreditDepositParams{
		UserID: user.ID, AssetID: asset.ID, Amount: decimal.RequireFromString("100.5"), TxHash: "0xabc",
	})
	if err != nil {
		t.Fatalf("CreditDeposit failed: %v", err)
	}
	if deposit.Reference == "" {
		t.Error("expected a deposit reference")
	}
	assertDecimal(t, "available", assetBalance(t, db, user.ID, asset.ID).AvailableBalance, "100.5")

	if _, err := wallet.CreditDeposit(ctx, 1, CreditDepositParams{
		UserID: user.ID, AssetID: asset.ID, Amount: decimal.NewFromInt(5), TxHash: "0xabc",
	}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict crediting the same hash twice, got %v", err)
	}
	assertDecimal(t, "available after duplicate", assetBalance(t, db, user.ID, asset.ID).AvailableBalance, "100.5")

	list, total, err := wallet.ListDeposits(ctx, &user.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListDeposits failed: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("expected 1 deposit, got total=%d len=%d", total, len(list))
	}
}

func TestCreditDepositChecksSolanaConfirmation(t *testing.T) {
	db := setupTestDB(t)
	chain := &fakeChain{confirmed: false}
	wallet, _ := newWalletService(t, db, chain)
	ctx := context.Background()

	user := createUser(t, db, "0")
	sol, err := wallet.UpsertAsset(ctx, AssetParams{
		Symbol: "SOL", Network: "solana", Chain: "solana", Decimals: 9,
		DepositEnabled: true, IsActive: true,
	})
	if err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}

	p := CreditDepositParams{UserID: user.ID, AssetID: sol.ID, Amount: decimal.NewFromInt(2), TxHash: "5sig"}
	if _, err := wallet.CreditDeposit(ctx, 1, p); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state for an unconfirmed transfer, got %v", err)
	}

	chain.confirmed = true
	if _, err := wallet.CreditDeposit(ctx, 1, p); err != nil {
		t.Fatalf("CreditDeposit failed once confirmed: %v", err)
	}
}

func TestWithdrawalHoldsAndReleases(t *testing.T) {
	db := setupTestDB(t)
	wallet, notifier := newWalletService(t, db, nil)
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)
	if _, err := wallet.CreditDeposit(ctx, 1, CreditDepositParams{UserID: user.ID, AssetID: asset.ID, Amount: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("CreditDeposit failed: %v", err)
	}

	w, err := wallet.RequestWithdrawal(ctx, user.ID, asset.ID, decimal.NewFromInt(40), simDestination)
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if w.Status != models.WithdrawalPendingReview {
		t.Errorf("expected pending_review, got %s", w.Status)
	}
	assertDecimal(t, "fee", w.Fee, "2")
	assertDecimal(t, "net amount", w.NetAmount, "38")

	b := assetBalance(t, db, user.ID, asset.ID)
	assertDecimal(t, "available after request", b.AvailableBalance, "60")
	assertDecimal(t, "pending after request", b.PendingBalance, "40")

	if _, err := wallet.RequestWithdrawal(ctx, user.ID, asset.ID, decimal.NewFromInt(70), simDestination); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected insufficient funds, got %v", err)
	}

	other := createUser(t, db, "0")
	if _, err := wallet.CancelWithdrawal(ctx, other.ID, w.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden cancelling someone else's request, got %v", err)
	}

	if _, err := wallet.CancelWithdrawal(ctx, user.ID, w.ID); err != nil {
		t.Fatalf("CancelWithdrawal failed: %v", err)
	}
	b = assetBalance(t, db, user.ID, asset.ID)
	assertDecimal(t, "available after cancel", b.AvailableBalance, "100")
	assertDecimal(t, "pending after cancel", b.PendingBalance, "0")

	if _, err := wallet.CancelWithdrawal(ctx, user.ID, w.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state cancelling twice, got %v", err)
	}

	if notifier.requested != 1 || len(notifier.changes) != 1 {
		t.Errorf("expected 1 request and 1 change notification, got %d and %d", notifier.requested, len(notifier.changes))
	}
}

func TestWithdrawalPipelineToCompletion(t *testing.T) {
	db := setupTestDB(t)
	wallet, notifier := newWalletService(t, db, nil)
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)
	if _, err := wallet.CreditDeposit(ctx, 1, CreditDepositParams{UserID: user.ID, AssetID: asset.ID, Amount: decimal.NewFromInt(50)}); err != nil {
		t.Fatalf("CreditDeposit failed: %v", err)
	}
	w, err := wallet.RequestWithdrawal(ctx, user.ID, asset.ID, decimal.NewFromInt(50), simDestination)
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	if _, err := wallet.TransitionWithdrawal(ctx, 1, w.ID, TransitionParams{Status: models.WithdrawalCompleted}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state skipping the pipeline, got %v", err)
	}

	steps := []models.WithdrawalStatus{
		models.WithdrawalApproved,
		models.WithdrawalProcessing,
		models.WithdrawalBroadcasting,
		models.WithdrawalAwaitingConfirmation,
		models.WithdrawalCompleted,
	}
	for _, status := range steps {
		p := TransitionParams{Status: status}
		if status == models.WithdrawalBroadcasting {
			p.TxHash = "0xfeed"
		}
		if w, err = wallet.TransitionWithdrawal(ctx, 1, w.ID, p); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	if w.CompletedAt == nil || w.TxHash != "0xfeed" || w.ReviewedBy == nil {
		t.Errorf("expected completion timestamp, tx hash and reviewer, got %+v", w)
	}
	b := assetBalance(t, db, user.ID, asset.ID)
	assertDecimal(t, "available", b.AvailableBalance, "0")
	assertDecimal(t, "pending", b.PendingBalance, "0")

	if _, err := wallet.TransitionWithdrawal(ctx, 1, w.ID, TransitionParams{Status: models.WithdrawalFailed}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected completed to be terminal, got %v", err)
	}
	if len(notifier.changes) != len(steps) {
		t.Errorf("expected %d change notifications, got %d", len(steps), len(notifier.changes))
	}
}

func TestRejectedWithdrawalReturnsFunds(t *testing.T) {
	db := setupTestDB(t)
	wallet, _ := newWalletService(t, db, nil)
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)
	if _, err := wallet.CreditDeposit(ctx, 1, CreditDepositParams{UserID: user.ID, AssetID: asset.ID, Amount: decimal.NewFromInt(30)}); err != nil {
		t.Fatalf("CreditDeposit failed: %v", err)
	}
	w, err := wallet.RequestWithdrawal(ctx, user.ID, asset.ID, decimal.NewFromInt(25), simDestination)
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	if _, err := wallet.TransitionWithdrawal(ctx, 1, w.ID, TransitionParams{Status: models.WithdrawalRejected, Notes: "kyc"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	b := assetBalance(t, db, user.ID, asset.ID)
	assertDecimal(t, "available", b.AvailableBalance, "30")
	assertDecimal(t, "pending", b.PendingBalance, "0")
}

func TestWithdrawalValidation(t *testing.T) {
	db := setupTestDB(t)
	wallet, _ := newWalletService(t, db, nil)
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)

	tests := []struct {
		name        string
		amount      string
		destination string
		want        error
	}{
		{"below minimum", "5", simDestination, ErrInvalidInput},
		{"bad destination", "20", "x", ErrInvalidInput},
		{"zero", "0", simDestination, ErrInvalidInput},
		{"no balance", "20", simDestination, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wallet.RequestWithdrawal(ctx, user.ID, asset.ID, decimal.RequireFromString(tt.amount), tt.destination)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCanTransitionWithdrawal(t *testing.T) {
	tests := []struct {
		from, to models.WithdrawalStatus
		want     bool
	}{
		{models.WithdrawalPendingReview, models.WithdrawalApproved, true},
		{models.WithdrawalPendingReview, models.WithdrawalCompleted, false},
		{models.WithdrawalApproved, models.WithdrawalRejected, false},
		{models.WithdrawalManualIntervention, models.WithdrawalCompleted, true},
		{models.WithdrawalCompleted, models.WithdrawalFailed, false},
		{models.WithdrawalCancelled, models.WithdrawalPendingReview, false},
	}
	for _, tt := range tests {
		if got := CanTransitionWithdrawal(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionWithdrawal(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOnchainBalanceNeedsSolana(t *testing.T) {
	db := setupTestDB(t)
	wallet, _ := newWalletService(t, db, &fakeChain{balance: decimal.RequireFromString("1.25")})
	ctx := context.Background()

	user := createUser(t, db, "0")
	asset := seedAsset(t, wallet)
	if _, err := wallet.OnchainBalance(ctx, user.ID, asset.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state for a non-Solana asset, got %v", err)
	}

	sol, err := wallet.UpsertAsset(ctx, AssetParams{
		Symbol: "SOL", Network: "solana", Chain: "solana", DepositEnabled: true, IsActive: true,
	})
	if err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}
	if _, err := wallet.DepositAddress(ctx, user.ID, sol.ID); err != nil {
		t.Fatalf("DepositAddress failed: %v", err)
	}
	balance, err := wallet.OnchainBalance(ctx, user.ID, sol.ID)
	if err != nil {
		t.Fatalf("OnchainBalance failed: %v", err)
	}
	assertDecimal(t, "SOL balance", balance, "1.25")
}
