package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"investment-platform/internal/blockchain"
	"investment-platform/internal/models"
	"investment-platform/internal/notify"
	"investment-platform/internal/repository"
	"investment-platform/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChainReader answers on-chain questions for deposit verification
type ChainReader interface {
	IsTransactionConfirmed(ctx context.Context, txHash string) (bool, error)
	GetSOLBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

// withdrawalTransitions lists the statuses an admin may move a withdrawal to
var withdrawalTransitions = map[models.WithdrawalStatus][]models.WithdrawalStatus{
	models.WithdrawalPendingReview: {
		models.WithdrawalPendingApproval, models.WithdrawalApproved, models.WithdrawalRejected,
		models.WithdrawalCancelled, models.WithdrawalManualIntervention,
	},
	models.WithdrawalPendingApproval: {
		models.WithdrawalApproved, models.WithdrawalRejected,
		models.WithdrawalCancelled, models.WithdrawalManualIntervention,
	},
	models.WithdrawalApproved: {
		models.WithdrawalProcessing, models.WithdrawalCancelled, models.WithdrawalManualIntervention,
	},
	models.WithdrawalProcessing: {
		models.WithdrawalBroadcasting, models.WithdrawalFailed, models.WithdrawalManualIntervention,
	},
	models.WithdrawalBroadcasting: {
		models.WithdrawalAwaitingConfirmation, models.WithdrawalFailed, models.WithdrawalManualIntervention,
	},
	models.WithdrawalAwaitingConfirmation: {
		models.WithdrawalCompleted, models.WithdrawalFailed, models.WithdrawalManualIntervention,
	},
	models.WithdrawalManualIntervention: {
		models.WithdrawalProcessing, models.WithdrawalCompleted,
		models.WithdrawalFailed, models.WithdrawalCancelled,
	},
}

// CanTransitionWithdrawal reports whether from -> to is an allowed admin move
func CanTransitionWithdrawal(from, to models.WithdrawalStatus) bool {
	for _, s := range withdrawalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// releasesFunds reports whether entering s returns the held amount to available
func releasesFunds(s models.WithdrawalStatus) bool {
	switch s {
	case models.WithdrawalRejected, models.WithdrawalFailed, models.WithdrawalCancelled:
		return true
	}
	return false
}

type WalletService struct {
	db        *gorm.DB
	addresses *blockchain.AddressGenerator
	chain     ChainReader
	notifier  notify.Notifier
}

// NewWalletService wires the crypto wallet. chain may be nil; notifier nil means no notifications.
func NewWalletService(db *gorm.DB, addresses *blockchain.AddressGenerator, chain ChainReader, notifier notify.Notifier) *WalletService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &WalletService{
		db:        db,
		addresses: addresses,
		chain:     chain,
		notifier:  notifier,
	}
}

// AssetParams describes one asset of the catalog
type AssetParams struct {
	Symbol            string `yaml:"symbol"`
	Network           string `yaml:"network"`
	Name              string `yaml:"name"`
	Chain             string `yaml:"chain"`
	Decimals          int    `yaml:"decimals"`
	MinDeposit        string `yaml:"min_deposit"`
	MinWithdrawal     string `yaml:"min_withdrawal"`
	WithdrawalFee     string `yaml:"withdrawal_fee"`
	DepositEnabled    bool   `yaml:"deposit_enabled"`
	WithdrawalEnabled bool   `yaml:"withdrawal_enabled"`
	IsActive          bool   `yaml:"is_active"`
}

type assetsFile struct {
	Assets []AssetParams `yaml:"assets"`
}

func parseAmount(field, v string) (decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, invalidf("%s: %q is not a number", field, v)
	}
	if d.IsNegative() {
		return decimal.Zero, invalidf("%s must not be negative", field)
	}
	return d, nil
}

func (p AssetParams) toModel() (*models.AssetConfig, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	network := strings.ToLower(strings.TrimSpace(p.Network))
	if symbol == "" || network == "" {
		return nil, invalidf("asset symbol and network are required")
	}

	chain := models.Chain(strings.ToLower(p.Chain))
	switch chain {
	case models.ChainEVM, models.ChainSolana, models.ChainSimulated:
	default:
		return nil, invalidf("asset %s: unsupported chain %q", symbol, p.Chain)
	}
	if p.Decimals < 0 || p.Decimals > 18 {
		return nil, invalidf("asset %s: decimals must be between 0 and 18", symbol)
	}

	minDeposit, err := parseAmount("min_deposit", p.MinDeposit)
	if err != nil {
		return nil, err
	}
	minWithdrawal, err := parseAmount("min_withdrawal", p.MinWithdrawal)
	if err != nil {
		return nil, err
	}
	fee, err := parseAmount("withdrawal_fee", p.WithdrawalFee)
	if err != nil {
		return nil, err
	}

	return &models.AssetConfig{
		Symbol:            symbol,
		Network:           network,
		Name:              p.Name,
		Chain:             chain,
		Decimals:          p.Decimals,
		MinDeposit:        minDeposit,
		MinWithdrawal:     minWithdrawal,
		WithdrawalFee:     fee,
		DepositEnabled:    p.DepositEnabled,
		WithdrawalEnabled: p.WithdrawalEnabled,
		IsActive:          p.IsActive,
	}, nil
}

// LoadAssets upserts the catalog from a YAML file. A missing file is not an error.
func (s *WalletService) LoadAssets(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("Asset catalog not found, skipping", zap.String("path", path))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read asset catalog: %w", err)
	}

	var file assetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse asset catalog: %w", err)
	}

	for _, p := range file.Assets {
		if _, err := s.UpsertAsset(ctx, p); err != nil {
			return 0, err
		}
	}

	zap.L().Info("Asset catalog loaded", zap.Int("assets", len(file.Assets)))
	return len(file.Assets), nil
}

// UpsertAsset creates or updates an asset keyed by symbol and network
func (s *WalletService) UpsertAsset(ctx context.Context, p AssetParams) (*models.AssetConfig, error) {
	asset, err := p.toModel()
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "network"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "chain", "decimals", "min_deposit", "min_withdrawal", "withdrawal_fee",
			"deposit_enabled", "withdrawal_enabled", "is_active", "updated_at",
		}),
	}).Create(asset).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}

	var saved models.AssetConfig
	err = s.db.WithContext(ctx).
		Where("symbol = ? AND network = ?", asset.Symbol, asset.Network).
		First(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload asset: %w", err)
	}
	return &saved, nil
}

// SetAssetActive toggles an asset on or off
func (s *WalletService) SetAssetActive(ctx context.Context, id uint, active bool) (*models.AssetConfig, error) {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(asset).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	return asset, nil
}

// ListAssets returns the catalog; activeOnly hides disabled assets
func (s *WalletService) ListAssets(ctx context.Context, activeOnly bool) ([]models.AssetConfig, error) {
	query := s.db.WithContext(ctx).Order("symbol ASC, network ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var assets []models.AssetConfig
	if err := query.Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (s *WalletService) GetAsset(ctx context.Context, id uint) (*models.AssetConfig, error) {
	var asset models.AssetConfig
	if err := s.db.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, notFound("asset", err)
	}
	return &asset, nil
}

// AssetBalanceView is one line of a user's crypto portfolio
type AssetBalanceView struct {
	Asset     models.AssetConfig `json:"asset"`
	Available decimal.Decimal    `json:"available_balance"`
	Pending   decimal.Decimal    `json:"pending_balance"`
}

// Balances returns the user's balance for every active asset, zero where no row exists
func (s *WalletService) Balances(ctx context.Context, userID uint) ([]AssetBalanceView, error) {
	assets, err := s.ListAssets(ctx, true)
	if err != nil {
		return nil, err
	}

	var rows []models.UserAssetBalance
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	byAsset := make(map[uint]models.UserAssetBalance, len(rows))
	for _, r := range rows {
		byAsset[r.AssetID] = r
	}

	views := make([]AssetBalanceView, 0, len(assets))
	for _, a := range assets {
		view := AssetBalanceView{Asset: a, Available: decimal.Zero, Pending: decimal.Zero}
		if r, ok := byAsset[a.ID]; ok {
			view.Available = r.AvailableBalance
			view.Pending = r.PendingBalance
		}
		views = append(views, view)
	}
	return views, nil
}

// DepositAddress returns the user's receiving address for an asset, creating it on first use
func (s *WalletService) DepositAddress(ctx context.Context, userID, assetID uint) (*models.DepositAddress, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsActive || !asset.DepositEnabled {
		return nil, statef("deposits are disabled for %s", asset.Symbol)
	}

	var existing models.DepositAddress
	err = s.db.WithContext(ctx).Where("user_id = ? AND asset_id = ?", userID, assetID).First(&existing).Error
	if err == nil {
		existing.Asset = asset
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load deposit address: %w", err)
	}

	index := uint32(userID)
	address, err := s.addresses.Address(asset.Chain, index)
	if err != nil {
		return nil, fmt.Errorf("failed to generate deposit address: %w", err)
	}

	deposit := models.DepositAddress{
		UserID:   userID,
		AssetID:  assetID,
		Address:  address,
		IsActive: true,
	}
	if !s.addresses.Simulated() && asset.Chain != models.ChainSimulated {
		deposit.DerivationIndex = &index
	}

	err = s.db.WithContext(ctx).Create(&deposit).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent request for the same address
		if err := s.db.WithContext(ctx).Where("user_id = ? AND asset_id = ?", userID, assetID).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to load deposit address: %w", err)
		}
		existing.Asset = asset
		return &existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save deposit address: %w", err)
	}

	zap.L().Info("Deposit address created",
		zap.Uint("user_id", userID),
		zap.String("asset", asset.Symbol),
		zap.String("address", address),
	)
	deposit.Asset = asset
	return &deposit, nil
}

// OnchainBalance reads the native balance of the user's Solana deposit address
func (s *WalletService) OnchainBalance(ctx context.Context, userID, assetID uint) (decimal.Decimal, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	if asset.Chain != models.ChainSolana || s.chain == nil {
		return decimal.Zero, statef("on-chain balance is not available for %s", asset.Symbol)
	}

	var addr models.DepositAddress
	err = s.db.WithContext(ctx).Where("user_id = ? AND asset_id = ?", userID, assetID).First(&addr).Error
	if err != nil {
		return decimal.Zero, notFound("deposit address", err)
	}
	return s.chain.GetSOLBalance(ctx, addr.Address)
}

// CreditDepositParams describes an inbound transfer confirmed by an admin
type CreditDepositParams struct {
	UserID  uint
	AssetID uint
	Amount  decimal.Decimal
	TxHash  string
}

// CreditDeposit adds a confirmed deposit to the user's available balance
func (s *WalletService) CreditDeposit(ctx context.Context, adminID uint, p CreditDepositParams) (*models.CryptoDeposit, error) {
	if !p.Amount.IsPositive() {
		return nil, invalidf("amount must be greater than zero")
	}

	asset, err := s.GetAsset(ctx, p.AssetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsActive || !asset.DepositEnabled {
		return nil, statef("deposits are disabled for %s", asset.Symbol)
	}
	if p.Amount.LessThan(asset.MinDeposit) {
		return nil, invalidf("minimum deposit for %s is %s", asset.Symbol, asset.MinDeposit.String())
	}

	txHash := strings.TrimSpace(p.TxHash)
	if txHash != "" && asset.Chain == models.ChainSolana && s.chain != nil {
		confirmed, err := s.chain.IsTransactionConfirmed(ctx, txHash)
		if err != nil {
			return nil, fmt.Errorf("failed to verify deposit transaction: %w", err)
		}
		if !confirmed {
			return nil, statef("transaction %s is not confirmed yet", txHash)
		}
	}

	deposit := models.CryptoDeposit{
		Reference:  utils.NewReference("DEP"),
		UserID:     p.UserID,
		AssetID:    p.AssetID,
		Amount:     p.Amount,
		CreditedBy: adminID,
	}
	if txHash != "" {
		deposit.TxHash = &txHash
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewLedger(tx)
		if _, err := ledger.LockUser(p.UserID); err != nil {
			return notFound("user", err)
		}

		if err := tx.Create(&deposit).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictf("deposit %s was already credited", txHash)
			}
			return fmt.Errorf("failed to record deposit: %w", err)
		}

		balance, err := ledger.AssetBalance(p.UserID, p.AssetID)
		if err != nil {
			return err
		}
		balance.AvailableBalance = balance.AvailableBalance.Add(p.Amount)
		return ledger.SaveAssetBalance(balance)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Crypto deposit credited",
		zap.String("reference", deposit.Reference),
		zap.Uint("user_id", p.UserID),
		zap.String("asset", asset.Symbol),
		zap.String("amount", p.Amount.String()),
	)
	deposit.Asset = asset
	return &deposit, nil
}

// RequestWithdrawal holds amount from the available balance and opens a request for review
func (s *WalletService) RequestWithdrawal(ctx context.Context, userID, assetID uint, amount decimal.Decimal, destination string) (*models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, invalidf("amount must be greater than zero")
	}

	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsActive || !asset.WithdrawalEnabled {
		return nil, statef("withdrawals are disabled for %s", asset.Symbol)
	}
	if amount.LessThan(asset.MinWithdrawal) {
		return nil, invalidf("minimum withdrawal for %s is %s", asset.Symbol, asset.MinWithdrawal.String())
	}
	if !amount.GreaterThan(asset.WithdrawalFee) {
		return nil, invalidf("amount must exceed the withdrawal fee of %s", asset.WithdrawalFee.String())
	}

	destination = strings.TrimSpace(destination)
	if err := blockchain.ValidateAddress(asset.Chain, destination); err != nil {
		return nil, invalidf("%s", err.Error())
	}

	request := models.WithdrawalRequest{
		Reference:          utils.NewReference("WD"),
		UserID:             userID,
		AssetID:            assetID,
		Amount:             amount,
		Fee:                asset.WithdrawalFee,
		NetAmount:          amount.Sub(asset.WithdrawalFee),
		DestinationAddress: destination,
		Status:             models.WithdrawalPendingReview,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(userID)
		if err != nil {
			return notFound("user", err)
		}
		if !user.IsActive {
			return forbiddenf("account is deactivated")
		}

		balance, err := ledger.AssetBalance(userID, assetID)
		if err != nil {
			return err
		}
		if balance.AvailableBalance.LessThan(amount) {
			return fmt.Errorf("%w: available %s %s, requested %s", ErrInsufficientFunds,
				balance.AvailableBalance.String(), asset.Symbol, amount.String())
		}

		balance.AvailableBalance = balance.AvailableBalance.Sub(amount)
		balance.PendingBalance = balance.PendingBalance.Add(amount)
		if err := ledger.SaveAssetBalance(balance); err != nil {
			return err
		}

		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Crypto withdrawal requested",
		zap.String("reference", request.Reference),
		zap.Uint("user_id", userID),
		zap.String("asset", asset.Symbol),
		zap.String("amount", amount.String()),
	)
	request.Asset = asset
	s.notifier.WithdrawalRequested(ctx, &request, asset)
	return &request, nil
}

// settleWithdrawal moves a request to status and adjusts the held funds.
// The request must come from lockWithdrawal in the same tx.
func (s *WalletService) settleWithdrawal(tx *gorm.DB, w *models.WithdrawalRequest, status models.WithdrawalStatus) error {
	ledger := repository.NewLedger(tx)
	if status == models.WithdrawalCompleted || releasesFunds(status) {
		balance, err := ledger.AssetBalance(w.UserID, w.AssetID)
		if err != nil {
			return err
		}
		balance.PendingBalance = balance.PendingBalance.Sub(w.Amount)
		if releasesFunds(status) {
			balance.AvailableBalance = balance.AvailableBalance.Add(w.Amount)
		}
		if err := ledger.SaveAssetBalance(balance); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return statef("pending balance does not cover withdrawal %s", w.Reference)
			}
			return err
		}
	}

	w.Status = status
	if status == models.WithdrawalCompleted {
		now := time.Now()
		w.CompletedAt = &now
	}
	return tx.Model(w).
		Select("status", "tx_hash", "reviewed_by", "notes", "completed_at", "updated_at").
		Updates(w).Error
}

// lockWithdrawal locks the owner's user row and then the request
func lockWithdrawal(tx *gorm.DB, id uint) (*models.WithdrawalRequest, error) {
	var pre models.WithdrawalRequest
	if err := tx.Select("user_id").First(&pre, id).Error; err != nil {
		return nil, notFound("withdrawal", err)
	}
	if _, err := repository.NewLedger(tx).LockUser(pre.UserID); err != nil {
		return nil, notFound("user", err)
	}

	var w models.WithdrawalRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, id).Error; err != nil {
		return nil, notFound("withdrawal", err)
	}
	return &w, nil
}

// CancelWithdrawal lets the owner cancel a request still awaiting review
func (s *WalletService) CancelWithdrawal(ctx context.Context, userID, id uint) (*models.WithdrawalRequest, error) {
	var w *models.WithdrawalRequest
	var from models.WithdrawalStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		if w.UserID != userID {
			return forbiddenf("withdrawal belongs to another user")
		}
		if w.Status != models.WithdrawalPendingReview {
			return statef("withdrawal can no longer be cancelled (status %s)", w.Status)
		}
		from = w.Status
		return s.settleWithdrawal(tx, w, models.WithdrawalCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.WithdrawalStatusChanged(ctx, w, from)
	return w, nil
}

// TransitionParams carries an admin status change
type TransitionParams struct {
	Status models.WithdrawalStatus
	TxHash string
	Notes  string
}

// TransitionWithdrawal applies an admin move from the transition table
func (s *WalletService) TransitionWithdrawal(ctx context.Context, adminID, id uint, p TransitionParams) (*models.WithdrawalRequest, error) {
	var w *models.WithdrawalRequest
	var from models.WithdrawalStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = lockWithdrawal(tx, id)
		if err != nil {
			return err
		}
		if !CanTransitionWithdrawal(w.Status, p.Status) {
			return statef("cannot move withdrawal from %s to %s", w.Status, p.Status)
		}

		from = w.Status
		w.ReviewedBy = &adminID
		if p.TxHash != "" {
			w.TxHash = strings.TrimSpace(p.TxHash)
		}
		if p.Notes != "" {
			w.Notes = p.Notes
		}
		return s.settleWithdrawal(tx, w, p.Status)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal status changed",
		zap.String("reference", w.Reference),
		zap.String("from", string(from)),
		zap.String("to", string(w.Status)),
		zap.Uint("admin_id", adminID),
	)
	s.notifier.WithdrawalStatusChanged(ctx, w, from)
	return w, nil
}

// WithdrawalFilter narrows ListWithdrawals
type WithdrawalFilter struct {
	UserID *uint
	Status models.WithdrawalStatus
	Limit  int
	Offset int
}

func (s *WalletService) ListWithdrawals(ctx context.Context, f WithdrawalFilter) ([]models.WithdrawalRequest, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}

	var list []models.WithdrawalRequest
	err := query.Preload("Asset").
		Order("created_at DESC, id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return list, total, nil
}

// GetWithdrawal returns a request; userID 0 skips the ownership check
func (s *WalletService) GetWithdrawal(ctx context.Context, userID, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := s.db.WithContext(ctx).Preload("Asset").First(&w, id).Error; err != nil {
		return nil, notFound("withdrawal", err)
	}
	if userID != 0 && w.UserID != userID {
		return nil, forbiddenf("withdrawal belongs to another user")
	}
	return &w, nil
}

// ListDeposits returns credited deposits, optionally for one user
func (s *WalletService) ListDeposits(ctx context.Context, userID *uint, limit, offset int) ([]models.CryptoDeposit, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.CryptoDeposit{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deposits: %w", err)
	}

	var list []models.CryptoDeposit
	err := query.Preload("Asset").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deposits: %w", err)
	}
	return list, total, nil
}
