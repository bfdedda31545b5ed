package repository

import (
	"errors"
	"fmt"
	"time"

	"investment-platform/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConcurrentUpdate    = errors.New("balance modified concurrently")
)

// Ledger applies balance movements inside an open database transaction.
// Every method expects tx to come from db.Transaction.
type Ledger struct {
	tx *gorm.DB
}

// NewLedger binds a Ledger to tx
func NewLedger(tx *gorm.DB) *Ledger {
	return &Ledger{tx: tx}
}

// LockUser loads the user row with SELECT ... FOR UPDATE, serializing
// balance-affecting work for that user until the transaction ends
func (l *Ledger) LockUser(userID uint) (*models.User, error) {
	var user models.User
	err := l.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// lockedUser re-reads the money columns of the user row under FOR UPDATE.
// Balances are computed here in decimal and written back as values.
func (l *Ledger) lockedUser(userID uint) (*models.User, error) {
	var current models.User
	err := l.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "wallet_balance", "total_invested", "total_profit").
		Where("id = ?", userID).
		First(&current).Error
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (l *Ledger) writeBalance(userID uint, balance decimal.Decimal) error {
	result := l.tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", balance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreditWallet adds amount to the user's wallet and returns the new balance
func (l *Ledger) CreditWallet(user *models.User, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("credit amount must be positive")
	}

	current, err := l.lockedUser(user.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit wallet: %w", err)
	}

	balance := current.Wallet.Balance.Add(amount)
	if err := l.writeBalance(user.ID, balance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit wallet: %w", err)
	}

	user.Wallet.Balance = balance
	return balance, nil
}

// DebitWallet subtracts amount from the user's wallet.
// The balance is checked against the stored row, never the caller's copy.
func (l *Ledger) DebitWallet(user *models.User, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("debit amount must be positive")
	}

	current, err := l.lockedUser(user.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit wallet: %w", err)
	}
	if current.Wallet.Balance.LessThan(amount) {
		user.Wallet.Balance = current.Wallet.Balance
		return decimal.Zero, ErrInsufficientBalance
	}

	balance := current.Wallet.Balance.Sub(amount)
	if err := l.writeBalance(user.ID, balance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit wallet: %w", err)
	}

	user.Wallet.Balance = balance
	return balance, nil
}

// AddUserTotals increments total_invested and total_profit on the user row
func (l *Ledger) AddUserTotals(user *models.User, invested, profit decimal.Decimal) error {
	if invested.IsZero() && profit.IsZero() {
		return nil
	}

	current, err := l.lockedUser(user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}

	totalInvested := current.TotalInvested.Add(invested)
	totalProfit := current.TotalProfit.Add(profit)
	err = l.tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"total_invested": totalInvested,
		"total_profit":   totalProfit,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}

	user.TotalInvested = totalInvested
	user.TotalProfit = totalProfit
	return nil
}

// AssetBalance returns the user's balance row for assetID, creating it at zero if missing
func (l *Ledger) AssetBalance(userID, assetID uint) (*models.UserAssetBalance, error) {
	initial := models.UserAssetBalance{
		UserID:           userID,
		AssetID:          assetID,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
	}
	err := l.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "asset_id"}},
		DoNothing: true,
	}).Create(&initial).Error
	if err != nil {
		return nil, fmt.Errorf("failed to init asset balance: %w", err)
	}

	var balance models.UserAssetBalance
	err = l.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND asset_id = ?", userID, assetID).
		First(&balance).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load asset balance: %w", err)
	}
	return &balance, nil
}

// SaveAssetBalance writes available/pending if nobody bumped the version meanwhile
func (l *Ledger) SaveAssetBalance(balance *models.UserAssetBalance) error {
	if balance.AvailableBalance.IsNegative() || balance.PendingBalance.IsNegative() {
		return ErrInsufficientBalance
	}

	result := l.tx.Model(&models.UserAssetBalance{}).
		Where("id = ? AND version = ?", balance.ID, balance.Version).
		Updates(map[string]interface{}{
			"available_balance": balance.AvailableBalance,
			"pending_balance":   balance.PendingBalance,
			"version":           balance.Version + 1,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save asset balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	balance.Version++
	return nil
}
