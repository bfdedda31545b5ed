package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Chain selects how deposit addresses are produced and destinations validated
type Chain string

const (
	ChainEVM       Chain = "evm"
	ChainSolana    Chain = "solana"
	ChainSimulated Chain = "simulated"
)

// AssetConfig stores configuration for supported crypto assets
type AssetConfig struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Symbol            string          `gorm:"size:20;not null;uniqueIndex:idx_asset_symbol_network" json:"symbol"`
	Network           string          `gorm:"size:50;not null;uniqueIndex:idx_asset_symbol_network" json:"network"`
	Name              string          `gorm:"size:120" json:"name"`
	Chain             Chain           `gorm:"size:20;not null" json:"chain"`
	Decimals          int             `gorm:"not null;default:8" json:"decimals"`
	MinDeposit        decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"min_deposit"`
	MinWithdrawal     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"min_withdrawal"`
	WithdrawalFee     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"withdrawal_fee"`
	DepositEnabled    bool            `gorm:"not null" json:"deposit_enabled"`
	WithdrawalEnabled bool            `gorm:"not null" json:"withdrawal_enabled"`
	IsActive          bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (AssetConfig) TableName() string {
	return "asset_configs"
}

// UserAssetBalance is a user's balance in one crypto asset.
// Version is bumped on every write for optimistic concurrency.
type UserAssetBalance struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"not null;uniqueIndex:idx_user_asset" json:"user_id"`
	AssetID          uint            `gorm:"not null;uniqueIndex:idx_user_asset" json:"asset_id"`
	Asset            *AssetConfig    `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"available_balance"`
	PendingBalance   decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"pending_balance"`
	Version          int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (UserAssetBalance) TableName() string {
	return "user_asset_balances"
}

// DepositAddress is a per-user, per-asset receiving address
type DepositAddress struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	UserID          uint         `gorm:"not null;uniqueIndex:idx_deposit_user_asset" json:"user_id"`
	AssetID         uint         `gorm:"not null;uniqueIndex:idx_deposit_user_asset;uniqueIndex:idx_deposit_asset_address" json:"asset_id"`
	Asset           *AssetConfig `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Address         string       `gorm:"size:128;not null;uniqueIndex:idx_deposit_asset_address" json:"address"`
	DerivationIndex *uint32      `json:"derivation_index,omitempty"`
	IsActive        bool         `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (DepositAddress) TableName() string {
	return "deposit_addresses"
}

type WithdrawalStatus string

const (
	WithdrawalPendingReview        WithdrawalStatus = "pending_review"
	WithdrawalPendingApproval      WithdrawalStatus = "pending_approval"
	WithdrawalApproved             WithdrawalStatus = "approved"
	WithdrawalRejected             WithdrawalStatus = "rejected"
	WithdrawalProcessing           WithdrawalStatus = "processing"
	WithdrawalBroadcasting         WithdrawalStatus = "broadcasting"
	WithdrawalAwaitingConfirmation WithdrawalStatus = "awaiting_confirmation"
	WithdrawalCompleted            WithdrawalStatus = "completed"
	WithdrawalFailed               WithdrawalStatus = "failed"
	WithdrawalCancelled            WithdrawalStatus = "cancelled"
	WithdrawalManualIntervention   WithdrawalStatus = "requires_manual_intervention"
)

// WithdrawalRequest is a user's request to send crypto off-platform
type WithdrawalRequest struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	Reference          string           `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	UserID             uint             `gorm:"not null;index" json:"user_id"`
	User               *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AssetID            uint             `gorm:"not null;index" json:"asset_id"`
	Asset              *AssetConfig     `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Amount             decimal.Decimal  `gorm:"type:decimal(36,18);not null" json:"amount"`
	Fee                decimal.Decimal  `gorm:"type:decimal(36,18);not null" json:"fee"`
	NetAmount          decimal.Decimal  `gorm:"type:decimal(36,18);not null" json:"net_amount"`
	DestinationAddress string           `gorm:"size:128;not null" json:"destination_address"`
	Status             WithdrawalStatus `gorm:"size:40;not null;index" json:"status"`
	TxHash             string           `gorm:"size:128" json:"tx_hash,omitempty"`
	ReviewedBy         *uint            `json:"reviewed_by,omitempty"`
	Notes              string           `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// CryptoDeposit records an inbound transfer credited to a user's asset balance
type CryptoDeposit struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Reference  string          `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	AssetID    uint            `gorm:"not null;index;uniqueIndex:idx_deposit_asset_tx" json:"asset_id"`
	Asset      *AssetConfig    `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`
	TxHash     *string         `gorm:"size:128;uniqueIndex:idx_deposit_asset_tx" json:"tx_hash,omitempty"`
	CreditedBy uint            `gorm:"not null" json:"credited_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (CryptoDeposit) TableName() string {
	return "crypto_deposits"
}
