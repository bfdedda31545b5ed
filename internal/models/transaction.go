package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxInvestment TransactionType = "investment"
	TxProfit     TransactionType = "profit"
	TxReferral   TransactionType = "referral"
	TxBonus      TransactionType = "bonus"
	TxAdmin      TransactionType = "admin"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxInvestment, TxProfit, TxReferral, TxBonus, TxAdmin:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Valid reports whether s is a known transaction status
func (s TransactionStatus) Valid() bool {
	switch s {
	case TxPending, TxCompleted, TxFailed, TxCancelled:
		return true
	}
	return false
}

// Transaction is the system-of-record ledger entry for every wallet movement
type Transaction struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	User         *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type         TransactionType   `gorm:"size:20;not null;index" json:"type"`
	Amount       decimal.Decimal   `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status       TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	Reference    string            `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	Description  string            `gorm:"type:text" json:"description"`
	InvestmentID *uint             `gorm:"index" json:"investment_id,omitempty"`
	BalanceAfter *decimal.Decimal  `gorm:"type:decimal(20,8)" json:"balance_after,omitempty"`
	ProcessedAt  *time.Time        `json:"processed_at,omitempty"`
	CreatedBy    *uint             `json:"created_by,omitempty"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
