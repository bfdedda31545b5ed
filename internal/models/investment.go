package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

// Investment is a user's stake in a plan
type Investment struct {
	ID                uint                    `gorm:"primaryKey" json:"id"`
	UserID            uint                    `gorm:"not null;index" json:"user_id"`
	User              *User                   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanID            uint                    `gorm:"not null;index" json:"plan_id"`
	Plan              *InvestmentPlan         `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Amount            decimal.Decimal         `gorm:"type:decimal(20,8);not null" json:"amount"`
	CurrentValue      decimal.Decimal         `gorm:"type:decimal(20,8);not null" json:"current_value"`
	Profit            decimal.Decimal         `gorm:"type:decimal(20,8);not null;default:0" json:"profit"`
	ProfitPercentage  decimal.Decimal         `gorm:"type:decimal(10,2);not null;default:0" json:"profit_percentage"`
	// plan terms at the time of investing
	MonthlyReturnRate decimal.Decimal         `gorm:"type:decimal(10,4);not null;default:0" json:"monthly_return_rate"`
	DurationDays      int                     `gorm:"not null;default:0" json:"duration_days"`
	Status            InvestmentStatus        `gorm:"size:20;not null;index" json:"status"`
	StartDate         time.Time               `gorm:"not null" json:"start_date"`
	MaturityDate      time.Time               `gorm:"not null;index" json:"maturity_date"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
	ValueHistory      []InvestmentValuePoint  `gorm:"foreignKey:InvestmentID" json:"value_history,omitempty"`
	Transactions      []InvestmentTransaction `gorm:"foreignKey:InvestmentID" json:"transactions,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

func (Investment) TableName() string {
	return "investments"
}

// InvestmentValuePoint is one append-only entry of an investment's value history
type InvestmentValuePoint struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	InvestmentID uint            `gorm:"not null;index" json:"investment_id"`
	Value        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"value"`
	RecordedAt   time.Time       `gorm:"not null" json:"recorded_at"`
}

func (InvestmentValuePoint) TableName() string {
	return "investment_value_points"
}

// InvestmentTransaction is the per-investment sub-ledger
type InvestmentTransaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvestmentID  uint            `gorm:"not null;index" json:"investment_id"`
	TransactionID *uint           `gorm:"index" json:"transaction_id,omitempty"`
	Type          string          `gorm:"size:30;not null" json:"type"` // principal, valuation, profit, return, refund
	Amount        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Note          string          `gorm:"size:255" json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (InvestmentTransaction) TableName() string {
	return "investment_transactions"
}
