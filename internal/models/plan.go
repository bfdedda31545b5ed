package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AssetAllocation is one slice of a plan's portfolio
type AssetAllocation struct {
	Asset      string          `json:"asset"`
	Percentage decimal.Decimal `json:"percentage"`
}

// InvestmentPlan is a catalog entry users can invest in
type InvestmentPlan struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Description       string            `gorm:"type:text" json:"description"`
	MinimumInvestment decimal.Decimal   `gorm:"type:decimal(20,8);not null" json:"minimum_investment"`
	MaximumInvestment decimal.Decimal   `gorm:"type:decimal(20,8);not null;default:0" json:"maximum_investment"` // zero means no cap
	DurationDays      int               `gorm:"not null" json:"duration_days"`
	MonthlyReturnRate decimal.Decimal   `gorm:"type:decimal(10,4);not null" json:"monthly_return_rate"` // percent
	RiskLevel         RiskLevel         `gorm:"size:20;not null" json:"risk_level"`
	AssetAllocation   []AssetAllocation `gorm:"serializer:json;type:text" json:"asset_allocation"`
	IsActive          bool              `gorm:"not null;index" json:"is_active"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}
