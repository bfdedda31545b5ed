package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralRewarded  ReferralStatus = "rewarded"
)

// Referral represents a referral relationship between users
type Referral struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ReferrerID     uint           `gorm:"not null;uniqueIndex:idx_referrals_pair" json:"referrer_id"`
	Referrer       *User          `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	RefereeID      uint           `gorm:"not null;uniqueIndex:idx_referrals_pair;index" json:"referee_id"`
	Referee        *User          `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
	Status         ReferralStatus `gorm:"size:20;not null;index" json:"status"`
	ReferrerPoints int64          `gorm:"not null;default:0" json:"referrer_points"`
	RefereePoints  int64          `gorm:"not null;default:0" json:"referee_points"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	RewardedAt     *time.Time     `json:"rewarded_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ReferralSetting is one version of the referral bonus configuration.
// Exactly one row is active; updates append a new row.
type ReferralSetting struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ReferrerPoints    int64           `gorm:"not null" json:"referrer_points"`
	RefereePoints     int64           `gorm:"not null" json:"referee_points"`
	MinimumInvestment decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"minimum_investment"`
	IsActive          bool            `gorm:"not null;index" json:"is_active"`
	CreatedBy         *uint           `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (ReferralSetting) TableName() string {
	return "referral_settings"
}
