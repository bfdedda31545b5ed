package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RewardTier string

const (
	TierBronze   RewardTier = "Bronze"
	TierSilver   RewardTier = "Silver"
	TierGold     RewardTier = "Gold"
	TierPlatinum RewardTier = "Platinum"
	TierDiamond  RewardTier = "Diamond"
)

// TierForPoints maps cumulative points to a tier; lower bounds are inclusive
func TierForPoints(points int64) RewardTier {
	switch {
	case points < 500:
		return TierBronze
	case points < 2000:
		return TierSilver
	case points < 5000:
		return TierGold
	case points < 10000:
		return TierPlatinum
	default:
		return TierDiamond
	}
}

// Reward holds a user's loyalty points
type Reward struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	UserID        uint                `gorm:"uniqueIndex;not null" json:"user_id"`
	User          *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Points        int64               `gorm:"not null;default:0" json:"points"`
	Tier          RewardTier          `gorm:"size:20;not null" json:"tier"`
	PointsHistory []RewardPointsEntry `gorm:"foreignKey:RewardID" json:"points_history,omitempty"`
	Redemptions   []RewardRedemption  `gorm:"foreignKey:RewardID" json:"redemptions,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (Reward) TableName() string {
	return "rewards"
}

// BeforeSave keeps Tier in step with Points
func (r *Reward) BeforeSave(tx *gorm.DB) error {
	r.Tier = TierForPoints(r.Points)
	return nil
}

// RewardPointsEntry is one append-only movement of a user's points
type RewardPointsEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RewardID  uint      `gorm:"not null;index" json:"reward_id"`
	Points    int64     `gorm:"not null" json:"points"` // negative for redemptions
	Reason    string    `gorm:"size:50;not null" json:"reason"`
	Note      string    `gorm:"size:255" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func (RewardPointsEntry) TableName() string {
	return "reward_points_entries"
}

// RewardRedemption records a redeemed catalog item
type RewardRedemption struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RewardID      uint            `gorm:"not null;index" json:"reward_id"`
	ItemID        string          `gorm:"size:50;not null" json:"item_id"`
	ItemName      string          `gorm:"size:120;not null" json:"item_name"`
	Cost          int64           `gorm:"not null" json:"cost"`
	CashValue     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"cash_value"`
	TransactionID *uint           `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (RewardRedemption) TableName() string {
	return "reward_redemptions"
}
