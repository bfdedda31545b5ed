package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization role carried by a user and its JWT
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// Wallet is the fiat wallet embedded in the users row
type Wallet struct {
	Balance decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`
}

// User represents a user in the system
type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:120;not null" json:"name"`
	Email         string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash  string          `gorm:"size:255;not null" json:"-"`
	Role          Role            `gorm:"size:20;not null;default:user;index" json:"role"`
	Wallet        Wallet          `gorm:"embedded;embeddedPrefix:wallet_" json:"wallet"`
	TotalInvested decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_invested"`
	TotalProfit   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_profit"`
	ReferralCode  string          `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferredBy    *uint           `gorm:"index" json:"referred_by,omitempty"`
	Referrer      *User           `gorm:"foreignKey:ReferredBy" json:"referrer,omitempty"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	LastLoginAt   *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
