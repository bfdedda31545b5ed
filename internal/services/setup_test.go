package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investment-platform/internal/auth"
	"investment-platform/internal/database"
	"investment-platform/internal/models"
)

var userSeq atomic.Int64

func init() {
	auth.InitJWT("test-secret", 0)
}

// setupTestDB returns a private in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, balance string) *models.User {
	t.Helper()

	n := userSeq.Add(1)
	user := models.User{
		Name:          fmt.Sprintf("User %d", n),
		Email:         fmt.Sprintf("user%d@example.com", n),
		PasswordHash:  "unused",
		Role:          models.RoleUser,
		Wallet:        models.Wallet{Balance: decimal.RequireFromString(balance)},
		TotalInvested: decimal.Zero,
		TotalProfit:   decimal.Zero,
		ReferralCode:  fmt.Sprintf("CODE%04d", n),
		IsActive:      true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func createPlan(t *testing.T, db *gorm.DB, minimum string, days int, rate string) *models.InvestmentPlan {
	t.Helper()

	n := userSeq.Add(1)
	plan := models.InvestmentPlan{
		Name:              fmt.Sprintf("Plan %d", n),
		MinimumInvestment: decimal.RequireFromString(minimum),
		MaximumInvestment: decimal.Zero,
		DurationDays:      days,
		MonthlyReturnRate: decimal.RequireFromString(rate),
		RiskLevel:         models.RiskMedium,
		AssetAllocation: []models.AssetAllocation{
			{Asset: "Stocks", Percentage: decimal.NewFromInt(60)},
			{Asset: "Bonds", Percentage: decimal.NewFromInt(40)},
		},
		IsActive: true,
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	return &plan
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("failed to reload user %d: %v", id, err)
	}
	return &user
}

func pointsOf(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var reward models.Reward
	err := db.Where("user_id = ?", userID).First(&reward).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	if err != nil {
		t.Fatalf("failed to load reward: %v", err)
	}
	return reward.Points
}

func assertDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", what, want, got.String())
	}
}

func newInvestmentStack(db *gorm.DB) (*InvestmentService, *ReferralService, *RewardService) {
	rewards := NewRewardService(db)
	settings := NewReferralSettingService(db, nil)
	referrals := NewReferralService(db, rewards, settings)
	return NewInvestmentService(db, rewards, referrals), referrals, rewards
}
