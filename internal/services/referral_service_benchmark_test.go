package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investment-platform/internal/database"
	"investment-platform/internal/models"
)

func setupBenchmarkDB(b *testing.B, name string) *gorm.DB {
	db, err := database.Open("sqlite", fmt.Sprintf("file:bench_%s?mode=memory&cache=shared", name))
	if err != nil {
		b.Fatalf("failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		b.Fatalf("failed to migrate database: %v", err)
	}
	b.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedReferrals(db *gorm.DB, referrerID uint, count int) {
	statuses := []models.ReferralStatus{models.ReferralPending, models.ReferralCompleted, models.ReferralRewarded}

	referrals := make([]models.Referral, count)
	for i := 0; i < count; i++ {
		status := statuses[i%len(statuses)]
		referrals[i] = models.Referral{
			ReferrerID: referrerID,
			RefereeID:  uint(1000 + i), // arbitrary ids, not real users
			Status:     status,
		}
		if status == models.ReferralRewarded {
			referrals[i].ReferrerPoints = DefaultReferrerPoints
			referrals[i].RefereePoints = DefaultRefereePoints
		}
	}
	db.CreateInBatches(referrals, 100)
}

// BenchmarkReferralStats measures the grouped aggregation behind the stats endpoint
func BenchmarkReferralStats(b *testing.B) {
	counts := []int{10, 100, 1000}

	for _, count := range counts {
		b.Run(fmt.Sprintf("Count-%d", count), func(b *testing.B) {
			db := setupBenchmarkDB(b, fmt.Sprintf("stats_%d", count))
			_, referrals, _ := newInvestmentStack(db)
			referrerID := uint(1)

			seedReferrals(db, referrerID, count)

			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := referrals.Stats(ctx, referrerID); err != nil {
					b.Fatalf("Stats failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkCreateInvestment measures the full debit, points and referral check path
func BenchmarkCreateInvestment(b *testing.B) {
	db := setupBenchmarkDB(b, "create_investment")
	investments, _, _ := newInvestmentStack(db)

	user := models.User{
		Name:         "Bench",
		Email:        "bench@example.com",
		PasswordHash: "unused",
		Role:         models.RoleUser,
		Wallet:       models.Wallet{Balance: decimal.NewFromInt(1_000_000_000)},
		ReferralCode: "BENCH001",
		IsActive:     true,
	}
	db.Create(&user)

	plan := models.InvestmentPlan{
		Name:              "Bench Plan",
		MinimumInvestment: decimal.NewFromInt(10),
		DurationDays:      30,
		MonthlyReturnRate: decimal.NewFromInt(1),
		RiskLevel:         models.RiskLow,
		AssetAllocation:   []models.AssetAllocation{{Asset: "Cash", Percentage: decimal.NewFromInt(100)}},
		IsActive:          true,
	}
	db.Create(&plan)

	ctx := context.Background()
	amount := decimal.NewFromInt(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := investments.Create(ctx, user.ID, plan.ID, amount); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}
}
