package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"investment-platform/internal/models"
)

func TestReferralRejectsSelfAndDuplicate(t *testing.T) {
	db := setupTestDB(t)
	_, referrals, _ := newInvestmentStack(db)
	ctx := context.Background()

	referrer := createUser(t, db, "0")
	referee := createUser(t, db, "0")

	if _, err := referrals.Create(ctx, referrer.ID, referrer.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for self-referral, got %v", err)
	}

	referral, err := referrals.Create(ctx, referrer.ID, referee.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if referral.Status != models.ReferralPending {
		t.Errorf("expected pending, got %s", referral.Status)
	}

	if _, err := referrals.Create(ctx, referrer.ID, referee.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict for duplicate pair, got %v", err)
	}

	var count int64
	db.Model(&models.Referral{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 referral row, got %d", count)
	}

	got := reloadUser(t, db, referee.ID)
	if got.ReferredBy == nil || *got.ReferredBy != referrer.ID {
		t.Errorf("expected referee to point at referrer %d", referrer.ID)
	}
}

func TestApplyReferralCode(t *testing.T) {
	db := setupTestDB(t)
	_, referrals, _ := newInvestmentStack(db)
	ctx := context.Background()

	referrer := createUser(t, db, "0")
	referee := createUser(t, db, "0")

	if _, err := referrals.Apply(ctx, referee.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found for unknown code, got %v", err)
	}
	if _, err := referrals.Apply(ctx, referee.ID, referee.ReferralCode); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for own code, got %v", err)
	}
	if _, err := referrals.Apply(ctx, referee.ID, referrer.ReferralCode); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	third := createUser(t, db, "0")
	if _, err := referrals.Apply(ctx, referee.ID, third.ReferralCode); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict for a second referrer, got %v", err)
	}
}

func TestInvestmentSettlesPendingReferral(t *testing.T) {
	db := setupTestDB(t)
	investments, referrals, _ := newInvestmentStack(db)
	ctx := context.Background()

	referrer := createUser(t, db, "0")
	referee := createUser(t, db, "1000")
	plan := createPlan(t, db, "100", 30, "1")

	referral, err := referrals.Apply(ctx, referee.ID, referrer.ReferralCode)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if _, err := investments.Create(ctx, referee.ID, plan.ID, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("Create investment failed: %v", err)
	}

	var stored models.Referral
	if err := db.First(&stored, referral.ID).Error; err != nil {
		t.Fatalf("failed to reload referral: %v", err)
	}
	if stored.Status != models.ReferralRewarded {
		t.Errorf("expected rewarded, got %s", stored.Status)
	}
	if stored.ReferrerPoints != DefaultReferrerPoints || stored.RefereePoints != DefaultRefereePoints {
		t.Errorf("expected %d/%d points recorded, got %d/%d",
			DefaultReferrerPoints, DefaultRefereePoints, stored.ReferrerPoints, stored.RefereePoints)
	}

	if points := pointsOf(t, db, referrer.ID); points != DefaultReferrerPoints {
		t.Errorf("expected referrer %d points, got %d", DefaultReferrerPoints, points)
	}
	// 50 for the investment plus the referee bonus
	if points := pointsOf(t, db, referee.ID); points != 50+DefaultRefereePoints {
		t.Errorf("expected referee %d points, got %d", 50+DefaultRefereePoints, points)
	}

	// a second investment must not pay again
	if _, err := investments.Create(ctx, referee.ID, plan.ID, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("second investment failed: %v", err)
	}
	if points := pointsOf(t, db, referrer.ID); points != DefaultReferrerPoints {
		t.Errorf("referrer paid twice: %d points", points)
	}

	if _, err := referrals.Reward(ctx, referral.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state rewarding twice, got %v", err)
	}
}

func TestManualCompleteAndReward(t *testing.T) {
	db := setupTestDB(t)
	investments, referrals, _ := newInvestmentStack(db)
	settings := NewReferralSettingService(db, nil)
	ctx := context.Background()

	// raise the bar so the investment itself does not settle the referral
	if _, err := settings.Update(ctx, 1, UpdateReferralSettingParams{
		ReferrerPoints:    300,
		RefereePoints:     100,
		MinimumInvestment: decimal.NewFromInt(1000),
	}); err != nil {
		t.Fatalf("settings Update failed: %v", err)
	}

	referrer := createUser(t, db, "0")
	referee := createUser(t, db, "2000")
	plan := createPlan(t, db, "100", 30, "1")

	referral, err := referrals.Create(ctx, referrer.ID, referee.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := referrals.Reward(ctx, referral.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state rewarding a pending referral, got %v", err)
	}
	if _, err := referrals.Complete(ctx, referral.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input before any investment, got %v", err)
	}

	if _, err := investments.Create(ctx, referee.ID, plan.ID, decimal.NewFromInt(400)); err != nil {
		t.Fatalf("Create investment failed: %v", err)
	}
	if _, err := referrals.Complete(ctx, referral.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input below the minimum, got %v", err)
	}

	if _, err := investments.Create(ctx, referee.ID, plan.ID, decimal.NewFromInt(600)); err != nil {
		t.Fatalf("Create investment failed: %v", err)
	}

	// reaching the minimum settles it during the investment
	var stored models.Referral
	db.First(&stored, referral.ID)
	if stored.Status != models.ReferralRewarded {
		t.Fatalf("expected rewarded once the minimum is reached, got %s", stored.Status)
	}
	if points := pointsOf(t, db, referrer.ID); points != 300 {
		t.Errorf("expected 300 referrer points, got %d", points)
	}
}

func TestCompleteThenReward(t *testing.T) {
	db := setupTestDB(t)
	_, referrals, _ := newInvestmentStack(db)
	ctx := context.Background()

	referrer := createUser(t, db, "0")
	referee := createUser(t, db, "0")
	plan := createPlan(t, db, "100", 30, "1")

	referral, err := referrals.Create(ctx, referrer.ID, referee.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// an investment recorded outside the investment flow
	inv := models.Investment{
		UserID: referee.ID, PlanID: plan.ID,
		Amount: decimal.NewFromInt(100), CurrentValue: decimal.NewFromInt(100),
		Status: models.InvestmentActive,
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("failed to seed investment: %v", err)
	}

	completed, err := referrals.Complete(ctx, referral.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != models.ReferralCompleted || completed.CompletedAt == nil {
		t.Errorf("expected completed with timestamp, got %s", completed.Status)
	}

	rewarded, err := referrals.Reward(ctx, referral.ID)
	if err != nil {
		t.Fatalf("Reward failed: %v", err)
	}
	if rewarded.Status != models.ReferralRewarded {
		t.Errorf("expected rewarded, got %s", rewarded.Status)
	}

	stats, err := referrals.Stats(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 1 || stats.Rewarded != 1 || stats.PointsEarned != DefaultReferrerPoints {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestReferralSettingHistory(t *testing.T) {
	db := setupTestDB(t)
	settings := NewReferralSettingService(db, nil)
	ctx := context.Background()

	active, err := settings.Active(ctx)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if active.ReferrerPoints != DefaultReferrerPoints || active.RefereePoints != DefaultRefereePoints {
		t.Errorf("expected defaults, got %d/%d", active.ReferrerPoints, active.RefereePoints)
	}

	for _, points := range []int64{600, 700} {
		if _, err := settings.Update(ctx, 1, UpdateReferralSettingParams{
			ReferrerPoints: points, RefereePoints: 100,
		}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	active, err = settings.Active(ctx)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if active.ReferrerPoints != 700 {
		t.Errorf("expected 700 referrer points, got %d", active.ReferrerPoints)
	}

	var activeCount, total int64
	db.Model(&models.ReferralSetting{}).Where("is_active = ?", true).Count(&activeCount)
	db.Model(&models.ReferralSetting{}).Count(&total)
	if activeCount != 1 || total != 2 {
		t.Errorf("expected 1 active of 2 rows, got %d of %d", activeCount, total)
	}

	if _, err := settings.Update(ctx, 1, UpdateReferralSettingParams{ReferrerPoints: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for negative points, got %v", err)
	}
}
