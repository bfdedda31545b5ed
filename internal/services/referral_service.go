package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investment-platform/internal/models"
	"investment-platform/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralService struct {
	db       *gorm.DB
	rewards  *RewardService
	settings *ReferralSettingService
}

func NewReferralService(db *gorm.DB, rewards *RewardService, settings *ReferralSettingService) *ReferralService {
	return &ReferralService{
		db:       db,
		rewards:  rewards,
		settings: settings,
	}
}

// createReferralTx inserts a pending referral, enforcing one row per pair and no self-referral
func (s *ReferralService) createReferralTx(tx *gorm.DB, referrerID, refereeID uint) (*models.Referral, error) {
	if referrerID == refereeID {
		return nil, invalidf("cannot refer yourself")
	}

	var count int64
	err := tx.Model(&models.Referral{}).
		Where("referrer_id = ? AND referee_id = ?", referrerID, refereeID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check referral: %w", err)
	}
	if count > 0 {
		return nil, conflictf("referral already exists")
	}

	referral := models.Referral{
		ReferrerID: referrerID,
		RefereeID:  refereeID,
		Status:     models.ReferralPending,
	}
	if err := tx.Create(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictf("referral already exists")
		}
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	return &referral, nil
}

// linkReferee records referrer as the one who brought referee in
func (s *ReferralService) linkReferee(tx *gorm.DB, referee *models.User, referrerID uint) (*models.Referral, error) {
	if referee.ReferredBy != nil {
		return nil, conflictf("user already has a referrer")
	}

	referral, err := s.createReferralTx(tx, referrerID, referee.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&models.User{}).Where("id = ?", referee.ID).Update("referred_by", referrerID).Error; err != nil {
		return nil, fmt.Errorf("failed to set referrer: %w", err)
	}
	referee.ReferredBy = &referrerID
	return referral, nil
}

// findByCode resolves a referral code to its owner
func (s *ReferralService) findByCode(tx *gorm.DB, code string) (*models.User, error) {
	if code == "" {
		return nil, invalidf("referral code is required")
	}
	var referrer models.User
	if err := tx.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		return nil, notFound("referral code", err)
	}
	if !referrer.IsActive {
		return nil, invalidf("referral code is no longer valid")
	}
	return &referrer, nil
}

// Apply lets a user enter someone's referral code after signing up
func (s *ReferralService) Apply(ctx context.Context, refereeID uint, code string) (*models.Referral, error) {
	var referral *models.Referral
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		referee, err := repository.NewLedger(tx).LockUser(refereeID)
		if err != nil {
			return notFound("user", err)
		}

		referrer, err := s.findByCode(tx, code)
		if err != nil {
			return err
		}

		referral, err = s.linkReferee(tx, referee, referrer.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Referral code applied",
		zap.Uint("referrer_id", referral.ReferrerID),
		zap.Uint("referee_id", referral.RefereeID),
	)
	return referral, nil
}

// Create lets an admin record a referral between two existing users
func (s *ReferralService) Create(ctx context.Context, referrerID, refereeID uint) (*models.Referral, error) {
	var referral *models.Referral
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referrer models.User
		if err := tx.First(&referrer, referrerID).Error; err != nil {
			return notFound("referrer", err)
		}
		referee, err := repository.NewLedger(tx).LockUser(refereeID)
		if err != nil {
			return notFound("referee", err)
		}

		referral, err = s.createReferralTx(tx, referrerID, refereeID)
		if err != nil {
			return err
		}
		if referee.ReferredBy == nil {
			return tx.Model(&models.User{}).Where("id = ?", refereeID).Update("referred_by", referrerID).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

func (s *ReferralService) lockReferral(tx *gorm.DB, id uint) (*models.Referral, error) {
	var referral models.Referral
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&referral, id).Error; err != nil {
		return nil, notFound("referral", err)
	}
	return &referral, nil
}

// qualifies reports whether referee has invested enough to complete a referral
func (s *ReferralService) qualifies(tx *gorm.DB, refereeID uint, setting *models.ReferralSetting) (bool, error) {
	var count int64
	err := tx.Model(&models.Investment{}).
		Where("user_id = ? AND status <> ?", refereeID, models.InvestmentCancelled).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count investments: %w", err)
	}
	if count == 0 {
		return false, nil
	}
	if !setting.MinimumInvestment.IsPositive() {
		return true, nil
	}

	var referee models.User
	if err := tx.Select("total_invested").First(&referee, refereeID).Error; err != nil {
		return false, notFound("referee", err)
	}
	return referee.TotalInvested.GreaterThanOrEqual(setting.MinimumInvestment), nil
}

func markCompleted(tx *gorm.DB, referral *models.Referral) error {
	now := time.Now()
	referral.Status = models.ReferralCompleted
	referral.CompletedAt = &now
	return tx.Model(referral).Select("status", "completed_at", "updated_at").Updates(referral).Error
}

// payRewardTx pays both sides and moves a completed referral to rewarded
func (s *ReferralService) payRewardTx(tx *gorm.DB, referral *models.Referral, setting *models.ReferralSetting) error {
	if referral.Status != models.ReferralCompleted {
		return statef("referral must be completed before it can be rewarded (status %s)", referral.Status)
	}

	note := fmt.Sprintf("referral #%d", referral.ID)
	if _, err := s.rewards.awardPointsTx(tx, referral.ReferrerID, setting.ReferrerPoints, PointsReasonReferrer, note); err != nil {
		return err
	}
	if _, err := s.rewards.awardPointsTx(tx, referral.RefereeID, setting.RefereePoints, PointsReasonReferee, note); err != nil {
		return err
	}

	now := time.Now()
	referral.Status = models.ReferralRewarded
	referral.RewardedAt = &now
	referral.ReferrerPoints = setting.ReferrerPoints
	referral.RefereePoints = setting.RefereePoints
	err := tx.Model(referral).
		Select("status", "rewarded_at", "referrer_points", "referee_points", "updated_at").
		Updates(referral).Error
	if err != nil {
		return fmt.Errorf("failed to update referral: %w", err)
	}
	return nil
}

// settleOnInvestmentTx completes and rewards the referee's pending referral once they invest.
// user must be locked in tx and its totals already updated.
func (s *ReferralService) settleOnInvestmentTx(tx *gorm.DB, user *models.User) (*models.Referral, error) {
	if user.ReferredBy == nil {
		return nil, nil
	}

	var referral models.Referral
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referrer_id = ? AND referee_id = ? AND status = ?", *user.ReferredBy, user.ID, models.ReferralPending).
		First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral: %w", err)
	}

	setting, err := s.settings.activeTx(tx)
	if err != nil {
		return nil, err
	}
	if setting.MinimumInvestment.IsPositive() && user.TotalInvested.LessThan(setting.MinimumInvestment) {
		return nil, nil
	}

	if err := markCompleted(tx, &referral); err != nil {
		return nil, fmt.Errorf("failed to complete referral: %w", err)
	}
	if err := s.payRewardTx(tx, &referral, setting); err != nil {
		return nil, err
	}
	return &referral, nil
}

// Complete marks a pending referral completed once the referee has invested
func (s *ReferralService) Complete(ctx context.Context, id uint) (*models.Referral, error) {
	var referral *models.Referral
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.lockReferral(tx, id)
		if err != nil {
			return err
		}
		if r.Status != models.ReferralPending {
			return statef("only pending referrals can be completed (status %s)", r.Status)
		}

		setting, err := s.settings.activeTx(tx)
		if err != nil {
			return err
		}
		ok, err := s.qualifies(tx, r.RefereeID, setting)
		if err != nil {
			return err
		}
		if !ok {
			return invalidf("referee has not made a qualifying investment yet")
		}

		referral = r
		return markCompleted(tx, r)
	})
	if err != nil {
		return nil, err
	}
	return referral, nil
}

// Reward pays the bonuses of a completed referral; it fires at most once
func (s *ReferralService) Reward(ctx context.Context, id uint) (*models.Referral, error) {
	var referral *models.Referral
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pair models.Referral
		if err := tx.Select("referrer_id", "referee_id").First(&pair, id).Error; err != nil {
			return notFound("referral", err)
		}

		// users before the referral row, same order as the investment path
		ledger := repository.NewLedger(tx)
		for _, userID := range orderedIDs(pair.ReferrerID, pair.RefereeID) {
			if _, err := ledger.LockUser(userID); err != nil {
				return notFound("user", err)
			}
		}

		r, err := s.lockReferral(tx, id)
		if err != nil {
			return err
		}
		if r.Status == models.ReferralRewarded {
			return statef("referral already rewarded")
		}

		setting, err := s.settings.activeTx(tx)
		if err != nil {
			return err
		}

		referral = r
		return s.payRewardTx(tx, r, setting)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Referral rewarded",
		zap.Uint("referral_id", referral.ID),
		zap.Int64("referrer_points", referral.ReferrerPoints),
		zap.Int64("referee_points", referral.RefereePoints),
	)
	return referral, nil
}

func orderedIDs(a, b uint) []uint {
	if a > b {
		return []uint{b, a}
	}
	return []uint{a, b}
}

// ReferralInfo is what a user shares to invite others
type ReferralInfo struct {
	Code string `json:"code"`
}

// GetCode returns the user's referral code
func (s *ReferralService) GetCode(ctx context.Context, userID uint) (*ReferralInfo, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "referral_code").First(&user, userID).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &ReferralInfo{Code: user.ReferralCode}, nil
}

// ListByReferrer returns the referrals a user made
func (s *ReferralService) ListByReferrer(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.db.WithContext(ctx).
		Preload("Referee", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "created_at")
		}).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC, id DESC").
		Find(&referrals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, nil
}

// ReferralStats summarizes a referrer's activity
type ReferralStats struct {
	Total        int64 `json:"total"`
	Pending      int64 `json:"pending"`
	Completed    int64 `json:"completed"`
	Rewarded     int64 `json:"rewarded"`
	PointsEarned int64 `json:"points_earned"`
}

// Stats counts referrals per status and the points they earned the referrer
func (s *ReferralService) Stats(ctx context.Context, referrerID uint) (*ReferralStats, error) {
	var counts []struct {
		Status models.ReferralStatus
		Count  int64
		Points int64
	}
	err := s.db.WithContext(ctx).Model(&models.Referral{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(referrer_points), 0) AS points").
		Where("referrer_id = ?", referrerID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute referral stats: %w", err)
	}

	stats := &ReferralStats{}
	for _, c := range counts {
		stats.Total += c.Count
		stats.PointsEarned += c.Points
		switch c.Status {
		case models.ReferralPending:
			stats.Pending = c.Count
		case models.ReferralCompleted:
			stats.Completed = c.Count
		case models.ReferralRewarded:
			stats.Rewarded = c.Count
		}
	}
	return stats, nil
}

// List returns all referrals, optionally filtered by status
func (s *ReferralService) List(ctx context.Context, status models.ReferralStatus, limit, offset int) ([]models.Referral, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Referral{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	var referrals []models.Referral
	err := query.
		Preload("Referrer", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Referee", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&referrals).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, total, nil
}
