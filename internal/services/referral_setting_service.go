package services

import (
	"context"
	"errors"
	"fmt"

	"investment-platform/internal/cache"
	"investment-platform/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultReferrerPoints int64 = 500
	DefaultRefereePoints  int64 = 200

	activeSettingKey = "referral_setting:active"
)

// DefaultReferralSetting applies until an admin saves the first setting
func DefaultReferralSetting() models.ReferralSetting {
	return models.ReferralSetting{
		ReferrerPoints:    DefaultReferrerPoints,
		RefereePoints:     DefaultRefereePoints,
		MinimumInvestment: decimal.Zero,
		IsActive:          true,
	}
}

type ReferralSettingService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewReferralSettingService(db *gorm.DB, c *cache.Cache) *ReferralSettingService {
	return &ReferralSettingService{db: db, cache: c}
}

// Active returns the active setting, or the defaults if none was saved
func (s *ReferralSettingService) Active(ctx context.Context) (*models.ReferralSetting, error) {
	if v, ok := s.cache.Get(activeSettingKey); ok {
		setting := v.(models.ReferralSetting)
		return &setting, nil
	}

	setting, err := s.activeTx(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	s.cache.Set(activeSettingKey, *setting)
	return setting, nil
}

func (s *ReferralSettingService) activeTx(tx *gorm.DB) (*models.ReferralSetting, error) {
	var setting models.ReferralSetting
	err := tx.Where("is_active = ?", true).Order("id DESC").First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := DefaultReferralSetting()
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral setting: %w", err)
	}
	return &setting, nil
}

// History returns every saved setting, newest first
func (s *ReferralSettingService) History(ctx context.Context, limit, offset int) ([]models.ReferralSetting, int64, error) {
	var settings []models.ReferralSetting
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ReferralSetting{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count referral settings: %w", err)
	}
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&settings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list referral settings: %w", err)
	}
	return settings, total, nil
}

// UpdateReferralSettingParams holds the new bonus configuration
type UpdateReferralSettingParams struct {
	ReferrerPoints    int64
	RefereePoints     int64
	MinimumInvestment decimal.Decimal
}

// Update deactivates the current setting and stores a new active one
func (s *ReferralSettingService) Update(ctx context.Context, adminID uint, p UpdateReferralSettingParams) (*models.ReferralSetting, error) {
	if p.ReferrerPoints < 0 || p.RefereePoints < 0 {
		return nil, invalidf("points must not be negative")
	}
	if p.MinimumInvestment.IsNegative() {
		return nil, invalidf("minimum investment must not be negative")
	}

	setting := models.ReferralSetting{
		ReferrerPoints:    p.ReferrerPoints,
		RefereePoints:     p.RefereePoints,
		MinimumInvestment: p.MinimumInvestment,
		IsActive:          true,
		CreatedBy:         &adminID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ReferralSetting{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("failed to deactivate referral settings: %w", err)
		}
		if err := tx.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create referral setting: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Del(activeSettingKey)

	zap.L().Info("Referral setting updated",
		zap.Uint("setting_id", setting.ID),
		zap.Uint("admin_id", adminID),
		zap.Int64("referrer_points", setting.ReferrerPoints),
		zap.Int64("referee_points", setting.RefereePoints),
	)
	return &setting, nil
}
