package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investment-platform/internal/cache"
	"investment-platform/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const activePlansKey = "plans:active"

var hundred = decimal.NewFromInt(100)

type PlanService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewPlanService(db *gorm.DB, c *cache.Cache) *PlanService {
	return &PlanService{db: db, cache: c}
}

// PlanParams holds the editable fields of a plan
type PlanParams struct {
	Name              string
	Description       string
	MinimumInvestment decimal.Decimal
	MaximumInvestment decimal.Decimal
	DurationDays      int
	MonthlyReturnRate decimal.Decimal
	RiskLevel         models.RiskLevel
	AssetAllocation   []models.AssetAllocation
	IsActive          *bool
}

// ValidateAllocation checks the allocation list sums to exactly 100
func ValidateAllocation(allocation []models.AssetAllocation) error {
	if len(allocation) == 0 {
		return invalidf("asset allocation is required")
	}

	total := decimal.Zero
	seen := make(map[string]bool, len(allocation))
	for _, a := range allocation {
		name := strings.TrimSpace(a.Asset)
		if name == "" {
			return invalidf("allocation asset name is required")
		}
		if seen[strings.ToLower(name)] {
			return invalidf("asset %q listed twice", name)
		}
		seen[strings.ToLower(name)] = true
		if !a.Percentage.IsPositive() {
			return invalidf("allocation for %q must be positive", name)
		}
		total = total.Add(a.Percentage)
	}

	if !total.Equal(hundred) {
		return invalidf("asset allocation must sum to 100, got %s", total.String())
	}
	return nil
}

func (p *PlanParams) validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return invalidf("name is required")
	}
	if !p.MinimumInvestment.IsPositive() {
		return invalidf("minimum investment must be greater than zero")
	}
	if p.MaximumInvestment.IsNegative() {
		return invalidf("maximum investment must not be negative")
	}
	if p.MaximumInvestment.IsPositive() && p.MaximumInvestment.LessThan(p.MinimumInvestment) {
		return invalidf("maximum investment must not be below the minimum")
	}
	if p.DurationDays <= 0 {
		return invalidf("duration must be at least one day")
	}
	if p.MonthlyReturnRate.IsNegative() {
		return invalidf("monthly return rate must not be negative")
	}
	switch p.RiskLevel {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
	default:
		return invalidf("invalid risk level %q", p.RiskLevel)
	}
	return ValidateAllocation(p.AssetAllocation)
}

func (p *PlanParams) apply(plan *models.InvestmentPlan) {
	plan.Name = p.Name
	plan.Description = p.Description
	plan.MinimumInvestment = p.MinimumInvestment
	plan.MaximumInvestment = p.MaximumInvestment
	plan.DurationDays = p.DurationDays
	plan.MonthlyReturnRate = p.MonthlyReturnRate
	plan.RiskLevel = p.RiskLevel
	plan.AssetAllocation = p.AssetAllocation
	if p.IsActive != nil {
		plan.IsActive = *p.IsActive
	}
}

func planKey(id uint) string {
	return fmt.Sprintf("plan:%d", id)
}

// ListActive returns the public catalog
func (s *PlanService) ListActive(ctx context.Context) ([]models.InvestmentPlan, error) {
	if v, ok := s.cache.Get(activePlansKey); ok {
		return v.([]models.InvestmentPlan), nil
	}

	var plans []models.InvestmentPlan
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("minimum_investment ASC, id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	s.cache.Set(activePlansKey, plans)
	return plans, nil
}

// ListAll returns every plan including inactive ones
func (s *PlanService) ListAll(ctx context.Context) ([]models.InvestmentPlan, error) {
	var plans []models.InvestmentPlan
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// Get returns one plan
func (s *PlanService) Get(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	if v, ok := s.cache.Get(planKey(id)); ok {
		plan := v.(models.InvestmentPlan)
		return &plan, nil
	}

	var plan models.InvestmentPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, notFound("investment plan", err)
	}

	s.cache.Set(planKey(id), plan)
	return &plan, nil
}

// Create adds a plan to the catalog
func (s *PlanService) Create(ctx context.Context, p PlanParams) (*models.InvestmentPlan, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	plan := models.InvestmentPlan{IsActive: true}
	p.apply(&plan)

	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictf("a plan named %q already exists", plan.Name)
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.cache.Del(activePlansKey)
	zap.L().Info("Investment plan created", zap.Uint("plan_id", plan.ID), zap.String("name", plan.Name))
	return &plan, nil
}

// Update replaces a plan's fields. Running investments keep the terms they started with.
func (s *PlanService) Update(ctx context.Context, id uint, p PlanParams) (*models.InvestmentPlan, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var plan models.InvestmentPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, notFound("investment plan", err)
	}
	p.apply(&plan)

	if err := s.db.WithContext(ctx).Save(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictf("a plan named %q already exists", plan.Name)
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.cache.Del(activePlansKey, planKey(id))
	return &plan, nil
}

// Delete removes an unused plan; a plan with investments is deactivated instead
func (s *PlanService) Delete(ctx context.Context, id uint) (deactivated bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.InvestmentPlan
		if err := tx.First(&plan, id).Error; err != nil {
			return notFound("investment plan", err)
		}

		var count int64
		if err := tx.Model(&models.Investment{}).Where("plan_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count investments: %w", err)
		}

		if count > 0 {
			deactivated = true
			return tx.Model(&plan).Update("is_active", false).Error
		}
		return tx.Delete(&plan).Error
	})
	if err != nil {
		return false, err
	}

	s.cache.Del(activePlansKey, planKey(id))
	return deactivated, nil
}
