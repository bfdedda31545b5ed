package services

import (
	"context"
	"fmt"
	"time"

	"investment-platform/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentTransactionsLimit = 10

// Dashboard is the user's home screen snapshot
type Dashboard struct {
	User               *models.User         `json:"user"`
	Wallet             models.Wallet        `json:"wallet"`
	TotalInvested      decimal.Decimal      `json:"total_invested"`
	TotalProfit        decimal.Decimal      `json:"total_profit"`
	PortfolioValue     decimal.Decimal      `json:"portfolio_value"`
	ActiveInvestments  []models.Investment  `json:"active_investments"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	Reward             *models.Reward       `json:"reward"`
	Referrals          *ReferralStats       `json:"referrals"`
	GeneratedAt        time.Time            `json:"generated_at"`
}

type DashboardService struct {
	db        *gorm.DB
	rewards   *RewardService
	referrals *ReferralService
}

func NewDashboardService(db *gorm.DB, rewards *RewardService, referrals *ReferralService) *DashboardService {
	return &DashboardService{db: db, rewards: rewards, referrals: referrals}
}

// Get builds the dashboard for userID
func (s *DashboardService) Get(ctx context.Context, userID uint) (*Dashboard, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFound("user", err)
	}

	var active []models.Investment
	err := db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.InvestmentActive).
		Order("maturity_date ASC").
		Find(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load investments: %w", err)
	}

	var recent []models.Transaction
	err = db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(recentTransactionsLimit).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	reward, err := s.rewards.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.referrals.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	portfolio := decimal.Zero
	for _, inv := range active {
		portfolio = portfolio.Add(inv.CurrentValue)
	}

	return &Dashboard{
		User:               &user,
		Wallet:             user.Wallet,
		TotalInvested:      user.TotalInvested,
		TotalProfit:        user.TotalProfit,
		PortfolioValue:     portfolio,
		ActiveInvestments:  active,
		RecentTransactions: recent,
		Reward:             reward,
		Referrals:          stats,
		GeneratedAt:        time.Now(),
	}, nil
}
