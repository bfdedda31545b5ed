package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investment-platform/internal/models"
	"investment-platform/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sub-ledger entry types
const (
	subPrincipal = "principal"
	subValuation = "valuation"
	subReturn    = "return"
	subProfit    = "profit"
	subRefund    = "refund"
)

var daysPerMonth = decimal.NewFromInt(30)

type InvestmentService struct {
	db        *gorm.DB
	rewards   *RewardService
	referrals *ReferralService
	now       func() time.Time
}

func NewInvestmentService(db *gorm.DB, rewards *RewardService, referrals *ReferralService) *InvestmentService {
	return &InvestmentService{
		db:        db,
		rewards:   rewards,
		referrals: referrals,
		now:       time.Now,
	}
}

// ProjectedValue is the value at maturity: amount * (1 + rate% * days/30)
func ProjectedValue(amount, monthlyRate decimal.Decimal, durationDays int) decimal.Decimal {
	months := decimal.NewFromInt(int64(durationDays)).Div(daysPerMonth)
	growth := monthlyRate.Div(hundred).Mul(months)
	return amount.Mul(decimal.NewFromInt(1).Add(growth)).Round(8)
}

// Create invests amount of the user's wallet into a plan. The wallet debit,
// investment, ledger entry, points and referral payout commit together.
func (s *InvestmentService) Create(ctx context.Context, userID, planID uint, amount decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, invalidf("amount must be greater than zero")
	}

	var investment models.Investment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.InvestmentPlan
		if err := tx.First(&plan, planID).Error; err != nil {
			return notFound("investment plan", err)
		}
		if !plan.IsActive {
			return invalidf("investment plan is not active")
		}
		if amount.LessThan(plan.MinimumInvestment) {
			return invalidf("minimum investment for %s is %s", plan.Name, plan.MinimumInvestment.StringFixed(2))
		}
		if plan.MaximumInvestment.IsPositive() && amount.GreaterThan(plan.MaximumInvestment) {
			return invalidf("maximum investment for %s is %s", plan.Name, plan.MaximumInvestment.StringFixed(2))
		}

		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(userID)
		if err != nil {
			return notFound("user", err)
		}
		if !user.IsActive {
			return forbiddenf("account is deactivated")
		}

		balance, err := ledger.DebitWallet(user, amount)
		if err != nil {
			if !errors.Is(err, ErrInsufficientFunds) {
				return err
			}
			return fmt.Errorf("%w: wallet balance %s is below %s", ErrInsufficientFunds,
				user.Wallet.Balance.StringFixed(2), amount.StringFixed(2))
		}
		if err := ledger.AddUserTotals(user, amount, decimal.Zero); err != nil {
			return err
		}

		now := s.now()
		investment = models.Investment{
			UserID:            userID,
			PlanID:            plan.ID,
			Amount:            amount,
			CurrentValue:      amount,
			Profit:            decimal.Zero,
			ProfitPercentage:  decimal.Zero,
			MonthlyReturnRate: plan.MonthlyReturnRate,
			DurationDays:      plan.DurationDays,
			Status:            models.InvestmentActive,
			StartDate:         now,
			MaturityDate:      now.AddDate(0, 0, plan.DurationDays),
		}
		if err := tx.Omit(clause.Associations).Create(&investment).Error; err != nil {
			return fmt.Errorf("failed to create investment: %w", err)
		}
		if err := appendValuePoint(tx, &investment, now); err != nil {
			return err
		}

		txn := &models.Transaction{
			UserID:       userID,
			Type:         models.TxDeposit,
			Amount:       amount,
			Status:       models.TxCompleted,
			Description:  fmt.Sprintf("Investment in %s", plan.Name),
			InvestmentID: &investment.ID,
			BalanceAfter: &balance,
			ProcessedAt:  &now,
		}
		if err := insertTransaction(tx, txn); err != nil {
			return err
		}
		if err := appendSubLedger(tx, &investment, txn, subPrincipal, amount, "initial principal"); err != nil {
			return err
		}

		points := PointsForInvestment(amount)
		note := fmt.Sprintf("investment #%d", investment.ID)
		if _, err := s.rewards.awardPointsTx(tx, userID, points, PointsReasonInvestment, note); err != nil {
			return err
		}

		if _, err := s.referrals.settleOnInvestmentTx(tx, user); err != nil {
			return err
		}

		investment.Plan = &plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment created",
		zap.Uint("investment_id", investment.ID),
		zap.Uint("user_id", userID),
		zap.Uint("plan_id", planID),
		zap.String("amount", amount.String()),
	)
	return &investment, nil
}

func appendValuePoint(tx *gorm.DB, inv *models.Investment, at time.Time) error {
	point := models.InvestmentValuePoint{
		InvestmentID: inv.ID,
		Value:        inv.CurrentValue,
		RecordedAt:   at,
	}
	if err := tx.Create(&point).Error; err != nil {
		return fmt.Errorf("failed to append value history: %w", err)
	}
	inv.ValueHistory = append(inv.ValueHistory, point)
	return nil
}

func appendSubLedger(tx *gorm.DB, inv *models.Investment, txn *models.Transaction, kind string, amount decimal.Decimal, note string) error {
	entry := models.InvestmentTransaction{
		InvestmentID: inv.ID,
		Type:         kind,
		Amount:       amount,
		Note:         note,
	}
	if txn != nil {
		entry.TransactionID = &txn.ID
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append investment ledger: %w", err)
	}
	inv.Transactions = append(inv.Transactions, entry)
	return nil
}

func (s *InvestmentService) lockInvestment(tx *gorm.DB, id uint) (*models.Investment, error) {
	var inv models.Investment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
		return nil, notFound("investment", err)
	}
	return &inv, nil
}

// revalue sets a new current value and records it in the value history
func revalue(tx *gorm.DB, inv *models.Investment, value decimal.Decimal, at time.Time) error {
	delta := value.Sub(inv.CurrentValue)

	inv.CurrentValue = value
	inv.Profit = value.Sub(inv.Amount)
	if inv.Amount.IsPositive() {
		inv.ProfitPercentage = inv.Profit.Div(inv.Amount).Mul(hundred).Round(2)
	}

	err := tx.Model(inv).
		Select("current_value", "profit", "profit_percentage", "updated_at").
		Updates(inv).Error
	if err != nil {
		return fmt.Errorf("failed to update investment value: %w", err)
	}
	if err := appendValuePoint(tx, inv, at); err != nil {
		return err
	}
	return appendSubLedger(tx, inv, nil, subValuation, delta, "value update")
}

// UpdateValue records a new valuation of an active investment
func (s *InvestmentService) UpdateValue(ctx context.Context, id uint, value decimal.Decimal) (*models.Investment, error) {
	if value.IsNegative() {
		return nil, invalidf("current value must not be negative")
	}

	var inv *models.Investment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.lockInvestment(tx, id)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return statef("only active investments can be revalued (status %s)", inv.Status)
		}
		return revalue(tx, inv, value, s.now())
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Complete closes an active investment and pays its current value into the wallet
func (s *InvestmentService) Complete(ctx context.Context, id uint) (*models.Investment, error) {
	var inv *models.Investment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pre models.Investment
		if err := tx.Select("user_id").First(&pre, id).Error; err != nil {
			return notFound("investment", err)
		}

		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(pre.UserID)
		if err != nil {
			return notFound("user", err)
		}

		inv, err = s.lockInvestment(tx, id)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return statef("only active investments can be completed (status %s)", inv.Status)
		}

		now := s.now()
		profit := inv.Profit
		principalReturn := inv.CurrentValue
		if profit.IsPositive() {
			principalReturn = inv.CurrentValue.Sub(profit)
		}

		if principalReturn.IsPositive() {
			balance, err := ledger.CreditWallet(user, principalReturn)
			if err != nil {
				return err
			}
			txn := &models.Transaction{
				UserID:       user.ID,
				Type:         models.TxInvestment,
				Amount:       principalReturn,
				Status:       models.TxCompleted,
				Description:  fmt.Sprintf("Principal return for investment #%d", inv.ID),
				InvestmentID: &inv.ID,
				BalanceAfter: &balance,
				ProcessedAt:  &now,
			}
			if err := insertTransaction(tx, txn); err != nil {
				return err
			}
			if err := appendSubLedger(tx, inv, txn, subReturn, principalReturn, "principal returned"); err != nil {
				return err
			}
		}

		if profit.IsPositive() {
			balance, err := ledger.CreditWallet(user, profit)
			if err != nil {
				return err
			}
			txn := &models.Transaction{
				UserID:       user.ID,
				Type:         models.TxProfit,
				Amount:       profit,
				Status:       models.TxCompleted,
				Description:  fmt.Sprintf("Profit from investment #%d", inv.ID),
				InvestmentID: &inv.ID,
				BalanceAfter: &balance,
				ProcessedAt:  &now,
			}
			if err := insertTransaction(tx, txn); err != nil {
				return err
			}
			if err := appendSubLedger(tx, inv, txn, subProfit, profit, "profit paid"); err != nil {
				return err
			}

			note := fmt.Sprintf("investment #%d", inv.ID)
			if _, err := s.rewards.awardPointsTx(tx, user.ID, PointsForProfit(profit), PointsReasonProfit, note); err != nil {
				return err
			}
		}

		if err := ledger.AddUserTotals(user, decimal.Zero, profit); err != nil {
			return err
		}

		inv.Status = models.InvestmentCompleted
		inv.CompletedAt = &now
		return tx.Model(inv).Select("status", "completed_at", "updated_at").Updates(inv).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment completed",
		zap.Uint("investment_id", inv.ID),
		zap.String("current_value", inv.CurrentValue.String()),
		zap.String("profit", inv.Profit.String()),
	)
	return inv, nil
}

// Cancel closes an active investment and refunds its principal
func (s *InvestmentService) Cancel(ctx context.Context, id uint, reason string) (*models.Investment, error) {
	var inv *models.Investment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pre models.Investment
		if err := tx.Select("user_id").First(&pre, id).Error; err != nil {
			return notFound("investment", err)
		}

		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(pre.UserID)
		if err != nil {
			return notFound("user", err)
		}

		inv, err = s.lockInvestment(tx, id)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return statef("only active investments can be cancelled (status %s)", inv.Status)
		}

		now := s.now()
		balance, err := ledger.CreditWallet(user, inv.Amount)
		if err != nil {
			return err
		}
		description := fmt.Sprintf("Refund for cancelled investment #%d", inv.ID)
		if reason != "" {
			description += ": " + reason
		}
		txn := &models.Transaction{
			UserID:       user.ID,
			Type:         models.TxInvestment,
			Amount:       inv.Amount,
			Status:       models.TxCompleted,
			Description:  description,
			InvestmentID: &inv.ID,
			BalanceAfter: &balance,
			ProcessedAt:  &now,
		}
		if err := insertTransaction(tx, txn); err != nil {
			return err
		}
		if err := appendSubLedger(tx, inv, txn, subRefund, inv.Amount, "principal refunded"); err != nil {
			return err
		}
		if err := ledger.AddUserTotals(user, inv.Amount.Neg(), decimal.Zero); err != nil {
			return err
		}

		inv.Status = models.InvestmentCancelled
		inv.CompletedAt = &now
		return tx.Model(inv).Select("status", "completed_at", "updated_at").Updates(inv).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Investment cancelled", zap.Uint("investment_id", inv.ID), zap.String("reason", reason))
	return inv, nil
}

// Get returns an investment with its plan, value history and sub-ledger
func (s *InvestmentService) Get(ctx context.Context, id uint) (*models.Investment, error) {
	var inv models.Investment
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Preload("ValueHistory", func(db *gorm.DB) *gorm.DB { return db.Order("recorded_at ASC, id ASC") }).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&inv, id).Error
	if err != nil {
		return nil, notFound("investment", err)
	}
	return &inv, nil
}

// GetForUser returns an investment owned by userID
func (s *InvestmentService) GetForUser(ctx context.Context, userID, id uint) (*models.Investment, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, forbiddenf("investment belongs to another user")
	}
	return inv, nil
}

// InvestmentFilter narrows List
type InvestmentFilter struct {
	UserID *uint
	Status models.InvestmentStatus
	Limit  int
	Offset int
}

// List returns investments newest first
func (s *InvestmentService) List(ctx context.Context, f InvestmentFilter) ([]models.Investment, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Investment{})
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count investments: %w", err)
	}

	var investments []models.Investment
	err := query.Preload("Plan").
		Order("created_at DESC, id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&investments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list investments: %w", err)
	}
	return investments, total, nil
}

// MatureDue values and completes every active investment past its maturity date.
// Returns how many were completed; one failure does not stop the batch.
func (s *InvestmentService) MatureDue(ctx context.Context, batchSize int) (int, error) {
	var due []models.Investment
	err := s.db.WithContext(ctx).
		Where("status = ? AND maturity_date <= ?", models.InvestmentActive, s.now()).
		Order("maturity_date ASC").
		Limit(batchSize).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load matured investments: %w", err)
	}

	completed := 0
	for _, inv := range due {
		value := ProjectedValue(inv.Amount, inv.MonthlyReturnRate, inv.DurationDays)
		if !value.Equal(inv.CurrentValue) {
			if _, err := s.UpdateValue(ctx, inv.ID, value); err != nil {
				zap.L().Error("Failed to value matured investment", zap.Uint("investment_id", inv.ID), zap.Error(err))
				continue
			}
		}
		if _, err := s.Complete(ctx, inv.ID); err != nil {
			zap.L().Error("Failed to complete matured investment", zap.Uint("investment_id", inv.ID), zap.Error(err))
			continue
		}
		completed++
	}
	return completed, nil
}
