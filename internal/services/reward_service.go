package services

import (
	"context"
	"fmt"

	"investment-platform/internal/models"
	"investment-platform/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Point reasons recorded in the points history
const (
	PointsReasonInvestment = "investment"
	PointsReasonProfit     = "profit"
	PointsReasonReferrer   = "referral_referrer"
	PointsReasonReferee    = "referral_referee"
	PointsReasonRedemption = "redemption"
	PointsReasonAdmin      = "admin_adjustment"
)

var (
	investmentPointsDivisor = decimal.NewFromInt(10)
	profitPointsDivisor     = decimal.NewFromInt(5)
)

// PointsForInvestment is 1 point per full 10 invested
func PointsForInvestment(amount decimal.Decimal) int64 {
	return amount.Div(investmentPointsDivisor).Floor().IntPart()
}

// PointsForProfit is 1 point per full 5 of profit
func PointsForProfit(profit decimal.Decimal) int64 {
	if !profit.IsPositive() {
		return 0
	}
	return profit.Div(profitPointsDivisor).Floor().IntPart()
}

// RedeemableItem is an entry of the rewards catalog
type RedeemableItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Cost        int64           `json:"cost"`
	CashValue   decimal.Decimal `json:"cash_value"`
}

// RewardCatalog lists what points can be exchanged for
var RewardCatalog = []RedeemableItem{
	{ID: "wallet-credit-10", Name: "$10 wallet credit", Description: "Credited to your wallet as a bonus", Cost: 1000, CashValue: decimal.NewFromInt(10)},
	{ID: "wallet-credit-50", Name: "$50 wallet credit", Description: "Credited to your wallet as a bonus", Cost: 4500, CashValue: decimal.NewFromInt(50)},
	{ID: "fee-waiver", Name: "Withdrawal fee waiver", Description: "One crypto withdrawal without network fee", Cost: 300, CashValue: decimal.Zero},
	{ID: "premium-report", Name: "Premium market report", Description: "Quarterly portfolio outlook", Cost: 750, CashValue: decimal.Zero},
}

func findCatalogItem(id string) (RedeemableItem, bool) {
	for _, item := range RewardCatalog {
		if item.ID == id {
			return item, true
		}
	}
	return RedeemableItem{}, false
}

type RewardService struct {
	db *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{db: db}
}

// lockReward returns the user's reward row locked for update, creating it if missing
func (s *RewardService) lockReward(tx *gorm.DB, userID uint) (*models.Reward, error) {
	initial := models.Reward{UserID: userID}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&initial).Error
	if err != nil {
		return nil, fmt.Errorf("failed to init reward: %w", err)
	}

	var reward models.Reward
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&reward).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}
	return &reward, nil
}

// awardPointsTx moves points inside an open transaction and appends history.
// Negative points are allowed but never take the balance below zero.
func (s *RewardService) awardPointsTx(tx *gorm.DB, userID uint, points int64, reason, note string) (*models.Reward, error) {
	reward, err := s.lockReward(tx, userID)
	if err != nil {
		return nil, err
	}
	if points == 0 {
		return reward, nil
	}
	if reward.Points+points < 0 {
		return nil, invalidf("insufficient points: have %d, need %d", reward.Points, -points)
	}

	reward.Points += points
	if err := tx.Save(reward).Error; err != nil {
		return nil, fmt.Errorf("failed to save reward: %w", err)
	}

	entry := models.RewardPointsEntry{
		RewardID: reward.ID,
		Points:   points,
		Reason:   reason,
		Note:     note,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record points entry: %w", err)
	}

	return reward, nil
}

// GetByUser returns the user's reward with recent history and redemptions
func (s *RewardService) GetByUser(ctx context.Context, userID uint) (*models.Reward, error) {
	var reward *models.Reward
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.lockReward(tx, userID)
		reward = r
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Preload("PointsHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC").Limit(100)
		}).
		Preload("Redemptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(reward, reward.ID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reward history: %w", err)
	}
	return reward, nil
}

// Redeem exchanges points for a catalog item. Items with a cash value
// credit the wallet through a completed bonus transaction.
func (s *RewardService) Redeem(ctx context.Context, userID uint, itemID string) (*models.RewardRedemption, error) {
	item, ok := findCatalogItem(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: reward item %q not found", ErrNotFound, itemID)
	}

	var redemption models.RewardRedemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(userID)
		if err != nil {
			return notFound("user", err)
		}

		reward, err := s.lockReward(tx, userID)
		if err != nil {
			return err
		}
		if reward.Points < item.Cost {
			return invalidf("insufficient points: have %d, item costs %d", reward.Points, item.Cost)
		}

		if _, err := s.awardPointsTx(tx, userID, -item.Cost, PointsReasonRedemption, item.Name); err != nil {
			return err
		}

		redemption = models.RewardRedemption{
			RewardID:  reward.ID,
			ItemID:    item.ID,
			ItemName:  item.Name,
			Cost:      item.Cost,
			CashValue: item.CashValue,
		}

		if item.CashValue.IsPositive() {
			txn := &models.Transaction{
				UserID:      userID,
				Type:        models.TxBonus,
				Amount:      item.CashValue,
				Status:      models.TxCompleted,
				Description: fmt.Sprintf("Reward redemption: %s", item.Name),
			}
			if err := recordTransaction(tx, ledger, user, txn); err != nil {
				return err
			}
			redemption.TransactionID = &txn.ID
		}

		if err := tx.Create(&redemption).Error; err != nil {
			return fmt.Errorf("failed to record redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Reward redeemed",
		zap.Uint("user_id", userID),
		zap.String("item", item.ID),
		zap.Int64("cost", item.Cost),
	)
	return &redemption, nil
}

// AdjustPoints lets an admin add or remove points
func (s *RewardService) AdjustPoints(ctx context.Context, userID uint, points int64, note string) (*models.Reward, error) {
	if points == 0 {
		return nil, invalidf("points must be non-zero")
	}

	var reward *models.Reward
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewLedger(tx).LockUser(userID); err != nil {
			return notFound("user", err)
		}
		r, err := s.awardPointsTx(tx, userID, points, PointsReasonAdmin, note)
		reward = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// List returns all rewards ordered by points
func (s *RewardService) List(ctx context.Context, limit, offset int) ([]models.Reward, int64, error) {
	var rewards []models.Reward
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Reward{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	err := query.Preload("User").
		Order("points DESC, id ASC").
		Limit(limit).Offset(offset).
		Find(&rewards).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, total, nil
}
