package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investment-platform/internal/auth"
	"investment-platform/internal/models"
	"investment-platform/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor is the admin performing a back-office operation
type Actor struct {
	ID   uint
	Role models.Role
}

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// LogAction writes an audit entry. Failures are logged, not returned.
func (s *AdminService) LogAction(ctx context.Context, adminID uint, action, resourceType string,
	resourceID *uint, details map[string]interface{}) {

	if err := logActionTx(s.db.WithContext(ctx), adminID, action, resourceType, resourceID, details); err != nil {
		zap.L().Error("Failed to write admin log",
			zap.Uint("admin_id", adminID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// logActionTx writes an audit entry on tx, so it commits or rolls back with the mutation
func logActionTx(tx *gorm.DB, adminID uint, action, resourceType string,
	resourceID *uint, details map[string]interface{}) error {

	entry := models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write admin log: %w", err)
	}
	return nil
}

// GetLogs returns audit entries newest first
func (s *AdminService) GetLogs(ctx context.Context, limit, offset int) ([]models.AdminLog, int64, error) {
	var logs []models.AdminLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AdminLog{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count admin logs: %w", err)
	}
	err := query.Preload("Admin").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list admin logs: %w", err)
	}
	return logs, total, nil
}

// PlatformStats is the back-office overview
type PlatformStats struct {
	TotalUsers          int64           `json:"total_users"`
	ActiveUsers         int64           `json:"active_users"`
	ActiveInvestments   int64           `json:"active_investments"`
	AssetsUnderMgmt     decimal.Decimal `json:"assets_under_management"`
	TotalWalletBalance  decimal.Decimal `json:"total_wallet_balance"`
	PendingTransactions int64           `json:"pending_transactions"`
	PendingWithdrawals  int64           `json:"pending_withdrawals"`
	PendingReferrals    int64           `json:"pending_referrals"`
}

var openWithdrawalStatuses = []models.WithdrawalStatus{
	models.WithdrawalPendingReview,
	models.WithdrawalPendingApproval,
	models.WithdrawalApproved,
	models.WithdrawalProcessing,
	models.WithdrawalBroadcasting,
	models.WithdrawalAwaitingConfirmation,
	models.WithdrawalManualIntervention,
}

// Stats computes the back-office overview
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	db := s.db.WithContext(ctx)
	var stats PlatformStats

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	if err := db.Model(&models.Investment{}).Where("status = ?", models.InvestmentActive).Count(&stats.ActiveInvestments).Error; err != nil {
		return nil, fmt.Errorf("failed to count investments: %w", err)
	}
	err := db.Model(&models.Investment{}).
		Select("COALESCE(SUM(current_value), 0)").
		Where("status = ?", models.InvestmentActive).
		Row().Scan(&stats.AssetsUnderMgmt)
	if err != nil {
		return nil, fmt.Errorf("failed to sum investments: %w", err)
	}
	if err := db.Model(&models.User{}).Select("COALESCE(SUM(wallet_balance), 0)").Row().Scan(&stats.TotalWalletBalance); err != nil {
		return nil, fmt.Errorf("failed to sum wallets: %w", err)
	}
	if err := db.Model(&models.Transaction{}).Where("status = ?", models.TxPending).Count(&stats.PendingTransactions).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	if err := db.Model(&models.WithdrawalRequest{}).Where("status IN ?", openWithdrawalStatuses).Count(&stats.PendingWithdrawals).Error; err != nil {
		return nil, fmt.Errorf("failed to count withdrawals: %w", err)
	}
	if err := db.Model(&models.Referral{}).Where("status = ?", models.ReferralPending).Count(&stats.PendingReferrals).Error; err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	return &stats, nil
}

// UserFilter narrows ListUsers
type UserFilter struct {
	Search   string
	Role     models.Role
	IsActive *bool
	Limit    int
	Offset   int
}

// ListUsers returns users matching the filter
func (s *AdminService) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *AdminService) authorize(actor Actor, target *models.User, action auth.Action) error {
	if !auth.Can(actor.Role, target.Role, action) {
		return forbiddenf("%s may not %s on a %s account", actor.Role, action, target.Role)
	}
	return nil
}

// GetUser returns a user the actor is allowed to view
func (s *AdminService) GetUser(ctx context.Context, actor Actor, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Referrer").First(&user, userID).Error; err != nil {
		return nil, notFound("user", err)
	}
	if err := s.authorize(actor, &user, auth.ActionViewUser); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminUpdateUserParams holds the back-office editable fields; nil leaves a field unchanged
type AdminUpdateUserParams struct {
	Name     *string
	Role     *models.Role
	IsActive *bool
}

// UpdateUser applies the changes the policy allows the actor to make
func (s *AdminService) UpdateUser(ctx context.Context, actor Actor, userID uint, p AdminUpdateUserParams) (*models.User, error) {
	if actor.ID == userID && (p.Role != nil || p.IsActive != nil) {
		return nil, forbiddenf("cannot change your own role or status")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := repository.NewLedger(tx).LockUser(userID)
		if err != nil {
			return notFound("user", err)
		}
		user = *locked

		updates := map[string]interface{}{}
		if p.Name != nil {
			if err := s.authorize(actor, &user, auth.ActionUpdateUser); err != nil {
				return err
			}
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return invalidf("name must not be empty")
			}
			updates["name"] = name
		}
		if p.IsActive != nil {
			if err := s.authorize(actor, &user, auth.ActionDeactivateUser); err != nil {
				return err
			}
			updates["is_active"] = *p.IsActive
		}
		if p.Role != nil {
			if !p.Role.Valid() {
				return invalidf("invalid role %q", *p.Role)
			}
			if err := s.authorize(actor, &user, auth.ActionChangeRole); err != nil {
				return err
			}
			if !auth.CanAssignRole(actor.Role, *p.Role) {
				return forbiddenf("%s may not assign the %s role", actor.Role, *p.Role)
			}
			updates["role"] = *p.Role
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		return logActionTx(tx, actor.ID, "UPDATE_USER", "USER", &userID, updates)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AdjustWallet credits (positive amount) or debits (negative amount) a user's wallet
// and records it as a completed transaction created by the actor
func (s *AdminService) AdjustWallet(ctx context.Context, actor Actor, userID uint, amount decimal.Decimal, note string) (*models.Transaction, error) {
	if amount.IsZero() {
		return nil, invalidf("amount must not be zero")
	}
	if strings.TrimSpace(note) == "" {
		note = "Balance adjustment"
	}

	txn := &models.Transaction{
		UserID:      userID,
		Type:        models.TxAdmin,
		Amount:      amount,
		Status:      models.TxCompleted,
		Description: note,
		CreatedBy:   &actor.ID,
	}
	if amount.IsNegative() {
		txn.Type = models.TxWithdrawal
		txn.Amount = amount.Neg()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(userID)
		if err != nil {
			return notFound("user", err)
		}
		if err := s.authorize(actor, user, auth.ActionAdjustWallet); err != nil {
			return err
		}

		if err := recordTransaction(tx, ledger, user, txn); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return fmt.Errorf("%w: wallet balance %s is below %s", ErrInsufficientFunds,
					user.Wallet.Balance.StringFixed(2), txn.Amount.StringFixed(2))
			}
			return err
		}
		return logActionTx(tx, actor.ID, "ADJUST_WALLET", "USER", &userID, map[string]interface{}{
			"amount":         amount.String(),
			"transaction_id": txn.ID,
			"note":           note,
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// PromoteSuperadmin gives the superadmin role to the account with email, if it exists
func (s *AdminService) PromoteSuperadmin(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND role <> ?", email, models.RoleSuperadmin).
		Update("role", models.RoleSuperadmin)
	if result.Error != nil {
		return fmt.Errorf("failed to promote superadmin: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		zap.L().Info("Superadmin bootstrapped", zap.String("email", email))
	}
	return nil
}
