package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investment-platform/internal/models"
	"investment-platform/internal/repository"
	"investment-platform/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// walletEffect is +1 for credit types, -1 for debits and 0 for types settled elsewhere
func walletEffect(t models.TransactionType) int {
	switch t {
	case models.TxDeposit, models.TxProfit, models.TxReferral, models.TxBonus, models.TxAdmin:
		return 1
	case models.TxWithdrawal:
		return -1
	}
	return 0
}

// applyEffect moves the wallet for txn; reverse undoes a previously applied effect
func applyEffect(ledger *repository.Ledger, user *models.User, txn *models.Transaction, reverse bool) error {
	sign := walletEffect(txn.Type)
	if reverse {
		sign = -sign
	}

	var (
		balance decimal.Decimal
		err     error
	)
	switch sign {
	case 1:
		balance, err = ledger.CreditWallet(user, txn.Amount)
	case -1:
		balance, err = ledger.DebitWallet(user, txn.Amount)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	txn.BalanceAfter = &balance
	txn.ProcessedAt = &now
	return nil
}

// insertTransaction stores txn as-is, generating a reference if needed
func insertTransaction(tx *gorm.DB, txn *models.Transaction) error {
	if txn.Reference == "" {
		txn.Reference = utils.NewReference("TXN")
	}
	if err := tx.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflictf("transaction reference %s already exists", txn.Reference)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// recordTransaction applies the wallet effect of a completed txn and stores it.
// user must already be locked in tx.
func recordTransaction(tx *gorm.DB, ledger *repository.Ledger, user *models.User, txn *models.Transaction) error {
	if txn.Status == models.TxCompleted {
		if err := applyEffect(ledger, user, txn, false); err != nil {
			return err
		}
	}
	return insertTransaction(tx, txn)
}

type TransactionService struct {
	db                   *gorm.DB
	autoCompleteDeposits bool
}

func NewTransactionService(db *gorm.DB, autoCompleteDeposits bool) *TransactionService {
	return &TransactionService{
		db:                   db,
		autoCompleteDeposits: autoCompleteDeposits,
	}
}

// CreateTransactionParams describes a manually created ledger entry
type CreateTransactionParams struct {
	UserID      uint
	Type        models.TransactionType
	Amount      decimal.Decimal
	Status      models.TransactionStatus
	Reference   string
	Description string
	CreatedBy   *uint
}

func (p *CreateTransactionParams) validate() error {
	if p.UserID == 0 {
		return invalidf("user_id is required")
	}
	if !p.Type.Valid() {
		return invalidf("invalid transaction type %q", p.Type)
	}
	if !p.Amount.IsPositive() {
		return invalidf("amount must be greater than zero")
	}
	if p.Status == "" {
		p.Status = models.TxPending
	}
	if !p.Status.Valid() {
		return invalidf("invalid transaction status %q", p.Status)
	}
	return nil
}

// Create stores a transaction; a completed one moves the wallet immediately
func (s *TransactionService) Create(ctx context.Context, p CreateTransactionParams) (*models.Transaction, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		UserID:      p.UserID,
		Type:        p.Type,
		Amount:      p.Amount,
		Status:      p.Status,
		Reference:   p.Reference,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(p.UserID)
		if err != nil {
			return notFound("user", err)
		}
		return recordTransaction(tx, ledger, user, txn)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction created",
		zap.Uint("transaction_id", txn.ID),
		zap.Uint("user_id", txn.UserID),
		zap.String("type", string(txn.Type)),
		zap.String("status", string(txn.Status)),
		zap.String("amount", txn.Amount.String()),
	)
	return txn, nil
}

// RequestDeposit records a simulated deposit; completed right away when auto-complete is on
func (s *TransactionService) RequestDeposit(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	status := models.TxPending
	if s.autoCompleteDeposits {
		status = models.TxCompleted
	}
	if description == "" {
		description = "Wallet deposit"
	}

	return s.Create(ctx, CreateTransactionParams{
		UserID:      userID,
		Type:        models.TxDeposit,
		Amount:      amount,
		Status:      status,
		Description: description,
	})
}

// RequestWithdrawal records a pending withdrawal. The wallet must cover it
// together with every other pending withdrawal.
func (s *TransactionService) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, invalidf("amount must be greater than zero")
	}
	if description == "" {
		description = "Wallet withdrawal"
	}

	txn := &models.Transaction{
		UserID:      userID,
		Type:        models.TxWithdrawal,
		Amount:      amount,
		Status:      models.TxPending,
		Description: description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := repository.NewLedger(tx).LockUser(userID)
		if err != nil {
			return notFound("user", err)
		}

		var pending decimal.Decimal
		err = tx.Model(&models.Transaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ? AND type = ? AND status = ?", userID, models.TxWithdrawal, models.TxPending).
			Row().Scan(&pending)
		if err != nil {
			return fmt.Errorf("failed to sum pending withdrawals: %w", err)
		}

		available := user.Wallet.Balance.Sub(pending)
		if available.LessThan(amount) {
			return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientFunds,
				available.StringFixed(2), amount.StringFixed(2))
		}

		return insertTransaction(tx, txn)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal requested",
		zap.Uint("transaction_id", txn.ID),
		zap.Uint("user_id", userID),
		zap.String("amount", amount.String()),
	)
	return txn, nil
}

// UpdateStatus moves a transaction to status. Entering completed applies the
// wallet effect; leaving completed reverses it and fails if that would overdraw.
func (s *TransactionService) UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) (*models.Transaction, error) {
	if !status.Valid() {
		return nil, invalidf("invalid transaction status %q", status)
	}

	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, id).Error; err != nil {
			return notFound("transaction", err)
		}
		if txn.InvestmentID != nil {
			return invalidf("transactions linked to an investment are settled by the investment lifecycle")
		}
		if txn.Status == status {
			return nil
		}

		ledger := repository.NewLedger(tx)
		user, err := ledger.LockUser(txn.UserID)
		if err != nil {
			return notFound("user", err)
		}

		from := txn.Status
		switch {
		case from != models.TxCompleted && status == models.TxCompleted:
			if err := applyEffect(ledger, user, &txn, false); err != nil {
				return err
			}
		case from == models.TxCompleted && status != models.TxCompleted:
			if err := applyEffect(ledger, user, &txn, true); err != nil {
				if errors.Is(err, ErrInsufficientFunds) {
					return fmt.Errorf("%w: reversal would make the wallet balance negative", ErrInsufficientFunds)
				}
				return err
			}
		}

		txn.Status = status
		return tx.Model(&txn).Select("status", "balance_after", "processed_at", "updated_at").Updates(&txn).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction status updated",
		zap.Uint("transaction_id", txn.ID),
		zap.String("status", string(status)),
	)
	return &txn, nil
}

// CancelPending lets a user withdraw their own pending request
func (s *TransactionService) CancelPending(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	txn, err := s.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.TxPending {
		return nil, statef("only pending transactions can be cancelled")
	}
	if txn.Type != models.TxDeposit && txn.Type != models.TxWithdrawal {
		return nil, forbiddenf("only deposit and withdrawal requests can be cancelled")
	}
	return s.UpdateStatus(ctx, id, models.TxCancelled)
}

// Get returns a transaction by id
func (s *TransactionService) Get(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		return nil, notFound("transaction", err)
	}
	return &txn, nil
}

// GetForUser returns a transaction owned by userID
func (s *TransactionService) GetForUser(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, forbiddenf("transaction belongs to another user")
	}
	return txn, nil
}

// TransactionFilter narrows List
type TransactionFilter struct {
	UserID *uint
	Type   models.TransactionType
	Status models.TransactionStatus
	Limit  int
	Offset int
}

// List returns transactions newest first with the total count before paging
func (s *TransactionService) List(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txns []models.Transaction
	err := query.Order("created_at DESC, id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, total, nil
}

// TransactionSummary totals completed amounts per type
type TransactionSummary struct {
	Type  models.TransactionType `json:"type"`
	Count int64                  `json:"count"`
	Total decimal.Decimal        `json:"total"`
}

// Summary aggregates completed transactions, optionally for one user
func (s *TransactionService) Summary(ctx context.Context, userID *uint) ([]TransactionSummary, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("type, COUNT(*) AS count, SUM(amount) AS total").
		Where("status = ?", models.TxCompleted)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var rows []TransactionSummary
	if err := query.Group("type").Order("type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	return rows, nil
}
