package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investment-platform/internal/models"
)

func createStaff(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	user := createUser(t, db, "0")
	if err := db.Model(user).Update("role", role).Error; err != nil {
		t.Fatalf("failed to set role: %v", err)
	}
	user.Role = role
	return user
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func TestAdminUpdateUserPolicy(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)
	ctx := context.Background()

	admin := createStaff(t, db, models.RoleAdmin)
	other := createStaff(t, db, models.RoleAdmin)
	super := createStaff(t, db, models.RoleSuperadmin)
	user := createUser(t, db, "0")

	inactive := false
	if _, err := service.UpdateUser(ctx, actorOf(admin), user.ID, AdminUpdateUserParams{IsActive: &inactive}); err != nil {
		t.Fatalf("admin deactivating a user failed: %v", err)
	}
	if reloadUser(t, db, user.ID).IsActive {
		t.Error("expected user to be deactivated")
	}

	tests := []struct {
		name   string
		actor  *models.User
		target uint
		p      AdminUpdateUserParams
		want   error
	}{
		{"admin deactivates admin", admin, other.ID, AdminUpdateUserParams{IsActive: &inactive}, ErrForbidden},
		{"admin promotes user", admin, user.ID, AdminUpdateUserParams{Role: roleRef(models.RoleAdmin)}, ErrForbidden},
		{"self role change", super, super.ID, AdminUpdateUserParams{Role: roleRef(models.RoleUser)}, ErrForbidden},
		{"assign superadmin", super, user.ID, AdminUpdateUserParams{Role: roleRef(models.RoleSuperadmin)}, ErrForbidden},
		{"unknown role", super, user.ID, AdminUpdateUserParams{Role: roleRef("owner")}, ErrInvalidInput},
		{"missing user", super, 9999, AdminUpdateUserParams{IsActive: &inactive}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.UpdateUser(ctx, actorOf(tt.actor), tt.target, tt.p); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	promoted, err := service.UpdateUser(ctx, actorOf(super), other.ID, AdminUpdateUserParams{Role: roleRef(models.RoleUser)})
	if err != nil {
		t.Fatalf("superadmin demoting an admin failed: %v", err)
	}
	if promoted.Role != models.RoleUser {
		t.Errorf("expected role user, got %s", promoted.Role)
	}

	logs, total, err := service.GetLogs(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetLogs failed: %v", err)
	}
	if total != 2 || len(logs) != 2 {
		t.Errorf("expected 2 audit entries for the applied changes, got %d", total)
	}
}

func roleRef(r models.Role) *models.Role {
	return &r
}

func TestAdminGetUserVisibility(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)
	ctx := context.Background()

	admin := createStaff(t, db, models.RoleAdmin)
	super := createStaff(t, db, models.RoleSuperadmin)

	if _, err := service.GetUser(ctx, actorOf(admin), super.ID); err != nil {
		t.Errorf("expected admins to view a superadmin, got %v", err)
	}
	if _, err := service.GetUser(ctx, Actor{ID: 42, Role: models.RoleUser}, admin.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden for a plain user actor, got %v", err)
	}
}

func TestAdjustWallet(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)
	ctx := context.Background()

	admin := createStaff(t, db, models.RoleAdmin)
	super := createStaff(t, db, models.RoleSuperadmin)
	user := createUser(t, db, "100")

	credit, err := service.AdjustWallet(ctx, actorOf(admin), user.ID, decimal.NewFromInt(50), "goodwill")
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if credit.Type != models.TxAdmin || credit.CreatedBy == nil || *credit.CreatedBy != admin.ID {
		t.Errorf("expected an admin transaction created by %d, got %+v", admin.ID, credit)
	}
	assertDecimal(t, "after credit", reloadUser(t, db, user.ID).Wallet.Balance, "150")

	debit, err := service.AdjustWallet(ctx, actorOf(admin), user.ID, decimal.NewFromInt(-30), "")
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if debit.Type != models.TxWithdrawal || !debit.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected a 30 withdrawal, got %s %s", debit.Type, debit.Amount)
	}
	assertDecimal(t, "after debit", reloadUser(t, db, user.ID).Wallet.Balance, "120")

	if _, err := service.AdjustWallet(ctx, actorOf(admin), user.ID, decimal.NewFromInt(-500), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected insufficient funds, got %v", err)
	}
	if _, err := service.AdjustWallet(ctx, actorOf(admin), user.ID, decimal.Zero, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for zero, got %v", err)
	}
	if _, err := service.AdjustWallet(ctx, actorOf(admin), super.ID, decimal.NewFromInt(10), ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden adjusting a superadmin, got %v", err)
	}
	assertDecimal(t, "after rejected moves", reloadUser(t, db, user.ID).Wallet.Balance, "120")

	// only the two applied adjustments leave an audit trail
	var entries []models.AdminLog
	db.Where("action = ?", "ADJUST_WALLET").Order("id ASC").Find(&entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if got := entries[1].Details["transaction_id"]; got != float64(debit.ID) {
		t.Errorf("expected the debit transaction id %d in the audit entry, got %v", debit.ID, got)
	}
}

func TestStatsAndPromoteSuperadmin(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)
	investments, _, _ := newInvestmentStack(db)
	ctx := context.Background()

	user := createUser(t, db, "1000")
	plan := createPlan(t, db, "100", 30, "1")
	if _, err := investments.Create(ctx, user.ID, plan.ID, decimal.NewFromInt(400)); err != nil {
		t.Fatalf("Create investment failed: %v", err)
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalUsers != 1 || stats.ActiveInvestments != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	assertDecimal(t, "assets under management", stats.AssetsUnderMgmt, "400")
	assertDecimal(t, "wallet total", stats.TotalWalletBalance, "600")

	if err := service.PromoteSuperadmin(ctx, "  "+user.Email+" "); err != nil {
		t.Fatalf("PromoteSuperadmin failed: %v", err)
	}
	if got := reloadUser(t, db, user.ID); got.Role != models.RoleSuperadmin {
		t.Errorf("expected superadmin, got %s", got.Role)
	}
	if err := service.PromoteSuperadmin(ctx, "absent@example.com"); err != nil {
		t.Errorf("expected a missing account to be ignored, got %v", err)
	}
}

func TestListUsersFilters(t *testing.T) {
	db := setupTestDB(t)
	service := NewAdminService(db)
	ctx := context.Background()

	createUser(t, db, "0")
	createStaff(t, db, models.RoleAdmin)
	target := createUser(t, db, "0")

	users, total, err := service.ListUsers(ctx, UserFilter{Role: models.RoleUser, Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("expected 2 plain users, got %d", total)
	}

	users, total, err = service.ListUsers(ctx, UserFilter{Search: target.Email, Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if total != 1 || users[0].ID != target.ID {
		t.Errorf("expected search to find user %d, got %d results", target.ID, total)
	}
}
