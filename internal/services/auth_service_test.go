package services

import (
	"context"
	"errors"
	"testing"

	"investment-platform/internal/auth"
	"investment-platform/internal/models"
)

func newAuthService(t *testing.T) (*AuthService, *UserService, *ReferralService) {
	t.Helper()
	db := setupTestDB(t)
	_, referrals, _ := newInvestmentStack(db)
	return NewAuthService(db, referrals), NewUserService(db), referrals
}

func TestRegisterAndLogin(t *testing.T) {
	service, _, _ := newAuthService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, RegisterParams{
		Name:     "Ada Investor",
		Email:    "  Ada@Example.com ",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if session.User.Email != "ada@example.com" {
		t.Errorf("expected normalized email, got %s", session.User.Email)
	}
	if session.User.Role != models.RoleUser || !session.User.IsActive {
		t.Errorf("expected an active user, got %s/%v", session.User.Role, session.User.IsActive)
	}
	if len(session.User.ReferralCode) != 8 {
		t.Errorf("expected an 8-character referral code, got %q", session.User.ReferralCode)
	}
	if session.User.PasswordHash == "correct-horse" {
		t.Error("password stored in clear text")
	}

	claims, err := auth.ValidateToken(session.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != session.User.ID || claims.Role != models.RoleUser {
		t.Errorf("unexpected claims %+v", claims)
	}

	login, err := service.Login(ctx, "ADA@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.LastLoginAt == nil {
		t.Error("expected last login to be recorded")
	}

	if _, err := service.Login(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected unauthorized for a bad password, got %v", err)
	}
	if _, err := service.Login(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected unauthorized for an unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, RegisterParams{Name: "First", Email: "dup@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name string
		p    RegisterParams
		want error
	}{
		{"missing name", RegisterParams{Email: "a@example.com", Password: "password1"}, ErrInvalidInput},
		{"bad email", RegisterParams{Name: "A", Email: "not-an-email", Password: "password1"}, ErrInvalidInput},
		{"short password", RegisterParams{Name: "A", Email: "a@example.com", Password: "short"}, ErrInvalidInput},
		{"duplicate email", RegisterParams{Name: "A", Email: "DUP@example.com", Password: "password1"}, ErrConflict},
		{"unknown referral code", RegisterParams{Name: "A", Email: "b@example.com", Password: "password1", ReferralCode: "nope"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Register(ctx, tt.p); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterWithReferralCode(t *testing.T) {
	service, _, referrals := newAuthService(t)
	ctx := context.Background()

	referrer, err := service.Register(ctx, RegisterParams{Name: "Referrer", Email: "ref@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register referrer failed: %v", err)
	}

	referee, err := service.Register(ctx, RegisterParams{
		Name:         "Referee",
		Email:        "new@example.com",
		Password:     "password1",
		ReferralCode: referrer.User.ReferralCode,
	})
	if err != nil {
		t.Fatalf("Register referee failed: %v", err)
	}
	if referee.User.ReferredBy == nil || *referee.User.ReferredBy != referrer.User.ID {
		t.Errorf("expected referee to point at %d", referrer.User.ID)
	}

	list, err := referrals.ListByReferrer(ctx, referrer.User.ID)
	if err != nil {
		t.Fatalf("ListByReferrer failed: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.ReferralPending {
		t.Errorf("expected one pending referral, got %+v", list)
	}
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	service, users, _ := newAuthService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, RegisterParams{Name: "Gone", Email: "gone@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := users.db.Model(&models.User{}).Where("id = ?", session.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	if _, err := service.Login(ctx, "gone@example.com", "password1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	active, err := users.IsActive(ctx, session.User.ID)
	if err != nil || active {
		t.Errorf("expected inactive, got %v, %v", active, err)
	}
	if active, _ := users.IsActive(ctx, 9999); active {
		t.Error("expected a missing user to be inactive")
	}
}

func TestChangePassword(t *testing.T) {
	service, users, _ := newAuthService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, RegisterParams{Name: "Pat", Email: "pat@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	id := session.User.ID

	if err := users.ChangePassword(ctx, id, "wrong", "password2"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for a wrong current password, got %v", err)
	}
	if err := users.ChangePassword(ctx, id, "password1", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if err := users.ChangePassword(ctx, id, "password1", "password2"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := service.Login(ctx, "pat@example.com", "password1"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected the old password to stop working, got %v", err)
	}
	if _, err := service.Login(ctx, "pat@example.com", "password2"); err != nil {
		t.Errorf("expected the new password to work, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	service, users, _ := newAuthService(t)
	ctx := context.Background()

	first, err := service.Register(ctx, RegisterParams{Name: "One", Email: "one@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := service.Register(ctx, RegisterParams{Name: "Two", Email: "two@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	name := " Renamed "
	user, err := users.UpdateProfile(ctx, first.User.ID, UpdateProfileParams{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Name != "Renamed" {
		t.Errorf("expected trimmed name, got %q", user.Name)
	}

	taken := "two@example.com"
	if _, err := users.UpdateProfile(ctx, first.User.ID, UpdateProfileParams{Email: &taken}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict for a taken email, got %v", err)
	}

	blank := ""
	if _, err := users.UpdateProfile(ctx, first.User.ID, UpdateProfileParams{Name: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input for a blank name, got %v", err)
	}
}
