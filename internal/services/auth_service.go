package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"investment-platform/internal/auth"
	"investment-platform/internal/models"
	"investment-platform/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	codeAttempts      = 5
)

// AuthService handles registration and login
type AuthService struct {
	db        *gorm.DB
	referrals *ReferralService
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, referrals *ReferralService) *AuthService {
	return &AuthService{db: db, referrals: referrals}
}

// RegisterParams is the sign-up form
type RegisterParams struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
}

// Session is returned by Register and Login
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalidf("invalid email address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return invalidf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// uniqueReferralCode draws codes until one is free
func uniqueReferralCode(tx *gorm.DB) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code")
}

// Register creates an account, links the optional referrer and signs the user in
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*Session, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(p.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referrer *models.User
		if code := strings.TrimSpace(p.ReferralCode); code != "" {
			referrer, err = s.referrals.findByCode(tx, code)
			if err != nil {
				return err
			}
		}

		code, err := uniqueReferralCode(tx)
		if err != nil {
			return err
		}

		user = models.User{
			Name:          name,
			Email:         email,
			PasswordHash:  hash,
			Role:          models.RoleUser,
			Wallet:        models.Wallet{Balance: decimal.Zero},
			TotalInvested: decimal.Zero,
			TotalProfit:   decimal.Zero,
			ReferralCode:  code,
			IsActive:      true,
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictf("email %s is already registered", email)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if referrer != nil {
			if _, err := s.referrals.linkReferee(tx, &user, referrer.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("User registered", zap.Uint("user_id", user.ID), zap.Bool("referred", user.ReferredBy != nil))
	return s.session(&user)
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, forbiddenf("account is deactivated")
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		zap.L().Warn("Failed to record login time", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	return s.session(&user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}
