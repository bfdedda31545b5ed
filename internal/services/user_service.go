package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investment-platform/internal/auth"
	"investment-platform/internal/models"

	"gorm.io/gorm"
)

// UserService handles self-service account operations
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound("user", err)
	}
	return &user, nil
}

// ActiveRole satisfies auth.ActiveChecker. Unknown users are reported inactive.
func (s *UserService) ActiveRole(ctx context.Context, userID uint) (models.Role, bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "role", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return user.Role, user.IsActive, nil
}

// IsActive reports whether the user exists and is not deactivated
func (s *UserService) IsActive(ctx context.Context, userID uint) (bool, error) {
	_, active, err := s.ActiveRole(ctx, userID)
	return active, err
}

// UpdateProfileParams holds the fields a user may change on themselves
type UpdateProfileParams struct {
	Name  *string
	Email *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, p UpdateProfileParams) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalidf("name must not be empty")
		}
		updates["name"] = name
		user.Name = name
	}
	if p.Email != nil {
		email, err := normalizeEmail(*p.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
		user.Email = email
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictf("email %s is already registered", user.Email)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return invalidf("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error
}
