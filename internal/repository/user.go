// Package repository provides the gorm data access layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for identity data operations.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	ConfirmEmail(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email %s: %w", email, notFound(err))
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id %s: %w", id, notFound(err))
	}
	return &user, nil
}

// CreateWithProfile inserts the identity and its profile atomically. The
// profile is keyed by the new identity's ID.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		profile.ID = user.ID
		if err := models.Prepare(profile); err != nil {
			return err
		}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile for user %s: %w", user.ID, err)
		}
		return nil
	})
}

func (r *userRepository) ConfirmEmail(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email_confirmed_at IS NULL", id).
		Update("email_confirmed_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to confirm email for user %s: %w", id, res.Error)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password for user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update password for user %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// notFound maps gorm's missing-record error onto the shared sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}
