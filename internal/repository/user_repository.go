package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// UserRepository handles persistence for user accounts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithCategories inserts the user and their starter categories in a
// single transaction, so a failure partway leaves neither behind.
func (r *UserRepository) CreateWithCategories(ctx context.Context, user *model.User, categories []model.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		for i := range categories {
			categories[i].UserID = user.ID
		}
		if len(categories) > 0 {
			if err := tx.Create(&categories).Error; err != nil {
				return fmt.Errorf("create default categories: %w", err)
			}
		}
		return nil
	})
}

// FindByUsername returns (nil, nil) when no such user exists.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find user by username: %w", err)
	}
}

// FindByEmail returns (nil, nil) when no such user exists.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find user by email: %w", err)
	}
}

// FindByID returns (nil, nil) when no such user exists.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}
