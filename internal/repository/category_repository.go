package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID returns (nil, nil) when the category does not exist or belongs to
// another user.
func (r *CategoryRepository) FindByID(ctx context.Context, userID, id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&category).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
}

// DeleteAndDetachTasks removes the category and clears the reference on every
// task that used it, in one transaction. Referencing tasks survive; there is
// no window where a task points at a deleted category. The bool reports
// whether the category existed under this owner.
func (r *CategoryRepository) DeleteAndDetachTasks(ctx context.Context, userID, id uint) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Category{})
		if res.Error != nil {
			return fmt.Errorf("delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		if err := tx.Model(&model.Task{}).
			Where("user_id = ? AND category_id = ?", userID, id).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("detach tasks: %w", err)
		}
		return nil
	})
	return found, err
}
