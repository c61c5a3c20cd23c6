package service

import (
	"context"
	"strings"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// defaultCategoryColor is used when a category is created without a color.
const defaultCategoryColor = "#6c757d"

// DefaultCategories returns the four starter categories provisioned for
// every new account. Colors match the dashboard palette.
func DefaultCategories() []model.Category {
	return []model.Category{
		{Name: "Work", Color: "#0d6efd"},
		{Name: "Personal", Color: "#198754"},
		{Name: "Shopping", Color: "#ffc107"},
		{Name: "Health", Color: "#dc3545"},
	}
}

// CategoryService owns the category lifecycle.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, user *model.User) ([]model.Category, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

func (s *CategoryService) Create(ctx context.Context, user *model.User, name, color string) (*model.Category, error) {
	v := newValidator()
	name = strings.TrimSpace(name)
	v.check(name != "", "name", "must be provided")
	if err := v.err(); err != nil {
		return nil, err
	}
	if color == "" {
		color = defaultCategoryColor
	}

	category := &model.Category{UserID: user.ID, Name: name, Color: color}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes the category and detaches any tasks referencing it in one
// atomic step. The tasks themselves survive with no category.
func (s *CategoryService) Delete(ctx context.Context, user *model.User, categoryID uint) error {
	found, err := s.repo.DeleteAndDetachTasks(ctx, user.ID, categoryID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
