package service

import (
	"context"
	"strings"
	"time"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

const dueDateLayout = "2006-01-02"

const (
	statusMessage   = "must be one of pending, in-progress, completed"
	priorityMessage = "must be one of low, medium, high"
	dueDateMessage  = "must be a date in the form YYYY-MM-DD"
)

// TaskInput represents the data required to create a task. Status and
// priority default to pending/medium when empty.
type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     string // "YYYY-MM-DD", empty for no due date
	CategoryID  *uint
}

// TaskUpdate is a partial update: nil fields are left untouched. An empty
// DueDate clears the date and a zero CategoryID clears the category.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	CategoryID  *uint
}

// TaskService wraps task-related business logic. Every operation takes the
// resolved owner and never trusts ids beyond that scope.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo}
}

func (s *TaskService) Create(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	v := newValidator()

	title := strings.TrimSpace(input.Title)
	v.check(title != "", "title", "must be provided")
	v.check(len(title) <= 200, "title", "must be at most 200 characters")

	status := model.StatusPending
	if input.Status != "" {
		status = model.Status(input.Status)
		v.check(status.Valid(), "status", statusMessage)
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		priority = model.Priority(input.Priority)
		v.check(priority.Valid(), "priority", priorityMessage)
	}

	var dueDate *time.Time
	if input.DueDate != "" {
		d, err := parseDueDate(input.DueDate)
		if err != nil {
			v.check(false, "due_date", dueDateMessage)
		} else {
			dueDate = d
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	task := &model.Task{
		UserID:      user.ID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, user.ID, *input.CategoryID); err != nil {
			return nil, err
		}
		task.CategoryID = input.CategoryID
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

// List returns the user's tasks newest first, narrowed by the filter.
func (s *TaskService) List(ctx context.Context, user *model.User, filter TaskFilter) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(tasks, time.Now()), nil
}

// Update applies the present fields, re-validating each under the same rules
// as Create, and refreshes the updated timestamp.
func (s *TaskService) Update(ctx context.Context, user *model.User, taskID uint, update TaskUpdate) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}

	v := newValidator()
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		v.check(title != "", "title", "must be provided")
		v.check(len(title) <= 200, "title", "must be at most 200 characters")
		task.Title = title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		status := model.Status(*update.Status)
		v.check(status.Valid(), "status", statusMessage)
		task.Status = status
	}
	if update.Priority != nil {
		priority := model.Priority(*update.Priority)
		v.check(priority.Valid(), "priority", priorityMessage)
		task.Priority = priority
	}
	if update.DueDate != nil {
		if *update.DueDate == "" {
			task.DueDate = nil
		} else {
			d, err := parseDueDate(*update.DueDate)
			if err != nil {
				v.check(false, "due_date", dueDateMessage)
			} else {
				task.DueDate = d
			}
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if update.CategoryID != nil {
		if *update.CategoryID == 0 {
			task.CategoryID = nil
		} else {
			if err := s.checkCategory(ctx, user.ID, *update.CategoryID); err != nil {
				return nil, err
			}
			task.CategoryID = update.CategoryID
		}
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the task permanently. A second delete of the same id fails
// with ErrNotFound.
func (s *TaskService) Delete(ctx context.Context, user *model.User, taskID uint) error {
	found, err := s.taskRepo.Delete(ctx, user.ID, taskID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// checkCategory verifies the reference resolves under the caller's ownership.
func (s *TaskService) checkCategory(ctx context.Context, userID, categoryID uint) error {
	category, err := s.categoryRepo.FindByID(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return nil
}

func parseDueDate(raw string) (*time.Time, error) {
	d, err := time.Parse(dueDateLayout, raw)
	if err != nil {
		return nil, err
	}
	d = d.UTC()
	return &d, nil
}
