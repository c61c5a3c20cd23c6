package service

import (
	"context"
	"math"
	"time"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// CategoryCount is one entry of the dashboard's per-category breakdown.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// Summary is the dashboard payload.
type Summary struct {
	TotalTasks      int             `json:"total_tasks"`
	Completed       int             `json:"completed"`
	Pending         int             `json:"pending"`
	InProgress      int             `json:"in_progress"`
	Overdue         int             `json:"overdue"`
	HighPriority    int             `json:"high_priority"`
	CompletionRate  float64         `json:"completion_rate"`
	TasksByCategory []CategoryCount `json:"tasks_by_category"`
}

// Aggregate computes dashboard metrics from a user's current task set. It is
// pure over its inputs, so every create, complete or delete shows up in the
// very next call. Overdue uses the same predicate as TaskFilter, and
// high-priority excludes completed tasks for the same reason: a finished task
// needs no attention. The category breakdown skips empty categories and
// uncategorized tasks.
func Aggregate(tasks []model.Task, categories []model.Category, now time.Time) Summary {
	summary := Summary{
		TotalTasks:      len(tasks),
		TasksByCategory: []CategoryCount{},
	}

	perCategory := make(map[uint]int)
	for _, task := range tasks {
		switch task.Status {
		case model.StatusCompleted:
			summary.Completed++
		case model.StatusPending:
			summary.Pending++
		case model.StatusInProgress:
			summary.InProgress++
		}
		if task.Overdue(now) {
			summary.Overdue++
		}
		if task.Priority == model.PriorityHigh && task.Status != model.StatusCompleted {
			summary.HighPriority++
		}
		if task.CategoryID != nil {
			perCategory[*task.CategoryID]++
		}
	}

	// Rate is 0 for an empty set, not an error; otherwise rounded to one
	// decimal place.
	if summary.TotalTasks > 0 {
		summary.CompletionRate = math.Round(float64(summary.Completed)/float64(summary.TotalTasks)*1000) / 10
	}

	for _, category := range categories {
		if n := perCategory[category.ID]; n > 0 {
			summary.TasksByCategory = append(summary.TasksByCategory, CategoryCount{
				Name:  category.Name,
				Count: n,
				Color: category.Color,
			})
		}
	}
	return summary
}

// StatsService serves the dashboard from a fresh owner-scoped fetch; there
// are no cached counters anywhere.
type StatsService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
}

func NewStatsService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository) *StatsService {
	return &StatsService{taskRepo: taskRepo, categoryRepo: categoryRepo}
}

func (s *StatsService) Dashboard(ctx context.Context, user *model.User) (Summary, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return Summary{}, err
	}
	categories, err := s.categoryRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return Summary{}, err
	}
	return Aggregate(tasks, categories, time.Now()), nil
}
