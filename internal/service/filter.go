package service

import (
	"strings"
	"time"

	"tasktracker/internal/model"
)

// TaskFilter narrows a task set. Zero-value fields are inactive; active
// criteria combine with AND, so applying them in any order or in separate
// passes yields the same result.
type TaskFilter struct {
	Status     model.Status
	Priority   model.Priority
	CategoryID *uint
	Search     string
	Overdue    bool
}

// Match reports whether the task satisfies every active criterion.
func (f TaskFilter) Match(task model.Task, now time.Time) bool {
	if f.Status != "" && task.Status != f.Status {
		return false
	}
	if f.Priority != "" && task.Priority != f.Priority {
		return false
	}
	if f.CategoryID != nil {
		// Tasks without a category never match a category filter.
		if task.CategoryID == nil || *task.CategoryID != *f.CategoryID {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			return false
		}
	}
	if f.Overdue && !task.Overdue(now) {
		return false
	}
	return true
}

// Apply returns the matching subset, preserving input order. An all-zero
// filter returns the input unchanged.
func (f TaskFilter) Apply(tasks []model.Task, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Match(task, now) {
			out = append(out, task)
		}
	}
	return out
}
