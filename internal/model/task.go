package model

import "time"

// Status is the lifecycle state of a task. Stored as a plain string, but every
// write validates against the known set; unknown values are rejected rather
// than coerced to the default.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority ranks a task's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single item in the tracker. The owner is fixed at
// creation and never changes; CategoryID may only point at a category of the
// same owner.
type Task struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"index"`
	CategoryID  *uint `gorm:"index"`
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overdue reports whether the task's due date has passed. The comparison is
// date-only in UTC: a task due today is not overdue yet. Completed tasks are
// never overdue. The dashboard's overdue count and the overdue list filter
// both go through here so the two cannot drift apart.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.DueDate.Before(today)
}
