package service

import (
	"testing"
	"time"

	"tasktracker/internal/model"
)

var statsNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func TestAggregate_EmptySet(t *testing.T) {
	summary := Aggregate(nil, nil, statsNow)
	if summary.TotalTasks != 0 {
		t.Errorf("total = %d, want 0", summary.TotalTasks)
	}
	// Zero total means rate 0, not a division error.
	if summary.CompletionRate != 0 {
		t.Errorf("completion rate = %v, want 0", summary.CompletionRate)
	}
	if summary.TasksByCategory == nil || len(summary.TasksByCategory) != 0 {
		t.Errorf("category breakdown = %v, want empty", summary.TasksByCategory)
	}
}

func TestAggregate_CompletionRate(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		completed int
		want      float64
	}{
		{"7 of 10", 10, 7, 70.0},
		{"1 of 3", 3, 1, 33.3},
		{"2 of 3", 3, 2, 66.7},
		{"all done", 4, 4, 100.0},
		{"none done", 4, 0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tasks []model.Task
			for i := 0; i < tt.total; i++ {
				status := model.StatusPending
				if i < tt.completed {
					status = model.StatusCompleted
				}
				tasks = append(tasks, model.Task{ID: uint(i + 1), Status: status})
			}
			summary := Aggregate(tasks, nil, statsNow)
			if summary.CompletionRate != tt.want {
				t.Errorf("completion rate = %v, want %v", summary.CompletionRate, tt.want)
			}
		})
	}
}

func TestAggregate_DashboardScenario(t *testing.T) {
	pastDue := statsNow.AddDate(0, 0, -3)
	tasks := []model.Task{
		{ID: 1, Status: model.StatusCompleted},
		{ID: 2, Status: model.StatusCompleted},
		{ID: 3, Status: model.StatusPending},
		{ID: 4, Status: model.StatusInProgress},
		{ID: 5, Status: model.StatusPending, Priority: model.PriorityHigh, DueDate: timePtr(pastDue)},
	}
	summary := Aggregate(tasks, nil, statsNow)

	if summary.TotalTasks != 5 {
		t.Errorf("total = %d, want 5", summary.TotalTasks)
	}
	if summary.Completed != 2 {
		t.Errorf("completed = %d, want 2", summary.Completed)
	}
	if summary.Pending != 2 {
		t.Errorf("pending = %d, want 2", summary.Pending)
	}
	if summary.InProgress != 1 {
		t.Errorf("in progress = %d, want 1", summary.InProgress)
	}
	if summary.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", summary.Overdue)
	}
	if summary.HighPriority != 1 {
		t.Errorf("high priority = %d, want 1", summary.HighPriority)
	}
	if summary.CompletionRate != 40.0 {
		t.Errorf("completion rate = %v, want 40.0", summary.CompletionRate)
	}
}

func TestAggregate_CompletedNeverCountsAsAttention(t *testing.T) {
	pastDue := statsNow.AddDate(0, 0, -5)
	tasks := []model.Task{
		// Finished high-priority task with a past due date: neither overdue
		// nor high-priority in the summary.
		{ID: 1, Status: model.StatusCompleted, Priority: model.PriorityHigh, DueDate: timePtr(pastDue)},
	}
	summary := Aggregate(tasks, nil, statsNow)
	if summary.Overdue != 0 {
		t.Errorf("overdue = %d, want 0", summary.Overdue)
	}
	if summary.HighPriority != 0 {
		t.Errorf("high priority = %d, want 0", summary.HighPriority)
	}
	// The filter must agree with the aggregate.
	if got := (TaskFilter{Overdue: true}).Apply(tasks, statsNow); len(got) != 0 {
		t.Errorf("overdue filter matched %d tasks, want 0", len(got))
	}
}

func TestAggregate_CategoryBreakdown(t *testing.T) {
	categories := []model.Category{
		{ID: 1, Name: "Work", Color: "#0d6efd"},
		{ID: 2, Name: "Personal", Color: "#198754"},
		{ID: 3, Name: "Shopping", Color: "#ffc107"},
	}
	tasks := []model.Task{
		{ID: 1, Status: model.StatusPending, CategoryID: uintPtr(1)},
		{ID: 2, Status: model.StatusCompleted, CategoryID: uintPtr(1)},
		{ID: 3, Status: model.StatusPending, CategoryID: uintPtr(2)},
		{ID: 4, Status: model.StatusPending}, // uncategorized, excluded
	}
	summary := Aggregate(tasks, categories, statsNow)

	want := []CategoryCount{
		{Name: "Work", Count: 2, Color: "#0d6efd"},
		{Name: "Personal", Count: 1, Color: "#198754"},
	}
	if len(summary.TasksByCategory) != len(want) {
		t.Fatalf("breakdown has %d entries, want %d: %v", len(summary.TasksByCategory), len(want), summary.TasksByCategory)
	}
	for i, entry := range want {
		if summary.TasksByCategory[i] != entry {
			t.Errorf("breakdown[%d] = %+v, want %+v", i, summary.TasksByCategory[i], entry)
		}
	}
}
