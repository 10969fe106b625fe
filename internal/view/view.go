// Package view derives the lists shown to the user from the task
// collection. Functions here are pure; they never touch the stores.
package view

import (
	"slices"
	"strings"
	"time"

	"github.com/nhle/taskkeeper/internal/model"
)

// Table status filter values.
const (
	StatusAll       = "all"
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// Home filters tasks by query (title or description) and optionally by
// category, then orders them: open before completed, dated before
// undated with the earliest due first, then high before low priority.
// A nil categoryID disables the category filter.
func Home(tasks []model.Task, query string, categoryID *string) []model.Task {
	term := strings.ToLower(strings.TrimSpace(query))

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			continue
		}
		if categoryID != nil && !t.HasCategory(categoryID) {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, compareHome)
	return out
}

func compareHome(a, b model.Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}

	return a.Priority.Rank() - b.Priority.Rank()
}

// OnDay returns the tasks due on the calendar day of day, evaluated in
// day's location.
func OnDay(tasks []model.Task, day time.Time) []model.Task {
	loc := day.Location()
	y, m, d := day.Date()

	var out []model.Task
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		ty, tm, td := t.DueDate.In(loc).Date()
		if ty == y && tm == m && td == d {
			out = append(out, t)
		}
	}
	return out
}

// TableFilter narrows the task table. Empty fields match everything.
type TableFilter struct {
	// Priority matches case-insensitively; "" or "all" disables it.
	Priority string

	// Status is one of StatusAll, StatusCompleted or StatusPending.
	Status string

	// Search is matched against titles only.
	Search string
}

// Table applies f, keeping the input order.
func Table(tasks []model.Task, f TableFilter) []model.Task {
	term := strings.ToLower(f.Search)
	priority := strings.ToLower(f.Priority)
	status := strings.ToLower(f.Status)

	var out []model.Task
	for _, t := range tasks {
		if term != "" && !strings.Contains(strings.ToLower(t.Title), term) {
			continue
		}
		if priority != "" && priority != StatusAll && string(t.Priority) != priority {
			continue
		}
		switch status {
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		case StatusPending:
			if t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// CategoryCounts returns the number of tasks per category id.
// Uncategorized tasks are not counted.
func CategoryCounts(tasks []model.Task) map[string]int {
	counts := make(map[string]int)
	for _, t := range tasks {
		if t.CategoryID != nil {
			counts[*t.CategoryID]++
		}
	}
	return counts
}

// Overdue returns the open tasks whose due date is before now.
func Overdue(tasks []model.Task, now time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out
}
